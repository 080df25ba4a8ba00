package repositories

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/anthonycoffey/simply-voice/models"
)

type HistoryRepository interface {
	Create(rec *models.HistoryRecord) error
	ListByUser(userID uuid.UUID) ([]models.HistoryRecord, error)
	FindByID(userID, id uuid.UUID) (*models.HistoryRecord, error)
	Delete(userID, id uuid.UUID) error
	// IsAudioReferenced reports whether any history row still points at the
	// given storage path (the path is embedded in the stored signed URL).
	IsAudioReferenced(path string) (bool, error)
}

type historyRepository struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) HistoryRepository {
	return &historyRepository{db: db}
}

func (r *historyRepository) Create(rec *models.HistoryRecord) error {
	return r.db.Create(rec).Error
}

func (r *historyRepository) ListByUser(userID uuid.UUID) ([]models.HistoryRecord, error) {
	var records []models.HistoryRecord
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&records).Error
	return records, err
}

func (r *historyRepository) FindByID(userID, id uuid.UUID) (*models.HistoryRecord, error) {
	var rec models.HistoryRecord
	if err := r.db.First(&rec, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *historyRepository) Delete(userID, id uuid.UUID) error {
	return r.db.Delete(&models.HistoryRecord{}, "id = ? AND user_id = ?", id, userID).Error
}

func (r *historyRepository) IsAudioReferenced(path string) (bool, error) {
	var count int64
	err := r.db.Model(&models.HistoryRecord{}).
		Where("audio_url LIKE ?", "%"+path+"%").
		Count(&count).Error
	return count > 0, err
}
