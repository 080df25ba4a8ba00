package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/anthonycoffey/simply-voice/middleware"
	"github.com/anthonycoffey/simply-voice/models"
	"github.com/anthonycoffey/simply-voice/repositories"
	"github.com/anthonycoffey/simply-voice/services"
)

// ObjectStore is the slice of the blob store the history handler needs.
type ObjectStore interface {
	Delete(ownerID uuid.UUID, path string) error
	SignURL(path string) string
}

type HistoryHandler struct {
	repo  repositories.HistoryRepository
	store ObjectStore
}

func NewHistoryHandler(repo repositories.HistoryRepository, store ObjectStore) *HistoryHandler {
	return &HistoryHandler{repo: repo, store: store}
}

func (h *HistoryHandler) List(c *gin.Context) {
	userID := c.MustGet(middleware.CtxUserID).(uuid.UUID)

	records, err := h.repo.ListByUser(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch history"})
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *HistoryHandler) Create(c *gin.Context) {
	userID := c.MustGet(middleware.CtxUserID).(uuid.UUID)

	var req models.AddHistoryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required parameters"})
		return
	}

	rec := models.HistoryRecord{
		UserID:      userID,
		TextContent: req.TextContent,
		VoiceID:     req.VoiceID,
		AudioURL:    req.AudioURL,
	}
	if err := h.repo.Create(&rec); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save history"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

// Delete removes a history record. The stored audio object is deleted
// first, best effort: a blob failure is logged and the record removal
// proceeds regardless, so rows never become undeletable.
func (h *HistoryHandler) Delete(c *gin.Context) {
	userID := c.MustGet(middleware.CtxUserID).(uuid.UUID)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid history id"})
		return
	}

	rec, err := h.repo.FindByID(userID, id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "History item not found"})
		return
	}

	if rec.AudioURL != nil {
		if path, ok := services.ExtractObjectPath(*rec.AudioURL); ok {
			if err := h.store.Delete(userID, path); err != nil {
				log.Printf("blob delete failed for %s: %v", path, err)
			}
		} else {
			log.Printf("could not extract object path from %s", *rec.AudioURL)
		}
	}

	if err := h.repo.Delete(userID, id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete history item"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
