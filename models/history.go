package models

import "github.com/google/uuid"

// HistoryRecord is one saved conversion in a user's history. AudioURL holds
// the last signed URL issued for the stored audio; the storage path is
// recovered from it when the blob has to be deleted or re-signed.
type HistoryRecord struct {
	Base
	UserID      uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	TextContent string    `gorm:"not null" json:"text_content"`
	VoiceID     string    `gorm:"not null" json:"voice_id"`
	AudioURL    *string   `json:"audio_url"`
}

func (HistoryRecord) TableName() string {
	return "tts_history"
}

type AddHistoryReq struct {
	TextContent string  `json:"text_content" binding:"required"`
	VoiceID     string  `json:"voice_id" binding:"required"`
	AudioURL    *string `json:"audio_url"`
}
