package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/anthonycoffey/simply-voice/models"
	"github.com/anthonycoffey/simply-voice/services"
)

type TTSHandler struct {
	speech services.SpeechService
}

func NewTTSHandler(speech services.SpeechService) *TTSHandler {
	return &TTSHandler{speech: speech}
}

// GetVoices returns the ranked voice list. A catalog failure is a hard
// error, never a silently degraded empty list.
func (h *TTSHandler) GetVoices(c *gin.Context) {
	voices, err := h.speech.ListVoices(c.Request.Context())
	if err != nil {
		log.Printf("fetching voices failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch voices"})
		return
	}
	c.JSON(http.StatusOK, voices)
}

// Synthesize converts text to speech and streams the WAV back as an
// attachment. Validation happens before anything leaves the process.
func (h *TTSHandler) Synthesize(c *gin.Context) {
	var req models.SynthesizeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required parameters"})
		return
	}
	if req.Text == "" || req.VoiceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required parameters"})
		return
	}

	result, err := h.speech.Synthesize(c.Request.Context(), services.SynthesisRequest{
		Text:         req.Text,
		VoiceID:      req.VoiceID,
		Lang:         req.Lang,
		SpeakingRate: req.SpeakingRate,
		Pitch:        req.Pitch,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidRequest):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required parameters"})
		case errors.Is(err, services.ErrVoiceNotFound):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Selected voice not found"})
		case errors.Is(err, services.ErrCaptureBusy):
			c.JSON(http.StatusConflict, gin.H{"error": "Synthesis already in progress"})
		default:
			log.Printf("synthesis failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to synthesize speech"})
		}
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.MIMEType, result.Audio)
}
