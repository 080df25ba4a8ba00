package services

import (
	"context"
	"errors"

	"github.com/anthonycoffey/simply-voice/models"
)

// SynthesisRequest carries one text-to-speech invocation. Zero SpeakingRate
// and Pitch mean "use the defaults" (1.0 and 0.0).
type SynthesisRequest struct {
	Text         string
	VoiceID      string
	Lang         string
	SpeakingRate float64
	Pitch        float64
}

// SynthesisResult is the raw audio payload of one synthesis call. It lives
// in memory until the caller explicitly persists it through the blob store.
type SynthesisResult struct {
	Audio    []byte
	MIMEType string
	Filename string
}

var (
	// ErrInvalidRequest is returned before any vendor or engine call when
	// text or voice is missing.
	ErrInvalidRequest = errors.New("missing required parameters")
	// ErrVoiceNotFound is returned when the requested voice is not among
	// the currently enumerated voices.
	ErrVoiceNotFound = errors.New("selected voice not found")
)

// SpeechService is implemented by both synthesis strategies (hosted vendor
// and local-engine capture) so the HTTP layer is agnostic to which one
// produced the audio.
type SpeechService interface {
	ListVoices(ctx context.Context) ([]models.Voice, error)
	Synthesize(ctx context.Context, req SynthesisRequest) (*SynthesisResult, error)
}
