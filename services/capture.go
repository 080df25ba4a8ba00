package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/anthonycoffey/simply-voice/models"
)

// LocalVoice is one voice installed on a local engine.
type LocalVoice struct {
	ID      string
	Name    string
	Lang    string
	Gender  string
	Local   bool
	Default bool
}

// Utterance is one in-flight speech run on an engine. Chunks delivers audio
// as the engine produces it; the engine closes Chunks before signalling
// Done. Done yields exactly one value: nil on natural completion, an error
// otherwise. Stop force-terminates the engine side.
type Utterance interface {
	Chunks() <-chan []byte
	Done() <-chan error
	Stop() error
}

// UtteranceEngine produces ephemeral audio through a local voice engine.
// Implementations own their transport (websocket daemon, exec'd CLI) and
// are released with Close.
type UtteranceEngine interface {
	Voices(ctx context.Context) ([]LocalVoice, error)
	Speak(ctx context.Context, text, voiceID string) (Utterance, error)
	Close() error
}

// EngineError carries the engine's own error code through to the caller.
type EngineError struct {
	Code    string
	Message string
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("speech synthesis error (%s): %s", e.Code, e.Message)
}

var (
	// ErrCaptureBusy rejects a capture started while another is active.
	ErrCaptureBusy = errors.New("capture already in progress")
	// ErrCaptureTimeout is returned when the watchdog fires before the
	// utterance completes.
	ErrCaptureTimeout = errors.New("speech synthesis timed out")
)

const defaultWatchdog = 10 * time.Second

// CaptureService bridges an ephemeral engine utterance into a durable audio
// blob. It implements SpeechService so deployments without a hosted vendor
// swap it in transparently. Only one capture may be in flight at a time;
// concurrent calls are rejected, not queued.
type CaptureService struct {
	engine   UtteranceEngine
	watchdog time.Duration
	mu       sync.Mutex
}

func NewCaptureService(engine UtteranceEngine) *CaptureService {
	return &CaptureService{engine: engine, watchdog: defaultWatchdog}
}

func (s *CaptureService) ListVoices(ctx context.Context) ([]models.Voice, error) {
	voices, err := s.engine.Voices(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerate voices: %w", err)
	}
	out := make([]models.Voice, 0, len(voices))
	for _, v := range voices {
		out = append(out, models.Voice{
			ID:           v.ID,
			Name:         v.Name,
			Lang:         v.Lang,
			SSMLGender:   v.Gender,
			LocalService: v.Local,
			Default:      v.Default,
		})
	}
	return out, nil
}

// Synthesize runs one capture: start the utterance, buffer chunks until the
// engine signals completion, then hand back the concatenated audio. An
// engine error discards the partial buffer; the watchdog force-stops a hung
// utterance.
func (s *CaptureService) Synthesize(ctx context.Context, req SynthesisRequest) (*SynthesisResult, error) {
	if req.Text == "" || req.VoiceID == "" {
		return nil, ErrInvalidRequest
	}

	if !s.mu.TryLock() {
		return nil, ErrCaptureBusy
	}
	defer s.mu.Unlock()

	voices, err := s.engine.Voices(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerate voices: %w", err)
	}
	known := false
	for _, v := range voices {
		if v.ID == req.VoiceID {
			known = true
			break
		}
	}
	if !known {
		return nil, ErrVoiceNotFound
	}

	utt, err := s.engine.Speak(ctx, req.Text, req.VoiceID)
	if err != nil {
		return nil, fmt.Errorf("start utterance: %w", err)
	}

	timer := time.NewTimer(s.watchdog)
	defer timer.Stop()

	var buf bytes.Buffer
	chunks := utt.Chunks()
	for {
		select {
		case chunk, ok := <-chunks:
			if !ok {
				// No more audio; the completion signal decides the outcome.
				chunks = nil
				continue
			}
			buf.Write(chunk)
		case err := <-utt.Done():
			if err != nil {
				return nil, err
			}
			// Drain audio the engine flushed right before completing.
			if chunks != nil {
				for chunk := range chunks {
					buf.Write(chunk)
				}
			}
			return &SynthesisResult{
				Audio:    buf.Bytes(),
				MIMEType: "audio/wav",
				Filename: "speech.wav",
			}, nil
		case <-timer.C:
			_ = utt.Stop()
			return nil, ErrCaptureTimeout
		case <-ctx.Done():
			_ = utt.Stop()
			return nil, ctx.Err()
		}
	}
}
