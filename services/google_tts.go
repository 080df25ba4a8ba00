package services

import (
	"context"
	"fmt"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"google.golang.org/api/option"

	"github.com/anthonycoffey/simply-voice/config"
	"github.com/anthonycoffey/simply-voice/models"
)

// GoogleSpeechService is the hosted-API synthesis strategy. Voice listing
// and synthesis both go straight to Cloud Text-to-Speech; nothing is cached
// and nothing is retried here.
type GoogleSpeechService struct {
	client *texttospeech.Client
	locale string
}

func NewGoogleSpeechService(ctx context.Context, cfg config.GoogleConfig, locale string) (*GoogleSpeechService, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := texttospeech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create texttospeech client: %w", err)
	}
	if locale == "" {
		locale = "en-US"
	}
	return &GoogleSpeechService{client: client, locale: locale}, nil
}

func (s *GoogleSpeechService) Close() error {
	return s.client.Close()
}

// ListVoices fetches the full vendor catalog and returns the ranked,
// locale-filtered top slice. A vendor failure is surfaced as-is; the caller
// never gets a partial or stale list.
func (s *GoogleSpeechService) ListVoices(ctx context.Context) ([]models.Voice, error) {
	resp, err := s.client.ListVoices(ctx, &texttospeechpb.ListVoicesRequest{})
	if err != nil {
		return nil, fmt.Errorf("list voices: %w", err)
	}

	catalog := make([]vendorVoice, 0, len(resp.Voices))
	for _, v := range resp.Voices {
		catalog = append(catalog, vendorVoice{
			Name:          v.Name,
			LanguageCodes: v.LanguageCodes,
			Gender:        v.SsmlGender.String(),
			SampleRate:    v.NaturalSampleRateHertz,
		})
	}
	return rankVoices(catalog, s.locale), nil
}

// Synthesize requests linear 16-bit PCM and returns the payload untouched,
// tagged as WAV.
func (s *GoogleSpeechService) Synthesize(ctx context.Context, req SynthesisRequest) (*SynthesisResult, error) {
	if req.Text == "" || req.VoiceID == "" {
		return nil, ErrInvalidRequest
	}

	rate := req.SpeakingRate
	if rate == 0 {
		rate = 1.0
	}
	lang := req.Lang
	if lang == "" {
		lang = s.locale
	}

	resp, err := s.client.SynthesizeSpeech(ctx, &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: req.Text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			Name:         req.VoiceID,
			LanguageCode: lang,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding: texttospeechpb.AudioEncoding_LINEAR16,
			SpeakingRate:  rate,
			Pitch:         req.Pitch,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("synthesize speech: %w", err)
	}

	return &SynthesisResult{
		Audio:    resp.AudioContent,
		MIMEType: "audio/wav",
		Filename: "speech.wav",
	}, nil
}
