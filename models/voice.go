package models

// Voice is one synthesis persona, reshaped for the voice selector. Type and
// Tier are always emitted, even for unranked voices, so the selector's
// filter sees a uniform shape. The LocalService and Default flags are only
// populated by the capture strategy, where voices come from a local engine
// instead of the hosted catalog.
type Voice struct {
	ID                     string `json:"id"`
	Name                   string `json:"name"`
	Lang                   string `json:"lang"`
	SSMLGender             string `json:"ssmlGender,omitempty"`
	NaturalSampleRateHertz int32  `json:"naturalSampleRateHertz,omitempty"`
	Type                   string `json:"type"`
	Tier                   int    `json:"tier"`
	LocalService           bool   `json:"localService,omitempty"`
	Default                bool   `json:"default,omitempty"`
}

// SynthesizeReq mirrors the JSON body of POST /api/tts/synthesize. Required
// fields are checked by hand so the response carries the exact error the
// frontend matches on.
type SynthesizeReq struct {
	Text         string  `json:"text"`
	VoiceID      string  `json:"voiceId"`
	Lang         string  `json:"lang"`
	SpeakingRate float64 `json:"speakingRate"`
	Pitch        float64 `json:"pitch"`
}
