package services

import (
	"sort"
	"strings"

	"github.com/anthonycoffey/simply-voice/models"
)

// vendorVoice is the slice of a vendor catalog entry that ranking needs.
type vendorVoice struct {
	Name          string
	LanguageCodes []string
	Gender        string
	SampleRate    int32
}

// tierTable maps vendor name markers to quality tiers, highest first. It is
// evaluated top to bottom and the first match wins, so Chirp3-HD must come
// before Chirp-HD. Tiers are doubled so Studio can sit between Chirp-HD and
// Wavenet without a fractional rank.
var tierTable = []struct {
	marker string
	tier   int
}{
	{"Neural2", 10},
	{"Chirp3-HD", 8},
	{"Chirp-HD", 6},
	{"Studio", 5},
	{"Wavenet", 4},
	{"News", 3},
	{"Standard", 2},
}

// typeMarkers extends the tier markers with families that carry no ranking
// weight but are still worth labelling for the frontend filter.
var typeMarkers = []string{
	"Neural2", "Chirp3-HD", "Chirp-HD", "Studio",
	"Wavenet", "News", "Casual", "Polyglot", "Standard",
}

// maxCatalogSize bounds the voice list handed to the selector.
const maxCatalogSize = 30

func voiceTier(name string) int {
	for _, e := range tierTable {
		if strings.Contains(name, e.marker) {
			return e.tier
		}
	}
	return 0
}

func voiceType(name string) string {
	for _, m := range typeMarkers {
		if strings.Contains(name, m) {
			return m
		}
	}
	return "Other"
}

// displayName derives a short label from the vendor identifier, e.g.
// "en-US-Neural2-A" becomes "A".
func displayName(vendorName string) string {
	parts := strings.Split(vendorName, "-")
	return parts[len(parts)-1]
}

func hasLanguage(v vendorVoice, locale string) bool {
	for _, lc := range v.LanguageCodes {
		if lc == locale {
			return true
		}
	}
	return false
}

// rankVoices filters the vendor catalog to the target locale, orders it by
// quality tier (female voices first within a tier, then by name) and
// truncates it to the top entries.
func rankVoices(catalog []vendorVoice, locale string) []models.Voice {
	var voices []vendorVoice
	for _, v := range catalog {
		if hasLanguage(v, locale) {
			voices = append(voices, v)
		}
	}

	sort.SliceStable(voices, func(i, j int) bool {
		a, b := voices[i], voices[j]
		at, bt := voiceTier(a.Name), voiceTier(b.Name)
		if at != bt {
			return at > bt
		}
		if a.Gender != b.Gender {
			return a.Gender == "FEMALE"
		}
		return a.Name < b.Name
	})

	if len(voices) > maxCatalogSize {
		voices = voices[:maxCatalogSize]
	}

	out := make([]models.Voice, 0, len(voices))
	for _, v := range voices {
		lang := locale
		if len(v.LanguageCodes) > 0 {
			lang = v.LanguageCodes[0]
		}
		out = append(out, models.Voice{
			ID:                     v.Name,
			Name:                   displayName(v.Name),
			Lang:                   lang,
			SSMLGender:             v.Gender,
			NaturalSampleRateHertz: v.SampleRate,
			Type:                   voiceType(v.Name),
			Tier:                   voiceTier(v.Name),
		})
	}
	return out
}
