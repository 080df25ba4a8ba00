package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVoiceJSONKeepsZeroTierAndType(t *testing.T) {
	v := Voice{
		ID:   "en-US-Casual-K",
		Name: "K",
		Lang: "en-US",
		Type: "Casual",
		Tier: 0,
	}

	data, err := json.Marshal(v)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))

	assert.Contains(t, fields, "tier", "unranked voices must still carry a numeric tier")
	assert.Contains(t, fields, "type")
	assert.EqualValues(t, 0, fields["tier"])
	assert.Equal(t, "Casual", fields["type"])
}
