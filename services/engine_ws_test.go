package services

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anthonycoffey/simply-voice/config"
)

func TestBuildRequestFrameLayout(t *testing.T) {
	engine := NewWSEngine(config.EngineConfig{
		AppID:       "app-1",
		AccessToken: "tok-1",
		ClusterID:   "cluster-1",
	})

	frame, err := engine.buildRequestFrame("read this aloud", "en-US-AriaNeural")
	require.NoError(t, err)
	require.Greater(t, len(frame), 8)

	assert.Equal(t, wsFrameHeader, frame[:4])

	payloadSize := binary.BigEndian.Uint32(frame[4:8])
	payload := frame[8:]
	require.Equal(t, int(payloadSize), len(payload))

	decoded, err := gzipDecompress(payload)
	require.NoError(t, err)

	var req struct {
		App struct {
			AppID   string `json:"appid"`
			Cluster string `json:"cluster"`
		} `json:"app"`
		Audio struct {
			VoiceType string `json:"voice_type"`
			Encoding  string `json:"encoding"`
		} `json:"audio"`
		Request struct {
			ReqID     string `json:"reqid"`
			Text      string `json:"text"`
			Operation string `json:"operation"`
		} `json:"request"`
	}
	require.NoError(t, json.Unmarshal(decoded, &req))

	assert.Equal(t, "app-1", req.App.AppID)
	assert.Equal(t, "cluster-1", req.App.Cluster)
	assert.Equal(t, "en-US-AriaNeural", req.Audio.VoiceType)
	assert.Equal(t, "wav", req.Audio.Encoding)
	assert.Equal(t, "read this aloud", req.Request.Text)
	assert.Equal(t, "query", req.Request.Operation)
	assert.NotEmpty(t, req.Request.ReqID)
}

func TestDecodeEngineErrorRecoversCompressedMessage(t *testing.T) {
	// Engine error payloads carry junk bytes before the gzip stream.
	payload := append([]byte{0x00, 0x01, 0x02}, gzipCompress([]byte("voice unavailable"))...)

	engErr := decodeEngineError(payload, true)
	assert.Equal(t, "engine", engErr.Code)
	assert.Contains(t, engErr.Message, "voice unavailable")
}

func TestDecodeEngineErrorFallsBackToHex(t *testing.T) {
	engErr := decodeEngineError([]byte{0xde, 0xad}, false)
	assert.Equal(t, "engine", engErr.Code)
	assert.Contains(t, engErr.Message, "DEAD")
}

func TestWSEngineVoicesComeFromConfig(t *testing.T) {
	engine := NewWSEngine(config.EngineConfig{
		Voices: []config.EngineVoice{
			{ID: "v1", Name: "One", Lang: "en-US", Gender: "FEMALE", Local: true, Default: true},
		},
	})

	voices, err := engine.Voices(context.Background())
	require.NoError(t, err)
	require.Len(t, voices, 1)
	assert.Equal(t, "v1", voices[0].ID)
	assert.True(t, voices[0].Default)
}
