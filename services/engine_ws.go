package services

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/anthonycoffey/simply-voice/config"
)

// Binary request framing: Header(4B) + PayloadSize(4B, big endian) + gzipped
// JSON payload. The header encodes version=1, head_size=4, full request,
// JSON serialization, gzip compression.
var wsFrameHeader = []byte{0x11, 0x10, 0x11, 0x00}

// Response frame types, taken from the high nibble of byte 1.
const (
	wsFrameAudio = 0xb
	wsFrameError = 0xf
)

// WSEngine drives a speech-engine daemon over its binary websocket
// protocol. Each utterance gets its own connection; audio arrives as
// sequenced chunk frames and a negative sequence number marks the end.
type WSEngine struct {
	cfg config.EngineConfig
}

func NewWSEngine(cfg config.EngineConfig) *WSEngine {
	return &WSEngine{cfg: cfg}
}

// Voices returns the deployment's pinned voice list. Local engine daemons
// expose no catalog endpoint.
func (e *WSEngine) Voices(ctx context.Context) ([]LocalVoice, error) {
	return configuredVoices(e.cfg.Voices), nil
}

func (e *WSEngine) Close() error {
	return nil // connections are per-utterance
}

func (e *WSEngine) Speak(ctx context.Context, text, voiceID string) (Utterance, error) {
	header := http.Header{"Authorization": []string{fmt.Sprintf("Bearer;%s", e.cfg.AccessToken)}}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, e.cfg.Addr, header)
	if err != nil {
		return nil, fmt.Errorf("dial engine: %w", err)
	}

	frame, err := e.buildRequestFrame(text, voiceID)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		conn.Close()
		return nil, fmt.Errorf("write request: %w", err)
	}

	u := &wsUtterance{
		conn:    conn,
		chunks:  make(chan []byte, 16),
		done:    make(chan error, 1),
		stopped: make(chan struct{}),
	}
	go u.readLoop()
	return u, nil
}

func (e *WSEngine) buildRequestFrame(text, voiceID string) ([]byte, error) {
	req := map[string]interface{}{
		"app": map[string]interface{}{
			"appid":   e.cfg.AppID,
			"token":   e.cfg.AccessToken,
			"cluster": e.cfg.ClusterID,
		},
		"user": map[string]interface{}{"uid": "simply-voice-backend"},
		"audio": map[string]interface{}{
			"voice_type":   voiceID,
			"encoding":     "wav",
			"speed_ratio":  1.0,
			"volume_ratio": 1.0,
		},
		"request": map[string]interface{}{
			"reqid":     uuid.New().String(),
			"text":      text,
			"text_type": "plain",
			"operation": "query",
		},
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	compressed := gzipCompress(payload)

	frame := make([]byte, 0, 8+len(compressed))
	frame = append(frame, wsFrameHeader...)
	size := make([]byte, 4)
	binary.BigEndian.PutUint32(size, uint32(len(compressed)))
	frame = append(frame, size...)
	frame = append(frame, compressed...)
	return frame, nil
}

type wsUtterance struct {
	conn     *websocket.Conn
	chunks   chan []byte
	done     chan error
	stopped  chan struct{}
	stopOnce sync.Once
	once     sync.Once
}

func (u *wsUtterance) Chunks() <-chan []byte { return u.chunks }
func (u *wsUtterance) Done() <-chan error    { return u.done }

// Stop closes the connection, which unblocks the read loop wherever it is.
func (u *wsUtterance) Stop() error {
	u.stopOnce.Do(func() { close(u.stopped) })
	return u.conn.Close()
}

func (u *wsUtterance) finish(err error) {
	u.once.Do(func() {
		close(u.chunks)
		u.done <- err
	})
}

func (u *wsUtterance) readLoop() {
	defer u.conn.Close()
	for {
		_, message, err := u.conn.ReadMessage()
		if err != nil {
			u.finish(&EngineError{Code: "interrupted", Message: err.Error()})
			return
		}
		if len(message) < 8 {
			continue
		}

		frameType := message[1] >> 4
		compressed := message[2]&0x0f == 1

		switch frameType {
		case wsFrameAudio:
			seq := int32(binary.BigEndian.Uint32(message[4:8]))
			if len(message) > 8 {
				chunk := make([]byte, len(message)-8)
				copy(chunk, message[8:])
				select {
				case u.chunks <- chunk:
				case <-u.stopped:
					return
				}
			}
			if seq < 0 {
				u.finish(nil)
				return
			}
		case wsFrameError:
			u.finish(decodeEngineError(message[8:], compressed))
			return
		}
	}
}

// decodeEngineError recovers the engine's plaintext error from an error
// frame. Compressed payloads carry the gzip stream at the first magic-byte
// offset, not at the start.
func decodeEngineError(payload []byte, compressed bool) *EngineError {
	if compressed {
		if start := bytes.Index(payload, []byte{0x1f, 0x8b}); start != -1 {
			if decoded, err := gzipDecompress(payload[start:]); err == nil {
				return &EngineError{Code: "engine", Message: string(decoded)}
			}
		}
	}
	return &EngineError{Code: "engine", Message: fmt.Sprintf("undecodable error frame: %X", payload)}
}

func configuredVoices(voices []config.EngineVoice) []LocalVoice {
	out := make([]LocalVoice, 0, len(voices))
	for _, v := range voices {
		out = append(out, LocalVoice{
			ID:      v.ID,
			Name:    v.Name,
			Lang:    v.Lang,
			Gender:  v.Gender,
			Local:   v.Local,
			Default: v.Default,
		})
	}
	return out
}

func gzipCompress(input []byte) []byte {
	var b bytes.Buffer
	w := gzip.NewWriter(&b)
	w.Write(input)
	w.Close()
	return b.Bytes()
}

func gzipDecompress(input []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(input))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
