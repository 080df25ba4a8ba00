package services

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"

	"github.com/anthonycoffey/simply-voice/config"
)

// ExecEngine is the fallback local engine: it shells out to an edge-tts
// style CLI that writes the rendered media to a file. The whole render
// arrives as a single chunk once the process exits.
type ExecEngine struct {
	binPath string
	voices  []config.EngineVoice
}

func NewExecEngine(cfg config.EngineConfig) *ExecEngine {
	binPath := cfg.BinPath
	if binPath == "" {
		binPath = "edge-tts"
	}
	if resolved, err := exec.LookPath(binPath); err == nil {
		binPath = resolved
	}
	return &ExecEngine{binPath: binPath, voices: cfg.Voices}
}

func (e *ExecEngine) Voices(ctx context.Context) ([]LocalVoice, error) {
	return configuredVoices(e.voices), nil
}

func (e *ExecEngine) Close() error {
	return nil
}

func (e *ExecEngine) Speak(ctx context.Context, text, voiceID string) (Utterance, error) {
	tmp, err := os.CreateTemp("", "capture-*.wav")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmp.Close()

	cmd := exec.Command(e.binPath,
		"--text", text,
		"--voice", voiceID,
		"--write-media", tmp.Name())

	u := &execUtterance{
		cmd:    cmd,
		path:   tmp.Name(),
		chunks: make(chan []byte, 1),
		done:   make(chan error, 1),
	}
	go u.run()
	return u, nil
}

type execUtterance struct {
	cmd    *exec.Cmd
	path   string
	chunks chan []byte
	done   chan error
	once   sync.Once
}

func (u *execUtterance) Chunks() <-chan []byte { return u.chunks }
func (u *execUtterance) Done() <-chan error    { return u.done }

func (u *execUtterance) Stop() error {
	if u.cmd.Process != nil {
		return u.cmd.Process.Kill()
	}
	return nil
}

func (u *execUtterance) finish(err error) {
	u.once.Do(func() {
		close(u.chunks)
		u.done <- err
	})
}

func (u *execUtterance) run() {
	defer os.Remove(u.path)

	output, err := u.cmd.CombinedOutput()
	if err != nil {
		u.finish(&EngineError{Code: "exec", Message: fmt.Sprintf("%v: %s", err, output)})
		return
	}

	audio, err := os.ReadFile(u.path)
	if err != nil {
		u.finish(&EngineError{Code: "exec", Message: fmt.Sprintf("read media: %v", err)})
		return
	}

	u.chunks <- audio
	u.finish(nil)
}
