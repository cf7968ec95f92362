package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"

	shellwords "github.com/mattn/go-shellwords"

	"github.com/mkrv/meowform/internal/audio"
)

// ExecTranscriber runs an external speech-to-text command (whisper-cli,
// whisper.cpp main, or any compatible wrapper) against a temp WAV file.
// The command string may carry its own flags; the audio path is appended
// as the final argument.
type ExecTranscriber struct {
	command  string
	language string
}

func NewExecTranscriber(command, language string) (*ExecTranscriber, error) {
	if strings.TrimSpace(command) == "" {
		return nil, fmt.Errorf("transcriber command empty")
	}
	return &ExecTranscriber{command: command, language: language}, nil
}

// execOutput is the JSON shape emitted by whisper wrappers run with a JSON
// output flag. Plain-text stdout is accepted as a fallback.
type execOutput struct {
	Text string `json:"text"`
}

func (t *ExecTranscriber) Transcribe(ctx context.Context, pcm []byte, sampleRate int) (string, error) {
	if len(pcm) == 0 {
		return "", nil
	}

	file, err := os.CreateTemp("", "meowform-stt-*.wav")
	if err != nil {
		return "", fmt.Errorf("create temp wav: %w", err)
	}
	defer os.Remove(file.Name())

	if err := audio.WritePCM16WAV(file, pcm, sampleRate); err != nil {
		file.Close()
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("close temp wav: %w", err)
	}

	args, err := shellwords.Parse(t.command)
	if err != nil {
		return "", fmt.Errorf("parse transcriber command: %w", err)
	}
	if len(args) == 0 {
		return "", fmt.Errorf("transcriber command empty")
	}
	if t.language != "" {
		args = append(args, "--language", t.language)
	}
	args = append(args, file.Name())

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("transcriber command failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	return parseOutput(stdout.Bytes()), nil
}

// parseOutput accepts either a JSON object with a "text" field or plain
// transcript text on stdout.
func parseOutput(out []byte) string {
	trimmed := bytes.TrimSpace(out)
	if len(trimmed) == 0 {
		return ""
	}
	if trimmed[0] == '{' {
		var resp execOutput
		if err := json.Unmarshal(trimmed, &resp); err == nil {
			return strings.TrimSpace(resp.Text)
		}
	}
	return string(trimmed)
}
