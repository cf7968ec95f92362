package transcribe

import (
	"context"
	"errors"
	"testing"
)

func TestNewExecTranscriberRejectsEmptyCommand(t *testing.T) {
	if _, err := NewExecTranscriber("", "en"); err == nil {
		t.Fatal("expected error for empty command")
	}
	if _, err := NewExecTranscriber("   ", ""); err == nil {
		t.Fatal("expected error for blank command")
	}
}

func TestExecTranscriberEmptyAudio(t *testing.T) {
	tr, err := NewExecTranscriber("whisper-cli --output-json", "")
	if err != nil {
		t.Fatal(err)
	}
	text, err := tr.Transcribe(context.Background(), nil, 16000)
	if err != nil {
		t.Fatalf("Transcribe(empty) = %v", err)
	}
	if text != "" {
		t.Errorf("text = %q, want empty", text)
	}
}

func TestParseOutput(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"json", `{"text": "I am hungry"}`, "I am hungry"},
		{"json padded", "  {\"text\":\" hello \"}\n", "hello"},
		{"plain", "feed me now\n", "feed me now"},
		{"empty", "  \n", ""},
		{"malformed json falls back to raw", `{broken`, `{broken`},
	}
	for _, tt := range tests {
		if got := parseOutput([]byte(tt.in)); got != tt.want {
			t.Errorf("%s: parseOutput(%q) = %q, want %q", tt.name, tt.in, got, tt.want)
		}
	}
}

func TestMockTranscriberScript(t *testing.T) {
	m := NewMockTranscriber("first", "second")
	ctx := context.Background()

	got, err := m.Transcribe(ctx, []byte{1, 2}, 16000)
	if err != nil || got != "first" {
		t.Fatalf("call 1 = %q, %v", got, err)
	}
	got, _ = m.Transcribe(ctx, []byte{3, 4}, 16000)
	if got != "second" {
		t.Fatalf("call 2 = %q", got)
	}
	got, _ = m.Transcribe(ctx, []byte{5, 6}, 16000)
	if got != "second" {
		t.Fatalf("call 3 should repeat last response, got %q", got)
	}
	if m.Calls() != 3 {
		t.Errorf("Calls() = %d, want 3", m.Calls())
	}
	if string(m.LastInput()) != string([]byte{5, 6}) {
		t.Errorf("LastInput() = %v", m.LastInput())
	}
}

func TestMockTranscriberErrorsFirst(t *testing.T) {
	boom := errors.New("model crashed")
	m := NewMockTranscriber("recovered").FailWith(boom)

	if _, err := m.Transcribe(context.Background(), []byte{1}, 16000); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want queued error", err)
	}
	got, err := m.Transcribe(context.Background(), []byte{1}, 16000)
	if err != nil || got != "recovered" {
		t.Fatalf("second call = %q, %v", got, err)
	}
}
