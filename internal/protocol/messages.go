// Package protocol defines the websocket message contract for streaming
// translation sessions. Audio travels as raw binary frames; everything else
// is a typed JSON envelope.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mkrv/meowform/internal/taxonomy"
)

// MessageType identifies websocket JSON payload variants.
type MessageType string

const (
	TypeConfig MessageType = "config"
	TypeStop   MessageType = "stop"

	TypeTranscription   MessageType = "transcription"
	TypeAnalysisPreview MessageType = "analysis_preview"
	TypeResult          MessageType = "result"
	TypeError           MessageType = "error"
)

var ErrUnsupportedType = errors.New("unsupported message type")

type Envelope struct {
	Type MessageType `json:"type"`
}

// Config updates per-session preferences. Fields left empty keep their
// current value.
type Config struct {
	Type            MessageType `json:"type"`
	BreedPreference string      `json:"breed_preference,omitempty"`
}

// Stop ends the current utterance and requests a final translation.
type Stop struct {
	Type MessageType `json:"type"`
}

// Transcription carries a partial or final transcript back to the client.
type Transcription struct {
	Type    MessageType `json:"type"`
	Text    string      `json:"text"`
	IsFinal bool        `json:"is_final"`
}

// AnalysisPreview surfaces the speculative inference outcome early, before
// the final result is ready.
type AnalysisPreview struct {
	Type    MessageType `json:"type"`
	Emotion []string    `json:"emotion,omitempty"`
	Intent  []string    `json:"intent,omitempty"`
}

// SelectedSample describes the registry record a result was built from.
type SelectedSample struct {
	ID          string                          `json:"id"`
	Breed       string                          `json:"breed"`
	Context     string                          `json:"context"`
	Score       float64                         `json:"score"`
	MatchedTags map[taxonomy.Dimension][]string `json:"matched_tags,omitempty"`
}

// Result delivers the finished translation: transcript, selected sample,
// base64 WAV audio, and the inferencer's rationale.
type Result struct {
	Type           MessageType    `json:"type"`
	Transcription  string         `json:"transcription"`
	SelectedSample SelectedSample `json:"selected_sample"`
	AudioPayload   string         `json:"audio_payload"`
	Summary        string         `json:"summary,omitempty"`
	Reasoning      string         `json:"reasoning,omitempty"`
}

// Error reports a stage-local failure; the session stays alive.
type Error struct {
	Type   MessageType `json:"type"`
	Detail string      `json:"detail"`
}

func NewError(detail string) Error {
	return Error{Type: TypeError, Detail: detail}
}

// ParseControlMessage decodes a client JSON frame into a typed control
// message. Unknown types and malformed envelopes are InvalidInput class
// errors; callers report them and keep the session running.
func ParseControlMessage(raw []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	switch env.Type {
	case TypeConfig:
		var msg Config
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, fmt.Errorf("invalid config message: %w", err)
		}
		return msg, nil
	case TypeStop:
		return Stop{Type: TypeStop}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, env.Type)
	}
}
