// Package history persists completed translations for later review.
package history

import (
	"context"
	"time"
)

// TranslationRecord stores one finished utterance translation.
type TranslationRecord struct {
	ID            string    `json:"id"`
	SessionID     string    `json:"session_id"`
	Transcription string    `json:"transcription"`
	SampleID      string    `json:"sample_id"`
	Breed         string    `json:"breed"`
	Score         float64   `json:"score"`
	Distance      float64   `json:"distance"`
	Reasoning     string    `json:"reasoning,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Store persists and retrieves translation history.
type Store interface {
	SaveTranslation(ctx context.Context, record TranslationRecord) error
	Recent(ctx context.Context, sessionID string, limit int) ([]TranslationRecord, error)
	Close() error
}
