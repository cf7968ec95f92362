package session

import "time"

// CreateRequest defines payload for creating a new session.
type CreateRequest struct {
	BreedPreference string `json:"breed_preference"`
}

// CreateResponse returns created session metadata.
type CreateResponse struct {
	SessionID       string    `json:"session_id"`
	Status          Status    `json:"status"`
	BreedPreference string    `json:"breed_preference,omitempty"`
	StartedAt       time.Time `json:"started_at"`
	LastActivityAt  time.Time `json:"last_activity_at"`
	InactivityTTLMS int64     `json:"inactivity_ttl_ms"`
}
