package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/mkrv/meowform/internal/affect"
	"github.com/mkrv/meowform/internal/describe"
	"github.com/mkrv/meowform/internal/history"
	"github.com/mkrv/meowform/internal/synth"
)

type synthesizeRequest struct {
	Emotion string `json:"emotion"`
	Intent  string `json:"intent"`
	Breed   string `json:"breed"`
}

type synthesizeResponse struct {
	Intent         string               `json:"intent"`
	SampleID       string               `json:"sample_id"`
	Breed          string               `json:"breed"`
	Context        string               `json:"context"`
	Distance       float64              `json:"distance"`
	Description    describe.Description `json:"description"`
	SampleRate     int                  `json:"sample_rate"`
	AudioWAVBase64 string               `json:"audio_wav_base64"`
}

// handleSynthesize is the one-shot path: an emotion or intent label in, one
// transformed meow out.
func (s *Server) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	var req synthesizeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	intent := strings.TrimSpace(req.Intent)
	if intent == "" {
		if strings.TrimSpace(req.Emotion) == "" {
			respondError(w, http.StatusBadRequest, "invalid_request", "either emotion or intent is required")
			return
		}
		intent = affect.IntentForEmotion(req.Emotion)
	}

	res, err := s.synth.SynthesizeIntent(r.Context(), intent, strings.TrimSpace(req.Breed))
	if err != nil {
		var unknown *affect.UnknownIntentError
		switch {
		case errors.As(err, &unknown):
			respondError(w, http.StatusBadRequest, "unknown_intent", err.Error())
		case errors.Is(err, synth.ErrNoMatch):
			respondError(w, http.StatusNotFound, "no_match", err.Error())
		case errors.Is(err, synth.ErrAudioNotFound):
			respondError(w, http.StatusInternalServerError, "audio_missing", err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "synthesis_failed", err.Error())
		}
		return
	}

	s.metrics.SessionEvents.WithLabelValues("oneshot_synthesis").Inc()
	respondJSON(w, http.StatusOK, synthesizeResponse{
		Intent:         intent,
		SampleID:       res.SampleID,
		Breed:          res.Breed,
		Context:        res.Context,
		Distance:       res.Distance,
		Description:    res.Description,
		SampleRate:     res.SampleRate,
		AudioWAVBase64: res.AudioBase64(),
	})
}

func (s *Server) handleListIntents(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"intents": affect.Intents(),
	})
}

func (s *Server) handleRegistryReload(w http.ResponseWriter, _ *http.Request) {
	snap, err := s.registry.Reload()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "reload_failed", err.Error())
		return
	}
	s.metrics.SessionEvents.WithLabelValues("registry_reloaded").Inc()
	respondJSON(w, http.StatusOK, map[string]any{
		"version": snap.Version,
		"samples": len(snap.Samples),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		respondError(w, http.StatusNotImplemented, "unavailable", "history store not configured")
		return
	}
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing_session_id", "query parameter session_id is required")
		return
	}
	limit := 20
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = n
	}

	records, err := s.history.Recent(r.Context(), sessionID, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "history_failed", err.Error())
		return
	}
	if records == nil {
		records = []history.TranslationRecord{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"session_id":   sessionID,
		"translations": records,
	})
}
