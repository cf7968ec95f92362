package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/mkrv/meowform/internal/config"
	"github.com/mkrv/meowform/internal/history"
	"github.com/mkrv/meowform/internal/infer"
	"github.com/mkrv/meowform/internal/observability"
	"github.com/mkrv/meowform/internal/policy"
	"github.com/mkrv/meowform/internal/protocol"
	"github.com/mkrv/meowform/internal/registry"
	"github.com/mkrv/meowform/internal/session"
	"github.com/mkrv/meowform/internal/stream"
	"github.com/mkrv/meowform/internal/synth"
	"github.com/mkrv/meowform/internal/transcribe"
)

type Server struct {
	cfg         config.Config
	sessions    *session.Manager
	registry    *registry.Registry
	synth       *synth.Service
	transcriber transcribe.Transcriber
	inferencer  infer.TagInferencer
	history     history.Store
	metrics     *observability.Metrics
	streamCfg   stream.Config
	upgrader    websocket.Upgrader
}

func New(cfg config.Config, sessions *session.Manager, reg *registry.Registry, svc *synth.Service, tr transcribe.Transcriber, inf infer.TagInferencer, store history.Store, metrics *observability.Metrics) *Server {
	return &Server{
		cfg:         cfg,
		sessions:    sessions,
		registry:    reg,
		synth:       svc,
		transcriber: tr,
		inferencer:  inf,
		history:     store,
		metrics:     metrics,
		streamCfg:   stream.Config{Observer: metrics},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Only allow browser websocket connections from the same
				// origin unless explicitly opened up. This prevents other
				// websites from driving the user's mic session if the
				// service is ever exposed beyond localhost.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/v1/translate/session", s.handleCreateSession)
	r.Post("/v1/translate/session/{id}/end", s.handleEndSession)
	r.Get("/v1/translate/ws", s.handleTranslateWS)
	r.Post("/v1/translate/synthesize", s.handleSynthesize)
	r.Get("/v1/intents", s.handleListIntents)
	r.Post("/v1/registry/reload", s.handleRegistryReload)
	r.Get("/v1/history", s.handleHistory)
	r.Get("/v1/perf/latency", s.handlePerfLatency)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	snap := s.registry.Snapshot()
	if snap == nil || len(snap.Samples) == 0 {
		respondError(w, http.StatusServiceUnavailable, "registry_empty", "sample registry has no entries")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"status":           "ready",
		"registry_version": snap.Version,
		"registry_samples": len(snap.Samples),
	})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req session.CreateRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	sess := s.sessions.Create(strings.TrimSpace(req.BreedPreference))
	s.metrics.ActiveSessions.Set(float64(s.sessions.ActiveCount()))
	s.metrics.SessionEvents.WithLabelValues("created").Inc()

	respondJSON(w, http.StatusCreated, session.CreateResponse{
		SessionID:       sess.ID,
		Status:          sess.Status,
		BreedPreference: sess.BreedPreference,
		StartedAt:       sess.StartedAt,
		LastActivityAt:  sess.LastActivityAt,
		InactivityTTLMS: s.cfg.SessionInactivityTimeout.Milliseconds(),
	})
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if strings.TrimSpace(id) == "" {
		respondError(w, http.StatusBadRequest, "invalid_session_id", "missing session id")
		return
	}

	sess, err := s.sessions.End(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
		return
	}
	s.metrics.ActiveSessions.Set(float64(s.sessions.ActiveCount()))
	s.metrics.SessionEvents.WithLabelValues("ended").Inc()
	respondJSON(w, http.StatusOK, sess)
}

func (s *Server) handleTranslateWS(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing_session_id", "query parameter session_id is required")
		return
	}

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	s.metrics.SessionEvents.WithLabelValues("ws_connected").Inc()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	outbound := make(chan any, 64)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-outbound:
				if !ok {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
				if err := conn.WriteJSON(msg); err != nil {
					cancel()
					return
				}
				s.metrics.WSMessages.WithLabelValues("outbound", messageTypeOf(msg)).Inc()
			}
		}
	}()

	emit := func(msg any) {
		select {
		case outbound <- msg:
		default:
			// Keep websocket writes single-threaded; drop if the outbound
			// queue is saturated.
			s.metrics.WSMessages.WithLabelValues("outbound", "drop_full").Inc()
		}
	}

	streamCfg := s.streamCfg
	streamCfg.OnResult = func(transcription string, res *synth.Result) {
		s.metrics.MatchScores.Observe(res.Score)
		_ = s.sessions.RecordUtterance(sess.ID)
		s.saveHistory(sess.ID, transcription, res)
	}
	ctrl := stream.NewController(streamCfg, s.transcriber, s.inferencer, s.synth, sess.ID, emit)
	defer ctrl.Close()
	if sess.BreedPreference != "" {
		ctrl.HandleControl(ctx, configFrame(sess.BreedPreference))
	}

	conn.SetReadLimit(8 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		return nil
	})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		_ = s.sessions.Touch(sess.ID)

		switch msgType {
		case websocket.BinaryMessage:
			s.metrics.WSMessages.WithLabelValues("inbound", "audio").Inc()
			ctrl.HandleAudio(ctx, data)
		case websocket.TextMessage:
			s.metrics.WSMessages.WithLabelValues("inbound", "control").Inc()
			ctrl.HandleControl(ctx, data)
		}
	}

	cancel()
	<-writerDone
	s.metrics.SessionEvents.WithLabelValues("ws_disconnected").Inc()
}

// configFrame replays a session-level breed preference into the controller
// as if the client had sent it.
func configFrame(breedPreference string) []byte {
	raw, _ := json.Marshal(protocol.Config{
		Type:            protocol.TypeConfig,
		BreedPreference: breedPreference,
	})
	return raw
}

func (s *Server) saveHistory(sessionID, transcription string, res *synth.Result) {
	if s.history == nil {
		return
	}
	// Transcripts leave the session here; mask PII before they are stored.
	redacted, _ := policy.RedactPII(transcription)
	record := history.TranslationRecord{
		SessionID:     sessionID,
		Transcription: redacted,
		SampleID:      res.SampleID,
		Breed:         res.Breed,
		Score:         res.Score,
		Distance:      res.Distance,
		Reasoning:     res.Reasoning,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.history.SaveTranslation(ctx, record); err != nil {
			log.Printf("httpapi: save translation history: %v", err)
		}
	}()
}

func messageTypeOf(v any) string {
	switch m := v.(type) {
	case protocol.Transcription:
		return string(m.Type)
	case protocol.AnalysisPreview:
		return string(m.Type)
	case protocol.Result:
		return string(m.Type)
	case protocol.Error:
		return string(m.Type)
	default:
		return "unknown"
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
