package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mkrv/meowform/internal/config"
	"github.com/mkrv/meowform/internal/history"
	"github.com/mkrv/meowform/internal/httpapi"
	"github.com/mkrv/meowform/internal/infer"
	"github.com/mkrv/meowform/internal/observability"
	"github.com/mkrv/meowform/internal/registry"
	"github.com/mkrv/meowform/internal/session"
	"github.com/mkrv/meowform/internal/synth"
	"github.com/mkrv/meowform/internal/taxonomy"
	"github.com/mkrv/meowform/internal/transcribe"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	reg, err := registry.Load(cfg.CatalogPath)
	if err != nil {
		log.Fatalf("sample registry load failed: %v", err)
	}
	snap := reg.Snapshot()
	log.Printf("sample registry: version=%s samples=%d", snap.Version, len(snap.Samples))

	ctx := context.Background()
	historyStore, err := history.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("history store init failed: %v", err)
	}
	defer historyStore.Close()

	transcriber := resolveTranscriber(cfg)
	inferencer := resolveInferencer(cfg)

	sessions := session.NewManager(cfg.SessionInactivityTimeout)
	sessions.SetExpireHook(func(_ *session.Session) {
		metrics.SessionEvents.WithLabelValues("expired").Inc()
		metrics.ActiveSessions.Set(float64(sessions.ActiveCount()))
	})

	svc := synth.NewService(reg, cfg.AssetsDir)

	api := httpapi.New(cfg, sessions, reg, svc, transcriber, inferencer, historyStore, metrics)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()
	sessions.StartJanitor(runCtx, 5*time.Second)

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	runCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}

func resolveTranscriber(cfg config.Config) transcribe.Transcriber {
	mode := strings.ToLower(strings.TrimSpace(cfg.TranscriberProvider))
	switch mode {
	case "mock":
		log.Printf("transcriber: mock")
		return transcribe.NewMockTranscriber()
	case "exec":
		tr, err := transcribe.NewExecTranscriber(cfg.TranscriberCommand, cfg.TranscriberLanguage)
		if err != nil {
			log.Fatalf("transcriber init failed: %v", err)
		}
		log.Printf("transcriber: exec (%s)", cfg.TranscriberCommand)
		return tr
	default: // auto
		fields := strings.Fields(cfg.TranscriberCommand)
		if len(fields) == 0 {
			log.Printf("transcriber: mock (TRANSCRIBER_COMMAND not set)")
			return transcribe.NewMockTranscriber()
		}
		if _, err := exec.LookPath(fields[0]); err != nil {
			log.Printf("transcriber: mock (%q not found in PATH)", fields[0])
			return transcribe.NewMockTranscriber()
		}
		tr, err := transcribe.NewExecTranscriber(cfg.TranscriberCommand, cfg.TranscriberLanguage)
		if err != nil {
			log.Printf("transcriber: mock (no usable command: %v)", err)
			return transcribe.NewMockTranscriber()
		}
		log.Printf("transcriber: exec (%s)", cfg.TranscriberCommand)
		return tr
	}
}

func resolveInferencer(cfg config.Config) infer.TagInferencer {
	mode := strings.ToLower(strings.TrimSpace(cfg.InferenceMode))
	switch mode {
	case "mock":
		log.Printf("inferencer: mock (default target tags)")
		return infer.NewMockInferencer(taxonomy.DefaultTargetTags())
	case "http":
		log.Printf("inferencer: http (%s)", cfg.InferenceURL)
		return infer.NewHTTPInferencer(cfg.InferenceURL, cfg.InferenceAPIKey, cfg.InferenceModel)
	default: // auto
		if cfg.InferenceURL != "" {
			log.Printf("inferencer: http (%s)", cfg.InferenceURL)
			return infer.NewHTTPInferencer(cfg.InferenceURL, cfg.InferenceAPIKey, cfg.InferenceModel)
		}
		log.Printf("inferencer: mock (INFERENCE_URL not set)")
		return infer.NewMockInferencer(taxonomy.DefaultTargetTags())
	}
}
