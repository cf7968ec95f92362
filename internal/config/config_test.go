package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	setCoreEnvEmpty(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.BindAddr != ":8080" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":8080")
	}
	if cfg.MetricsNamespace != "meowform" {
		t.Fatalf("MetricsNamespace = %q, want %q", cfg.MetricsNamespace, "meowform")
	}
	if cfg.TranscriberProvider != "auto" {
		t.Fatalf("TranscriberProvider = %q, want %q", cfg.TranscriberProvider, "auto")
	}
	if cfg.InferenceMode != "auto" {
		t.Fatalf("InferenceMode = %q, want %q", cfg.InferenceMode, "auto")
	}
	if cfg.InferenceURL != "" {
		t.Fatalf("InferenceURL = %q, want empty default", cfg.InferenceURL)
	}
	if cfg.SessionInactivityTimeout != 2*time.Minute {
		t.Fatalf("SessionInactivityTimeout = %v, want 2m", cfg.SessionInactivityTimeout)
	}
}

func TestLoadUsesExplicitInferenceURL(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("INFERENCE_MODE", "http")
	t.Setenv("INFERENCE_URL", "http://localhost:7777/v1/chat/completions")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.InferenceURL != "http://localhost:7777/v1/chat/completions" {
		t.Fatalf("InferenceURL = %q, want explicit value", cfg.InferenceURL)
	}
}

func TestLoadRejectsHTTPInferenceWithoutURL(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("INFERENCE_MODE", "http")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() error = nil, want missing INFERENCE_URL error")
	}
}

func TestLoadRejectsShortInactivityTimeout(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("APP_SESSION_INACTIVITY_TIMEOUT", "2s")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() error = nil, want timeout validation error")
	}
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("TRANSCRIBER_PROVIDER", "cloud")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() error = nil, want provider validation error")
	}
}

func TestLoadParsesBoolAndDuration(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("APP_ALLOW_ANY_ORIGIN", "yes")
	t.Setenv("APP_SHUTDOWN_TIMEOUT", "30s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.AllowAnyOrigin {
		t.Fatalf("AllowAnyOrigin = false, want true")
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Fatalf("ShutdownTimeout = %v, want 30s", cfg.ShutdownTimeout)
	}
}

func setCoreEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_BIND_ADDR",
		"APP_SHUTDOWN_TIMEOUT",
		"APP_SESSION_INACTIVITY_TIMEOUT",
		"APP_METRICS_NAMESPACE",
		"APP_ALLOW_ANY_ORIGIN",
		"CATALOG_PATH",
		"ASSETS_DIR",
		"TRANSCRIBER_PROVIDER",
		"TRANSCRIBER_COMMAND",
		"TRANSCRIBER_LANGUAGE",
		"INFERENCE_MODE",
		"INFERENCE_URL",
		"INFERENCE_API_KEY",
		"INFERENCE_MODEL",
		"DATABASE_URL",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}
