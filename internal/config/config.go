package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config contains all runtime settings for the translation service.
type Config struct {
	BindAddr                 string
	ShutdownTimeout          time.Duration
	SessionInactivityTimeout time.Duration
	MetricsNamespace         string

	AllowAnyOrigin bool

	CatalogPath string
	AssetsDir   string

	TranscriberProvider string
	TranscriberCommand  string
	TranscriberLanguage string

	InferenceMode   string
	InferenceURL    string
	InferenceAPIKey string
	InferenceModel  string

	DatabaseURL string
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:         envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "meowform"),
		AllowAnyOrigin:   false,
		CatalogPath:      envOrDefault("CATALOG_PATH", "assets/catalog.json"),
		AssetsDir:        envOrDefault("ASSETS_DIR", "assets"),
		// "auto" picks exec when a command is configured and mock otherwise.
		TranscriberProvider: envOrDefault("TRANSCRIBER_PROVIDER", "auto"),
		TranscriberCommand:  envOrDefault("TRANSCRIBER_COMMAND", "whisper-cli"),
		TranscriberLanguage: envOrDefault("TRANSCRIBER_LANGUAGE", ""),
		// "auto" picks http when an inference URL is configured and mock otherwise.
		InferenceMode:            envOrDefault("INFERENCE_MODE", "auto"),
		InferenceURL:             stringsTrimSpace("INFERENCE_URL"),
		InferenceAPIKey:          stringsTrimSpace("INFERENCE_API_KEY"),
		InferenceModel:           envOrDefault("INFERENCE_MODEL", "gpt-4o-mini"),
		DatabaseURL:              stringsTrimSpace("DATABASE_URL"),
		ShutdownTimeout:          15 * time.Second,
		SessionInactivityTimeout: 2 * time.Minute,
	}
	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.SessionInactivityTimeout, err = durationFromEnv("APP_SESSION_INACTIVITY_TIMEOUT", cfg.SessionInactivityTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}

	if cfg.SessionInactivityTimeout < 5*time.Second {
		return Config{}, fmt.Errorf("APP_SESSION_INACTIVITY_TIMEOUT must be at least 5s")
	}
	if cfg.CatalogPath == "" {
		return Config{}, fmt.Errorf("CATALOG_PATH must not be empty")
	}
	if cfg.AssetsDir == "" {
		return Config{}, fmt.Errorf("ASSETS_DIR must not be empty")
	}
	switch cfg.TranscriberProvider {
	case "auto", "exec", "mock":
	default:
		return Config{}, fmt.Errorf("TRANSCRIBER_PROVIDER must be one of auto|exec|mock")
	}
	switch cfg.InferenceMode {
	case "auto", "http", "mock":
	default:
		return Config{}, fmt.Errorf("INFERENCE_MODE must be one of auto|http|mock")
	}
	if cfg.TranscriberProvider == "exec" && strings.TrimSpace(cfg.TranscriberCommand) == "" {
		return Config{}, fmt.Errorf("TRANSCRIBER_COMMAND is required when TRANSCRIBER_PROVIDER=exec")
	}
	if cfg.InferenceMode == "http" && cfg.InferenceURL == "" {
		return Config{}, fmt.Errorf("INFERENCE_URL is required when INFERENCE_MODE=http")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return trimSpace(os.Getenv(key))
}

func trimSpace(v string) string {
	for len(v) > 0 && (v[0] == ' ' || v[0] == '\n' || v[0] == '\t' || v[0] == '\r') {
		v = v[1:]
	}
	for len(v) > 0 {
		c := v[len(v)-1]
		if c == ' ' || c == '\n' || c == '\t' || c == '\r' {
			v = v[:len(v)-1]
			continue
		}
		break
	}
	return v
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(stringsTrimSpace(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
