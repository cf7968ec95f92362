package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	ActiveSessions       prometheus.Gauge
	SessionEvents        *prometheus.CounterVec
	WSMessages           *prometheus.CounterVec
	CollaboratorErrors   *prometheus.CounterVec
	TranscriptionLatency prometheus.Histogram
	TranslationLatency   prometheus.Histogram
	MatchScores          prometheus.Histogram
	SpeculativeEvents    *prometheus.CounterVec

	stages *stageWindow
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of active streaming translation sessions.",
		}),
		SessionEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_events_total",
			Help:      "Session events by type.",
		}, []string{"event"}),
		WSMessages: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_messages_total",
			Help:      "WebSocket messages by direction and type.",
		}, []string{"direction", "type"}),
		CollaboratorErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collaborator_errors_total",
			Help:      "Transcription and inference collaborator errors by collaborator.",
		}, []string{"collaborator"}),
		TranscriptionLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transcription_latency_ms",
			Help:      "Latency of one full-buffer transcription attempt in milliseconds.",
			Buckets:   []float64{100, 250, 500, 1000, 2000, 4000, 8000},
		}),
		TranslationLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "translation_latency_ms",
			Help:      "Latency from stop to final translation result in milliseconds.",
			Buckets:   []float64{250, 500, 1000, 2000, 4000, 8000, 15000},
		}),
		MatchScores: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "match_scores",
			Help:      "Tag-matching scores of selected samples.",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		}),
		SpeculativeEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "speculative_events_total",
			Help:      "Speculative inference lifecycle events by outcome.",
		}, []string{"outcome"}),
		stages: newStageWindow(256),
	}
}

// ObserveStage records one pipeline stage latency in the rolling perf window.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	m.stages.Observe(stage, float64(d.Milliseconds()))
}

// ObserveIndicator bumps a named perf-window event counter.
func (m *Metrics) ObserveIndicator(name string) {
	m.stages.ObserveIndicator(name)
}

// SnapshotStages returns the rolling perf window for the perf endpoint.
func (m *Metrics) SnapshotStages() StageSnapshot {
	return m.stages.Snapshot()
}

// ResetStages clears the rolling perf window.
func (m *Metrics) ResetStages() {
	m.stages.Reset()
}

// SpeculativeEvent counts one speculative inference lifecycle outcome.
func (m *Metrics) SpeculativeEvent(outcome string) {
	m.SpeculativeEvents.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveTranscriptionLatency(d time.Duration) {
	m.TranscriptionLatency.Observe(float64(d.Milliseconds()))
}

func (m *Metrics) ObserveTranslationLatency(d time.Duration) {
	m.TranslationLatency.Observe(float64(d.Milliseconds()))
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
