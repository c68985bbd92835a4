// Package metrics exposes Prometheus metrics for the interview pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics contains all Prometheus metrics for the interview server.
type Metrics struct {
	registry *prometheus.Registry

	// Session metrics
	ActiveSessions  prometheus.Gauge
	SessionsOpened  prometheus.Counter
	SessionDuration prometheus.Histogram

	// Pipeline metrics
	Turns          *prometheus.CounterVec
	TurnDuration   *prometheus.HistogramVec
	StageFailures  *prometheus.CounterVec
	RejectedEvents *prometheus.CounterVec

	// Recognition metrics
	TranscriptionDuration prometheus.Histogram
	AudioBytes            prometheus.Histogram

	// Archive metrics
	InterviewsArchived prometheus.Counter
	InterviewsPruned   prometheus.Counter
}

// New creates all metrics on a fresh registry, including Go and process
// collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		ActiveSessions: f.NewGauge(prometheus.GaugeOpts{
			Name: "interview_active_sessions",
			Help: "Current number of connected interview sessions",
		}),
		SessionsOpened: f.NewCounter(prometheus.CounterOpts{
			Name: "interview_sessions_opened_total",
			Help: "Total number of interview sessions opened",
		}),
		SessionDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "interview_session_duration_seconds",
			Help:    "Duration of interview connections",
			Buckets: prometheus.ExponentialBuckets(30, 2, 8), // 30s to ~1 hour
		}),

		Turns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "interview_turns_total",
			Help: "Pipeline runs by kind and outcome",
		}, []string{"kind", "outcome"}),
		TurnDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "interview_turn_duration_seconds",
			Help:    "Duration of pipeline runs",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10), // 500ms to ~4 minutes
		}, []string{"kind"}),
		StageFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "interview_stage_failures_total",
			Help: "Pipeline failures by error kind",
		}, []string{"kind"}),
		RejectedEvents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "interview_rejected_events_total",
			Help: "Events dropped because the session was busy or in the wrong phase",
		}, []string{"event", "reason"}),

		TranscriptionDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "interview_transcription_duration_seconds",
			Help:    "Time from job submit to transcript",
			Buckets: prometheus.ExponentialBuckets(1, 2, 9), // 1s to ~4 minutes
		}),
		AudioBytes: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "interview_audio_clip_bytes",
			Help:    "Size of received audio clips",
			Buckets: prometheus.ExponentialBuckets(4096, 2, 12), // 4KB to ~8MB
		}),

		InterviewsArchived: f.NewCounter(prometheus.CounterOpts{
			Name: "interview_archived_total",
			Help: "Total number of finished interviews archived",
		}),
		InterviewsPruned: f.NewCounter(prometheus.CounterOpts{
			Name: "interview_archive_pruned_total",
			Help: "Total number of archived interviews removed by retention",
		}),
	}
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// SessionOpened records a new connection.
func (m *Metrics) SessionOpened() {
	m.SessionsOpened.Inc()
	m.ActiveSessions.Inc()
}

// SessionClosed records a closed connection and its lifetime.
func (m *Metrics) SessionClosed(d time.Duration) {
	m.ActiveSessions.Dec()
	m.SessionDuration.Observe(d.Seconds())
}

// RecordTurn records one pipeline run. kind is setup, turn or report.
func (m *Metrics) RecordTurn(kind string, d time.Duration, err error, errKind string) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
		if errKind == "" {
			errKind = "unknown"
		}
		m.StageFailures.WithLabelValues(errKind).Inc()
	}
	m.Turns.WithLabelValues(kind, outcome).Inc()
	m.TurnDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// RecordRejected records an event dropped by the single-flight guard.
func (m *Metrics) RecordRejected(event, reason string) {
	m.RejectedEvents.WithLabelValues(event, reason).Inc()
}

// RecordTranscription records the wall time of one recognition job.
func (m *Metrics) RecordTranscription(d time.Duration) {
	m.TranscriptionDuration.Observe(d.Seconds())
}

// RecordAudioClip records the size of a received clip.
func (m *Metrics) RecordAudioClip(n int) {
	m.AudioBytes.Observe(float64(n))
}

// RecordArchived increments the archived counter.
func (m *Metrics) RecordArchived() {
	m.InterviewsArchived.Inc()
}

// RecordPruned adds n pruned interviews.
func (m *Metrics) RecordPruned(n int64) {
	m.InterviewsPruned.Add(float64(n))
}
