package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"calmspace/internal/domain"
)

// PlaybackMetrics tracks audio resource lifetime and session transitions.
// LiveResources must never exceed 1.
type PlaybackMetrics struct {
	LiveResources      prometheus.Gauge
	Allocations        prometheus.Counter
	AllocationFailures prometheus.Counter
	Releases           prometheus.Counter
	SessionTransitions *prometheus.CounterVec
	SessionErrors      *prometheus.CounterVec
}

// NewPlaybackMetrics creates and registers playback metrics on the given registry.
func NewPlaybackMetrics(reg prometheus.Registerer) *PlaybackMetrics {
	m := &PlaybackMetrics{
		LiveResources: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "playback",
			Name:      "live_resources",
			Help:      "Number of allocated audio output resources.",
		}),
		Allocations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "playback",
			Name:      "allocations_total",
			Help:      "Total number of audio resources allocated.",
		}),
		AllocationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "playback",
			Name:      "allocation_failures_total",
			Help:      "Total number of failed audio resource allocations.",
		}),
		Releases: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "playback",
			Name:      "releases_total",
			Help:      "Total number of audio resources released.",
		}),
		SessionTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "transitions_total",
			Help:      "Total number of session transitions by reason.",
		}, []string{"reason"}),
		SessionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "errors_total",
			Help:      "Total number of session errors by code.",
		}, []string{"code"}),
	}

	reg.MustRegister(
		m.LiveResources,
		m.Allocations,
		m.AllocationFailures,
		m.Releases,
		m.SessionTransitions,
		m.SessionErrors,
	)
	return m
}

func (m *PlaybackMetrics) ResourceAllocated() {
	m.Allocations.Inc()
	m.LiveResources.Inc()
}

func (m *PlaybackMetrics) ResourceReleased() {
	m.Releases.Inc()
	m.LiveResources.Dec()
}

func (m *PlaybackMetrics) AllocationFailed() {
	m.AllocationFailures.Inc()
}

func (m *PlaybackMetrics) PlaybackChanged(domain.PlaybackStatus) {}

func (m *PlaybackMetrics) SessionStateChanged(_ domain.SessionStatus, reason domain.SessionStateReason) {
	if reason == domain.SessionReasonTick {
		return
	}
	m.SessionTransitions.WithLabelValues(string(reason)).Inc()
}

func (m *PlaybackMetrics) SessionError(code domain.ErrorCode, _ string) {
	m.SessionErrors.WithLabelValues(string(code)).Inc()
}
