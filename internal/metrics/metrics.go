package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Session end reasons.
const (
	ReasonCompleted = "completed"
	ReasonCancelled = "cancelled"
	ReasonReplaced  = "replaced"
)

var (
	SessionsStartedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "setpace_sessions_started_total",
		Help: "Total number of timer sessions started by engine",
	}, []string{"engine"})

	SessionsEndedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "setpace_sessions_ended_total",
		Help: "Total number of timer sessions ended by engine and reason",
	}, []string{"engine", "reason"})

	SessionsActive = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "setpace_sessions_active",
		Help: "Number of timer sessions currently running",
	}, []string{"engine"})

	BroadcastPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "setpace_broadcast_published_total",
		Help: "Total number of events published on broadcast channels",
	}, []string{"channel"})

	BroadcastDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "setpace_broadcast_dropped_total",
		Help: "Total number of events a subscriber missed because its buffer was full",
	}, []string{"channel"})
)

// SessionStarted records a new session for engine.
func SessionStarted(engine string) {
	SessionsStartedTotal.WithLabelValues(engine).Inc()
	SessionsActive.WithLabelValues(engine).Inc()
}

// SessionEnded records the end of a running session.
func SessionEnded(engine, reason string) {
	if reason == "" {
		reason = "unknown"
	}
	SessionsEndedTotal.WithLabelValues(engine, reason).Inc()
	SessionsActive.WithLabelValues(engine).Dec()
}

// IncBroadcastPublished records one published event.
func IncBroadcastPublished(channel string) {
	BroadcastPublishedTotal.WithLabelValues(label(channel)).Inc()
}

// IncBroadcastDrop records one event dropped for a slow subscriber.
func IncBroadcastDrop(channel string) {
	BroadcastDroppedTotal.WithLabelValues(label(channel)).Inc()
}

func label(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
