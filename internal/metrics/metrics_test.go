package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readCounter(t *testing.T, counter prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, counter.Write(&m))
	return m.GetCounter().GetValue()
}

func readGauge(t *testing.T, gauge prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, gauge.Write(&m))
	return m.GetGauge().GetValue()
}

func TestSessionLifecycleCounters(t *testing.T) {
	const engine = "metrics-test"
	started := readCounter(t, SessionsStartedTotal.WithLabelValues(engine))
	completed := readCounter(t, SessionsEndedTotal.WithLabelValues(engine, ReasonCompleted))
	unknown := readCounter(t, SessionsEndedTotal.WithLabelValues(engine, "unknown"))
	active := readGauge(t, SessionsActive.WithLabelValues(engine))

	SessionStarted(engine)
	assert.Equal(t, started+1, readCounter(t, SessionsStartedTotal.WithLabelValues(engine)))
	assert.Equal(t, active+1, readGauge(t, SessionsActive.WithLabelValues(engine)))

	SessionEnded(engine, ReasonCompleted)
	assert.Equal(t, completed+1, readCounter(t, SessionsEndedTotal.WithLabelValues(engine, ReasonCompleted)))
	assert.Equal(t, active, readGauge(t, SessionsActive.WithLabelValues(engine)))

	SessionStarted(engine)
	SessionEnded(engine, "")
	assert.Equal(t, unknown+1, readCounter(t, SessionsEndedTotal.WithLabelValues(engine, "unknown")))
}

func TestBroadcastCountersLabelEmptyChannel(t *testing.T) {
	before := readCounter(t, BroadcastDroppedTotal.WithLabelValues("unknown"))

	IncBroadcastDrop("")

	assert.Equal(t, before+1, readCounter(t, BroadcastDroppedTotal.WithLabelValues("unknown")))
}
