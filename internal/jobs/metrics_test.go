package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	require.NoError(t, m.Track("import:nfe", 0).End(nil))
	boom := errors.New("boom")
	require.ErrorIs(t, m.Track("import:nfe", 1).End(boom), boom)

	require.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("import:nfe", "success")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("import:nfe", "failure")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("import:nfe")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.retries.WithLabelValues("import:nfe")))
}

func TestNilMetricsTrackerPassesErrorThrough(t *testing.T) {
	var m *Metrics
	boom := errors.New("boom")
	require.ErrorIs(t, m.Track("import:nfe", 0).End(boom), boom)
}

func TestNewMetricsReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := NewMetrics(reg)
	second := NewMetrics(reg)

	require.NoError(t, first.Track("import:nfe", 0).End(nil))
	require.NoError(t, second.Track("import:nfe", 0).End(nil))
	require.Equal(t, 2.0, testutil.ToFloat64(first.runs.WithLabelValues("import:nfe", "success")))
}

func TestObserveQueue(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.ObserveQueue(QueueDepth{Queue: "import", Pending: 4, Retry: 2})

	require.Equal(t, 4.0, testutil.ToFloat64(m.depth.WithLabelValues("import", "pending")))
	require.Equal(t, 2.0, testutil.ToFloat64(m.depth.WithLabelValues("import", "retry")))
	require.Equal(t, 0.0, testutil.ToFloat64(m.depth.WithLabelValues("import", "active")))

	var nilMetrics *Metrics
	nilMetrics.ObserveQueue(QueueDepth{Queue: "import"})
}
