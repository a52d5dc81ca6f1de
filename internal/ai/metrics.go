package ai

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records provider call outcomes and governor delays.
type Metrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	wait     prometheus.Histogram
}

// NewMetrics registers the AI collectors against registerer.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_ai_calls_total",
		Help: "Generation calls partitioned by outcome.",
	}, []string{"outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_ai_call_duration_seconds",
		Help:    "Provider latency per outcome.",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40},
	}, []string{"outcome"})
	wait := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalog_ai_governor_wait_seconds",
		Help:    "Time spent blocked by the request governor.",
		Buckets: []float64{0, 0.1, 1, 5, 15, 30, 60},
	})
	registerer.MustRegister(calls, duration, wait)
	return &Metrics{calls: calls, duration: duration, wait: wait}
}

func (m *Metrics) observe(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(outcome).Inc()
	if elapsed > 0 {
		m.duration.WithLabelValues(outcome).Observe(elapsed.Seconds())
	}
}

func (m *Metrics) observeWait(d time.Duration) {
	if m == nil {
		return
	}
	m.wait.Observe(d.Seconds())
}
