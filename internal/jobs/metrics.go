package jobmetrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors for background jobs.
type Metrics struct {
	runs     *prometheus.CounterVec
	failures *prometheus.CounterVec
	duration *prometheus.HistogramVec
	retries  *prometheus.CounterVec
	depth    *prometheus.GaugeVec
}

// NewMetrics registers the job metrics against registerer, falling back to
// the default registerer when nil. Registering twice against the same
// registerer reuses the existing collectors.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	return &Metrics{
		runs: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_jobs_total",
			Help: "Job executions partitioned by job name and status.",
		}, []string{"job", "status"})),
		failures: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_jobs_failures_total",
			Help: "Failed job executions, retried or not.",
		}, []string{"job"})),
		duration: register(registerer, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "catalog_job_duration_seconds",
			Help:    "Duration of job executions. Imports include every model call of the invoice.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"job"})),
		retries: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_job_retries_total",
			Help: "Job executions that were retries of an earlier failed attempt.",
		}, []string{"job"})),
		depth: register(registerer, prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "catalog_job_queue_depth",
			Help: "Tasks per queue and state at the last inspection.",
		}, []string{"queue", "state"})),
	}
}

func register[C prometheus.Collector](registerer prometheus.Registerer, c C) C {
	if err := registerer.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// QueueDepth is a snapshot of one queue.
type QueueDepth struct {
	Queue    string
	Pending  int
	Active   int
	Retry    int
	Archived int
}

// ObserveQueue publishes a queue snapshot.
func (m *Metrics) ObserveQueue(d QueueDepth) {
	if m == nil {
		return
	}
	m.depth.WithLabelValues(d.Queue, "pending").Set(float64(d.Pending))
	m.depth.WithLabelValues(d.Queue, "active").Set(float64(d.Active))
	m.depth.WithLabelValues(d.Queue, "retry").Set(float64(d.Retry))
	m.depth.WithLabelValues(d.Queue, "archived").Set(float64(d.Archived))
}

// Tracker instruments a single job run.
type Tracker struct {
	metrics *Metrics
	job     string
	start   time.Time
}

// Track starts a tracker for job. retry is the number of earlier attempts of
// the same task.
func (m *Metrics) Track(job string, retry int) *Tracker {
	if m == nil {
		return &Tracker{job: job, start: time.Now()}
	}
	if retry > 0 {
		m.retries.WithLabelValues(job).Inc()
	}
	return &Tracker{metrics: m, job: job, start: time.Now()}
}

// End records duration and outcome, returning err untouched.
func (t *Tracker) End(err error) error {
	if t == nil || t.metrics == nil || t.job == "" {
		return err
	}
	status := "success"
	if err != nil {
		status = "failure"
		t.metrics.failures.WithLabelValues(t.job).Inc()
	}
	t.metrics.runs.WithLabelValues(t.job, status).Inc()
	t.metrics.duration.WithLabelValues(t.job).Observe(time.Since(t.start).Seconds())
	return err
}
