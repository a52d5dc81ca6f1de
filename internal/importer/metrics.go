package importer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tonica-music/catalog/internal/shared"
)

// Metrics counts import outcomes and per-item resolutions.
type Metrics struct {
	imports  *prometheus.CounterVec
	items    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	imports := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_imports_total",
		Help: "Invoice imports partitioned by final stage and error kind.",
	}, []string{"stage", "outcome"})
	items := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_import_items_total",
		Help: "Line items resolved inside imports, by resolution.",
	}, []string{"kind"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_import_duration_seconds",
		Help:    "Wall time of an import, model calls included.",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
	}, []string{"stage"})
	registerer.MustRegister(imports, items, duration)
	return &Metrics{imports: imports, items: items, duration: duration}
}

func (m *Metrics) observe(stage Stage, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = shared.Kind(err)
	}
	m.imports.WithLabelValues(string(stage), outcome).Inc()
	m.duration.WithLabelValues(string(stage)).Observe(elapsed.Seconds())
}

func (m *Metrics) item(kind string) {
	if m == nil {
		return
	}
	m.items.WithLabelValues(kind).Inc()
}
