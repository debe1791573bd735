// Package metrics provides Prometheus observability for the ingestion
// pipeline: per-item results by status and rejection kind, and graph write
// counts and latencies.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the ingestion pipeline.
type Metrics struct {
	Results       *prometheus.CounterVec
	GraphWrites   *prometheus.CounterVec
	WriteDuration *prometheus.HistogramVec
}

// New creates a Metrics instance registered on the default registry.
// Call once at process startup.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith creates a Metrics instance registered on the given registerer.
// Tests use a fresh registry to avoid duplicate registration.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Results: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "semsurvey_ingest_results_total",
			Help: "Per-item ingestion results by status and rejection kind",
		}, []string{"status", "reason_kind"}),
		GraphWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "semsurvey_graph_writes_total",
			Help: "Graph writer invocations by mode (single or batch)",
		}, []string{"mode"}),
		WriteDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "semsurvey_graph_write_duration_seconds",
			Help:    "Duration of graph writer calls by mode",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"mode"}),
	}
}

// IncrementResult records one per-item ingestion outcome. reasonKind is
// empty for accepted items.
func (m *Metrics) IncrementResult(status, reasonKind string) {
	if m == nil {
		return
	}
	m.Results.WithLabelValues(status, reasonKind).Inc()
}

// ObserveWrite records a graph writer invocation and its duration.
// Call with time.Now() captured at the start of the write.
func (m *Metrics) ObserveWrite(mode string, start time.Time) {
	if m == nil {
		return
	}
	m.GraphWrites.WithLabelValues(mode).Inc()
	m.WriteDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
}
