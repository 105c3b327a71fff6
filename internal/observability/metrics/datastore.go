package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DatastoreMetrics contains Prometheus metrics for run persistence.
type DatastoreMetrics struct {
	registry *prometheus.Registry

	runsSavedTotal *prometheus.CounterVec
	saveDuration   prometheus.Histogram
}

// NewDatastoreMetrics creates and registers the datastore metrics.
func NewDatastoreMetrics(registry *prometheus.Registry) (*DatastoreMetrics, error) {
	m := &DatastoreMetrics{registry: registry}

	m.runsSavedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datastore_runs_saved_total",
			Help: "Total number of analysis runs persisted",
		},
		[]string{"status"}, // success, error
	)

	m.saveDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "datastore_save_duration_seconds",
			Help:    "Wall time of one run save",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
	)

	collectors := []prometheus.Collector{m.runsSavedTotal, m.saveDuration}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RecordRunSaved counts one persisted run with its outcome.
func (m *DatastoreMetrics) RecordRunSaved(status string) {
	if m == nil {
		return
	}
	m.runsSavedTotal.WithLabelValues(status).Inc()
}

// RecordSaveDuration observes one save duration in seconds.
func (m *DatastoreMetrics) RecordSaveDuration(seconds float64) {
	if m == nil {
		return
	}
	m.saveDuration.Observe(seconds)
}
