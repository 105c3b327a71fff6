// Package metrics provides Prometheus metric collectors for the
// analysis pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ECGMetrics contains Prometheus metrics for signal preprocessing and
// QRS detection.
type ECGMetrics struct {
	registry *prometheus.Registry

	chunksProcessedTotal  *prometheus.CounterVec
	preprocessDuration    *prometheus.HistogramVec
	samplesProcessedTotal prometheus.Counter
	beatsDetectedTotal    *prometheus.CounterVec
	preprocessErrorsTotal *prometheus.CounterVec
}

// NewECGMetrics creates and registers the preprocessing metrics.
func NewECGMetrics(registry *prometheus.Registry) (*ECGMetrics, error) {
	m := &ECGMetrics{registry: registry}

	m.chunksProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecg_chunks_processed_total",
			Help: "Total number of signal chunks processed",
		},
		[]string{"status"}, // success, error
	)

	m.preprocessDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ecg_preprocess_duration_seconds",
			Help:    "Wall time of one preprocessing pass",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14), // 10ms to ~164s
		},
		[]string{"mode"}, // serial, parallel
	)

	m.samplesProcessedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ecg_samples_processed_total",
			Help: "Total number of signal samples preprocessed",
		},
	)

	m.beatsDetectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecg_beats_detected_total",
			Help: "Total number of QRS complexes detected",
		},
		[]string{"detector"},
	)

	m.preprocessErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecg_preprocess_errors_total",
			Help: "Total number of preprocessing failures",
		},
		[]string{"category"},
	)

	collectors := []prometheus.Collector{
		m.chunksProcessedTotal,
		m.preprocessDuration,
		m.samplesProcessedTotal,
		m.beatsDetectedTotal,
		m.preprocessErrorsTotal,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RecordChunkProcessed counts one processed chunk with its outcome.
func (m *ECGMetrics) RecordChunkProcessed(status string) {
	if m == nil {
		return
	}
	m.chunksProcessedTotal.WithLabelValues(status).Inc()
}

// RecordPreprocessDuration observes one pass duration in seconds.
func (m *ECGMetrics) RecordPreprocessDuration(mode string, seconds float64) {
	if m == nil {
		return
	}
	m.preprocessDuration.WithLabelValues(mode).Observe(seconds)
}

// RecordSamplesProcessed counts preprocessed samples.
func (m *ECGMetrics) RecordSamplesProcessed(n int) {
	if m == nil {
		return
	}
	m.samplesProcessedTotal.Add(float64(n))
}

// RecordBeatsDetected counts detected beats per detector.
func (m *ECGMetrics) RecordBeatsDetected(detector string, n int) {
	if m == nil {
		return
	}
	m.beatsDetectedTotal.WithLabelValues(detector).Add(float64(n))
}

// RecordPreprocessError counts one failure by error category.
func (m *ECGMetrics) RecordPreprocessError(category string) {
	if m == nil {
		return
	}
	m.preprocessErrorsTotal.WithLabelValues(category).Inc()
}
