package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// BeatMatchMetrics contains Prometheus metrics for beat-annotation
// matching.
type BeatMatchMetrics struct {
	registry *prometheus.Registry

	matchDuration             prometheus.Histogram
	beatsLabeledTotal         *prometheus.CounterVec
	annotationsRecoveredTotal *prometheus.CounterVec
}

// NewBeatMatchMetrics creates and registers the matching metrics.
func NewBeatMatchMetrics(registry *prometheus.Registry) (*BeatMatchMetrics, error) {
	m := &BeatMatchMetrics{registry: registry}

	m.matchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "beatmatch_duration_seconds",
			Help:    "Wall time of one matching pass",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
	)

	m.beatsLabeledTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beatmatch_beats_labeled_total",
			Help: "Total number of beats labeled, by class",
		},
		[]string{"label"}, // N, S, V
	)

	m.annotationsRecoveredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beatmatch_annotations_recovered_total",
			Help: "Total number of unmatched annotations inserted as beats",
		},
		[]string{"class"}, // S, V
	)

	collectors := []prometheus.Collector{
		m.matchDuration,
		m.beatsLabeledTotal,
		m.annotationsRecoveredTotal,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RecordMatchDuration observes one matching pass duration in seconds.
func (m *BeatMatchMetrics) RecordMatchDuration(seconds float64) {
	if m == nil {
		return
	}
	m.matchDuration.Observe(seconds)
}

// RecordBeatsLabeled counts labeled beats per class.
func (m *BeatMatchMetrics) RecordBeatsLabeled(label string, n int) {
	if m == nil {
		return
	}
	m.beatsLabeledTotal.WithLabelValues(label).Add(float64(n))
}

// RecordAnnotationsRecovered counts recovered annotations per class.
func (m *BeatMatchMetrics) RecordAnnotationsRecovered(class string, n int) {
	if m == nil {
		return
	}
	m.annotationsRecoveredTotal.WithLabelValues(class).Add(float64(n))
}
