package datastore

import (
	"sync"

	"github.com/holterscan/holterscan/internal/observability/metrics"
)

var (
	globalMetrics *metrics.DatastoreMetrics
	metricsMutex  sync.RWMutex
	metricsOnce   sync.Once
)

// SetMetrics attaches the Prometheus collectors used by this package.
// Only the first call takes effect; the package works without metrics.
func SetMetrics(m *metrics.DatastoreMetrics) {
	metricsOnce.Do(func() {
		metricsMutex.Lock()
		defer metricsMutex.Unlock()
		globalMetrics = m
	})
}

func getMetrics() *metrics.DatastoreMetrics {
	metricsMutex.RLock()
	defer metricsMutex.RUnlock()
	return globalMetrics
}
