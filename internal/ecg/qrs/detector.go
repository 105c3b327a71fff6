// Package qrs locates heartbeat timing references (R-peaks) in a
// filtered single-lead ECG signal. Detection algorithms are swappable
// strategies registered by name in a static lookup table.
package qrs

import (
	"sort"
	"strings"
	"sync"

	"github.com/holterscan/holterscan/internal/errors"
)

// Options tunes a detector. The zero value selects documented defaults;
// fields a given detector does not use are ignored.
type Options struct {
	// RefractoryPeriod is the minimum spacing between two beats, in
	// seconds. Default 0.2 s, the physiological lower bound.
	RefractoryPeriod float64
	// IntegrationWindow is the moving-integration window used to build
	// the detection envelope, in seconds. Default 0.15 s, the width of a
	// broad QRS complex.
	IntegrationWindow float64
	// LearningPeriod is the initial span used to seed the adaptive
	// thresholds, in seconds. Default 2 s.
	LearningPeriod float64
	// ThresholdFactor scales the detection threshold relative to the
	// running peak estimates. Default 0.25.
	ThresholdFactor float64
}

func (o Options) withDefaults() Options {
	if o.RefractoryPeriod <= 0 {
		o.RefractoryPeriod = 0.2
	}
	if o.IntegrationWindow <= 0 {
		o.IntegrationWindow = 0.15
	}
	if o.LearningPeriod <= 0 {
		o.LearningPeriod = 2.0
	}
	if o.ThresholdFactor <= 0 {
		o.ThresholdFactor = 0.25
	}
	return o
}

// Detector locates candidate beat positions in a sampled signal.
//
// Contract: the returned sequence is strictly increasing, deduplicated,
// and every index lies in [0, len(sig)). A degenerate signal (constant,
// all-zero, or shorter than the detector's minimum analysis window)
// yields an empty sequence, not an error.
type Detector interface {
	Detect(sig []float64, fs int, opts Options) ([]int, error)
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]func() Detector)
)

// Register adds a detector factory under the given name. Registering an
// existing name replaces the previous factory.
func Register(name string, factory func() Detector) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[strings.ToLower(name)] = factory
}

// New returns a detector instance by name. Unknown names are a
// configuration error.
func New(name string) (Detector, error) {
	registryMu.RLock()
	factory, ok := registry[strings.ToLower(name)]
	registryMu.RUnlock()
	if !ok {
		return nil, errors.Newf("unknown QRS detector %q (available: %s)", name, strings.Join(Names(), ", ")).
			Component("qrs").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return factory(), nil
}

// Names lists the registered detector names, sorted.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// dedupSorted sorts a beat sequence and removes duplicate indices,
// in place.
func dedupSorted(beats []int) []int {
	if len(beats) < 2 {
		return beats
	}
	sort.Ints(beats)
	out := beats[:1]
	for _, b := range beats[1:] {
		if b != out[len(out)-1] {
			out = append(out, b)
		}
	}
	return out
}
