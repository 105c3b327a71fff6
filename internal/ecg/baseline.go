package ecg

import (
	"github.com/holterscan/holterscan/internal/errors"
)

// RemoveBaseline strips slow baseline wander from a signal by cascaded
// median filtering: a short window (window1) estimates the short-term
// baseline, a longer window (window2) smooths that estimate, and the
// twice-filtered baseline is subtracted from the original signal.
//
// Window lengths are given in samples and forced to the nearest odd
// value >= 1. The returned signal has the same length as the input; the
// input is not modified.
func RemoveBaseline(sig []float64, window1, window2 int) ([]float64, error) {
	if window1 <= 0 || window2 <= 0 {
		return nil, errors.Newf("baseline windows must be positive, got %d and %d", window1, window2).
			Component("ecg").
			Category(errors.CategoryConfiguration).
			Build()
	}

	w1 := forceOdd(window1)
	w2 := forceOdd(window2)

	baseline := medianFilter(sig, w1)
	baseline = medianFilter(baseline, w2)

	out := make([]float64, len(sig))
	for i := range sig {
		out[i] = sig[i] - baseline[i]
	}
	return out, nil
}
