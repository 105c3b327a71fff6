package ecg

import (
	"math"

	"github.com/holterscan/holterscan/internal/errors"
)

// validateSignal rejects degenerate input before processing,
// distinguishing a signal that is too short from one that is
// structurally invalid.
func validateSignal(sig []float64) error {
	if len(sig) == 0 {
		return errors.Newf("signal is empty, too short to process").
			Component("ecg").
			Category(errors.CategorySignalData).
			Build()
	}
	for i, v := range sig {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.Newf("signal is structurally invalid: non-finite sample at index %d", i).
				Component("ecg").
				Category(errors.CategorySignalData).
				Context("index", i).
				Build()
		}
	}
	return nil
}

// IsBeatSequence reports whether beats is a valid beat sequence:
// strictly increasing, with every index inside [0, sigLen).
func IsBeatSequence(beats []int, sigLen int) bool {
	for i, b := range beats {
		if b < 0 || b >= sigLen {
			return false
		}
		if i > 0 && b <= beats[i-1] {
			return false
		}
	}
	return true
}
