package ecg

import (
	"sort"
)

// medianFilter applies a sliding-window median of the given odd window
// length. Samples beyond either end are replicated from the nearest edge
// sample, so the output has the same length as the input and carries no
// zero-padding artifacts.
//
// The window is maintained as a sorted slice; each slide removes the
// outgoing sample and inserts the incoming one by binary search.
func medianFilter(sig []float64, window int) []float64 {
	n := len(sig)
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	half := window / 2

	// clamp implements the nearest-edge boundary policy.
	clamp := func(i int) int {
		if i < 0 {
			return 0
		}
		if i >= n {
			return n - 1
		}
		return i
	}

	// Initial window centered on index 0.
	win := make([]float64, 0, window)
	for j := -half; j <= half; j++ {
		win = append(win, sig[clamp(j)])
	}
	sort.Float64s(win)
	out[0] = win[half]

	for i := 1; i < n; i++ {
		outgoing := sig[clamp(i-1-half)]
		incoming := sig[clamp(i+half)]
		if outgoing != incoming {
			idx := sort.SearchFloat64s(win, outgoing)
			copy(win[idx:], win[idx+1:])
			win = win[:len(win)-1]

			idx = sort.SearchFloat64s(win, incoming)
			win = append(win, 0)
			copy(win[idx+1:], win[idx:])
			win[idx] = incoming
		}
		out[i] = win[half]
	}
	return out
}

// forceOdd rounds a window length to the nearest odd value >= 1,
// matching the convention that a median window must have a center.
func forceOdd(window int) int {
	if window < 1 {
		return 1
	}
	return 2*(window/2) + 1
}
