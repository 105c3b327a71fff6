package qrs

import (
	"gonum.org/v1/gonum/stat"
)

func init() {
	Register("threshold", func() Detector { return &Threshold{} })
}

// Threshold is a fixed-threshold peak picker: a sample is a beat when it
// exceeds mean + 3*stddev of the whole signal and is the largest sample
// within the refractory spacing. It is strictly local apart from the
// global statistics, which makes it useful as a deterministic baseline
// strategy and in pipeline tests; the adaptive detector is the default
// for clinical recordings.
type Threshold struct{}

func (d *Threshold) Detect(sig []float64, fs int, opts Options) ([]int, error) {
	opts = opts.withDefaults()

	if fs <= 0 || len(sig) < 3 {
		return []int{}, nil
	}

	mean, std := stat.MeanStdDev(sig, nil)
	if std == 0 {
		return []int{}, nil
	}
	threshold := mean + 3*std

	spacing := max(1, int(opts.RefractoryPeriod*float64(fs)))

	var beats []int
	n := len(sig)
	for i := 1; i < n-1; i++ {
		if sig[i] <= threshold {
			continue
		}
		if sig[i] <= sig[i-1] || sig[i] < sig[i+1] {
			continue
		}
		lo := max(0, i-spacing)
		hi := min(n, i+spacing+1)
		isMax := true
		for j := lo; j < hi; j++ {
			if sig[j] > sig[i] || (sig[j] == sig[i] && j < i) {
				isMax = false
				break
			}
		}
		if isMax {
			beats = append(beats, i)
		}
	}

	return dedupSorted(beats), nil
}
