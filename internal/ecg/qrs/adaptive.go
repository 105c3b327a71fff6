package qrs

import (
	"math"
)

func init() {
	Register("adaptive", func() Detector { return &Adaptive{} })
}

// Adaptive is an open-loop adaptive-threshold QRS detector. The signal
// is differentiated, squared and integrated over a short moving window
// to build a detection envelope; envelope peaks are classified as QRS or
// noise against a threshold that tracks running estimates of the signal
// and noise peak levels. Each accepted envelope peak is then refined to
// the largest absolute amplitude of the underlying signal inside the
// integration window.
type Adaptive struct{}

// minAnalysisSeconds is the shortest signal the detector will analyze.
const minAnalysisSeconds = 2.0

func (d *Adaptive) Detect(sig []float64, fs int, opts Options) ([]int, error) {
	opts = opts.withDefaults()

	if fs <= 0 || len(sig) < int(minAnalysisSeconds*float64(fs)) {
		return []int{}, nil
	}
	if isConstant(sig) {
		return []int{}, nil
	}

	envelope := detectionEnvelope(sig, fs, opts)

	intWin := max(1, int(opts.IntegrationWindow*float64(fs)))
	refractory := max(1, int(opts.RefractoryPeriod*float64(fs)))
	learn := min(len(envelope), int(opts.LearningPeriod*float64(fs)))

	// Seed the running estimates from the learning span.
	var envMax, envSum float64
	for _, v := range envelope[:learn] {
		envSum += v
		if v > envMax {
			envMax = v
		}
	}
	signalLevel := 0.25 * envMax
	noiseLevel := 0.5 * envSum / float64(learn)

	var beats []int
	lastPeak := -refractory

	for _, p := range envelopePeaks(envelope, refractory) {
		threshold := noiseLevel + opts.ThresholdFactor*(signalLevel-noiseLevel)
		if envelope[p] > threshold && p-lastPeak >= refractory {
			signalLevel = 0.125*envelope[p] + 0.875*signalLevel
			lastPeak = p
			beats = append(beats, refinePeak(sig, p, intWin))
		} else {
			noiseLevel = 0.125*envelope[p] + 0.875*noiseLevel
		}
	}

	return dedupSorted(beats), nil
}

// detectionEnvelope computes the squared-derivative moving integral of
// the signal.
func detectionEnvelope(sig []float64, fs int, opts Options) []float64 {
	n := len(sig)

	// Central-difference derivative, squared.
	sq := make([]float64, n)
	for i := 1; i < n-1; i++ {
		d := (sig[i+1] - sig[i-1]) / 2
		sq[i] = d * d
	}

	// Moving-window integration.
	win := max(1, int(opts.IntegrationWindow*float64(fs)))
	envelope := make([]float64, n)
	var acc float64
	for i := 0; i < n; i++ {
		acc += sq[i]
		if i >= win {
			acc -= sq[i-win]
		}
		envelope[i] = acc / float64(win)
	}
	return envelope
}

// envelopePeaks returns indices of local maxima of the envelope that are
// the largest sample within +/- spacing.
func envelopePeaks(envelope []float64, spacing int) []int {
	var peaks []int
	n := len(envelope)
	for i := 1; i < n-1; i++ {
		if envelope[i] <= envelope[i-1] || envelope[i] < envelope[i+1] {
			continue
		}
		if envelope[i] == 0 {
			continue
		}
		lo := max(0, i-spacing)
		hi := min(n, i+spacing+1)
		isMax := true
		for j := lo; j < hi; j++ {
			if envelope[j] > envelope[i] {
				isMax = false
				break
			}
		}
		if isMax {
			peaks = append(peaks, i)
		}
	}
	return peaks
}

// refinePeak locates the R-peak as the sample of largest absolute
// amplitude within one integration window before the envelope peak.
func refinePeak(sig []float64, envPeak, intWin int) int {
	lo := max(0, envPeak-intWin)
	hi := min(len(sig), envPeak+1)
	best := lo
	for i := lo; i < hi; i++ {
		if math.Abs(sig[i]) > math.Abs(sig[best]) {
			best = i
		}
	}
	return best
}

func isConstant(sig []float64) bool {
	for _, v := range sig[1:] {
		if v != sig[0] {
			return false
		}
	}
	return true
}
