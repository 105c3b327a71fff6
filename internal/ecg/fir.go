package ecg

import (
	"math"

	"github.com/holterscan/holterscan/internal/errors"
)

// Bandpass applies a linear-phase FIR bandpass filter to the signal.
//
// The kernel is a Hamming-windowed sinc of order `order` (forced even so
// the tap count is odd and the group delay is a whole number of
// samples). The output is delay-compensated by that group delay, so the
// filter is effectively zero phase, and edge samples are replicated
// ("nearest" policy) during convolution so the output length equals the
// input length.
func Bandpass(sig []float64, fs int, low, high float64, order int) ([]float64, error) {
	if fs <= 0 {
		return nil, errors.Newf("sampling rate must be positive, got %d", fs).
			Component("ecg").
			Category(errors.CategoryConfiguration).
			Build()
	}
	nyquist := float64(fs) / 2
	if low < 0 || high <= low || high >= nyquist {
		return nil, errors.Newf("band [%g, %g] Hz is invalid for fs %d Hz", low, high, fs).
			Component("ecg").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if order < 2 {
		return nil, errors.Newf("filter order must be at least 2, got %d", order).
			Component("ecg").
			Category(errors.CategoryConfiguration).
			Build()
	}

	kernel := bandpassKernel(fs, low, high, order)
	return convolveSame(sig, kernel), nil
}

// bandpassKernel designs a windowed-sinc FIR bandpass kernel. The gain
// is normalized to unity at the center of the passband.
func bandpassKernel(fs int, low, high float64, order int) []float64 {
	order = 2 * (order / 2) // force even, odd tap count
	taps := order + 1
	fl := low / float64(fs) // normalized cutoff, cycles per sample
	fh := high / float64(fs)
	mid := order / 2

	kernel := make([]float64, taps)
	for n := 0; n < taps; n++ {
		m := float64(n - mid)
		// Difference of two lowpass sincs gives the bandpass response.
		kernel[n] = 2*fh*sinc(2*fh*m) - 2*fl*sinc(2*fl*m)
		// Hamming window.
		kernel[n] *= 0.54 - 0.46*math.Cos(2*math.Pi*float64(n)/float64(order))
	}

	// Normalize gain at the passband center frequency.
	fc := (fl + fh) / 2
	var gain float64
	for n := 0; n < taps; n++ {
		gain += kernel[n] * math.Cos(2*math.Pi*fc*float64(n-mid))
	}
	if gain != 0 {
		for n := range kernel {
			kernel[n] /= gain
		}
	}
	return kernel
}

// convolveSame convolves the signal with a symmetric odd-length kernel,
// compensating the (len(kernel)-1)/2 sample group delay and replicating
// edge samples, so len(out) == len(sig).
func convolveSame(sig, kernel []float64) []float64 {
	n := len(sig)
	delay := (len(kernel) - 1) / 2
	out := make([]float64, n)

	clamp := func(i int) int {
		if i < 0 {
			return 0
		}
		if i >= n {
			return n - 1
		}
		return i
	}

	for i := 0; i < n; i++ {
		var acc float64
		for k, h := range kernel {
			acc += h * sig[clamp(i+delay-k)]
		}
		out[i] = acc
	}
	return out
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	return math.Sin(math.Pi*x) / (math.Pi * x)
}
