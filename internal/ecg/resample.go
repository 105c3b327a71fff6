package ecg

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Resample changes the number of samples in a signal to n using the
// Fourier method: the spectrum is truncated (downsampling) or
// zero-padded (upsampling) and transformed back. When zero-padding past
// an even-length input the original Nyquist bin is halved so its energy
// is not duplicated.
//
// The input is assumed periodic, as with any Fourier resampler; for ECG
// segments the wrap-around transient is confined to the extreme ends.
func Resample(sig []float64, n int) []float64 {
	src := len(sig)
	if n <= 0 {
		return nil
	}
	if src == 0 {
		return make([]float64, n)
	}
	if n == src {
		out := make([]float64, src)
		copy(out, sig)
		return out
	}

	fwd := fourier.NewFFT(src)
	coeffs := fwd.Coefficients(nil, sig)

	dstBins := n/2 + 1
	dst := make([]complex128, dstBins)
	keep := min(len(coeffs), dstBins)
	copy(dst, coeffs[:keep])

	if n > src && src%2 == 0 {
		// The old Nyquist bin becomes an interior bin; halve it since
		// its mirror image is not representable in the real transform.
		dst[src/2] *= complex(0.5, 0)
	}
	if n < src && n%2 == 0 {
		// The new Nyquist bin folds the energy of two source bins into
		// one and must be real for a real output sequence.
		dst[n/2] = complex(2*real(dst[n/2]), 0)
	}

	inv := fourier.NewFFT(n)
	out := inv.Sequence(nil, dst)

	// Coefficients/Sequence are unnormalized; a round trip scales by the
	// forward length.
	scale := 1 / float64(src)
	for i := range out {
		out[i] *= scale
	}
	return out
}

// ResampleRate resamples a signal from one sampling rate to another,
// rounding the output length.
func ResampleRate(sig []float64, fromRate, toRate int) []float64 {
	if fromRate == toRate {
		out := make([]float64, len(sig))
		copy(out, sig)
		return out
	}
	n := int(math.Round(float64(len(sig)) * float64(toRate) / float64(fromRate)))
	return Resample(sig, n)
}
