package ecg

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cycleSine samples a sine with an integer number of cycles, which the
// Fourier resampler reproduces exactly at any length.
func cycleSine(n, cycles int) []float64 {
	sig := make([]float64, n)
	for i := range sig {
		sig[i] = math.Sin(2 * math.Pi * float64(cycles) * float64(i) / float64(n))
	}
	return sig
}

func TestResampleSameLengthCopies(t *testing.T) {
	sig := []float64{1, 2, 3, 4, 5}
	out := Resample(sig, 5)
	assert.Equal(t, sig, out)
	out[0] = 99
	assert.Equal(t, 1.0, sig[0])
}

func TestResampleEdgeLengths(t *testing.T) {
	assert.Nil(t, Resample([]float64{1, 2}, 0))
	assert.Nil(t, Resample([]float64{1, 2}, -3))
	assert.Equal(t, []float64{0, 0, 0}, Resample(nil, 3))
}

func TestResamplePreservesConstant(t *testing.T) {
	sig := make([]float64, 100)
	for i := range sig {
		sig[i] = 2.5
	}
	for _, n := range []int{50, 73, 200, 251} {
		out := Resample(sig, n)
		require.Len(t, out, n)
		for i := range out {
			assert.InDelta(t, 2.5, out[i], 1e-9, "n=%d index %d", n, i)
		}
	}
}

func TestResampleUpsamplesSineExactly(t *testing.T) {
	src := cycleSine(200, 5)
	out := Resample(src, 400)
	want := cycleSine(400, 5)
	require.Len(t, out, 400)
	for i := range out {
		assert.InDelta(t, want[i], out[i], 1e-9, "index %d", i)
	}
}

func TestResampleDownsamplesSineExactly(t *testing.T) {
	src := cycleSine(400, 5)
	out := Resample(src, 200)
	want := cycleSine(200, 5)
	require.Len(t, out, 200)
	for i := range out {
		assert.InDelta(t, want[i], out[i], 1e-9, "index %d", i)
	}
}

func TestResampleFoldsNewNyquistBin(t *testing.T) {
	// A cosine landing exactly on the new Nyquist frequency keeps its
	// full amplitude after downsampling.
	src := make([]float64, 8)
	for i := range src {
		src[i] = math.Cos(2 * math.Pi * 2 * float64(i) / 8)
	}
	out := Resample(src, 4)
	want := []float64{1, -1, 1, -1}
	require.Len(t, out, 4)
	for i := range out {
		assert.InDelta(t, want[i], out[i], 1e-9, "index %d", i)
	}
}

func TestResampleRate(t *testing.T) {
	sig := cycleSine(1000, 10)

	out := ResampleRate(sig, 400, 360)
	assert.Len(t, out, 900)

	same := ResampleRate(sig, 400, 400)
	assert.Equal(t, sig, same)

	up := ResampleRate(sig, 200, 400)
	require.Len(t, up, 2000)
	want := cycleSine(2000, 10)
	for i := range up {
		assert.InDelta(t, want[i], up[i], 1e-9)
	}
}
