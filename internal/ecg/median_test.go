package ecg

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holterscan/holterscan/internal/errors"
)

// bruteMedian is the obvious quadratic reference implementation.
func bruteMedian(sig []float64, window int) []float64 {
	n := len(sig)
	half := window / 2
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		win := make([]float64, 0, window)
		for j := i - half; j <= i+half; j++ {
			k := j
			if k < 0 {
				k = 0
			}
			if k >= n {
				k = n - 1
			}
			win = append(win, sig[k])
		}
		sort.Float64s(win)
		out[i] = win[half]
	}
	return out
}

func TestMedianFilterMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	sig := make([]float64, 200)
	for i := range sig {
		sig[i] = rng.NormFloat64()
	}

	for _, window := range []int{1, 3, 5, 9, 31, 101, 501} {
		assert.Equal(t, bruteMedian(sig, window), medianFilter(sig, window),
			"window %d", window)
	}
}

func TestMedianFilterHandlesDuplicates(t *testing.T) {
	sig := []float64{1, 1, 2, 2, 2, 1, 1, 3, 3, 1}
	assert.Equal(t, bruteMedian(sig, 5), medianFilter(sig, 5))
}

func TestForceOdd(t *testing.T) {
	tests := map[int]int{-3: 1, 0: 1, 1: 1, 2: 3, 3: 3, 4: 5, 80: 81, 241: 241}
	for in, want := range tests {
		assert.Equal(t, want, forceOdd(in), "forceOdd(%d)", in)
	}
}

func TestRemoveBaselineConstantYieldsZero(t *testing.T) {
	sig := make([]float64, 100)
	for i := range sig {
		sig[i] = 2.5
	}
	out, err := RemoveBaseline(sig, 11, 31)
	require.NoError(t, err)
	for _, v := range out {
		assert.Zero(t, v)
	}
}

func TestRemoveBaselineStripsRampKeepsSpike(t *testing.T) {
	n := 400
	sig := make([]float64, n)
	for i := range sig {
		sig[i] = 0.01 * float64(i) // slow ramp
	}
	sig[200] += 5.0

	out, err := RemoveBaseline(sig, 11, 31)
	require.NoError(t, err)

	// Interior samples away from the spike sit on the removed baseline.
	for i := 50; i < 150; i++ {
		assert.InDelta(t, 0.0, out[i], 1e-9, "index %d", i)
	}
	// The spike is far narrower than the windows and survives.
	assert.InDelta(t, 5.0, out[200], 0.01)
}

func TestRemoveBaselineDoesNotMutateInput(t *testing.T) {
	sig := []float64{3, 1, 4, 1, 5, 9, 2, 6}
	orig := append([]float64(nil), sig...)
	_, err := RemoveBaseline(sig, 3, 3)
	require.NoError(t, err)
	assert.Equal(t, orig, sig)
}

func TestRemoveBaselineRejectsBadWindows(t *testing.T) {
	_, err := RemoveBaseline([]float64{1, 2, 3}, 0, 5)
	require.Error(t, err)
	assert.Equal(t, errors.CategoryConfiguration, errors.GetCategory(err))

	_, err = RemoveBaseline([]float64{1, 2, 3}, 5, -1)
	require.Error(t, err)
	assert.Equal(t, errors.CategoryConfiguration, errors.GetCategory(err))
}
