package qrs

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holterscan/holterscan/internal/errors"
)

func TestNewIsCaseInsensitive(t *testing.T) {
	for _, name := range []string{"threshold", "Threshold", "THRESHOLD"} {
		d, err := New(name)
		require.NoError(t, err, name)
		assert.IsType(t, &Threshold{}, d)
	}

	d, err := New("adaptive")
	require.NoError(t, err)
	assert.IsType(t, &Adaptive{}, d)
}

func TestNewUnknownDetector(t *testing.T) {
	_, err := New("wavelet")
	require.Error(t, err)
	assert.Equal(t, errors.CategoryConfiguration, errors.GetCategory(err))
	assert.Contains(t, err.Error(), "wavelet")
}

func TestNamesSorted(t *testing.T) {
	names := Names()
	assert.Contains(t, names, "adaptive")
	assert.Contains(t, names, "threshold")
	assert.IsIncreasing(t, names)
}

func TestOptionsDefaults(t *testing.T) {
	o := Options{}.withDefaults()
	assert.Equal(t, 0.2, o.RefractoryPeriod)
	assert.Equal(t, 0.15, o.IntegrationWindow)
	assert.Equal(t, 2.0, o.LearningPeriod)
	assert.Equal(t, 0.25, o.ThresholdFactor)

	o = Options{RefractoryPeriod: 0.3}.withDefaults()
	assert.Equal(t, 0.3, o.RefractoryPeriod)
	assert.Equal(t, 0.15, o.IntegrationWindow)
}

func TestThresholdFindsIsolatedSpikes(t *testing.T) {
	spikes := []int{500, 1500, 2500, 3500}
	sig := make([]float64, 4000)
	for i := range sig {
		sig[i] = 0.01 * math.Sin(2*math.Pi*float64(i)/1600)
	}
	for _, s := range spikes {
		sig[s] = 1.0
	}

	beats, err := (&Threshold{}).Detect(sig, 400, Options{})
	require.NoError(t, err)
	assert.Equal(t, spikes, beats)
}

func TestThresholdDegenerateSignals(t *testing.T) {
	d := &Threshold{}

	beats, err := d.Detect(make([]float64, 1000), 400, Options{})
	require.NoError(t, err)
	assert.Empty(t, beats)

	constant := []float64{2, 2, 2, 2, 2, 2}
	beats, err = d.Detect(constant, 400, Options{})
	require.NoError(t, err)
	assert.Empty(t, beats)

	beats, err = d.Detect([]float64{1, 2}, 400, Options{})
	require.NoError(t, err)
	assert.Empty(t, beats)

	beats, err = d.Detect([]float64{1, 5, 1, 5, 1}, 0, Options{})
	require.NoError(t, err)
	assert.Empty(t, beats)
}

func TestThresholdRespectsRefractorySpacing(t *testing.T) {
	// Two spikes closer than the refractory period: only the larger
	// survives the local-maximum test.
	sig := make([]float64, 2000)
	sig[1000] = 1.0
	sig[1030] = 0.8

	beats, err := (&Threshold{}).Detect(sig, 400, Options{})
	require.NoError(t, err)
	assert.Equal(t, []int{1000}, beats)
}

// syntheticBeats builds a clean single-lead trace: Gaussian complexes at
// regular intervals over a faint slow oscillation.
func syntheticBeats(n, fs, rr int) ([]float64, []int) {
	sig := make([]float64, n)
	for i := range sig {
		sig[i] = 0.01 * math.Sin(2*math.Pi*0.25*float64(i)/float64(fs))
	}
	width := float64(fs) / 25
	var centers []int
	for c := fs / 2; c < n-fs/2; c += rr {
		centers = append(centers, c)
		lo := max(0, c-4*int(width))
		hi := min(n, c+4*int(width))
		for i := lo; i < hi; i++ {
			d := float64(i-c) / width
			sig[i] += math.Exp(-d * d)
		}
	}
	return sig, centers
}

func TestAdaptiveFindsRegularBeats(t *testing.T) {
	fs := 400
	sig, centers := syntheticBeats(30*fs, fs, 320)

	beats, err := (&Adaptive{}).Detect(sig, fs, Options{})
	require.NoError(t, err)
	require.NotEmpty(t, beats)

	// Every reported beat must sit on a complex.
	for _, b := range beats {
		assert.True(t, nearAny(b, centers, 12), "beat %d not near any complex", b)
	}

	// Nearly all complexes must be found.
	found := 0
	for _, c := range centers {
		if nearAny(c, beats, 12) {
			found++
		}
	}
	assert.GreaterOrEqual(t, found, len(centers)*9/10,
		"found %d of %d complexes", found, len(centers))

	assert.IsIncreasing(t, beats)
}

func nearAny(x int, ys []int, tol int) bool {
	for _, y := range ys {
		if d := x - y; d >= -tol && d <= tol {
			return true
		}
	}
	return false
}

func TestAdaptiveDegenerateSignals(t *testing.T) {
	d := &Adaptive{}

	// Shorter than the minimum analysis span.
	beats, err := d.Detect(make([]float64, 100), 400, Options{})
	require.NoError(t, err)
	assert.Empty(t, beats)

	constant := make([]float64, 2000)
	for i := range constant {
		constant[i] = 1.5
	}
	beats, err = d.Detect(constant, 400, Options{})
	require.NoError(t, err)
	assert.Empty(t, beats)

	beats, err = d.Detect([]float64{1, 2, 3}, 0, Options{})
	require.NoError(t, err)
	assert.Empty(t, beats)
}

func TestAdaptiveBeatsAreValidIndices(t *testing.T) {
	fs := 400
	sig, _ := syntheticBeats(10*fs, fs, 280)

	beats, err := (&Adaptive{}).Detect(sig, fs, Options{})
	require.NoError(t, err)
	for _, b := range beats {
		assert.GreaterOrEqual(t, b, 0)
		assert.Less(t, b, len(sig))
	}
}

func TestDedupSorted(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3}, dedupSorted([]int{3, 1, 2, 1, 3}))
	assert.Equal(t, []int{5}, dedupSorted([]int{5}))
	assert.Empty(t, dedupSorted(nil))
}
