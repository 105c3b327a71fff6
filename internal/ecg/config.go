package ecg

import (
	"math"

	"github.com/holterscan/holterscan/internal/conf"
	"github.com/holterscan/holterscan/internal/ecg/qrs"
	"github.com/holterscan/holterscan/internal/errors"
)

// Config is the immutable per-call configuration of the preprocessing
// pipeline. All lengths are in samples at the target sampling rate. It
// is constructed once (typically via ConfigFromSettings) and passed down
// the call chain; nothing reads ambient global state.
type Config struct {
	SampleRate int // target sampling rate; input at other rates is resampled

	Baseline        bool // enable baseline wander removal
	BaselineWindow1 int  // short-term median window, samples
	BaselineWindow2 int  // long-term median window, samples

	Bandpass    bool    // enable FIR bandpass filtering
	BandLow     float64 // Hz
	BandHigh    float64 // Hz
	FilterOrder int     // FIR order, forced even at design time

	Detector     string // registered detector name, empty disables detection
	DetectorOpts qrs.Options

	EpochLen     int // parallel chunk length, samples
	EpochOverlap int // overlap between adjacent chunks, samples, forced even
	MinTail      int // tails shorter than this merge into the final chunk, samples

	Workers int // worker pool size, 0 to autodetect
}

// ConfigFromSettings converts validated application settings into a
// pipeline configuration in sample units.
func ConfigFromSettings(s *conf.Settings) Config {
	fs := s.ECG.SampleRate
	return Config{
		SampleRate:      fs,
		Baseline:        s.ECG.Baseline.Enabled,
		BaselineWindow1: int(s.ECG.Baseline.Window1 * float64(fs)),
		BaselineWindow2: int(s.ECG.Baseline.Window2 * float64(fs)),
		Bandpass:        s.ECG.Bandpass.Enabled,
		BandLow:         s.ECG.Bandpass.Low,
		BandHigh:        s.ECG.Bandpass.High,
		FilterOrder:     int(math.Round(s.ECG.Bandpass.OrderFactor * float64(fs))),
		Detector:        s.ECG.Detector,
		EpochLen:        int(s.ECG.Epoch.Length * float64(fs)),
		EpochOverlap:    int(s.ECG.Epoch.Overlap * float64(fs)),
		MinTail:         int(s.ECG.Epoch.MinTail * float64(fs)),
		Workers:         s.ECG.Threads,
	}
}

// Validate rejects invalid configurations before any processing starts.
func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return configErrf("sample rate must be positive, got %d", c.SampleRate)
	}
	if c.Baseline && (c.BaselineWindow1 <= 0 || c.BaselineWindow2 <= 0) {
		return configErrf("baseline windows must be positive, got %d and %d",
			c.BaselineWindow1, c.BaselineWindow2)
	}
	if c.Bandpass {
		if c.BandLow < 0 || c.BandHigh <= c.BandLow || c.BandHigh >= float64(c.SampleRate)/2 {
			return configErrf("band [%g, %g] Hz is invalid for fs %d Hz",
				c.BandLow, c.BandHigh, c.SampleRate)
		}
		if c.FilterOrder < 2 {
			return configErrf("filter order must be at least 2, got %d", c.FilterOrder)
		}
	}
	if c.EpochLen <= 0 {
		return configErrf("epoch length must be positive, got %d samples", c.EpochLen)
	}
	if c.EpochOverlap < 0 || c.EpochOverlap >= c.EpochLen {
		return configErrf("epoch overlap %d must be non-negative and shorter than the epoch length %d",
			c.EpochOverlap, c.EpochLen)
	}
	if c.MinTail < 0 {
		return configErrf("minimum tail must not be negative, got %d", c.MinTail)
	}
	if c.Workers < 0 {
		return configErrf("worker count must not be negative, got %d", c.Workers)
	}
	if c.Detector != "" {
		if _, err := qrs.New(c.Detector); err != nil {
			return err
		}
	}
	return nil
}

func configErrf(format string, args ...any) error {
	return errors.Newf(format, args...).
		Component("ecg").
		Category(errors.CategoryConfiguration).
		Build()
}
