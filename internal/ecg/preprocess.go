// Package ecg implements the signal preprocessing pipeline for
// long-duration single-lead ECG recordings: baseline wander removal by
// cascaded median filtering, FIR bandpass filtering, and QRS detection,
// over one contiguous buffer or chunked across a worker pool.
package ecg

import (
	"github.com/holterscan/holterscan/internal/ecg/qrs"
)

// Result is the output of the preprocessing pipeline. Both fields are
// freshly allocated and never alias the input; downstream consumers
// treat them as read-only.
type Result struct {
	// Filtered is the processed signal. Its length equals the input
	// length after resampling to the target rate.
	Filtered []float64
	// Beats are detected beat locations: strictly increasing sample
	// indices into Filtered. Empty when detection is disabled.
	Beats []int
}

// Preprocess runs the single-segment pipeline on one contiguous signal
// buffer: resample to the target rate if needed, then baseline removal,
// bandpass filtering and beat detection per the configuration. Stages
// are independently toggleable; the order is fixed.
//
// Pure function: the same signal and configuration always produce the
// same result, and the input slice is never modified.
func Preprocess(sig []float64, fs int, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := validateSignal(sig); err != nil {
		return nil, err
	}

	var filtered []float64
	if fs != cfg.SampleRate {
		filtered = ResampleRate(sig, fs, cfg.SampleRate)
	} else {
		filtered = make([]float64, len(sig))
		copy(filtered, sig)
	}

	if cfg.Baseline {
		out, err := RemoveBaseline(filtered, cfg.BaselineWindow1, cfg.BaselineWindow2)
		if err != nil {
			return nil, err
		}
		filtered = out
	}

	if cfg.Bandpass {
		out, err := Bandpass(filtered, cfg.SampleRate, cfg.BandLow, cfg.BandHigh, cfg.FilterOrder)
		if err != nil {
			return nil, err
		}
		filtered = out
	}

	beats := []int{}
	if cfg.Detector != "" {
		detector, err := qrs.New(cfg.Detector)
		if err != nil {
			return nil, err
		}
		beats, err = detector.Detect(filtered, cfg.SampleRate, cfg.DetectorOpts)
		if err != nil {
			return nil, err
		}
	}

	return &Result{Filtered: filtered, Beats: beats}, nil
}
