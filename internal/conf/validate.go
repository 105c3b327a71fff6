package conf

import (
	"github.com/holterscan/holterscan/internal/errors"
)

// ValidateSettings rejects invalid or contradictory options before any
// processing starts.
func ValidateSettings(settings *Settings) error {
	if err := validateECGSettings(&settings.ECG); err != nil {
		return err
	}
	return validateMatchingSettings(&settings.Matching)
}

func validateECGSettings(ecg *ECGSettings) error {
	if ecg.SampleRate <= 0 {
		return configErr("sample rate must be positive, got %d", ecg.SampleRate)
	}
	if ecg.Threads < 0 {
		return configErr("thread count must not be negative, got %d", ecg.Threads)
	}

	if ecg.Baseline.Enabled {
		if ecg.Baseline.Window1 <= 0 || ecg.Baseline.Window2 <= 0 {
			return configErr("baseline windows must be positive, got %g and %g",
				ecg.Baseline.Window1, ecg.Baseline.Window2)
		}
		if ecg.Baseline.Window1 >= ecg.Baseline.Window2 {
			return configErr("baseline window1 (%g s) must be shorter than window2 (%g s)",
				ecg.Baseline.Window1, ecg.Baseline.Window2)
		}
	}

	if ecg.Bandpass.Enabled {
		if ecg.Bandpass.Low < 0 || ecg.Bandpass.High <= ecg.Bandpass.Low {
			return configErr("bandpass band [%g, %g] Hz is not a valid frequency range",
				ecg.Bandpass.Low, ecg.Bandpass.High)
		}
		nyquist := float64(ecg.SampleRate) / 2
		if ecg.Bandpass.High >= nyquist {
			return configErr("bandpass high cutoff %g Hz is at or above the Nyquist frequency %g Hz",
				ecg.Bandpass.High, nyquist)
		}
		if ecg.Bandpass.OrderFactor <= 0 {
			return configErr("bandpass order factor must be positive, got %g", ecg.Bandpass.OrderFactor)
		}
	}

	if ecg.Epoch.Length <= 0 {
		return configErr("epoch length must be positive, got %g s", ecg.Epoch.Length)
	}
	if ecg.Epoch.Overlap < 0 || ecg.Epoch.Overlap >= ecg.Epoch.Length {
		return configErr("epoch overlap %g s must be non-negative and shorter than the epoch length %g s",
			ecg.Epoch.Overlap, ecg.Epoch.Length)
	}
	if ecg.Epoch.MinTail < 0 {
		return configErr("epoch minimum tail must not be negative, got %g s", ecg.Epoch.MinTail)
	}

	return nil
}

func validateMatchingSettings(m *MatchingSettings) error {
	if m.Tolerance <= 0 {
		return configErr("matching tolerance must be positive, got %g s", m.Tolerance)
	}
	if m.LeftMargin < 0 || m.RightMargin < 0 {
		return configErr("matching margins must not be negative, got %d and %d",
			m.LeftMargin, m.RightMargin)
	}
	if m.EpochLength <= 0 {
		return configErr("matching epoch length must be positive, got %g s", m.EpochLength)
	}
	return nil
}

func configErr(format string, args ...any) error {
	return errors.Newf(format, args...).
		Component("conf").
		Category(errors.CategoryConfiguration).
		Build()
}
