package dataset

import (
	"encoding/binary"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/holterscan/holterscan/internal/errors"
)

// readRawFloat64 reads a headerless little-endian float64 signal file.
// The sample rate comes from the loader configuration.
func (fl *FileLoader) readRawFloat64(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fileIOErr(err, path)
	}
	if len(data)%8 != 0 {
		return nil, errors.Newf("raw signal file %s is truncated: %d bytes is not a multiple of 8",
			path, len(data)).
			Component("dataset").
			Category(errors.CategorySignalData).
			Context("path", path).
			Build()
	}

	sig := make([]float64, len(data)/8)
	for i := range sig {
		sig[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
	}
	return &Record{ID: recordID(path), Signal: sig, SampleRate: fl.SampleRate}, nil
}

// readWAV decodes a single-channel PCM WAV file into float64 samples
// normalized to [-1, 1).
func (fl *FileLoader) readWAV(path string) (*Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fileIOErr(err, path)
	}
	defer file.Close()

	decoder := wav.NewDecoder(file)
	decoder.ReadInfo()
	if !decoder.IsValidFile() {
		return nil, signalDataErrf(path, "not a valid WAV file")
	}
	if decoder.NumChans != 1 {
		return nil, signalDataErrf(path, "expected a single channel, got %d", decoder.NumChans)
	}

	divisor, err := sampleDivisor(int(decoder.BitDepth))
	if err != nil {
		return nil, err
	}

	var sig []float64
	buf := &audio.IntBuffer{
		Data:   make([]int, 65536),
		Format: &audio.Format{SampleRate: int(decoder.SampleRate), NumChannels: 1},
	}
	for {
		n, err := decoder.PCMBuffer(buf)
		if err != nil {
			return nil, fileIOErr(err, path)
		}
		if n == 0 {
			break
		}
		for _, s := range buf.Data[:n] {
			sig = append(sig, float64(s)/divisor)
		}
	}

	return &Record{ID: recordID(path), Signal: sig, SampleRate: int(decoder.SampleRate)}, nil
}

func sampleDivisor(bitDepth int) (float64, error) {
	switch bitDepth {
	case 16:
		return 32768.0, nil
	case 24:
		return 8388608.0, nil
	case 32:
		return 2147483648.0, nil
	default:
		return 0, errors.Newf("unsupported WAV bit depth: %d", bitDepth).
			Component("dataset").
			Category(errors.CategorySignalData).
			Build()
	}
}

func signalDataErrf(path, format string, args ...any) error {
	return errors.Newf(format, args...).
		Component("dataset").
		Category(errors.CategorySignalData).
		Context("path", path).
		Build()
}
