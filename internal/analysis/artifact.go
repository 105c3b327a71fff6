package analysis

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/holterscan/holterscan/internal/errors"
)

// writeArtifact stores the filtered signal as a raw little-endian
// float64 file under dir, written to a temporary file and renamed so a
// crash never leaves a partial artifact behind. An existing artifact is
// left untouched: the pipeline is deterministic, so the cached result is
// as good as a fresh one.
func writeArtifact(dir, recordID string, filtered []float64) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", artifactErr(err, dir)
	}

	path := filepath.Join(dir, recordID+".filtered.f64")
	if _, err := os.Stat(path); err == nil {
		getLogger().Debug("artifact already cached", "path", path)
		return path, nil
	}

	buf := make([]byte, len(filtered)*8)
	for i, s := range filtered {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(s))
	}

	tmp, err := os.CreateTemp(dir, recordID+".*.tmp")
	if err != nil {
		return "", artifactErr(err, dir)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", artifactErr(err, tmpName)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", artifactErr(err, tmpName)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", artifactErr(err, path)
	}

	getLogger().Debug("artifact written", "path", path, "samples", len(filtered))
	return path, nil
}

// readArtifact loads a cached filtered signal.
func readArtifact(path string) ([]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, artifactErr(err, path)
	}
	if len(data)%8 != 0 {
		return nil, errors.Newf("artifact %s is truncated", path).
			Component("analysis").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}
	sig := make([]float64, len(data)/8)
	for i := range sig {
		sig[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
	}
	return sig, nil
}

func artifactErr(err error, path string) error {
	return errors.New(fmt.Errorf("artifact cache: %w", err)).
		Component("analysis").
		Category(errors.CategoryFileIO).
		Context("path", path).
		Build()
}
