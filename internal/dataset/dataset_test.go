package dataset

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holterscan/holterscan/internal/errors"
)

func writeRawSignal(t *testing.T, path string, samples []float64) {
	t.Helper()
	buf := make([]byte, len(samples)*8)
	for i, s := range samples {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(s))
	}
	require.NoError(t, os.WriteFile(path, buf, 0o644))
}

func TestLoadSignalRawFloat64(t *testing.T) {
	dir := t.TempDir()
	want := []float64{0.5, -0.25, 1.0, 0.0}
	writeRawSignal(t, filepath.Join(dir, "A01.f64"), want)

	fl := NewFileLoader(dir, dir, 400)
	rec, err := fl.LoadSignal(filepath.Join(dir, "A01.f64"))
	require.NoError(t, err)

	assert.Equal(t, "A01", rec.ID)
	assert.Equal(t, 400, rec.SampleRate)
	assert.Equal(t, want, rec.Signal)
}

func TestLoadSignalUppercaseExtension(t *testing.T) {
	dir := t.TempDir()
	want := []float64{1.5, -2.0}
	writeRawSignal(t, filepath.Join(dir, "U01.F64"), want)

	fl := NewFileLoader(dir, dir, 400)
	rec, err := fl.LoadSignal(filepath.Join(dir, "U01.F64"))
	require.NoError(t, err)
	assert.Equal(t, "U01", rec.ID)
	assert.Equal(t, want, rec.Signal)
}

func TestLoadSignalRejectsTruncatedRaw(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.f64")
	require.NoError(t, os.WriteFile(path, []byte{1, 2, 3}, 0o644))

	fl := NewFileLoader(dir, dir, 400)
	_, err := fl.LoadSignal(path)
	require.Error(t, err)
	assert.Equal(t, errors.CategorySignalData, errors.GetCategory(err))
}

func TestLoadSignalUnsupportedExtension(t *testing.T) {
	fl := NewFileLoader(t.TempDir(), t.TempDir(), 400)
	_, err := fl.LoadSignal("record.mp3")
	require.Error(t, err)
	assert.Equal(t, errors.CategorySignalData, errors.GetCategory(err))
}

func TestLoadAnnotations(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "A01.csv")
	require.NoError(t, os.WriteFile(path, []byte("class,index\nS,5003\nV,98\nS,120\n"), 0o644))

	fl := NewFileLoader(dir, dir, 400)
	ann, err := fl.LoadAnnotations(path)
	require.NoError(t, err)

	assert.Equal(t, []int{120, 5003}, ann.SPB)
	assert.Equal(t, []int{98}, ann.PVC)
}

func TestLoadAnnotationsRejectsUnknownClass(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "A02.csv")
	require.NoError(t, os.WriteFile(path, []byte("S,100\nQ,200\n"), 0o644))

	fl := NewFileLoader(dir, dir, 400)
	_, err := fl.LoadAnnotations(path)
	require.Error(t, err)
	assert.Equal(t, errors.CategorySignalData, errors.GetCategory(err))
}

func TestLoadAnnotationsCachesByPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "A03.csv")
	require.NoError(t, os.WriteFile(path, []byte("S,100\n"), 0o644))

	fl := NewFileLoader(dir, dir, 400)
	first, err := fl.LoadAnnotations(path)
	require.NoError(t, err)

	// Rewrite the file; the cached parse is still served.
	require.NoError(t, os.WriteFile(path, []byte("V,999\n"), 0o644))
	second, err := fl.LoadAnnotations(path)
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestLoadRecord(t *testing.T) {
	sigDir := t.TempDir()
	refDir := t.TempDir()
	writeRawSignal(t, filepath.Join(sigDir, "A04.f64"), []float64{1, 2, 3})
	require.NoError(t, os.WriteFile(filepath.Join(refDir, "A04.csv"), []byte("S,1\n"), 0o644))

	fl := NewFileLoader(sigDir, refDir, 400)
	rec, ann, err := fl.LoadRecord("A04")
	require.NoError(t, err)

	assert.Equal(t, "A04", rec.ID)
	assert.Len(t, rec.Signal, 3)
	assert.Equal(t, []int{1}, ann.SPB)
}

func TestLoadRecordWithoutAnnotations(t *testing.T) {
	sigDir := t.TempDir()
	writeRawSignal(t, filepath.Join(sigDir, "A05.f64"), []float64{1})

	fl := NewFileLoader(sigDir, t.TempDir(), 400)
	_, ann, err := fl.LoadRecord("A05")
	require.NoError(t, err)
	assert.Empty(t, ann.SPB)
	assert.Empty(t, ann.PVC)
}

func TestLoadRecordMissingSignal(t *testing.T) {
	fl := NewFileLoader(t.TempDir(), t.TempDir(), 400)
	_, _, err := fl.LoadRecord("nope")
	require.Error(t, err)
	assert.Equal(t, errors.CategoryFileIO, errors.GetCategory(err))
}
