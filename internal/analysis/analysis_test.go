package analysis

import (
	"context"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holterscan/holterscan/internal/conf"
	"github.com/holterscan/holterscan/internal/datastore"
	"github.com/holterscan/holterscan/internal/errors"
)

func testSettings(t *testing.T) *conf.Settings {
	t.Helper()
	s := &conf.Settings{}
	s.ECG.SampleRate = 400
	s.ECG.Threads = 1
	s.ECG.Detector = "threshold"
	s.ECG.Epoch.Length = 600
	s.ECG.Epoch.Overlap = 10
	s.ECG.Epoch.MinTail = 30
	s.Matching.Tolerance = 0.15
	s.Matching.EpochLength = 3600
	s.Output.Dir = t.TempDir()
	s.Output.SQLite.Enabled = true
	s.Output.SQLite.Path = filepath.Join(t.TempDir(), "runs.db")
	return s
}

func writeTestSignal(t *testing.T, path string, samples []float64) {
	t.Helper()
	buf := make([]byte, len(samples)*8)
	for i, s := range samples {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(s))
	}
	require.NoError(t, os.WriteFile(path, buf, 0o644))
}

// spikeSignal returns a flat signal with unit spikes at the given
// locations, noisy enough that the threshold detector has a baseline to
// measure against.
func spikeSignal(n int, spikes []int) []float64 {
	sig := make([]float64, n)
	for i := range sig {
		sig[i] = 0.01 * math.Sin(float64(i)*0.37)
	}
	for _, s := range spikes {
		sig[s] = 1.0
	}
	return sig
}

func TestFileAnalysisEndToEnd(t *testing.T) {
	settings := testSettings(t)
	dir := t.TempDir()

	spikes := []int{500, 1500, 2500, 3500}
	writeTestSignal(t, filepath.Join(dir, "A01.f64"), spikeSignal(4000, spikes))
	// V annotation near the first beat, S near the second, plus one
	// annotation no beat can match.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "A01.csv"),
		[]byte("V,498\nS,1503\nS,3000\n"), 0o644))

	settings.Input.Path = filepath.Join(dir, "A01.f64")
	require.NoError(t, FileAnalysis(context.Background(), settings))

	// Artifact cached.
	artifact := filepath.Join(settings.Output.Dir, "A01.filtered.f64")
	info, err := os.Stat(artifact)
	require.NoError(t, err)
	assert.Equal(t, int64(4000*8), info.Size())

	// Run persisted with the recovered annotation included.
	store := datastore.New(settings)
	require.NotNil(t, store)
	require.NoError(t, store.Open())
	defer store.Close()

	run, err := store.LatestRun("A01")
	require.NoError(t, err)
	assert.Equal(t, "threshold", run.Detector)
	assert.Equal(t, "detect", run.Stages)
	assert.Equal(t, artifact, run.FilteredPath)

	locs := make([]int, len(run.Beats))
	labels := make([]string, len(run.Beats))
	for i, b := range run.Beats {
		locs[i] = b.Location
		labels[i] = b.Label
	}
	assert.Equal(t, []int{500, 1500, 2500, 3000, 3500}, locs)
	assert.Equal(t, []string{"V", "S", "N", "S", "N"}, labels)
}

func TestLabelAnalysisReusesStoredRun(t *testing.T) {
	settings := testSettings(t)
	dir := t.TempDir()
	settings.Dataset.ReferenceDir = dir

	spikes := []int{500, 1500, 2500, 3500}
	writeTestSignal(t, filepath.Join(dir, "A02.f64"), spikeSignal(4000, spikes))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "A02.csv"), []byte("S,1503\n"), 0o644))

	settings.Input.Path = filepath.Join(dir, "A02.f64")
	require.NoError(t, FileAnalysis(context.Background(), settings))

	// Change the annotations and re-label without re-preprocessing.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "A02.csv"), []byte("V,2498\n"), 0o644))
	require.NoError(t, LabelAnalysis(context.Background(), settings, "A02"))

	store := datastore.New(settings)
	require.NoError(t, store.Open())
	defer store.Close()

	runs, err := store.RunsForRecord("A02")
	require.NoError(t, err)
	assert.Len(t, runs, 2)

	run, err := store.LatestRun("A02")
	require.NoError(t, err)
	labels := make([]string, len(run.Beats))
	for i, b := range run.Beats {
		labels[i] = b.Label
	}
	assert.Equal(t, []string{"N", "N", "V", "N"}, labels)
}

func TestFileAnalysisReusesCachedRun(t *testing.T) {
	settings := testSettings(t)
	dir := t.TempDir()
	settings.Dataset.ReferenceDir = dir

	spikes := []int{500, 1500, 2500, 3500}
	writeTestSignal(t, filepath.Join(dir, "A03.f64"), spikeSignal(4000, spikes))
	// One annotation far from every detected beat: recovered as a beat.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "A03.csv"), []byte("S,3000\n"), 0o644))

	settings.Input.Path = filepath.Join(dir, "A03.f64")
	require.NoError(t, FileAnalysis(context.Background(), settings))

	store := datastore.New(settings)
	require.NoError(t, store.Open())
	defer store.Close()

	run, err := store.LatestRun("A03")
	require.NoError(t, err)
	require.Len(t, run.Beats, 5)

	// With the annotation gone, a second analysis reuses the cached
	// beats, recovered position included, and only relabels them.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "A03.csv"), nil, 0o644))
	require.NoError(t, FileAnalysis(context.Background(), settings))

	run, err = store.LatestRun("A03")
	require.NoError(t, err)
	locs := make([]int, len(run.Beats))
	for i, b := range run.Beats {
		locs[i] = b.Location
		assert.Equal(t, "N", b.Label)
	}
	assert.Equal(t, []int{500, 1500, 2500, 3000, 3500}, locs)

	// --force recomputes from the raw signal, dropping the stale beat.
	settings.Input.Force = true
	require.NoError(t, FileAnalysis(context.Background(), settings))

	run, err = store.LatestRun("A03")
	require.NoError(t, err)
	locs = locs[:0]
	for _, b := range run.Beats {
		locs = append(locs, b.Location)
	}
	assert.Equal(t, spikes, locs)

	runs, err := store.RunsForRecord("A03")
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}

func TestLabelAnalysisRejectsCorruptStoredBeats(t *testing.T) {
	settings := testSettings(t)
	dir := t.TempDir()
	settings.Dataset.ReferenceDir = dir
	require.NoError(t, os.WriteFile(filepath.Join(dir, "A04.csv"), []byte("S,100\n"), 0o644))

	artifact, err := writeArtifact(settings.Output.Dir, "A04", spikeSignal(1000, nil))
	require.NoError(t, err)

	store := datastore.New(settings)
	require.NoError(t, store.Open())
	run := &datastore.Run{RecordID: "A04", Detector: "threshold", SampleRate: 400, Stages: "detect", FilteredPath: artifact}
	require.NoError(t, store.SaveRun(run, []datastore.Beat{
		{Location: 200, Label: "N"},
		{Location: 100, Label: "N"},
	}))
	require.NoError(t, store.Close())

	err = LabelAnalysis(context.Background(), settings, "A04")
	require.Error(t, err)
	assert.Equal(t, errors.CategoryValidation, errors.GetCategory(err))
}

func TestFileAnalysisIgnoresCorruptCachedRun(t *testing.T) {
	settings := testSettings(t)
	dir := t.TempDir()
	settings.Dataset.ReferenceDir = dir

	spikes := []int{500, 1500}
	writeTestSignal(t, filepath.Join(dir, "A05.f64"), spikeSignal(2000, spikes))

	// Seed a run whose beat sequence is out of order: it must not be
	// reused.
	artifact, err := writeArtifact(settings.Output.Dir, "A05", spikeSignal(2000, spikes))
	require.NoError(t, err)

	store := datastore.New(settings)
	require.NoError(t, store.Open())
	defer store.Close()
	run := &datastore.Run{RecordID: "A05", Detector: "threshold", SampleRate: 400, Stages: "detect", FilteredPath: artifact}
	require.NoError(t, store.SaveRun(run, []datastore.Beat{
		{Location: 1500, Label: "N"},
		{Location: 500, Label: "N"},
	}))

	settings.Input.Path = filepath.Join(dir, "A05.f64")
	require.NoError(t, FileAnalysis(context.Background(), settings))

	latest, err := store.LatestRun("A05")
	require.NoError(t, err)
	locs := make([]int, len(latest.Beats))
	for i, b := range latest.Beats {
		locs[i] = b.Location
	}
	assert.Equal(t, spikes, locs)

	runs, err := store.RunsForRecord("A05")
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestDirectoryAnalysis(t *testing.T) {
	settings := testSettings(t)
	dir := t.TempDir()

	writeTestSignal(t, filepath.Join(dir, "B01.f64"), spikeSignal(2000, []int{400, 1200}))
	writeTestSignal(t, filepath.Join(dir, "B02.f64"), spikeSignal(2000, []int{600}))
	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.Mkdir(sub, 0o755))
	writeTestSignal(t, filepath.Join(sub, "B03.f64"), spikeSignal(2000, []int{800}))

	settings.Input.Path = dir
	settings.Input.Recursive = false
	require.NoError(t, DirectoryAnalysis(context.Background(), settings))

	store := datastore.New(settings)
	require.NoError(t, store.Open())
	defer store.Close()

	for id, want := range map[string]int{"B01": 1, "B02": 1, "B03": 0} {
		runs, err := store.RunsForRecord(id)
		require.NoError(t, err)
		assert.Len(t, runs, want, "record %s", id)
	}
}

func TestDirectoryAnalysisAggregatesFailures(t *testing.T) {
	settings := testSettings(t)
	dir := t.TempDir()

	writeTestSignal(t, filepath.Join(dir, "C01.f64"), spikeSignal(2000, []int{400}))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.f64"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "short.f64"), []byte{1, 2, 3}, 0o644))

	settings.Input.Path = dir
	err := DirectoryAnalysis(context.Background(), settings)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty.f64")
	assert.Contains(t, err.Error(), "short.f64")

	// The healthy record is still processed.
	store := datastore.New(settings)
	require.NoError(t, store.Open())
	defer store.Close()
	runs, err := store.RunsForRecord("C01")
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestArtifactRoundTripAndWriteOnce(t *testing.T) {
	dir := t.TempDir()
	sig := []float64{0.5, -1.25, 3.0}

	path, err := writeArtifact(dir, "R1", sig)
	require.NoError(t, err)

	got, err := readArtifact(path)
	require.NoError(t, err)
	assert.Equal(t, sig, got)

	// A second write keeps the existing artifact.
	path2, err := writeArtifact(dir, "R1", []float64{9, 9, 9, 9})
	require.NoError(t, err)
	assert.Equal(t, path, path2)

	got, err = readArtifact(path)
	require.NoError(t, err)
	assert.Equal(t, sig, got)
}

func TestCollectSignalFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.f64", "b.wav", "c.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte{0}, 0o644))
	}
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "d.f64"), []byte{0}, 0o644))

	flat, err := collectSignalFiles(dir, false)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.f64"), filepath.Join(dir, "b.wav")}, flat)

	deep, err := collectSignalFiles(dir, true)
	require.NoError(t, err)
	assert.Len(t, deep, 3)
}
