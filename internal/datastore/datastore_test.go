package datastore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holterscan/holterscan/internal/conf"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	settings := &conf.Settings{}
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = filepath.Join(t.TempDir(), "test.db")

	store, ok := New(settings).(*SQLiteStore)
	require.True(t, ok)
	require.NoError(t, store.Open())
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestNewReturnsNilWhenDisabled(t *testing.T) {
	settings := &conf.Settings{}
	settings.Output.SQLite.Enabled = false
	assert.Nil(t, New(settings))
}

func TestSaveAndGetRun(t *testing.T) {
	store := openTestStore(t)

	run := &Run{
		RecordID:   "A01",
		Detector:   "adaptive",
		SampleRate: 400,
		Stages:     "baseline,bandpass",
	}
	beats := []Beat{
		{Location: 100, Label: "V"},
		{Location: 5000, Label: "S"},
		{Location: 9000, Label: "N"},
	}
	require.NoError(t, store.SaveRun(run, beats))
	require.NotEmpty(t, run.ID)

	got, err := store.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, "A01", got.RecordID)
	assert.Equal(t, 3, got.BeatCount)
	require.Len(t, got.Beats, 3)
	assert.Equal(t, 100, got.Beats[0].Location)
	assert.Equal(t, "V", got.Beats[0].Label)
}

func TestLatestRun(t *testing.T) {
	store := openTestStore(t)

	first := &Run{RecordID: "A02", Detector: "adaptive"}
	require.NoError(t, store.SaveRun(first, nil))
	second := &Run{RecordID: "A02", Detector: "threshold"}
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	require.NoError(t, store.SaveRun(second, []Beat{{Location: 42, Label: "N"}}))

	got, err := store.LatestRun("A02")
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)
	assert.Len(t, got.Beats, 1)
}

func TestRunsForRecord(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.SaveRun(&Run{RecordID: "A03"}, nil))
	require.NoError(t, store.SaveRun(&Run{RecordID: "A03"}, nil))
	require.NoError(t, store.SaveRun(&Run{RecordID: "other"}, nil))

	runs, err := store.RunsForRecord("A03")
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestGetRunMissing(t *testing.T) {
	store := openTestStore(t)
	_, err := store.GetRun("no-such-run")
	assert.Error(t, err)
}
