package analysis

import (
	"context"
	"path/filepath"
	"time"

	"github.com/holterscan/holterscan/internal/beatmatch"
	"github.com/holterscan/holterscan/internal/conf"
	"github.com/holterscan/holterscan/internal/dataset"
	"github.com/holterscan/holterscan/internal/datastore"
	"github.com/holterscan/holterscan/internal/ecg"
	"github.com/holterscan/holterscan/internal/errors"
)

// LabelAnalysis re-labels the most recent stored run of a record
// against its reference annotations, without repeating the
// preprocessing pass. The beat locations come from the datastore; the
// signal length comes from the cached filtered artifact. A new run row
// is saved with the fresh labels.
func LabelAnalysis(ctx context.Context, settings *conf.Settings, recordID string) error {
	store := datastore.New(settings)
	if store == nil {
		return errors.Newf("re-labeling requires the sqlite datastore to be enabled").
			Component("analysis").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if err := store.Open(); err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			getLogger().Warn("closing datastore", "error", err)
		}
	}()

	run, err := store.LatestRun(recordID)
	if err != nil {
		return err
	}
	if run.FilteredPath == "" {
		return errors.Newf("run %s has no cached filtered artifact; re-run the file analysis", run.ID).
			Component("analysis").
			Category(errors.CategoryFileIO).
			Context("record", recordID).
			Build()
	}

	filtered, err := readArtifact(run.FilteredPath)
	if err != nil {
		return err
	}

	refDir := settings.Dataset.ReferenceDir
	if refDir == "" {
		refDir = filepath.Dir(run.FilteredPath)
	}
	loader := dataset.NewFileLoader(settings.Dataset.SignalDir, refDir, settings.ECG.SampleRate)
	ann, err := loader.LoadAnnotations(filepath.Join(refDir, recordID+".csv"))
	if err != nil {
		return err
	}

	// Stored beats may include annotations recovered by the previous
	// labeling. Those sit at distance zero from their annotation, so
	// re-matching labels them again instead of duplicating them.
	beats := make([]int, 0, len(run.Beats))
	for _, b := range run.Beats {
		beats = append(beats, b.Location)
	}
	if !ecg.IsBeatSequence(beats, len(filtered)) {
		return errors.Newf("run %s holds a corrupt beat sequence; re-run the file analysis", run.ID).
			Component("analysis").
			Category(errors.CategoryValidation).
			Context("record", recordID).
			Build()
	}

	start := time.Now()
	matched, err := beatmatch.Match(ctx, beats, ann.SPB, ann.PVC, matchConfig(settings, len(filtered)))
	if err != nil {
		return err
	}

	summary := labelSummary(matched.Labels)
	getLogger().Info("record re-labeled",
		"record", recordID,
		"previous_run", run.ID,
		"beats", len(matched.Beats),
		"normal", summary[beatmatch.Normal],
		"spb", summary[beatmatch.SPB],
		"pvc", summary[beatmatch.PVC],
		"duration_ms", time.Since(start).Milliseconds())

	rows := make([]datastore.Beat, len(matched.Beats))
	for i, b := range matched.Beats {
		rows[i] = datastore.Beat{Location: b, Label: matched.Labels[i].String()}
	}
	newRun := &datastore.Run{
		RecordID:     recordID,
		Detector:     run.Detector,
		SampleRate:   run.SampleRate,
		Stages:       run.Stages,
		FilteredPath: run.FilteredPath,
	}
	return store.SaveRun(newRun, rows)
}
