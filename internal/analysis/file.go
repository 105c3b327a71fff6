// Package analysis orchestrates full record analyses: load the signal
// and its reference annotations, run the preprocessing pipeline, label
// the detected beats, and persist the results.
package analysis

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/holterscan/holterscan/internal/beatmatch"
	"github.com/holterscan/holterscan/internal/conf"
	"github.com/holterscan/holterscan/internal/dataset"
	"github.com/holterscan/holterscan/internal/datastore"
	"github.com/holterscan/holterscan/internal/ecg"
	"github.com/holterscan/holterscan/internal/errors"
)

// FileAnalysis analyzes the single record at settings.Input.Path and
// persists the outcome. The annotation file is looked up in the
// configured reference directory, falling back to the signal's own
// directory; a record without annotations is processed detection-only.
func FileAnalysis(ctx context.Context, settings *conf.Settings) error {
	path := settings.Input.Path
	if err := validateSignalFile(path); err != nil {
		return err
	}

	refDir := settings.Dataset.ReferenceDir
	if refDir == "" {
		refDir = filepath.Dir(path)
	}
	loader := dataset.NewFileLoader(filepath.Dir(path), refDir, settings.ECG.SampleRate)

	rec, err := loader.LoadSignal(path)
	if err != nil {
		return err
	}

	ann := &dataset.Annotations{}
	annPath := filepath.Join(refDir, rec.ID+".csv")
	if _, err := os.Stat(annPath); err == nil {
		ann, err = loader.LoadAnnotations(annPath)
		if err != nil {
			return err
		}
	}

	return analyzeRecord(ctx, settings, rec, ann)
}

// analyzeRecord runs the pipeline on one loaded record. When a stored
// run of the same pipeline configuration exists and --force is not set,
// its beats are reused and only the annotation matching is repeated.
func analyzeRecord(ctx context.Context, settings *conf.Settings, rec *dataset.Record, ann *dataset.Annotations) error {
	start := time.Now()

	cfg := ecg.ConfigFromSettings(settings)

	if !settings.Input.Force {
		if beats, sigLen, artifactPath, ok := reusableRun(settings, rec.ID, cfg); ok {
			getLogger().Info("reusing cached run",
				"record", rec.ID,
				"artifact", artifactPath)
			matched, err := beatmatch.Match(ctx, beats, ann.SPB, ann.PVC, matchConfig(settings, sigLen))
			if err != nil {
				return err
			}
			logOutcome(rec.ID, sigLen, matched, start)
			return persistRun(settings, rec.ID, artifactPath, cfg, matched)
		}
	}

	res, err := ecg.ParallelPreprocess(ctx, rec.Signal, rec.SampleRate, cfg)
	if err != nil {
		return err
	}

	matchCfg := matchConfig(settings, len(res.Filtered))
	matched, err := beatmatch.Match(ctx, res.Beats, ann.SPB, ann.PVC, matchCfg)
	if err != nil {
		return err
	}

	logOutcome(rec.ID, len(res.Filtered), matched, start)

	artifactPath := ""
	if settings.Output.Dir != "" {
		artifactPath, err = writeArtifact(settings.Output.Dir, rec.ID, res.Filtered)
		if err != nil {
			return err
		}
	}

	return persistRun(settings, rec.ID, artifactPath, cfg, matched)
}

// reusableRun fetches the stored outcome of an identical pipeline
// configuration, if one exists and its filtered artifact is still
// readable. The artifact provides the signal length the margin filter
// depends on.
func reusableRun(settings *conf.Settings, recordID string, cfg ecg.Config) ([]int, int, string, bool) {
	store := datastore.New(settings)
	if store == nil {
		return nil, 0, "", false
	}
	if err := store.Open(); err != nil {
		return nil, 0, "", false
	}
	defer func() {
		if err := store.Close(); err != nil {
			getLogger().Warn("closing datastore", "error", err)
		}
	}()

	run, err := store.LatestRun(recordID)
	if err != nil {
		return nil, 0, "", false
	}
	if run.Detector != cfg.Detector || run.SampleRate != cfg.SampleRate ||
		run.Stages != stageList(cfg) || run.FilteredPath == "" {
		return nil, 0, "", false
	}

	filtered, err := readArtifact(run.FilteredPath)
	if err != nil {
		getLogger().Warn("cached artifact unreadable, recomputing",
			"record", recordID,
			"artifact", run.FilteredPath,
			"error", err)
		return nil, 0, "", false
	}

	beats := make([]int, len(run.Beats))
	for i, b := range run.Beats {
		beats[i] = b.Location
	}
	if !ecg.IsBeatSequence(beats, len(filtered)) {
		getLogger().Warn("cached run holds a corrupt beat sequence, recomputing",
			"record", recordID,
			"run", run.ID)
		return nil, 0, "", false
	}
	return beats, len(filtered), run.FilteredPath, true
}

func logOutcome(recordID string, samples int, matched *beatmatch.Result, start time.Time) {
	summary := labelSummary(matched.Labels)
	getLogger().Info("record analyzed",
		"record", recordID,
		"samples", samples,
		"beats", len(matched.Beats),
		"normal", summary[beatmatch.Normal],
		"spb", summary[beatmatch.SPB],
		"pvc", summary[beatmatch.PVC],
		"duration_ms", time.Since(start).Milliseconds())
}

// persistRun saves the analysis outcome when the datastore is enabled.
func persistRun(settings *conf.Settings, recordID, artifactPath string, cfg ecg.Config, matched *beatmatch.Result) error {
	store := datastore.New(settings)
	if store == nil {
		return nil
	}
	if err := store.Open(); err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			getLogger().Warn("closing datastore", "error", err)
		}
	}()

	beats := make([]datastore.Beat, len(matched.Beats))
	for i, b := range matched.Beats {
		beats[i] = datastore.Beat{Location: b, Label: matched.Labels[i].String()}
	}

	run := &datastore.Run{
		RecordID:     recordID,
		Detector:     cfg.Detector,
		SampleRate:   cfg.SampleRate,
		Stages:       stageList(cfg),
		FilteredPath: artifactPath,
	}
	return store.SaveRun(run, beats)
}

// matchConfig translates the settings into sample units for a signal of
// the given length.
func matchConfig(settings *conf.Settings, signalLen int) beatmatch.Config {
	fs := settings.ECG.SampleRate
	return beatmatch.Config{
		BiasThr:     int(settings.Matching.Tolerance * float64(fs)),
		LeftMargin:  settings.Matching.LeftMargin,
		RightMargin: settings.Matching.RightMargin,
		SignalLen:   signalLen,
		EpochLen:    int(settings.Matching.EpochLength * float64(fs)),
		Workers:     settings.ECG.Threads,
	}
}

func stageList(cfg ecg.Config) string {
	stages := make([]string, 0, 3)
	if cfg.Baseline {
		stages = append(stages, "baseline")
	}
	if cfg.Bandpass {
		stages = append(stages, "bandpass")
	}
	if cfg.Detector != "" {
		stages = append(stages, "detect")
	}
	return strings.Join(stages, ",")
}

func labelSummary(labels []beatmatch.Label) map[beatmatch.Label]int {
	summary := make(map[beatmatch.Label]int, 3)
	for _, l := range labels {
		summary[l]++
	}
	return summary
}

// validateSignalFile checks that the path points at a readable,
// non-empty regular file.
func validateSignalFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return errors.New(fmt.Errorf("accessing signal file: %w", err)).
			Component("analysis").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}
	if info.IsDir() {
		return errors.Newf("%s is a directory, not a signal file", path).
			Component("analysis").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}
	if info.Size() == 0 {
		return errors.Newf("signal file %s is empty", path).
			Component("analysis").
			Category(errors.CategorySignalData).
			Context("path", path).
			Build()
	}
	return nil
}
