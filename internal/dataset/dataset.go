// Package dataset loads ECG recordings and their reference beat
// annotations from disk. Signals are accepted either as raw
// little-endian float64 files (.f64) or as single-channel WAV files;
// annotations are CSV files pairing a beat class with a sample index.
package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/holterscan/holterscan/internal/errors"
)

// Record is one loaded recording.
type Record struct {
	// ID is the record identifier, normally the file name without
	// extension.
	ID string
	// Signal is the raw single-lead signal.
	Signal []float64
	// SampleRate is the sampling frequency in Hz.
	SampleRate int
}

// Annotations holds the reference beat indices of one record, split by
// class. Indices are sample positions in the signal.
type Annotations struct {
	SPB []int
	PVC []int
}

// Loader resolves record identifiers to signals and annotations.
type Loader interface {
	LoadSignal(path string) (*Record, error)
	LoadAnnotations(path string) (*Annotations, error)
	LoadRecord(id string) (*Record, *Annotations, error)
}

// FileLoader is the filesystem Loader. Annotation files are cached so
// repeated label passes over the same record avoid re-parsing.
type FileLoader struct {
	// SignalDir and ReferenceDir root the per-record lookup done by
	// LoadRecord.
	SignalDir    string
	ReferenceDir string
	// SampleRate applies to raw signal files, which carry no header.
	SampleRate int

	annCache *cache.Cache
}

// signalExtensions is the lookup order for LoadRecord.
var signalExtensions = []string{".f64", ".wav"}

// NewFileLoader returns a loader rooted at the given directories.
// sampleRate is the assumed rate of headerless raw files.
func NewFileLoader(signalDir, referenceDir string, sampleRate int) *FileLoader {
	return &FileLoader{
		SignalDir:    signalDir,
		ReferenceDir: referenceDir,
		SampleRate:   sampleRate,
		annCache:     cache.New(10*time.Minute, 20*time.Minute),
	}
}

// LoadRecord loads the signal and annotations of one record by ID. The
// signal is looked up under SignalDir trying each supported extension;
// annotations live at ReferenceDir/<id>.csv. A missing annotation file
// is not an error: detection-only records yield empty annotations.
func (fl *FileLoader) LoadRecord(id string) (*Record, *Annotations, error) {
	var sigPath string
	for _, ext := range signalExtensions {
		p := filepath.Join(fl.SignalDir, id+ext)
		if _, err := os.Stat(p); err == nil {
			sigPath = p
			break
		}
	}
	if sigPath == "" {
		return nil, nil, errors.Newf("no signal file for record %q under %s (tried %v)",
			id, fl.SignalDir, signalExtensions).
			Component("dataset").
			Category(errors.CategoryFileIO).
			Context("record", id).
			Build()
	}

	rec, err := fl.LoadSignal(sigPath)
	if err != nil {
		return nil, nil, err
	}
	rec.ID = id

	annPath := filepath.Join(fl.ReferenceDir, id+".csv")
	if _, err := os.Stat(annPath); os.IsNotExist(err) {
		return rec, &Annotations{}, nil
	}
	ann, err := fl.LoadAnnotations(annPath)
	if err != nil {
		return nil, nil, err
	}
	return rec, ann, nil
}

// LoadSignal reads a signal file, dispatching on extension.
func (fl *FileLoader) LoadSignal(path string) (*Record, error) {
	start := time.Now()

	var (
		rec *Record
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".f64":
		rec, err = fl.readRawFloat64(path)
	case ".wav":
		rec, err = fl.readWAV(path)
	default:
		return nil, errors.Newf("unsupported signal file extension %q", ext).
			Component("dataset").
			Category(errors.CategorySignalData).
			Context("path", path).
			Build()
	}
	if err != nil {
		return nil, err
	}

	getLogger().Debug("signal loaded",
		"path", path,
		"samples", len(rec.Signal),
		"sample_rate", rec.SampleRate,
		"duration_ms", time.Since(start).Milliseconds())
	return rec, nil
}

func recordID(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}

func fileIOErr(err error, path string) error {
	return errors.New(fmt.Errorf("reading %s: %w", path, err)).
		Component("dataset").
		Category(errors.CategoryFileIO).
		Context("path", path).
		Build()
}
