package analysis

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/holterscan/holterscan/internal/conf"
	"github.com/holterscan/holterscan/internal/errors"
)

// DirectoryAnalysis processes every signal file under
// settings.Input.Path, optionally recursing into subdirectories. Files
// that fail are logged and skipped; their errors are joined and
// reported after the batch completes so one bad record does not abort
// a long run.
func DirectoryAnalysis(ctx context.Context, settings *conf.Settings) error {
	root := settings.Input.Path
	info, err := os.Stat(root)
	if err != nil {
		return errors.New(fmt.Errorf("accessing dataset directory: %w", err)).
			Component("analysis").
			Category(errors.CategoryFileIO).
			Context("path", root).
			Build()
	}
	if !info.IsDir() {
		return errors.Newf("%s is not a directory", root).
			Component("analysis").
			Category(errors.CategoryFileIO).
			Context("path", root).
			Build()
	}

	paths, err := collectSignalFiles(root, settings.Input.Recursive)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		getLogger().Warn("no signal files found", "path", root, "recursive", settings.Input.Recursive)
		return nil
	}

	start := time.Now()
	var failures []error
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return errors.New(err).
				Component("analysis").
				Category(errors.CategoryWorker).
				Build()
		}

		perRecord := *settings
		perRecord.Input.Path = p
		if err := FileAnalysis(ctx, &perRecord); err != nil {
			getLogger().Error("record analysis failed", "path", p, "error", err)
			failures = append(failures, err)
		}
	}

	getLogger().Info("directory analysis finished",
		"records", len(paths),
		"failed", len(failures),
		"duration_ms", time.Since(start).Milliseconds())
	return errors.Join(failures...)
}

// collectSignalFiles lists supported signal files under root in a
// deterministic order.
func collectSignalFiles(root string, recursive bool) ([]string, error) {
	var paths []string
	walk := func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if !recursive && path != root {
				return fs.SkipDir
			}
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".f64", ".wav":
			paths = append(paths, path)
		}
		return nil
	}
	if err := filepath.WalkDir(root, walk); err != nil {
		return nil, errors.New(fmt.Errorf("scanning dataset directory: %w", err)).
			Component("analysis").
			Category(errors.CategoryFileIO).
			Context("path", root).
			Build()
	}
	sort.Strings(paths)
	return paths, nil
}
