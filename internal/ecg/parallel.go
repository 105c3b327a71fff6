package ecg

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/holterscan/holterscan/internal/cpuspec"
	"github.com/holterscan/holterscan/internal/errors"
	"github.com/holterscan/holterscan/internal/logging"
)

// controllerReserve is the number of cores left to the coordinating
// process when sizing the worker pool.
const controllerReserve = 2

// defaultWorkerCount sizes the pool from the CPU topology, preferring
// performance cores on hybrid processors.
func defaultWorkerCount() int {
	return max(1, cpuspec.GetCPUSpec().GetOptimalThreadCount()-controllerReserve)
}

// ParallelPreprocess runs the single-segment pipeline over a long signal
// by splitting it into overlapping fixed-length windows, preprocessing
// the windows concurrently on a bounded worker pool, and stitching the
// results back together with exact de-duplication at window boundaries.
//
// The output contract matches Preprocess on the same signal: the
// stitched filtered signal has the same length, and the beat sequence is
// strictly increasing with no duplicates. Numerical differences are
// confined to filter edge effects at window seams. Results do not depend
// on the worker count.
//
// A failure in any window aborts the whole call; no partial output is
// returned.
func ParallelPreprocess(ctx context.Context, sig []float64, fs int, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := validateSignal(sig); err != nil {
		return nil, err
	}

	// Resample once up front so windows are carved at the target rate.
	if fs != cfg.SampleRate {
		sig = ResampleRate(sig, fs, cfg.SampleRate)
		fs = cfg.SampleRate
	}

	m := getMetrics()

	if len(sig) <= 3*cfg.EpochLen {
		// Too short for the parallelism overhead to pay off.
		start := time.Now()
		res, err := Preprocess(sig, fs, cfg)
		if err != nil {
			m.RecordPreprocessError(string(errors.GetCategory(err)))
			return nil, err
		}
		m.RecordPreprocessDuration("serial", time.Since(start).Seconds())
		m.RecordSamplesProcessed(len(sig))
		m.RecordBeatsDetected(cfg.Detector, len(res.Beats))
		return res, nil
	}

	windows := partition(sig, cfg.EpochLen, cfg.EpochOverlap, cfg.MinTail)

	start := time.Now()
	results, err := runWindows(ctx, windows, fs, cfg)
	if err != nil {
		m.RecordPreprocessError(string(errors.GetCategory(err)))
		return nil, err
	}

	stitched := stitch(windows, results)

	m.RecordPreprocessDuration("parallel", time.Since(start).Seconds())
	m.RecordSamplesProcessed(len(sig))
	m.RecordBeatsDetected(cfg.Detector, len(stitched.Beats))

	getLogger().Debug("parallel preprocessing finished",
		"samples", len(sig),
		"windows", len(windows),
		"beats", len(stitched.Beats),
		"duration_ms", time.Since(start).Milliseconds())

	return stitched, nil
}

// window is one contiguous chunk of the input signal together with the
// half-open local span retained during stitching. Retained spans of
// consecutive windows tile the signal exactly.
type window struct {
	start          int // global index of data[0]
	data           []float64
	keepLo, keepHi int // retained local span [keepLo, keepHi)
}

// partition splits a signal into windows of epochLen samples overlapping
// by overlap samples (forced even). A trailing remainder shorter than
// minTail is absorbed into the final window; a longer one becomes its
// own overlap-extended window.
func partition(sig []float64, epochLen, overlap, minTail int) []window {
	half := overlap / 2
	overlap = 2 * half
	forward := epochLen - overlap
	n := len(sig)

	numFull := (n - overlap) / forward
	windows := make([]window, 0, numFull+1)
	for i := 0; i < numFull; i++ {
		windows = append(windows, window{
			start: i * forward,
			data:  sig[i*forward : i*forward+epochLen],
		})
	}

	tailStart := numFull*forward + overlap // end of the last full window
	if rem := n - tailStart; rem > 0 {
		if rem < minTail {
			last := &windows[len(windows)-1]
			last.data = sig[last.start:n]
		} else {
			windows = append(windows, window{
				start: tailStart - overlap,
				data:  sig[tailStart-overlap : n],
			})
		}
	}

	for i := range windows {
		windows[i].keepLo = half
		windows[i].keepHi = len(windows[i].data) - half
	}
	windows[0].keepLo = 0
	windows[len(windows)-1].keepHi = len(windows[len(windows)-1].data)

	return windows
}

// runWindows preprocesses every window on a bounded worker pool and
// returns the per-window results in window order. The first failure
// cancels the remaining work and is returned as a worker error.
func runWindows(ctx context.Context, windows []window, fs int, cfg Config) ([]*Result, error) {
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkerCount()
	}
	workers = min(workers, len(windows))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]*Result, len(windows))
	jobs := make(chan int)

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if ctx.Err() != nil {
					return
				}
				winStart := time.Now()
				res, err := Preprocess(windows[idx].data, fs, cfg)
				if err != nil {
					getMetrics().RecordChunkProcessed("error")
					fail(errors.New(err).
						Component("ecg").
						Category(errors.CategoryWorker).
						Context("window", idx).
						Context("window_start", windows[idx].start).
						Timing("window-preprocess", time.Since(winStart)).
						Build())
					return
				}
				getMetrics().RecordChunkProcessed("success")
				logging.Trace("window preprocessed",
					"window", idx,
					"beats", len(res.Beats),
					"duration_ms", time.Since(winStart).Milliseconds())
				results[idx] = res
			}
		}()
	}

feed:
	for idx := range windows {
		select {
		case jobs <- idx:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.New(err).
			Component("ecg").
			Category(errors.CategoryWorker).
			Build()
	}
	return results, nil
}

// stitch concatenates the retained span of every window in order and
// translates beat locations into global coordinates. Beats strictly
// inside a discarded overlap region are dropped; each true beat is kept
// from exactly the window whose retained span contains it.
func stitch(windows []window, results []*Result) *Result {
	var total int
	for _, w := range windows {
		total += w.keepHi - w.keepLo
	}

	filtered := make([]float64, 0, total)
	beats := make([]int, 0)

	for i, w := range windows {
		filtered = append(filtered, results[i].Filtered[w.keepLo:w.keepHi]...)
		for _, b := range results[i].Beats {
			if b >= w.keepLo && b < w.keepHi {
				beats = append(beats, b+w.start)
			}
		}
	}

	sort.Ints(beats)
	beats = dedupInts(beats)

	return &Result{Filtered: filtered, Beats: beats}
}

func dedupInts(xs []int) []int {
	if len(xs) < 2 {
		return xs
	}
	out := xs[:1]
	for _, x := range xs[1:] {
		if x != out[len(out)-1] {
			out = append(out, x)
		}
	}
	return out
}
