// Package beatmatch reconciles detected heartbeat locations against
// reference clinical annotations. Each detected beat is labeled Normal,
// SPB or PVC by greedy nearest-annotation matching under a tolerance
// radius, and annotated beats the detector missed are recovered into the
// output sequence.
package beatmatch

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/holterscan/holterscan/internal/cpuspec"
	"github.com/holterscan/holterscan/internal/errors"
)

// Label is the clinical class of one beat.
type Label byte

const (
	// Normal marks a beat with no reference annotation within tolerance.
	Normal Label = 'N'
	// SPB marks a supraventricular premature beat.
	SPB Label = 'S'
	// PVC marks a premature ventricular contraction.
	PVC Label = 'V'
)

func (l Label) String() string {
	return string(rune(l))
}

// Config is the immutable per-call matcher configuration. All lengths
// are in samples.
type Config struct {
	// BiasThr is the tolerance radius: a beat matches an annotation
	// only when their distance is strictly below BiasThr.
	BiasThr int
	// LeftMargin and RightMargin drop beats too close to the signal
	// boundary to support a downstream feature window.
	LeftMargin  int
	RightMargin int
	// SignalLen is the length of the underlying signal, used to apply
	// RightMargin.
	SignalLen int
	// EpochLen partitions the beat sequence for concurrent matching.
	// Hour-sized at 400 Hz by default.
	EpochLen int
	// Workers bounds the matching pool; 0 autodetects.
	Workers int
}

// Result is the matcher output.
type Result struct {
	// Beats is the augmented beat sequence: the input beats plus every
	// annotation that matched no beat, sorted, with boundary beats
	// dropped per the margins.
	Beats []int
	// Labels carries one label per entry of Beats, in lockstep.
	Labels []Label
	// MatchedSPB and MatchedPVC are the sorted, deduplicated annotation
	// indices consumed by a match.
	MatchedSPB []int
	MatchedPVC []int
}

func (c Config) validate() error {
	if c.BiasThr <= 0 {
		return matchConfigErrf("tolerance must be positive, got %d samples", c.BiasThr)
	}
	if c.LeftMargin < 0 || c.RightMargin < 0 {
		return matchConfigErrf("margins must not be negative, got %d and %d", c.LeftMargin, c.RightMargin)
	}
	if c.SignalLen <= 0 {
		return matchConfigErrf("signal length must be positive, got %d", c.SignalLen)
	}
	if c.EpochLen <= 0 {
		return matchConfigErrf("epoch length must be positive, got %d samples", c.EpochLen)
	}
	if c.Workers < 0 {
		return matchConfigErrf("worker count must not be negative, got %d", c.Workers)
	}
	return nil
}

// Match labels every detected beat against the SPB and PVC reference
// annotation sets and recovers unmatched annotations into the returned
// beat sequence.
//
// Per beat the matcher compares the distance to the nearest SPB
// annotation, the nearest PVC annotation, and the tolerance radius. The
// smallest of the three decides: the tolerance itself means Normal (the
// boundary is open: a distance of exactly BiasThr does not match), and
// ties between the two annotation types go to SPB. A matched annotation
// is recorded as consumed but stays available to later beats within the
// pass; the matched sets are deduplicated before unmatched annotations
// are computed, so every annotation is accounted for exactly once in the
// output.
//
// The input beat sequence must be strictly increasing; annotation sets
// need not be sorted and are copied, never modified.
func Match(ctx context.Context, beats, spb, pvc []int, cfg Config) (*Result, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if err := validateBeats(beats); err != nil {
		return nil, err
	}

	spbSorted := sortedUnique(spb)
	pvcSorted := sortedUnique(pvc)

	start := time.Now()

	epochs := partitionBeats(beats, cfg.EpochLen, cfg.BiasThr)
	results, err := runEpochs(ctx, epochs, beats, spbSorted, pvcSorted, cfg)
	if err != nil {
		return nil, err
	}

	// Concatenate per-epoch labels and matched sets.
	labels := make([]Label, 0, len(beats))
	var matchedSPB, matchedPVC []int
	for _, er := range results {
		labels = append(labels, er.labels...)
		matchedSPB = append(matchedSPB, er.matchedSPB...)
		matchedPVC = append(matchedPVC, er.matchedPVC...)
	}
	matchedSPB = sortedUnique(matchedSPB)
	matchedPVC = sortedUnique(matchedPVC)

	res := augment(beats, labels, spbSorted, pvcSorted, matchedSPB, matchedPVC, cfg)

	mm := getMetrics()
	mm.RecordMatchDuration(time.Since(start).Seconds())
	var countN, countS, countV int
	for _, l := range res.Labels {
		switch l {
		case SPB:
			countS++
		case PVC:
			countV++
		default:
			countN++
		}
	}
	mm.RecordBeatsLabeled("N", countN)
	mm.RecordBeatsLabeled("S", countS)
	mm.RecordBeatsLabeled("V", countV)
	mm.RecordAnnotationsRecovered("S", len(spbSorted)-len(matchedSPB))
	mm.RecordAnnotationsRecovered("V", len(pvcSorted)-len(matchedPVC))

	getLogger().Debug("beat-annotation matching finished",
		"beats", len(beats),
		"spb", len(spbSorted),
		"pvc", len(pvcSorted),
		"recovered", len(spbSorted)-len(matchedSPB)+len(pvcSorted)-len(matchedPVC),
		"output_beats", len(res.Beats),
		"duration_ms", time.Since(start).Milliseconds())

	return res, nil
}

// epoch is a half-open range of beat indices plus the annotation
// sub-slices visible to it.
type epoch struct {
	lo, hi   int // beat index range [lo, hi)
	spb, pvc []int
}

// epochResult carries per-epoch matching output; labels are aligned with
// the epoch's beats.
type epochResult struct {
	labels     []Label
	matchedSPB []int
	matchedPVC []int
}

// partitionBeats splits the beat sequence at multiples of epochLen in
// sample coordinates. Empty epochs are skipped; annotation slices are
// attached later because they depend on the epoch's first and last beat.
func partitionBeats(beats []int, epochLen, biasThr int) []epoch {
	if len(beats) == 0 {
		return nil
	}
	var epochs []epoch
	lo := 0
	for lo < len(beats) {
		// All beats strictly below the next boundary after beats[lo].
		boundary := (beats[lo]/epochLen + 1) * epochLen
		hi := lo + sort.SearchInts(beats[lo:], boundary)
		epochs = append(epochs, epoch{lo: lo, hi: hi})
		lo = hi
	}
	return epochs
}

// annWindow restricts a sorted annotation set to the slack-extended
// range of one epoch: [first − biasThr − 1, last + biasThr + 1). The
// slack of biasThr + 1 on each side guarantees an epoch boundary can
// never split a true match pair.
func annWindow(ann []int, first, last, biasThr int) []int {
	lo := sort.SearchInts(ann, first-biasThr-1)
	hi := sort.SearchInts(ann, last+biasThr+1)
	return ann[lo:hi]
}

// runEpochs executes per-epoch matching concurrently on a bounded pool.
// Matching itself cannot fail; cancellation is the only error source.
func runEpochs(ctx context.Context, epochs []epoch, beats, spb, pvc []int, cfg Config) ([]epochResult, error) {
	for i := range epochs {
		e := &epochs[i]
		first, last := beats[e.lo], beats[e.hi-1]
		e.spb = annWindow(spb, first, last, cfg.BiasThr)
		e.pvc = annWindow(pvc, first, last, cfg.BiasThr)
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = max(1, cpuspec.GetCPUSpec().GetOptimalThreadCount()-2)
	}
	workers = min(workers, len(epochs))
	if workers == 0 {
		return nil, nil
	}

	results := make([]epochResult, len(epochs))
	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if ctx.Err() != nil {
					return
				}
				e := epochs[idx]
				results[idx] = matchEpoch(beats[e.lo:e.hi], e.spb, e.pvc, cfg.BiasThr)
			}
		}()
	}

feed:
	for idx := range epochs {
		select {
		case jobs <- idx:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, errors.New(err).
			Component("beatmatch").
			Category(errors.CategoryWorker).
			Build()
	}
	return results, nil
}

// matchEpoch labels one epoch's beats with the greedy
// nearest-with-priority rule. Independent across beats: a matched
// annotation is recorded but remains a candidate for later beats.
func matchEpoch(beats, spb, pvc []int, biasThr int) epochResult {
	res := epochResult{labels: make([]Label, len(beats))}

	for i, r := range beats {
		dS, iS := nearest(spb, r)
		dV, iV := nearest(pvc, r)

		switch {
		case dS >= biasThr && dV >= biasThr:
			res.labels[i] = Normal
		case dV < dS:
			res.labels[i] = PVC
			res.matchedPVC = append(res.matchedPVC, pvc[iV])
		default:
			// Ties between the two types go to SPB.
			res.labels[i] = SPB
			res.matchedSPB = append(res.matchedSPB, spb[iS])
		}
	}
	return res
}

// nearest returns the distance to and index of the annotation nearest to
// r in a sorted set. Empty sets yield an unmatchable distance. Equal
// distances prefer the lower annotation index.
func nearest(ann []int, r int) (dist, idx int) {
	if len(ann) == 0 {
		return int(^uint(0) >> 1), -1 // max int
	}
	i := sort.SearchInts(ann, r)
	if i == 0 {
		return ann[0] - r, 0
	}
	if i == len(ann) {
		return r - ann[len(ann)-1], len(ann) - 1
	}
	if r-ann[i-1] <= ann[i]-r {
		return r - ann[i-1], i - 1
	}
	return ann[i] - r, i
}

// augment recovers unmatched annotations into the beat sequence with
// their known labels, sorts the combined sequence by location, and drops
// beats too close to the signal boundary from locations and labels in
// lockstep.
func augment(beats []int, labels []Label, spb, pvc, matchedSPB, matchedPVC []int, cfg Config) *Result {
	type entry struct {
		loc int
		lab Label
	}

	entries := make([]entry, 0, len(beats)+len(spb)+len(pvc))
	for i, b := range beats {
		entries = append(entries, entry{b, labels[i]})
	}
	for _, a := range setDiff(spb, matchedSPB) {
		entries = append(entries, entry{a, SPB})
	}
	for _, a := range setDiff(pvc, matchedPVC) {
		entries = append(entries, entry{a, PVC})
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].loc < entries[j].loc })

	res := &Result{
		Beats:      make([]int, 0, len(entries)),
		Labels:     make([]Label, 0, len(entries)),
		MatchedSPB: matchedSPB,
		MatchedPVC: matchedPVC,
	}
	for _, e := range entries {
		if e.loc < cfg.LeftMargin || e.loc >= cfg.SignalLen-cfg.RightMargin {
			continue
		}
		res.Beats = append(res.Beats, e.loc)
		res.Labels = append(res.Labels, e.lab)
	}
	return res
}

// setDiff returns the elements of a (sorted, unique) not present in b
// (sorted, unique).
func setDiff(a, b []int) []int {
	var out []int
	j := 0
	for _, x := range a {
		for j < len(b) && b[j] < x {
			j++
		}
		if j < len(b) && b[j] == x {
			continue
		}
		out = append(out, x)
	}
	return out
}

func validateBeats(beats []int) error {
	for i := 1; i < len(beats); i++ {
		if beats[i] <= beats[i-1] {
			return errors.Newf("beat sequence is not strictly increasing at index %d (%d after %d)",
				i, beats[i], beats[i-1]).
				Component("beatmatch").
				Category(errors.CategoryMatching).
				Context("index", i).
				Build()
		}
	}
	return nil
}

func sortedUnique(xs []int) []int {
	out := make([]int, len(xs))
	copy(out, xs)
	sort.Ints(out)
	if len(out) < 2 {
		return out
	}
	uniq := out[:1]
	for _, x := range out[1:] {
		if x != uniq[len(uniq)-1] {
			uniq = append(uniq, x)
		}
	}
	return uniq
}

func matchConfigErrf(format string, args ...any) error {
	return errors.Newf(format, args...).
		Component("beatmatch").
		Category(errors.CategoryConfiguration).
		Build()
}
