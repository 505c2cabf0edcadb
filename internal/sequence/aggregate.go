package sequence

import (
	"math"
	"sort"
	"sync"

	"github.com/formlab/posescore/internal/config"
)

// SeverityAggregation selects how a run's per-frame severities collapse
// into one value.
type SeverityAggregation string

const (
	SeverityMean   SeverityAggregation = "mean"
	SeverityMedian SeverityAggregation = "median"
	SeverityMax    SeverityAggregation = "max"
)

// Options tunes the aggregation pass.
type Options struct {
	// MinRunLength is the run length at which frames collapse into a
	// sequence; shorter runs remain standalone FrameErrors.
	MinRunLength int
	// GapTolerance is the number of missing frames a run may bridge
	// before it splits (1 = one dropped frame between errors still
	// counts as the same run).
	GapTolerance int
	// Severity selects the run severity aggregation.
	Severity SeverityAggregation
	// CapFactor bounds a sequence deduction to CapFactor × the run's
	// mean per-frame deduction.
	CapFactor float64
}

// OptionsFromConfig builds Options from tuning config.
func OptionsFromConfig(cfg *config.TuningConfig) Options {
	return Options{
		MinRunLength: cfg.GetMinRunLength(),
		GapTolerance: cfg.GetFrameGapTolerance(),
		Severity:     SeverityAggregation(cfg.GetSeverityAggregation()),
		CapFactor:    cfg.GetDeductionCapFactor(),
	}
}

// DefaultOptions returns the stock aggregation parameters.
func DefaultOptions() Options {
	return Options{
		MinRunLength: 3,
		GapTolerance: 1,
		Severity:     SeverityMean,
		CapFactor:    10,
	}
}

// Result is the outcome of one aggregation pass.
type Result struct {
	Sequences      []ErrorSequence
	Standalone     []FrameError // runs below MinRunLength, unaggregated
	TotalDeduction float64
}

// partitionResult carries one partition's output back to the
// aggregating goroutine.
type partitionResult struct {
	sequences  []ErrorSequence
	standalone []FrameError
}

// Aggregate scans an ordered FrameError stream for maximal runs of
// consecutive frames sharing (type, part, side) and collapses runs of
// at least MinRunLength into ErrorSequences. Partitions are independent
// by construction, so they are processed concurrently. Within each
// partition the input must be frame-ordered; across partitions no
// ordering is required.
//
// The returned sequences are sorted by start frame, standalone errors
// by frame, making the result deterministic regardless of scheduling.
func Aggregate(errs []FrameError, opts Options) Result {
	if opts.MinRunLength < 1 {
		opts.MinRunLength = 1
	}
	if opts.GapTolerance < 0 {
		opts.GapTolerance = 0
	}
	if opts.CapFactor <= 0 {
		opts.CapFactor = 10
	}

	partitions := make(map[runKey][]FrameError)
	for _, e := range errs {
		k := runKey{Type: e.Type, Part: e.Part}
		partitions[k] = append(partitions[k], e)
	}

	results := make(chan partitionResult, len(partitions))
	var wg sync.WaitGroup
	for _, group := range partitions {
		wg.Add(1)
		go func(group []FrameError) {
			defer wg.Done()
			results <- aggregatePartition(group, opts)
		}(group)
	}
	wg.Wait()
	close(results)

	var out Result
	for pr := range results {
		out.Sequences = append(out.Sequences, pr.sequences...)
		out.Standalone = append(out.Standalone, pr.standalone...)
	}

	sort.Slice(out.Sequences, func(i, j int) bool {
		a, b := out.Sequences[i], out.Sequences[j]
		if a.StartFrame != b.StartFrame {
			return a.StartFrame < b.StartFrame
		}
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		return a.Part.String() < b.Part.String()
	})
	sort.Slice(out.Standalone, func(i, j int) bool {
		a, b := out.Standalone[i], out.Standalone[j]
		if a.Frame != b.Frame {
			return a.Frame < b.Frame
		}
		return a.Type < b.Type
	})

	for _, s := range out.Sequences {
		out.TotalDeduction += s.Deduction
	}
	for _, e := range out.Standalone {
		out.TotalDeduction += e.Deduction
	}
	return out
}

// aggregatePartition detects maximal runs within one (type, part, side)
// group. The group is assumed frame-ordered.
func aggregatePartition(group []FrameError, opts Options) partitionResult {
	var pr partitionResult

	flush := func(run []FrameError) {
		if len(run) >= opts.MinRunLength {
			pr.sequences = append(pr.sequences, collapse(run, opts))
		} else {
			pr.standalone = append(pr.standalone, run...)
		}
	}

	start := 0
	for i := 1; i < len(group); i++ {
		if group[i].Frame-group[i-1].Frame-1 > opts.GapTolerance {
			flush(group[start:i])
			start = i
		}
	}
	if len(group) > 0 {
		flush(group[start:])
	}
	return pr
}

// collapse turns one run into a single sequence. The deduction is
// logarithmic in run duration and capped, not a per-frame sum:
// deduction = min(base × (1 + ln n), base × CapFactor) where base is
// the run's mean per-frame deduction.
func collapse(run []FrameError, opts Options) ErrorSequence {
	n := len(run)

	var base float64
	sev := make([]float64, n)
	for i, e := range run {
		base += e.Deduction
		sev[i] = e.Severity
	}
	base /= float64(n)

	deduction := base * (1 + math.Log(float64(n)))
	if limit := base * opts.CapFactor; deduction > limit {
		deduction = limit
	}

	return ErrorSequence{
		Type:       run[0].Type,
		Part:       run[0].Part,
		StartFrame: run[0].Frame,
		EndFrame:   run[n-1].Frame,
		Count:      n,
		Severity:   aggregateSeverity(sev, opts.Severity),
		Deduction:  deduction,
		Start:      run[0].Timestamp,
		End:        run[n-1].Timestamp,
	}
}

func aggregateSeverity(sev []float64, mode SeverityAggregation) float64 {
	switch mode {
	case SeverityMedian:
		sorted := make([]float64, len(sev))
		copy(sorted, sev)
		sort.Float64s(sorted)
		n := len(sorted)
		if n%2 == 1 {
			return sorted[n/2]
		}
		return (sorted[n/2-1] + sorted[n/2]) / 2
	case SeverityMax:
		m := sev[0]
		for _, v := range sev[1:] {
			if v > m {
				m = v
			}
		}
		return m
	default:
		var sum float64
		for _, v := range sev {
			sum += v
		}
		return sum / float64(len(sev))
	}
}
