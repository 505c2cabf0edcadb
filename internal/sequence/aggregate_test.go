package sequence

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formlab/posescore/internal/pose"
)

var (
	leftArm  = pose.BodyPart{Kind: pose.PartArm, Side: pose.SideLeft}
	rightLeg = pose.BodyPart{Kind: pose.PartLeg, Side: pose.SideRight}
)

func run(errType ErrorType, part pose.BodyPart, startFrame, n int, deduction float64) []FrameError {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	out := make([]FrameError, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, FrameError{
			Type:      errType,
			Part:      part,
			Severity:  1.5,
			Deduction: deduction,
			Frame:     startFrame + i,
			Timestamp: base.Add(time.Duration(startFrame+i) * 33 * time.Millisecond),
		})
	}
	return out
}

func TestAggregateCollapsesRuns(t *testing.T) {
	t.Parallel()

	errs := run("arm_swing_deviation", leftArm, 10, 6, 0.5)
	res := Aggregate(errs, DefaultOptions())

	require.Len(t, res.Sequences, 1)
	require.Empty(t, res.Standalone)

	seq := res.Sequences[0]
	assert.Equal(t, 10, seq.StartFrame)
	assert.Equal(t, 15, seq.EndFrame)
	assert.Equal(t, 6, seq.Count)
	assert.InDelta(t, 0.5*(1+math.Log(6)), seq.Deduction, 1e-9)
	assert.InDelta(t, 1.5, seq.Severity, 1e-9)
	assert.Equal(t, seq.Deduction, res.TotalDeduction)
}

func TestAggregateLongRunBoundedLogarithmically(t *testing.T) {
	t.Parallel()

	// Twenty seconds of the same mistake at 30fps: the collapsed
	// deduction must stay far below the naive per-frame sum.
	errs := run("arm_swing_deviation", leftArm, 0, 600, 0.5)
	res := Aggregate(errs, DefaultOptions())

	require.Len(t, res.Sequences, 1)
	naive := 600 * 0.5
	assert.Less(t, res.TotalDeduction, naive)
	assert.InDelta(t, 0.5*(1+math.Log(600)), res.TotalDeduction, 1e-9)
	assert.Less(t, res.TotalDeduction, 5.0)
}

func TestAggregateCapFactor(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	opts.CapFactor = 3

	// 1 + ln(600) ≈ 7.4 exceeds the cap of 3.
	errs := run("arm_swing_deviation", leftArm, 0, 600, 0.5)
	res := Aggregate(errs, opts)
	require.Len(t, res.Sequences, 1)
	assert.InDelta(t, 0.5*3, res.Sequences[0].Deduction, 1e-9)
}

func TestAggregateIsolatedErrorsStayStandalone(t *testing.T) {
	t.Parallel()

	// Two errors forty frames apart never form a run; their cost is the
	// plain per-frame sum.
	errs := append(
		run("arm_swing_deviation", leftArm, 10, 1, 0.5),
		run("arm_swing_deviation", leftArm, 50, 1, 0.5)...,
	)
	res := Aggregate(errs, DefaultOptions())

	assert.Empty(t, res.Sequences)
	require.Len(t, res.Standalone, 2)
	assert.InDelta(t, 1.0, res.TotalDeduction, 1e-9)
}

func TestAggregateShortRunBelowMinimum(t *testing.T) {
	t.Parallel()

	// Two consecutive frames are below the minimum run length of three.
	errs := run("arm_swing_deviation", leftArm, 10, 2, 0.5)
	res := Aggregate(errs, DefaultOptions())
	assert.Empty(t, res.Sequences)
	assert.Len(t, res.Standalone, 2)
}

func TestAggregateGapTolerance(t *testing.T) {
	t.Parallel()

	t.Run("single missing frame bridges the run", func(t *testing.T) {
		t.Parallel()
		errs := append(
			run("arm_swing_deviation", leftArm, 10, 3, 0.5),
			run("arm_swing_deviation", leftArm, 14, 3, 0.5)..., // gap of 1 frame
		)
		res := Aggregate(errs, DefaultOptions())
		require.Len(t, res.Sequences, 1)
		assert.Equal(t, 6, res.Sequences[0].Count)
		assert.Equal(t, 16, res.Sequences[0].EndFrame)
	})

	t.Run("larger gap splits the run", func(t *testing.T) {
		t.Parallel()
		errs := append(
			run("arm_swing_deviation", leftArm, 10, 3, 0.5),
			run("arm_swing_deviation", leftArm, 15, 3, 0.5)..., // gap of 2 frames
		)
		res := Aggregate(errs, DefaultOptions())
		assert.Len(t, res.Sequences, 2)
	})
}

func TestAggregatePartitionsAreIndependent(t *testing.T) {
	t.Parallel()

	// Interleaved errors on different parts must not merge even though
	// their frames are contiguous.
	var errs []FrameError
	errs = append(errs, run("arm_swing_deviation", leftArm, 10, 4, 0.5)...)
	errs = append(errs, run("leg_lift_deviation", rightLeg, 10, 4, 0.7)...)
	errs = append(errs, run("arm_swing_deviation", rightLeg, 10, 4, 0.3)...)

	res := Aggregate(errs, DefaultOptions())
	require.Len(t, res.Sequences, 3)

	// Deterministic order: same start frame, sorted by type then part.
	assert.Equal(t, ErrorType("arm_swing_deviation"), res.Sequences[0].Type)
	assert.Equal(t, leftArm, res.Sequences[0].Part)
	assert.Equal(t, ErrorType("arm_swing_deviation"), res.Sequences[1].Type)
	assert.Equal(t, rightLeg, res.Sequences[1].Part)
	assert.Equal(t, ErrorType("leg_lift_deviation"), res.Sequences[2].Type)
}

func TestAggregateEmptyInput(t *testing.T) {
	t.Parallel()

	res := Aggregate(nil, DefaultOptions())
	assert.Empty(t, res.Sequences)
	assert.Empty(t, res.Standalone)
	assert.Zero(t, res.TotalDeduction)
}

func TestAggregateSeverityModes(t *testing.T) {
	t.Parallel()

	errs := run("arm_swing_deviation", leftArm, 0, 5, 0.5)
	for i := range errs {
		errs[i].Severity = float64(i + 1) // 1..5
	}

	t.Run("mean", func(t *testing.T) {
		t.Parallel()
		opts := DefaultOptions()
		opts.Severity = SeverityMean
		res := Aggregate(errs, opts)
		require.Len(t, res.Sequences, 1)
		assert.InDelta(t, 3.0, res.Sequences[0].Severity, 1e-9)
	})

	t.Run("median", func(t *testing.T) {
		t.Parallel()
		opts := DefaultOptions()
		opts.Severity = SeverityMedian
		res := Aggregate(errs, opts)
		require.Len(t, res.Sequences, 1)
		assert.InDelta(t, 3.0, res.Sequences[0].Severity, 1e-9)
	})

	t.Run("max", func(t *testing.T) {
		t.Parallel()
		opts := DefaultOptions()
		opts.Severity = SeverityMax
		res := Aggregate(errs, opts)
		require.Len(t, res.Sequences, 1)
		assert.InDelta(t, 5.0, res.Sequences[0].Severity, 1e-9)
	})
}
