package score

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formlab/posescore/internal/config"
	"github.com/formlab/posescore/internal/pose"
	"github.com/formlab/posescore/internal/sequence"
	"github.com/formlab/posescore/internal/threshold"
)

var testMetric = MetricSpec{
	ID:               "leg_lift_left",
	Part:             pose.BodyPart{Kind: pose.PartLeg, Side: pose.SideLeft},
	Type:             "leg_lift_deviation",
	DefaultThreshold: 50,
	BaseDeduction:    0.5,
}

func newTestEvaluator(t *testing.T, stats []GoldenStatistic) *Evaluator {
	t.Helper()
	e := NewEvaluator(&config.TuningConfig{}, []MetricSpec{testMetric})
	e.LoadTemplate(NewTemplate("golden", 100, stats))
	return e
}

func ts(frame int) time.Time {
	return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC).Add(time.Duration(frame) * 33 * time.Millisecond)
}

func feed(e *Evaluator, startFrame, n int, value float64) []int {
	flagged := make([]int, 0, n)
	for i := 0; i < n; i++ {
		frame := startFrame + i
		errs := e.EvaluateFrame(frame, ts(frame), map[string]float64{testMetric.ID: value})
		if len(errs) > 0 {
			flagged = append(flagged, frame)
		}
	}
	return flagged
}

func TestEvaluateFrameWarmup(t *testing.T) {
	t.Parallel()

	e := newTestEvaluator(t, []GoldenStatistic{
		{Metric: testMetric.ID, Side: pose.SideLeft, Mean: 60, Std: 5},
	})

	// Grossly deviant values, but the smoothing window (5) is still
	// filling: no verdicts for the first four frames.
	flagged := feed(e, 0, 4, 500)
	assert.Empty(t, flagged)
}

func TestEvaluateFrameFlagsDeviation(t *testing.T) {
	t.Parallel()

	e := newTestEvaluator(t, []GoldenStatistic{
		{Metric: testMetric.ID, Side: pose.SideLeft, Mean: 60, Std: 5},
	})

	// The lone std of 5 classifies the template easy, so the threshold
	// is 3σ × 1.2 = 18. A steady value of 100 deviates by 40.
	flagged := feed(e, 0, 10, 100)
	require.NotEmpty(t, flagged)
	assert.Equal(t, 4, flagged[0]) // first full window

	errs := e.EvaluateFrame(10, ts(10), map[string]float64{testMetric.ID: 100})
	require.Len(t, errs, 1)
	assert.Equal(t, testMetric.Type, errs[0].Type)
	assert.Equal(t, testMetric.Part, errs[0].Part)
	assert.InDelta(t, 40.0/18.0, errs[0].Severity, 1e-9)
	assert.InDelta(t, 0.5, errs[0].Deduction, 1e-9)
}

func TestEvaluateFrameWithinThreshold(t *testing.T) {
	t.Parallel()

	e := newTestEvaluator(t, []GoldenStatistic{
		{Metric: testMetric.ID, Side: pose.SideLeft, Mean: 60, Std: 5},
	})
	flagged := feed(e, 0, 20, 70) // deviation 10 < threshold 18
	assert.Empty(t, flagged)
}

func TestEvaluateFrameSeverityBounded(t *testing.T) {
	t.Parallel()

	e := newTestEvaluator(t, []GoldenStatistic{
		{Metric: testMetric.ID, Side: pose.SideLeft, Mean: 60, Std: 5},
	})
	feed(e, 0, 5, 100000)
	errs := e.EvaluateFrame(5, ts(5), map[string]float64{testMetric.ID: 100000})
	require.Len(t, errs, 1)
	assert.InDelta(t, 5.0, errs[0].Severity, 1e-9)
}

func TestEvaluateFrameSmoothingSuppressesSpike(t *testing.T) {
	t.Parallel()

	e := newTestEvaluator(t, []GoldenStatistic{
		{Metric: testMetric.ID, Side: pose.SideLeft, Mean: 60, Std: 5},
	})

	// A 100-frame on-target stream with a single wild spike: the mean
	// window dilutes the spike below threshold, so nothing is flagged.
	var flaggedFrames []int
	for frame := 0; frame < 100; frame++ {
		v := 60.0
		if frame == 50 {
			v = 120 // raw deviation 60, diluted to 12 by the window
		}
		errs := e.EvaluateFrame(frame, ts(frame), map[string]float64{testMetric.ID: v})
		if len(errs) > 0 {
			flaggedFrames = append(flaggedFrames, frame)
		}
	}
	assert.Empty(t, flaggedFrames)
}

func TestEvaluateFrameNoTemplate(t *testing.T) {
	t.Parallel()

	e := NewEvaluator(&config.TuningConfig{}, []MetricSpec{testMetric})
	errs := e.EvaluateFrame(1, ts(1), map[string]float64{testMetric.ID: 1000})
	assert.Nil(t, errs)
}

func TestEvaluateFrameMissingStatistic(t *testing.T) {
	t.Parallel()

	e := newTestEvaluator(t, []GoldenStatistic{
		{Metric: "unrelated", Side: pose.SideCenter, Mean: 1, Std: 1},
	})
	flagged := feed(e, 0, 10, 100000)
	assert.Empty(t, flagged)
}

func TestLoadTemplateResetsState(t *testing.T) {
	t.Parallel()

	e := newTestEvaluator(t, []GoldenStatistic{
		{Metric: testMetric.ID, Side: pose.SideLeft, Mean: 60, Std: 5},
	})
	feed(e, 0, 10, 100)

	// New template: the smoothing window must refill before verdicts.
	e.LoadTemplate(NewTemplate("next", 100, []GoldenStatistic{
		{Metric: testMetric.ID, Side: pose.SideLeft, Mean: 60, Std: 5},
	}))
	flagged := feed(e, 100, 4, 100)
	assert.Empty(t, flagged)
}

func TestScoreBatch(t *testing.T) {
	t.Parallel()

	e := newTestEvaluator(t, []GoldenStatistic{
		{Metric: testMetric.ID, Side: pose.SideLeft, Mean: 60, Std: 5},
	})

	// 30 deviant frames: warmup eats the first four, the rest form one
	// run collapsed into a single sequence.
	var all []sequence.FrameError
	for frame := 0; frame < 30; frame++ {
		all = append(all, e.EvaluateFrame(frame, ts(frame), map[string]float64{testMetric.ID: 100})...)
	}
	require.Len(t, all, 26)

	res := e.ScoreBatch(all)
	require.Len(t, res.Sequences, 1)
	assert.Empty(t, res.Standalone)
	assert.Equal(t, 26, res.Sequences[0].Count)
	assert.InDelta(t, 0.5*(1+math.Log(26)), res.TotalDeduction, 1e-9)
	// Far below the naive 26 × 0.5 per-frame sum.
	assert.Less(t, res.TotalDeduction, 26*0.5)
}

func TestTemplateStatResolution(t *testing.T) {
	t.Parallel()

	tpl := NewTemplate("golden", 100, []GoldenStatistic{
		{Metric: "a", Side: pose.SideLeft, Mean: 10, Std: 2},
		{Metric: "a", Side: pose.SideRight, Mean: 20, Std: 4},
		{Metric: "b", Side: pose.SideCenter, Mean: 5, Std: 1},
	})

	t.Run("exact side wins", func(t *testing.T) {
		t.Parallel()
		s, ok := tpl.Stat("a", pose.SideLeft)
		require.True(t, ok)
		assert.InDelta(t, 10.0, s.Mean, 1e-9)
	})

	t.Run("combined falls back to side average", func(t *testing.T) {
		t.Parallel()
		s, ok := tpl.Stat("a", pose.SideCenter)
		require.True(t, ok)
		assert.InDelta(t, 15.0, s.Mean, 1e-9)
		assert.InDelta(t, 3.0, s.Std, 1e-9)
	})

	t.Run("side falls back to combined", func(t *testing.T) {
		t.Parallel()
		s, ok := tpl.Stat("b", pose.SideLeft)
		require.True(t, ok)
		assert.InDelta(t, 5.0, s.Mean, 1e-9)
	})

	t.Run("unknown metric abstains", func(t *testing.T) {
		t.Parallel()
		_, ok := tpl.Stat("missing", pose.SideLeft)
		assert.False(t, ok)
	})
}

func TestTemplateDifficulty(t *testing.T) {
	t.Parallel()

	easy := NewTemplate("e", 100, []GoldenStatistic{
		{Metric: "a", Side: pose.SideCenter, Mean: 1, Std: 5},
		{Metric: "b", Side: pose.SideCenter, Mean: 1, Std: 6},
	})
	assert.Equal(t, threshold.DifficultyEasy, easy.Difficulty())
	assert.InDelta(t, 5.5, easy.AvgStd(), 1e-9)

	hard := NewTemplate("h", 100, []GoldenStatistic{
		{Metric: "a", Side: pose.SideCenter, Mean: 1, Std: 24},
	})
	assert.Equal(t, threshold.DifficultyHard, hard.Difficulty())

	unknown := NewTemplate("u", 100, nil)
	assert.Equal(t, threshold.DifficultyUnknown, unknown.Difficulty())
	assert.Zero(t, unknown.AvgStd())
}
