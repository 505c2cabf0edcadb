// Package rhythm derives cadence, reach and movement-speed signals
// from a rolling window of timestamped poses and compares them to the
// reference template's statistics.
//
// Every analyzer abstains (ok=false) until the window holds a minimum
// fill (roughly one and a half seconds of samples), so warm-up frames
// never produce a verdict. Abstention is explicitly distinguishable
// from "no deviation found". Timestamps are assumed strictly
// monotonically increasing per evaluation context; the caller corrects
// ordering before entry.
package rhythm

import (
	"math"
	"time"

	"github.com/formlab/posescore/internal/config"
	"github.com/formlab/posescore/internal/pose"
	"github.com/formlab/posescore/internal/units"
	"gonum.org/v1/gonum/stat"
)

// Verdict is the outcome of one analyzer check.
type Verdict string

const (
	VerdictOK      Verdict = "ok"
	VerdictTooFast Verdict = "too_fast"
	VerdictTooSlow Verdict = "too_slow"
	VerdictTooLow  Verdict = "too_low"
	VerdictTooHigh Verdict = "too_high"
)

// Stat is a reference mean/std pair for one derived signal.
type Stat struct {
	Mean float64
	Std  float64
}

// SideStats holds reference statistics optionally split by side. When
// no combined statistic exists, Resolve averages the available sides.
type SideStats struct {
	Combined *Stat
	Left     *Stat
	Right    *Stat
}

// Resolve returns the usable reference statistic, preferring the
// combined entry and otherwise averaging left/right. ok=false when
// nothing usable exists.
func (s SideStats) Resolve() (Stat, bool) {
	if s.Combined != nil {
		return *s.Combined, true
	}
	switch {
	case s.Left != nil && s.Right != nil:
		return Stat{
			Mean: (s.Left.Mean + s.Right.Mean) / 2,
			Std:  (s.Left.Std + s.Right.Std) / 2,
		}, true
	case s.Left != nil:
		return *s.Left, true
	case s.Right != nil:
		return *s.Right, true
	}
	return Stat{}, false
}

// Reference bundles the template statistics the analyzer judges
// against.
type Reference struct {
	Cadence  SideStats // events/min
	LegLift  SideStats // px
	ArmSwing SideStats // px
}

// Sample is one timestamped pose in the rolling window.
type Sample struct {
	Pose      pose.Pose
	Frame     int
	Timestamp time.Time
}

// Analyzer maintains the rolling pose window and derives the three
// signals. One analyzer per evaluation context.
type Analyzer struct {
	MinConfidence     float64
	PeakMinSeparation int     // frames between accepted foot-lift peaks
	SpeedFloor        float64 // px/s, absolute
	SpeedCeiling      float64 // px/s, absolute
	Ref               Reference

	capacity   int
	minSamples int
	samples    []Sample // oldest first
}

// NewAnalyzer builds an analyzer for a capture rate of fps frames per
// second using tuning config for the window bounds.
func NewAnalyzer(cfg *config.TuningConfig, fps float64, ref Reference) *Analyzer {
	if fps <= 0 {
		fps = 30
	}
	capacity := int(cfg.GetPoseWindowSeconds() * fps)
	if capacity < 2 {
		capacity = 2
	}
	minSamples := int(cfg.GetMinWindowSeconds() * fps)
	if minSamples < 2 {
		minSamples = 2
	}
	if minSamples > capacity {
		minSamples = capacity
	}
	return &Analyzer{
		MinConfidence:     cfg.GetMinKeypointConfidence(),
		PeakMinSeparation: cfg.GetPeakMinSeparationFrames(),
		SpeedFloor:        cfg.GetSpeedFloorPxPerSec(),
		SpeedCeiling:      cfg.GetSpeedCeilingPxPerSec(),
		Ref:               ref,
		capacity:          capacity,
		minSamples:        minSamples,
	}
}

// Push appends one timestamped pose, evicting the oldest sample when
// the window is at capacity.
func (a *Analyzer) Push(s Sample) {
	a.samples = append(a.samples, s)
	if len(a.samples) > a.capacity {
		a.samples = a.samples[len(a.samples)-a.capacity:]
	}
}

// Len returns the current window fill.
func (a *Analyzer) Len() int { return len(a.samples) }

// Ready reports whether the window has enough samples to produce
// verdicts.
func (a *Analyzer) Ready() bool { return len(a.samples) >= a.minSamples }

// Reset clears the window. Called on session end or template swap.
func (a *Analyzer) Reset() { a.samples = a.samples[:0] }

// RhythmResult is the cadence verdict for the current window.
type RhythmResult struct {
	CadencePerMin float64
	Peaks         int
	Verdict       Verdict
}

// Rhythm detects foot-lift peaks in both ankles' vertical travel and
// converts the count over the window's elapsed time to a cadence in
// events per minute. A cadence more than two reference standard
// deviations from the mean flags too fast or too slow. ok=false while
// the window is below its minimum fill or no reference cadence exists.
func (a *Analyzer) Rhythm() (RhythmResult, bool) {
	if !a.Ready() {
		return RhythmResult{}, false
	}
	ref, ok := a.Ref.Cadence.Resolve()
	if !ok {
		return RhythmResult{}, false
	}

	elapsed := a.samples[len(a.samples)-1].Timestamp.Sub(a.samples[0].Timestamp)
	if elapsed <= 0 {
		return RhythmResult{}, false
	}

	peaks := a.countLiftPeaks(pose.LeftAnkle) + a.countLiftPeaks(pose.RightAnkle)
	cadence := units.CadencePerMinute(peaks, elapsed)

	res := RhythmResult{CadencePerMin: cadence, Peaks: peaks, Verdict: VerdictOK}
	switch {
	case cadence > ref.Mean+2*ref.Std:
		res.Verdict = VerdictTooFast
	case cadence < ref.Mean-2*ref.Std:
		res.Verdict = VerdictTooSlow
	}
	return res, true
}

// countLiftPeaks finds local maxima of the given ankle's lift (negated
// image Y, so up is positive) separated by at least PeakMinSeparation
// frames. Samples where the ankle is not confident are skipped.
func (a *Analyzer) countLiftPeaks(joint int) int {
	lifts := make([]float64, 0, len(a.samples))
	frames := make([]int, 0, len(a.samples))
	for _, s := range a.samples {
		k := s.Pose[joint]
		if !k.Valid(a.MinConfidence) {
			continue
		}
		lifts = append(lifts, -k.Y)
		frames = append(frames, s.Frame)
	}
	if len(lifts) < 3 {
		return 0
	}

	peaks := 0
	lastPeakFrame := -1 << 30
	for i := 1; i < len(lifts)-1; i++ {
		if lifts[i] <= lifts[i-1] || lifts[i] < lifts[i+1] {
			continue
		}
		if frames[i]-lastPeakFrame < a.PeakMinSeparation {
			continue
		}
		peaks++
		lastPeakFrame = frames[i]
	}
	return peaks
}

// DistanceResult holds the window's reach maxima and their verdicts.
type DistanceResult struct {
	LegLiftMax  float64
	ArmSwingMax float64
	LegVerdict  Verdict
	ArmVerdict  Verdict
}

// Distance computes per-frame leg-lift and arm-swing heights, takes the
// window maxima and compares them against the reference mean/std. A
// maximum more than two standard deviations below the mean flags
// too_low; above, too_high. ok=false while the window is below minimum
// fill or neither reference statistic resolves.
func (a *Analyzer) Distance() (DistanceResult, bool) {
	if !a.Ready() {
		return DistanceResult{}, false
	}
	legRef, legOK := a.Ref.LegLift.Resolve()
	armRef, armOK := a.Ref.ArmSwing.Resolve()
	if !legOK && !armOK {
		return DistanceResult{}, false
	}

	res := DistanceResult{
		LegLiftMax:  a.maxLegLift(),
		ArmSwingMax: a.maxArmSwing(),
		LegVerdict:  VerdictOK,
		ArmVerdict:  VerdictOK,
	}
	if legOK {
		res.LegVerdict = judgeBand(res.LegLiftMax, legRef)
	}
	if armOK {
		res.ArmVerdict = judgeBand(res.ArmSwingMax, armRef)
	}
	return res, true
}

func judgeBand(v float64, ref Stat) Verdict {
	switch {
	case v < ref.Mean-2*ref.Std:
		return VerdictTooLow
	case v > ref.Mean+2*ref.Std:
		return VerdictTooHigh
	default:
		return VerdictOK
	}
}

// maxLegLift returns the window maximum of ankle lift above the
// window's ground line (the lowest confident ankle position per side).
func (a *Analyzer) maxLegLift() float64 {
	best := 0.0
	for _, joint := range []int{pose.LeftAnkle, pose.RightAnkle} {
		ground := -1.0
		for _, s := range a.samples {
			k := s.Pose[joint]
			if !k.Valid(a.MinConfidence) {
				continue
			}
			if k.Y > ground {
				ground = k.Y
			}
		}
		if ground < 0 {
			continue
		}
		for _, s := range a.samples {
			k := s.Pose[joint]
			if !k.Valid(a.MinConfidence) {
				continue
			}
			if lift := ground - k.Y; lift > best {
				best = lift
			}
		}
	}
	return best
}

// maxArmSwing returns the window maximum of wrist height relative to
// the same-side shoulder.
func (a *Analyzer) maxArmSwing() float64 {
	pairs := [2][2]int{
		{pose.LeftShoulder, pose.LeftWrist},
		{pose.RightShoulder, pose.RightWrist},
	}
	best := 0.0
	for _, pair := range pairs {
		for _, s := range a.samples {
			shoulder := s.Pose[pair[0]]
			wrist := s.Pose[pair[1]]
			if !shoulder.Valid(a.MinConfidence) || !wrist.Valid(a.MinConfidence) {
				continue
			}
			if swing := shoulder.Y - wrist.Y; swing > best {
				best = swing
			}
		}
	}
	return best
}

// SpeedResult holds the window's movement-speed summary and verdict.
type SpeedResult struct {
	MeanPxPerSec float64
	MaxPxPerSec  float64
	Verdict      Verdict
}

// Speed computes per-frame ankle displacement normalised by inter-frame
// time and flags a window whose average speed falls below the absolute
// floor (too_slow) or whose maximum exceeds the absolute ceiling
// (too_fast). ok=false while the window is below minimum fill or no
// consecutive confident ankle pair exists.
func (a *Analyzer) Speed() (SpeedResult, bool) {
	if !a.Ready() {
		return SpeedResult{}, false
	}

	speeds := make([]float64, 0, len(a.samples)-1)
	for i := 1; i < len(a.samples); i++ {
		prev, curr := a.samples[i-1], a.samples[i]
		dt := curr.Timestamp.Sub(prev.Timestamp).Seconds()
		if dt <= 0 {
			continue
		}
		d, ok := ankleDisplacement(prev.Pose, curr.Pose, a.MinConfidence)
		if !ok {
			continue
		}
		speeds = append(speeds, d/dt)
	}
	if len(speeds) == 0 {
		return SpeedResult{}, false
	}

	res := SpeedResult{
		MeanPxPerSec: stat.Mean(speeds, nil),
		Verdict:      VerdictOK,
	}
	for _, v := range speeds {
		if v > res.MaxPxPerSec {
			res.MaxPxPerSec = v
		}
	}
	switch {
	case res.MaxPxPerSec > a.SpeedCeiling:
		res.Verdict = VerdictTooFast
	case res.MeanPxPerSec < a.SpeedFloor:
		res.Verdict = VerdictTooSlow
	}
	return res, true
}

// ankleDisplacement returns the mean displacement of the confident
// ankles between two poses.
func ankleDisplacement(prev, curr pose.Pose, minConf float64) (float64, bool) {
	var sum float64
	var n int
	for _, joint := range []int{pose.LeftAnkle, pose.RightAnkle} {
		p, c := prev[joint], curr[joint]
		if !p.Valid(minConf) || !c.Valid(minConf) {
			continue
		}
		sum += math.Hypot(c.X-p.X, c.Y-p.Y)
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}
