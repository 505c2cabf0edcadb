// Package replay loads a recorded detection capture and runs the full
// scoring pipeline over it offline. The report tools under cmd/tools
// use it to regenerate per-metric traces and score summaries from a
// capture file.
package replay

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"time"

	"github.com/formlab/posescore/internal/config"
	"github.com/formlab/posescore/internal/filters"
	"github.com/formlab/posescore/internal/pose"
	"github.com/formlab/posescore/internal/rhythm"
	"github.com/formlab/posescore/internal/score"
	"github.com/formlab/posescore/internal/sequence"
	"github.com/formlab/posescore/internal/smoothing"
)

// maxCaptureBytes bounds capture files the same way tuning config
// loading bounds its input.
const maxCaptureBytes = 64 << 20

// Detection is one detector output row in a capture frame.
type Detection struct {
	Box     [4]float64 `json:"box"` // x1, y1, x2, y2
	Score   float64    `json:"score"`
	TrackID string     `json:"track_id,omitempty"`
	Pose    []float64  `json:"pose"` // 51 floats, x/y/confidence per joint
}

// Frame is one capture frame with its detections.
type Frame struct {
	Frame       int         `json:"frame"`
	TimestampMs int64       `json:"ts_ms"`
	Detections  []Detection `json:"detections"`
}

// ReferenceStat is one golden template statistic in the capture
// header. Side is empty or "center" for combined statistics.
type ReferenceStat struct {
	Metric string  `json:"metric"`
	Side   string  `json:"side,omitempty"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
}

// Capture is a recorded session: detector output per frame plus the
// reference template it was scored against.
type Capture struct {
	Name             string          `json:"name"`
	FPS              float64         `json:"fps"`
	FrameWidth       float64         `json:"frame_width"`
	FrameHeight      float64         `json:"frame_height"`
	ReferenceTorsoPx float64         `json:"reference_torso_px,omitempty"`
	PerformerTorsoPx float64         `json:"performer_torso_px,omitempty"`
	Reference        []ReferenceStat `json:"reference,omitempty"`
	Frames           []Frame         `json:"frames"`
}

// Load reads and validates a capture file.
func Load(path string) (*Capture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open capture: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxCaptureBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read capture: %w", err)
	}
	if len(data) > maxCaptureBytes {
		return nil, fmt.Errorf("capture %s exceeds %d bytes", path, maxCaptureBytes)
	}

	var rec Capture
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parse capture %s: %w", path, err)
	}
	if rec.FPS <= 0 {
		rec.FPS = 30
	}
	if len(rec.Frames) == 0 {
		return nil, fmt.Errorf("capture %s has no frames", path)
	}
	sort.Slice(rec.Frames, func(i, j int) bool { return rec.Frames[i].Frame < rec.Frames[j].Frame })
	return &rec, nil
}

// MetricTrace is the per-frame raw and smoothed series of one metric.
// Smoothed holds NaN for frames where the smoother had not filled its
// window or the metric was unobserved.
type MetricTrace struct {
	Frames   []int
	Raw      []float64
	Smoothed []float64
}

// Summary is the outcome of replaying one capture.
type Summary struct {
	Capture *Capture
	Traces  map[string]*MetricTrace
	Errors  []sequence.FrameError
	Result  sequence.Result

	Rhythm   *rhythm.RhythmResult
	Distance *rhythm.DistanceResult
	Speed    *rhythm.SpeedResult

	FramesScored  int
	FramesDropped int
}

// Run replays the capture through filtering, smoothing, threshold
// evaluation and windowed analysis, and returns the collected traces
// and score.
func Run(cfg *config.TuningConfig, rec *Capture) (*Summary, error) {
	pipeline := filters.NewFilterPipeline(cfg, rec.FrameWidth, rec.FrameHeight, true)
	eval := score.NewEvaluator(cfg, score.DefaultMetrics())
	eval.LoadTemplate(score.NewTemplate(rec.Name, rec.ReferenceTorsoPx, goldenStats(rec.Reference)))
	if rec.PerformerTorsoPx > 0 {
		eval.SetPerformerTorso(rec.PerformerTorsoPx)
	}
	analyzer := rhythm.NewAnalyzer(cfg, rec.FPS, rhythmReference(rec.Reference))

	minConf := cfg.GetMinKeypointConfidence()
	frameDur := time.Duration(float64(time.Second) / rec.FPS)
	base := time.Unix(0, 0).UTC()

	sum := &Summary{
		Capture: rec,
		Traces:  make(map[string]*MetricTrace),
	}
	smoothers := make(map[string]*smoothing.ScalarSmoother)
	window := cfg.GetSmoothWindow()
	reduction := smoothing.Reduction(cfg.GetSmoothReduction())
	var errs []sequence.FrameError

	for _, fr := range rec.Frames {
		ts := base.Add(time.Duration(fr.TimestampMs) * time.Millisecond)
		if fr.TimestampMs == 0 && fr.Frame > 0 {
			ts = base.Add(time.Duration(fr.Frame) * frameDur)
		}

		candidates := make([]filters.DetectionCandidate, 0, len(fr.Detections))
		for _, d := range fr.Detections {
			p, ok := pose.ParsePose(d.Pose)
			if !ok {
				continue
			}
			candidates = append(candidates, filters.DetectionCandidate{
				Box:     filters.BBox{X1: d.Box[0], Y1: d.Box[1], X2: d.Box[2], Y2: d.Box[3]},
				Pose:    p,
				Score:   d.Score,
				TrackID: d.TrackID,
			})
		}

		results := pipeline.Run(fr.Frame, candidates)
		best, ok := bestResult(results)
		if !ok {
			sum.FramesDropped++
			continue
		}
		sum.FramesScored++

		observed := score.ObservePose(best.Detection.Pose, minConf)
		for _, id := range sortedKeys(observed) {
			s := smoothers[id]
			if s == nil {
				s = smoothing.NewScalarSmoother(window, reduction)
				smoothers[id] = s
			}
			s.Push(observed[id])
			smoothed := math.NaN()
			if v, ok := s.Value(); ok && s.IsReady() {
				smoothed = v
			}
			tr := sum.Traces[id]
			if tr == nil {
				tr = &MetricTrace{}
				sum.Traces[id] = tr
			}
			tr.Frames = append(tr.Frames, fr.Frame)
			tr.Raw = append(tr.Raw, observed[id])
			tr.Smoothed = append(tr.Smoothed, smoothed)
		}
		errs = append(errs, eval.EvaluateFrame(fr.Frame, ts, observed)...)
		analyzer.Push(rhythm.Sample{Pose: best.Detection.Pose, Frame: fr.Frame, Timestamp: ts})
	}

	sum.Errors = errs
	sum.Result = eval.ScoreBatch(errs)
	if r, ok := analyzer.Rhythm(); ok {
		sum.Rhythm = &r
	}
	if d, ok := analyzer.Distance(); ok {
		sum.Distance = &d
	}
	if s, ok := analyzer.Speed(); ok {
		sum.Speed = &s
	}
	return sum, nil
}

// bestResult picks the highest-scoring surviving detection, preferring
// non-occluded candidates.
func bestResult(results []filters.FilterResult) (filters.FilterResult, bool) {
	var best filters.FilterResult
	found := false
	for _, r := range results {
		if !found {
			best, found = r, true
			continue
		}
		if best.Occluded != r.Occluded {
			if best.Occluded {
				best = r
			}
			continue
		}
		if r.Detection.Score > best.Detection.Score {
			best = r
		}
	}
	return best, found
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func goldenStats(refs []ReferenceStat) []score.GoldenStatistic {
	out := make([]score.GoldenStatistic, 0, len(refs))
	for _, r := range refs {
		out = append(out, score.GoldenStatistic{
			Metric: r.Metric,
			Side:   parseSide(r.Side),
			Mean:   r.Mean,
			Std:    r.Std,
		})
	}
	return out
}

func parseSide(s string) pose.Side {
	switch s {
	case "left":
		return pose.SideLeft
	case "right":
		return pose.SideRight
	default:
		return pose.SideCenter
	}
}

// rhythmReference maps the capture's template statistics onto the
// windowed analyzer's reference bundle.
func rhythmReference(refs []ReferenceStat) rhythm.Reference {
	var ref rhythm.Reference
	for _, r := range refs {
		st := rhythm.Stat{Mean: r.Mean, Std: r.Std}
		var bundle *rhythm.SideStats
		switch r.Metric {
		case "cadence":
			bundle = &ref.Cadence
		case "leg_lift":
			bundle = &ref.LegLift
		case "arm_swing":
			bundle = &ref.ArmSwing
		default:
			continue
		}
		switch parseSide(r.Side) {
		case pose.SideLeft:
			bundle.Left = &st
		case pose.SideRight:
			bundle.Right = &st
		default:
			bundle.Combined = &st
		}
	}
	return ref
}
