// Package score owns per-frame metric evaluation against adaptive
// thresholds and the session lifecycle around it.
//
// An Evaluator belongs to exactly one session/camera. It owns the
// per-metric smoothers, the threshold manager and the loaded template;
// loading a new template resets the smoothers and clears the threshold
// cache so no state crosses a reference boundary.
package score

import (
	"sort"
	"time"

	"github.com/formlab/posescore/internal/config"
	"github.com/formlab/posescore/internal/sequence"
	"github.com/formlab/posescore/internal/smoothing"
	"github.com/formlab/posescore/internal/threshold"
)

// maxSeverity bounds a single frame's severity so one wild detection
// cannot dominate a sequence aggregate.
const maxSeverity = 5.0

// Evaluator scores observed per-frame metric values against the loaded
// golden template.
type Evaluator struct {
	metrics    map[string]MetricSpec
	metricIDs  []string // sorted, for deterministic evaluation order
	thresholds *threshold.Manager
	smoothers  map[string]*smoothing.ScalarSmoother
	seqOpts    sequence.Options

	smoothWindow    int
	smoothReduction smoothing.Reduction

	template       *Template
	performerTorso float64
}

// NewEvaluator creates an evaluator for the given metric set. No
// template is loaded yet; EvaluateFrame abstains until one is.
func NewEvaluator(cfg *config.TuningConfig, metrics []MetricSpec) *Evaluator {
	e := &Evaluator{
		metrics:         make(map[string]MetricSpec, len(metrics)),
		thresholds:      threshold.NewManager(cfg),
		smoothers:       make(map[string]*smoothing.ScalarSmoother, len(metrics)),
		seqOpts:         sequence.OptionsFromConfig(cfg),
		smoothWindow:    cfg.GetSmoothWindow(),
		smoothReduction: smoothing.Reduction(cfg.GetSmoothReduction()),
	}
	for _, m := range metrics {
		e.metrics[m.ID] = m
		e.metricIDs = append(e.metricIDs, m.ID)
		e.smoothers[m.ID] = smoothing.NewScalarSmoother(e.smoothWindow, e.smoothReduction)
	}
	sort.Strings(e.metricIDs)
	return e
}

// LoadTemplate installs a new golden reference. Smoothing windows are
// reset and the threshold cache cleared: nothing measured against the
// old template may leak into the new one.
func (e *Evaluator) LoadTemplate(t *Template) {
	e.template = t
	e.thresholds.ClearCache()
	for _, s := range e.smoothers {
		s.Reset()
	}
}

// Template returns the currently loaded template, nil when none.
func (e *Evaluator) Template() *Template { return e.template }

// SetPerformerTorso records the performer's measured torso length in
// pixels for height adjustment. Non-positive values disable the
// adjustment.
func (e *Evaluator) SetPerformerTorso(px float64) {
	e.performerTorso = px
}

// EvaluateFrame smooths each observed metric value and compares the
// smoothed deviation from the template mean against the adaptive
// threshold. Metrics whose smoothing window is still warming up
// produce no verdict for this frame, which is distinct from "no
// error detected". Returns the frame's errors in metric-ID order.
func (e *Evaluator) EvaluateFrame(frame int, ts time.Time, observed map[string]float64) []sequence.FrameError {
	if e.template == nil {
		return nil
	}

	var errs []sequence.FrameError
	for _, id := range e.metricIDs {
		value, ok := observed[id]
		if !ok {
			continue
		}
		spec := e.metrics[id]

		sm := e.smoothers[id]
		sm.Push(value)
		if !sm.IsReady() {
			continue
		}
		smoothed, ok := sm.Value()
		if !ok {
			continue
		}

		stat, ok := e.template.Stat(id, spec.Part.Side)
		if !ok {
			continue
		}

		thr := e.thresholds.Threshold(
			id, stat.Mean, stat.Std, spec.DefaultThreshold,
			e.template.Difficulty(), e.performerTorso, e.template.TorsoLengthPx,
		)
		if thr <= 0 {
			continue
		}

		dev := smoothed - stat.Mean
		if dev < 0 {
			dev = -dev
		}
		if dev <= thr {
			continue
		}

		severity := dev / thr
		if severity > maxSeverity {
			severity = maxSeverity
		}
		errs = append(errs, sequence.FrameError{
			Type:      spec.Type,
			Part:      spec.Part,
			Severity:  severity,
			Deduction: spec.BaseDeduction,
			Frame:     frame,
			Timestamp: ts,
		})
	}
	return errs
}

// ScoreBatch aggregates a batch of frame errors into sequences and a
// total deduction. The pass is stateless; it can run on a session's
// full error list or on any window of it.
func (e *Evaluator) ScoreBatch(errs []sequence.FrameError) sequence.Result {
	return sequence.Aggregate(errs, e.seqOpts)
}

// Reset clears all per-session state without dropping the metric set:
// smoothing windows, threshold cache, performer height and template.
// Called on session end.
func (e *Evaluator) Reset() {
	e.template = nil
	e.performerTorso = 0
	e.thresholds.ClearCache()
	for _, s := range e.smoothers {
		s.Reset()
	}
}
