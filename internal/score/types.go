package score

import (
	"math"

	"github.com/formlab/posescore/internal/pose"
	"github.com/formlab/posescore/internal/sequence"
	"github.com/formlab/posescore/internal/threshold"
)

// GoldenStatistic is one reference template entry: the mean and
// standard deviation of a metric over a canonical correct performance,
// optionally split by side.
type GoldenStatistic struct {
	Metric string
	Side   pose.Side // SideCenter for a combined statistic
	Mean   float64
	Std    float64 // negative or NaN = missing
}

// MetricSpec describes one scored metric: where it lives on the body,
// what error it raises, and its scoring parameters.
type MetricSpec struct {
	ID               string
	Part             pose.BodyPart
	Type             sequence.ErrorType
	DefaultThreshold float64 // used when the template carries no usable std
	BaseDeduction    float64 // score points per offending frame
}

type statKey struct {
	metric string
	side   pose.Side
}

// Template is a loaded golden reference: its statistics indexed for
// lookup, its classified difficulty, and the reference performer's
// torso length for height adjustment.
type Template struct {
	Name          string
	TorsoLengthPx float64

	stats      map[statKey]GoldenStatistic
	difficulty threshold.Difficulty
	avgStd     float64
}

// NewTemplate indexes the given statistics and classifies difficulty
// from the average of all usable per-metric stds, split sides included.
func NewTemplate(name string, torsoLengthPx float64, stats []GoldenStatistic) *Template {
	t := &Template{
		Name:          name,
		TorsoLengthPx: torsoLengthPx,
		stats:         make(map[statKey]GoldenStatistic, len(stats)),
	}
	stds := make([]float64, 0, len(stats))
	for _, s := range stats {
		side := s.Side
		if side == "" {
			side = pose.SideCenter
		}
		t.stats[statKey{metric: s.Metric, side: side}] = s
		stds = append(stds, s.Std)
	}
	t.difficulty, t.avgStd = threshold.ClassifyDifficulty(stds)
	return t
}

// Difficulty returns the template's classified difficulty level.
func (t *Template) Difficulty() threshold.Difficulty { return t.difficulty }

// AvgStd returns the average usable standard deviation behind the
// difficulty classification.
func (t *Template) AvgStd() float64 { return t.avgStd }

// Stat resolves the reference statistic for a metric and side. Lookup
// order: exact side, combined, then the average of the left and right
// entries. ok=false when nothing usable exists.
func (t *Template) Stat(metric string, side pose.Side) (GoldenStatistic, bool) {
	if side == "" {
		side = pose.SideCenter
	}
	if s, ok := t.stats[statKey{metric: metric, side: side}]; ok {
		return s, true
	}
	if s, ok := t.stats[statKey{metric: metric, side: pose.SideCenter}]; ok {
		return s, true
	}
	l, lok := t.stats[statKey{metric: metric, side: pose.SideLeft}]
	r, rok := t.stats[statKey{metric: metric, side: pose.SideRight}]
	switch {
	case lok && rok:
		return GoldenStatistic{
			Metric: metric,
			Side:   pose.SideCenter,
			Mean:   (l.Mean + r.Mean) / 2,
			Std:    averageStd(l.Std, r.Std),
		}, true
	case lok:
		return l, true
	case rok:
		return r, true
	}
	return GoldenStatistic{}, false
}

// averageStd averages two stds treating missing values as absent
// rather than zero.
func averageStd(a, b float64) float64 {
	aOK := a >= 0 && !math.IsNaN(a)
	bOK := b >= 0 && !math.IsNaN(b)
	switch {
	case aOK && bOK:
		return (a + b) / 2
	case aOK:
		return a
	case bOK:
		return b
	default:
		return -1
	}
}
