package smoothing

import (
	"math"
	"sort"
)

// Reduction selects how a smoother collapses its window into one value.
type Reduction string

const (
	ReduceMean          Reduction = "mean"
	ReduceMedian        Reduction = "median"   // outlier-robust
	ReduceGaussian      Reduction = "gaussian" // centre-weighted
	ReduceSavitzkyGolay Reduction = "savgol"   // local polynomial
)

// DefaultWindow is the smoothing window used when a caller passes a
// non-positive size.
const DefaultWindow = 5

// ScalarSmoother smooths a single derived metric over a bounded ring
// buffer. Non-finite inputs (NaN, ±Inf) are discarded before buffering
// so one bad frame cannot poison the window.
type ScalarSmoother struct {
	reduction Reduction
	window    int
	degree    int // polynomial degree for ReduceSavitzkyGolay

	values []float64 // ring buffer
	head   int       // next write position
	count  int       // valid entries, ≤ window
}

// NewScalarSmoother creates a smoother with the given window size and
// reduction. For ReduceSavitzkyGolay the window is forced odd and at
// least 3, and the fit degree is 2 (clamped below the window length).
func NewScalarSmoother(window int, reduction Reduction) *ScalarSmoother {
	if window <= 0 {
		window = DefaultWindow
	}
	degree := 2
	if reduction == ReduceSavitzkyGolay {
		if window < 3 {
			window = 3
		}
		if window%2 == 0 {
			window++
		}
		if degree >= window {
			degree = window - 1
		}
	}
	return &ScalarSmoother{
		reduction: reduction,
		window:    window,
		degree:    degree,
		values:    make([]float64, window),
	}
}

// Push adds a sample to the window. Non-finite samples are dropped.
func (s *ScalarSmoother) Push(v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	s.values[s.head] = v
	s.head = (s.head + 1) % s.window
	if s.count < s.window {
		s.count++
	}
}

// IsReady reports whether the window has reached full capacity. Callers
// gate scoring on this during warm-up so partial windows never produce
// verdicts.
func (s *ScalarSmoother) IsReady() bool {
	return s.count == s.window
}

// Len returns the current fill level.
func (s *ScalarSmoother) Len() int { return s.count }

// Window returns the configured window capacity.
func (s *ScalarSmoother) Window() int { return s.window }

// Reset clears all buffered state. Called on a new session or when the
// reference template changes.
func (s *ScalarSmoother) Reset() {
	s.head = 0
	s.count = 0
}

// ordered returns the buffered samples oldest-first.
func (s *ScalarSmoother) ordered() []float64 {
	out := make([]float64, s.count)
	start := s.head - s.count
	if start < 0 {
		start += s.window
	}
	for i := 0; i < s.count; i++ {
		out[i] = s.values[(start+i)%s.window]
	}
	return out
}

// Value reduces the current window. ok=false when the window is empty.
// A partially filled window still reduces; use IsReady to gate on full
// capacity.
func (s *ScalarSmoother) Value() (float64, bool) {
	if s.count == 0 {
		return 0, false
	}
	vals := s.ordered()
	switch s.reduction {
	case ReduceMedian:
		return median(vals), true
	case ReduceGaussian:
		return gaussianWeighted(vals, s.window), true
	case ReduceSavitzkyGolay:
		return savitzkyGolay(vals, s.degree), true
	default:
		return mean(vals), true
	}
}

func mean(vals []float64) float64 {
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func median(vals []float64) float64 {
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// gaussianWeighted averages the window with symmetric Gaussian weights
// recomputed for the current fill level. Sigma is derived from the
// configured window capacity, not the fill, so weighting stays stable
// through warm-up. Weights are normalised to sum to 1.
func gaussianWeighted(vals []float64, window int) float64 {
	weights := GaussianWeights(len(vals), window)
	var out float64
	for i, v := range vals {
		out += v * weights[i]
	}
	return out
}

// GaussianWeights returns n symmetric Gaussian weights for a smoother
// of the given window capacity, normalised to sum to 1.
// Sigma = max(1, window/3).
func GaussianWeights(n, window int) []float64 {
	sigma := float64(window) / 3
	if sigma < 1 {
		sigma = 1
	}
	center := float64(n-1) / 2

	weights := make([]float64, n)
	var sum float64
	for i := range weights {
		d := float64(i) - center
		weights[i] = math.Exp(-(d * d) / (2 * sigma * sigma))
		sum += weights[i]
	}
	for i := range weights {
		weights[i] /= sum
	}
	return weights
}
