package smoothing

import (
	"math"

	"github.com/formlab/posescore/internal/pose"
)

// KeypointSmoother smooths raw joint positions over a bounded window of
// whole poses. Positions (x, y) are smoothed per joint with the
// configured reduction; the confidence channel is never smoothed and is
// always taken from the most recent frame, so an occluded joint cannot
// appear artificially confident because its neighbours in time were
// well detected.
type KeypointSmoother struct {
	reduction Reduction
	window    int

	poses []pose.Pose // ring buffer
	head  int
	count int
}

// NewKeypointSmoother creates a pose smoother with the given window and
// reduction. Savitzky-Golay windows are forced odd ≥3 like the scalar
// smoother.
func NewKeypointSmoother(window int, reduction Reduction) *KeypointSmoother {
	if window <= 0 {
		window = DefaultWindow
	}
	if reduction == ReduceSavitzkyGolay {
		if window < 3 {
			window = 3
		}
		if window%2 == 0 {
			window++
		}
	}
	return &KeypointSmoother{
		reduction: reduction,
		window:    window,
		poses:     make([]pose.Pose, window),
	}
}

// Push adds one frame's pose to the window. Poses containing non-finite
// coordinates are discarded whole; a frame with NaN joints is "no
// usable detection", not a partial update.
func (s *KeypointSmoother) Push(p pose.Pose) {
	for _, k := range p {
		if math.IsNaN(k.X) || math.IsInf(k.X, 0) || math.IsNaN(k.Y) || math.IsInf(k.Y, 0) {
			return
		}
	}
	s.poses[s.head] = p
	s.head = (s.head + 1) % s.window
	if s.count < s.window {
		s.count++
	}
}

// IsReady reports whether the window is at full capacity.
func (s *KeypointSmoother) IsReady() bool { return s.count == s.window }

// Len returns the current fill level.
func (s *KeypointSmoother) Len() int { return s.count }

// Reset clears the window.
func (s *KeypointSmoother) Reset() {
	s.head = 0
	s.count = 0
}

// Value returns the smoothed pose for the current window. ok=false when
// the window is empty. Confidence always comes from the latest frame.
func (s *KeypointSmoother) Value() (pose.Pose, bool) {
	if s.count == 0 {
		return pose.Pose{}, false
	}

	latest := s.poses[(s.head-1+s.window)%s.window]

	var out pose.Pose
	xs := make([]float64, s.count)
	ys := make([]float64, s.count)
	start := s.head - s.count
	if start < 0 {
		start += s.window
	}
	for joint := 0; joint < pose.NumKeypoints; joint++ {
		for i := 0; i < s.count; i++ {
			p := s.poses[(start+i)%s.window]
			xs[i] = p[joint].X
			ys[i] = p[joint].Y
		}
		out[joint] = pose.Keypoint{
			X:          s.reduce(xs),
			Y:          s.reduce(ys),
			Confidence: latest[joint].Confidence,
		}
	}
	return out, true
}

func (s *KeypointSmoother) reduce(vals []float64) float64 {
	switch s.reduction {
	case ReduceMedian:
		return median(vals)
	case ReduceGaussian:
		return gaussianWeighted(vals, s.window)
	case ReduceSavitzkyGolay:
		return savitzkyGolay(vals, 2)
	default:
		return mean(vals)
	}
}
