package filters

import "github.com/formlab/posescore/internal/pose"

// BBox is an axis-aligned bounding box in image pixels.
type BBox struct {
	X1, Y1 float64 // top-left
	X2, Y2 float64 // bottom-right
}

// Width returns the box width in pixels.
func (b BBox) Width() float64 { return b.X2 - b.X1 }

// Height returns the box height in pixels.
func (b BBox) Height() float64 { return b.Y2 - b.Y1 }

// Center returns the box centre.
func (b BBox) Center() (x, y float64) {
	return (b.X1 + b.X2) / 2, (b.Y1 + b.Y2) / 2
}

// Area returns the box area, never negative.
func (b BBox) Area() float64 {
	w, h := b.Width(), b.Height()
	if w < 0 || h < 0 {
		return 0
	}
	return w * h
}

// IoU returns the intersection-over-union of two boxes in [0, 1].
func (b BBox) IoU(o BBox) float64 {
	ix1 := max(b.X1, o.X1)
	iy1 := max(b.Y1, o.Y1)
	ix2 := min(b.X2, o.X2)
	iy2 := min(b.Y2, o.Y2)
	if ix2 <= ix1 || iy2 <= iy1 {
		return 0
	}
	inter := (ix2 - ix1) * (iy2 - iy1)
	union := b.Area() + o.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// DetectionCandidate is one pre-filter detection: a bounding box, the
// detected pose and the detector's score. TrackID is the upstream
// tracker's identity for the detection and may be empty for untracked
// candidates (the velocity filter then skips them).
type DetectionCandidate struct {
	Box     BBox
	Pose    pose.Pose
	Score   float64
	TrackID string
}
