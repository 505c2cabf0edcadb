package filters

import "log"

// SpatialFilter rejects detections whose bounding boxes cannot belong
// to a standing person in the frame: too short, implausibly tall
// relative to the frame, or with a width/height ratio outside the
// standing band. Detections near the frame edges are logged but kept;
// edge truncation is common and handled downstream by the occlusion
// detector.
type SpatialFilter struct {
	FrameWidth  float64
	FrameHeight float64

	MinHeightPx    float64 // reject boxes shorter than this
	MaxHeightRatio float64 // reject boxes taller than ratio × frame height
	MinAspect      float64 // width/height standing band
	MaxAspect      float64
	EdgeMarginPx   float64
}

// Accept reports whether the detection passes spatial consistency.
func (f *SpatialFilter) Accept(d DetectionCandidate) bool {
	h := d.Box.Height()
	if h < f.MinHeightPx {
		return false
	}
	if f.FrameHeight > 0 && h > f.MaxHeightRatio*f.FrameHeight {
		return false
	}

	w := d.Box.Width()
	if h <= 0 {
		return false
	}
	aspect := w / h
	if aspect < f.MinAspect || aspect > f.MaxAspect {
		return false
	}

	// Edge-adjacent detections are advisory only.
	if f.nearEdge(d.Box) {
		log.Printf("spatial: detection near frame edge (box %.0f,%.0f..%.0f,%.0f)",
			d.Box.X1, d.Box.Y1, d.Box.X2, d.Box.Y2)
	}
	return true
}

func (f *SpatialFilter) nearEdge(b BBox) bool {
	if f.EdgeMarginPx <= 0 {
		return false
	}
	if b.X1 < f.EdgeMarginPx || b.Y1 < f.EdgeMarginPx {
		return true
	}
	if f.FrameWidth > 0 && b.X2 > f.FrameWidth-f.EdgeMarginPx {
		return true
	}
	if f.FrameHeight > 0 && b.Y2 > f.FrameHeight-f.EdgeMarginPx {
		return true
	}
	return false
}
