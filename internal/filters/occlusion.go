package filters

import "github.com/formlab/posescore/internal/pose"

// OcclusionDetector flags poses whose visible-keypoint ratio drops
// below (1 − occlusion threshold) and can optionally fill in occluded
// joints from recent history. It keeps a bounded buffer of valid poses
// so the fill is the mean of the same joint's position across the last
// HistoryFrames confident sightings, written back with a synthetic
// confidence below full so downstream checks still see the joint as
// inferred.
type OcclusionDetector struct {
	MinConfidence      float64
	OcclusionThreshold float64 // occluded when visible ratio < 1 − this
	HistoryFrames      int
	FillConfidence     float64

	history []pose.Pose // bounded, most recent last
}

// NewOcclusionDetector creates a detector with the given bounds.
func NewOcclusionDetector(minConfidence, occlusionThreshold float64, historyFrames int, fillConfidence float64) *OcclusionDetector {
	if historyFrames < 1 {
		historyFrames = 1
	}
	return &OcclusionDetector{
		MinConfidence:      minConfidence,
		OcclusionThreshold: occlusionThreshold,
		HistoryFrames:      historyFrames,
		FillConfidence:     fillConfidence,
	}
}

// Occluded reports whether the pose's visible ratio falls below the
// occlusion bound.
func (o *OcclusionDetector) Occluded(p pose.Pose) bool {
	return p.VisibleRatio(o.MinConfidence) < 1-o.OcclusionThreshold
}

// Observe records a pose into the history buffer when it is not
// occluded. Occluded frames are excluded so interpolation never feeds
// on already-degraded data.
func (o *OcclusionDetector) Observe(p pose.Pose) {
	if o.Occluded(p) {
		return
	}
	o.history = append(o.history, p)
	if len(o.history) > o.HistoryFrames {
		o.history = o.history[len(o.history)-o.HistoryFrames:]
	}
}

// Interpolate returns a copy of the pose with each low-confidence joint
// replaced by the mean of that joint's position over the historical
// frames where it was confident, at the synthetic fill confidence.
// Joints with no confident history are left untouched.
func (o *OcclusionDetector) Interpolate(p pose.Pose) pose.Pose {
	if len(o.history) == 0 {
		return p
	}

	out := p
	for joint := 0; joint < pose.NumKeypoints; joint++ {
		if p[joint].Valid(o.MinConfidence) {
			continue
		}
		var sumX, sumY float64
		var n int
		for _, h := range o.history {
			if h[joint].Valid(o.MinConfidence) {
				sumX += h[joint].X
				sumY += h[joint].Y
				n++
			}
		}
		if n == 0 {
			continue
		}
		out[joint] = pose.Keypoint{
			X:          sumX / float64(n),
			Y:          sumY / float64(n),
			Confidence: o.FillConfidence,
		}
	}
	return out
}

// Reset clears the pose history. Called on session end.
func (o *OcclusionDetector) Reset() {
	o.history = o.history[:0]
}
