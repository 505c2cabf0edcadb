package filters

import (
	"github.com/formlab/posescore/internal/config"
	"github.com/formlab/posescore/internal/pose"
)

// FilterResult is one candidate after the pipeline: the (possibly
// interpolated) detection plus its occlusion flag.
type FilterResult struct {
	Detection DetectionCandidate
	Occluded  bool
}

// FilterPipeline applies the reliability filters in their fixed order:
// spatial → geometric → ghost (with IoU suppression) → velocity →
// occlusion. One pipeline per evaluation context; never share across
// cameras or sessions.
type FilterPipeline struct {
	Spatial   SpatialFilter
	Geometric GeometricFilter
	Ghost     GhostFilter
	Arena     *TrackArena
	Occlusion *OcclusionDetector

	interpolate bool
}

// NewFilterPipeline builds a pipeline for one camera from tuning
// config. frameWidth/frameHeight are the capture dimensions in pixels.
// When interpolate is true, occluded joints of accepted detections are
// filled from history.
func NewFilterPipeline(cfg *config.TuningConfig, frameWidth, frameHeight float64, interpolate bool) *FilterPipeline {
	minConf := cfg.GetMinKeypointConfidence()
	return &FilterPipeline{
		Spatial: SpatialFilter{
			FrameWidth:     frameWidth,
			FrameHeight:    frameHeight,
			MinHeightPx:    cfg.GetMinBBoxHeightPx(),
			MaxHeightRatio: cfg.GetMaxBBoxHeightRatio(),
			MinAspect:      cfg.GetMinAspectRatio(),
			MaxAspect:      cfg.GetMaxAspectRatio(),
			EdgeMarginPx:   cfg.GetEdgeMarginPx(),
		},
		Geometric: GeometricFilter{
			MinConfidence:    minConf,
			MinTorsoLegRatio: cfg.GetMinTorsoLegRatio(),
			MaxTorsoLegRatio: cfg.GetMaxTorsoLegRatio(),
			MaxHeadOffset:    cfg.GetMaxHeadOffset(),
			MinSymmetryScore: cfg.GetMinSymmetryScore(),
		},
		Ghost: GhostFilter{
			MinConfidence:      minConf,
			MinConfidentJoints: cfg.GetMinConfidentJoints(),
			MinTorsoPx:         cfg.GetMinTorsoPx(),
			MaxTorsoPx:         cfg.GetMaxTorsoPx(),
			MaxArmAsymmetry:    cfg.GetMaxArmAsymmetryRatio(),
			IoUThreshold:       cfg.GetIoUSuppressionThreshold(),
		},
		Arena: NewTrackArena(
			cfg.GetMaxVelocityPxPerFrame(),
			cfg.GetMaxJumpDistancePx(),
			cfg.GetMaxTrackHistory(),
			cfg.GetTrackStaleFrames(),
		),
		Occlusion: NewOcclusionDetector(
			minConf,
			cfg.GetOcclusionThreshold(),
			cfg.GetInterpolationFrames(),
			cfg.GetOcclusionFillConfidence(),
		),
		interpolate: interpolate,
	}
}

// Run filters one frame's detections and returns the reliable subset.
// Stale tracks are evicted as part of the pass.
func (fp *FilterPipeline) Run(frame int, detections []DetectionCandidate) []FilterResult {
	// Per-detection checks first.
	kept := make([]DetectionCandidate, 0, len(detections))
	for _, d := range detections {
		if !fp.Spatial.Accept(d) {
			continue
		}
		if !fp.Geometric.Accept(d) {
			continue
		}
		if !fp.Ghost.Accept(d) {
			continue
		}
		kept = append(kept, d)
	}

	// Duplicate suppression among survivors, then track plausibility.
	kept = fp.Ghost.Suppress(kept)

	out := make([]FilterResult, 0, len(kept))
	for _, d := range kept {
		if !fp.Arena.Observe(d.TrackID, frame, d.Box) {
			continue
		}
		occluded := fp.Occlusion.Occluded(d.Pose)
		if !occluded {
			fp.Occlusion.Observe(d.Pose)
		} else if fp.interpolate {
			d.Pose = fp.Occlusion.Interpolate(d.Pose)
		}
		out = append(out, FilterResult{Detection: d, Occluded: occluded})
	}

	fp.Arena.EvictStale(frame)
	return out
}

// ParseAndRun converts raw 17×3 flat pose rows into candidates and
// filters them. Rows with the wrong shape are skipped silently.
func (fp *FilterPipeline) ParseAndRun(frame int, rows [][]float64, boxes []BBox, scores []float64) []FilterResult {
	n := len(rows)
	if len(boxes) < n {
		n = len(boxes)
	}
	candidates := make([]DetectionCandidate, 0, n)
	for i := 0; i < n; i++ {
		p, ok := pose.ParsePose(rows[i])
		if !ok {
			continue
		}
		d := DetectionCandidate{Box: boxes[i], Pose: p}
		if i < len(scores) {
			d.Score = scores[i]
		}
		candidates = append(candidates, d)
	}
	return fp.Run(frame, candidates)
}

// Reset clears all pipeline state for a new session.
func (fp *FilterPipeline) Reset() {
	fp.Arena.Reset()
	fp.Occlusion.Reset()
}
