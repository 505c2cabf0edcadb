package filters

import "github.com/formlab/posescore/internal/pose"

// GhostFilter rejects phantom detections: too few confident joints
// regardless of anything else, torso length outside an absolute pixel
// band, or arm lengths too asymmetric to be one person. Survivors then
// go through pairwise IoU suppression so a single person produces a
// single detection: among any overlapping pair only the higher-scoring
// candidate is kept.
type GhostFilter struct {
	MinConfidence      float64
	MinConfidentJoints int
	MinTorsoPx         float64
	MaxTorsoPx         float64
	MaxArmAsymmetry    float64 // longer/shorter arm ratio bound
	IoUThreshold       float64
}

// Accept reports whether a single detection passes the ghost checks.
// The minimum-joint check is unconditional: a detection below it is
// always rejected even when every other check would pass.
func (f *GhostFilter) Accept(d DetectionCandidate) bool {
	if d.Pose.ConfidentCount(f.MinConfidence) < f.MinConfidentJoints {
		return false
	}

	if torso, ok := d.Pose.TorsoLength(f.MinConfidence); ok {
		if torso < f.MinTorsoPx || torso > f.MaxTorsoPx {
			return false
		}
	}

	left, lok := d.Pose.ArmLength(pose.SideLeft, f.MinConfidence)
	right, rok := d.Pose.ArmLength(pose.SideRight, f.MinConfidence)
	if lok && rok && left > 0 && right > 0 {
		ratio := left / right
		if ratio < 1 {
			ratio = 1 / ratio
		}
		if ratio > f.MaxArmAsymmetry {
			return false
		}
	}

	return true
}

// Suppress removes overlapping duplicates from the given detections:
// for every pair with IoU above the threshold, the lower-scoring one is
// dropped. Order of survivors follows the input.
func (f *GhostFilter) Suppress(ds []DetectionCandidate) []DetectionCandidate {
	if len(ds) < 2 {
		return ds
	}

	dropped := make([]bool, len(ds))
	for i := 0; i < len(ds); i++ {
		if dropped[i] {
			continue
		}
		for j := i + 1; j < len(ds); j++ {
			if dropped[j] {
				continue
			}
			if ds[i].Box.IoU(ds[j].Box) <= f.IoUThreshold {
				continue
			}
			if ds[i].Score >= ds[j].Score {
				dropped[j] = true
			} else {
				dropped[i] = true
				break
			}
		}
	}

	out := make([]DetectionCandidate, 0, len(ds))
	for i, d := range ds {
		if !dropped[i] {
			out = append(out, d)
		}
	}
	return out
}
