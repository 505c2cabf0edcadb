package filters

// GeometricFilter rejects detections whose skeletal proportions are
// implausible: torso/leg ratio outside the configured band, head
// position too far from the shoulder line, or a left/right symmetry
// score below the minimum. Each check abstains (passes) when the
// joints it needs are not confident; the ghost filter handles sparse
// detections separately.
type GeometricFilter struct {
	MinConfidence    float64
	MinTorsoLegRatio float64
	MaxTorsoLegRatio float64
	MaxHeadOffset    float64 // height-normalised, absolute
	MinSymmetryScore float64
}

// Accept reports whether the detection passes geometric consistency.
func (f *GeometricFilter) Accept(d DetectionCandidate) bool {
	torso, torsoOK := d.Pose.TorsoLength(f.MinConfidence)
	leg, legOK := d.Pose.LegLength(f.MinConfidence)
	if torsoOK && legOK && leg > 0 {
		ratio := torso / leg
		if ratio < f.MinTorsoLegRatio || ratio > f.MaxTorsoLegRatio {
			return false
		}
	}

	if offset, ok := d.Pose.HeadOffset(f.MinConfidence); ok {
		if offset > f.MaxHeadOffset || offset < -f.MaxHeadOffset {
			return false
		}
	}

	if score, ok := d.Pose.SymmetryScore(f.MinConfidence); ok {
		if score < f.MinSymmetryScore {
			return false
		}
	}

	return true
}
