package pose

import "math"

// Skeletal geometry helpers. All functions return (value, ok); ok=false
// means the required joints were not confident enough, which callers
// treat as "no signal" rather than failure.

// TorsoLength returns the shoulder-center to hip-center distance. When
// one side lacks confidence the computation degrades to the single
// available side rather than abstaining; it only abstains when neither
// side provides a confident shoulder/hip pair.
func (p Pose) TorsoLength(minConfidence float64) (float64, bool) {
	ls, rs := p[LeftShoulder], p[RightShoulder]
	lh, rh := p[LeftHip], p[RightHip]

	bothShoulders := ls.Valid(minConfidence) && rs.Valid(minConfidence)
	bothHips := lh.Valid(minConfidence) && rh.Valid(minConfidence)
	if bothShoulders && bothHips {
		sx, sy := midpoint(ls, rs)
		hx, hy := midpoint(lh, rh)
		return math.Hypot(sx-hx, sy-hy), true
	}

	// Degrade to a single side.
	if ls.Valid(minConfidence) && lh.Valid(minConfidence) {
		return dist(ls, lh), true
	}
	if rs.Valid(minConfidence) && rh.Valid(minConfidence) {
		return dist(rs, rh), true
	}
	return 0, false
}

// LegLength returns the hip-to-ankle distance averaged over both sides,
// degrading to one side when the other is not confident.
func (p Pose) LegLength(minConfidence float64) (float64, bool) {
	var sum float64
	var n int
	if p[LeftHip].Valid(minConfidence) && p[LeftAnkle].Valid(minConfidence) {
		sum += dist(p[LeftHip], p[LeftAnkle])
		n++
	}
	if p[RightHip].Valid(minConfidence) && p[RightAnkle].Valid(minConfidence) {
		sum += dist(p[RightHip], p[RightAnkle])
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// ArmLength returns the shoulder→elbow→wrist length for the given side.
func (p Pose) ArmLength(side Side, minConfidence float64) (float64, bool) {
	var s, e, w Keypoint
	switch side {
	case SideLeft:
		s, e, w = p[LeftShoulder], p[LeftElbow], p[LeftWrist]
	case SideRight:
		s, e, w = p[RightShoulder], p[RightElbow], p[RightWrist]
	default:
		return 0, false
	}
	if !s.Valid(minConfidence) || !e.Valid(minConfidence) || !w.Valid(minConfidence) {
		return 0, false
	}
	return dist(s, e) + dist(e, w), true
}

// EstimatedHeight approximates the person's on-image height as torso
// plus leg length. Used to normalise placement metrics so they are
// scale-invariant.
func (p Pose) EstimatedHeight(minConfidence float64) (float64, bool) {
	torso, ok := p.TorsoLength(minConfidence)
	if !ok {
		return 0, false
	}
	leg, ok := p.LegLength(minConfidence)
	if !ok {
		return 0, false
	}
	return torso + leg, true
}

// HeadOffset returns the nose's vertical offset above the shoulder line,
// normalised by estimated person height. Negative values mean the head
// sits below the shoulders (almost always an implausible detection when
// large in magnitude).
func (p Pose) HeadOffset(minConfidence float64) (float64, bool) {
	nose := p[Nose]
	ls, rs := p[LeftShoulder], p[RightShoulder]
	if !nose.Valid(minConfidence) || !ls.Valid(minConfidence) || !rs.Valid(minConfidence) {
		return 0, false
	}
	height, ok := p.EstimatedHeight(minConfidence)
	if !ok || height <= 0 {
		return 0, false
	}
	_, shoulderY := midpoint(ls, rs)
	// Image Y grows downward: above the shoulder line means smaller Y.
	return (shoulderY - nose.Y) / height, true
}

// symmetryPairs are the six left/right joint pairs used for the
// symmetry score.
var symmetryPairs = [6][2]int{
	{LeftShoulder, RightShoulder},
	{LeftElbow, RightElbow},
	{LeftWrist, RightWrist},
	{LeftHip, RightHip},
	{LeftKnee, RightKnee},
	{LeftAnkle, RightAnkle},
}

// SymmetryScore measures how consistently the six left/right joint
// pairs sit at the same vertical placement, normalised by estimated
// person height. 1 is perfectly symmetric; the score decays toward 0 as
// pairs diverge. Pairs lacking confidence are skipped; if fewer than
// half the pairs are usable the score abstains.
func (p Pose) SymmetryScore(minConfidence float64) (float64, bool) {
	height, ok := p.EstimatedHeight(minConfidence)
	if !ok || height <= 0 {
		return 0, false
	}

	var total float64
	var used int
	for _, pair := range symmetryPairs {
		l, r := p[pair[0]], p[pair[1]]
		if !l.Valid(minConfidence) || !r.Valid(minConfidence) {
			continue
		}
		total += math.Abs(l.Y-r.Y) / height
		used++
	}
	if used < len(symmetryPairs)/2 {
		return 0, false
	}

	score := 1 - total/float64(used)
	if score < 0 {
		score = 0
	}
	return score, true
}
