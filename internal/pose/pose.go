package pose

import "math"

// NumKeypoints is the fixed arity of a pose in the COCO 17-joint layout.
const NumKeypoints = 17

// Joint indices in the COCO 17-keypoint ordering.
const (
	Nose = iota
	LeftEye
	RightEye
	LeftEar
	RightEar
	LeftShoulder
	RightShoulder
	LeftElbow
	RightElbow
	LeftWrist
	RightWrist
	LeftHip
	RightHip
	LeftKnee
	RightKnee
	LeftAnkle
	RightAnkle
)

// Keypoint is one detected joint: image position plus detector confidence.
type Keypoint struct {
	X          float64
	Y          float64
	Confidence float64 // [0, 1]
}

// Valid reports whether the keypoint position is finite and the
// confidence meets the given minimum.
func (k Keypoint) Valid(minConfidence float64) bool {
	if math.IsNaN(k.X) || math.IsInf(k.X, 0) || math.IsNaN(k.Y) || math.IsInf(k.Y, 0) {
		return false
	}
	return k.Confidence >= minConfidence
}

// Pose is one frame's set of keypoints for a single detected person.
// The arity is always NumKeypoints; partial poses are expressed through
// low-confidence keypoints, never through a shorter array.
type Pose [NumKeypoints]Keypoint

// ParsePose converts the external flat 17×3 layout (x, y, confidence per
// joint) into a Pose. Any other length is treated as "no usable
// detection" and returns ok=false; it is never an error.
func ParsePose(flat []float64) (Pose, bool) {
	var p Pose
	if len(flat) != NumKeypoints*3 {
		return p, false
	}
	for i := 0; i < NumKeypoints; i++ {
		p[i] = Keypoint{
			X:          flat[i*3+0],
			Y:          flat[i*3+1],
			Confidence: flat[i*3+2],
		}
	}
	return p, true
}

// VisibleRatio returns the fraction of keypoints whose confidence meets
// the given minimum.
func (p Pose) VisibleRatio(minConfidence float64) float64 {
	visible := 0
	for _, k := range p {
		if k.Valid(minConfidence) {
			visible++
		}
	}
	return float64(visible) / float64(NumKeypoints)
}

// ConfidentCount returns the number of keypoints at or above the given
// confidence.
func (p Pose) ConfidentCount(minConfidence float64) int {
	n := 0
	for _, k := range p {
		if k.Valid(minConfidence) {
			n++
		}
	}
	return n
}

func dist(a, b Keypoint) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

func midpoint(a, b Keypoint) (x, y float64) {
	return (a.X + b.X) / 2, (a.Y + b.Y) / 2
}
