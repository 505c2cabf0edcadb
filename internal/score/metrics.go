package score

import (
	"github.com/formlab/posescore/internal/pose"
)

// Stock metric identifiers. Callers may define their own MetricSpecs;
// these cover the signals observable from a single pose frame.
const (
	MetricTorsoLength   = "torso_length"
	MetricArmSwingLeft  = "arm_swing_left"
	MetricArmSwingRight = "arm_swing_right"
	MetricLegLiftLeft   = "leg_lift_left"
	MetricLegLiftRight  = "leg_lift_right"
)

// Stock error types raised by the default metric set.
const (
	ErrPostureDeviation  = "posture_deviation"
	ErrArmSwingDeviation = "arm_swing_deviation"
	ErrLegLiftDeviation  = "leg_lift_deviation"
)

// DefaultMetrics returns the stock per-frame metric set: torso length,
// per-side arm swing and per-side leg lift.
func DefaultMetrics() []MetricSpec {
	return []MetricSpec{
		{
			ID:               MetricTorsoLength,
			Part:             pose.BodyPart{Kind: pose.PartTorso, Side: pose.SideCenter},
			Type:             ErrPostureDeviation,
			DefaultThreshold: 30,
			BaseDeduction:    0.5,
		},
		{
			ID:               MetricArmSwingLeft,
			Part:             pose.BodyPart{Kind: pose.PartArm, Side: pose.SideLeft},
			Type:             ErrArmSwingDeviation,
			DefaultThreshold: 40,
			BaseDeduction:    0.5,
		},
		{
			ID:               MetricArmSwingRight,
			Part:             pose.BodyPart{Kind: pose.PartArm, Side: pose.SideRight},
			Type:             ErrArmSwingDeviation,
			DefaultThreshold: 40,
			BaseDeduction:    0.5,
		},
		{
			ID:               MetricLegLiftLeft,
			Part:             pose.BodyPart{Kind: pose.PartLeg, Side: pose.SideLeft},
			Type:             ErrLegLiftDeviation,
			DefaultThreshold: 40,
			BaseDeduction:    0.5,
		},
		{
			ID:               MetricLegLiftRight,
			Part:             pose.BodyPart{Kind: pose.PartLeg, Side: pose.SideRight},
			Type:             ErrLegLiftDeviation,
			DefaultThreshold: 40,
			BaseDeduction:    0.5,
		},
	}
}

// ObservePose extracts the stock metric values from one pose. Metrics
// whose joints are not confident are simply absent from the map, which
// the evaluator treats as "no observation this frame".
func ObservePose(p pose.Pose, minConfidence float64) map[string]float64 {
	out := make(map[string]float64, 5)

	if torso, ok := p.TorsoLength(minConfidence); ok {
		out[MetricTorsoLength] = torso
	}

	// Arm swing: wrist height relative to the same-side shoulder
	// (image Y grows downward).
	if p[pose.LeftShoulder].Valid(minConfidence) && p[pose.LeftWrist].Valid(minConfidence) {
		out[MetricArmSwingLeft] = p[pose.LeftShoulder].Y - p[pose.LeftWrist].Y
	}
	if p[pose.RightShoulder].Valid(minConfidence) && p[pose.RightWrist].Valid(minConfidence) {
		out[MetricArmSwingRight] = p[pose.RightShoulder].Y - p[pose.RightWrist].Y
	}

	// Leg lift: knee height relative to the same-side hip.
	if p[pose.LeftHip].Valid(minConfidence) && p[pose.LeftKnee].Valid(minConfidence) {
		out[MetricLegLiftLeft] = p[pose.LeftHip].Y - p[pose.LeftKnee].Y
	}
	if p[pose.RightHip].Valid(minConfidence) && p[pose.RightKnee].Valid(minConfidence) {
		out[MetricLegLiftRight] = p[pose.RightHip].Y - p[pose.RightKnee].Y
	}

	return out
}
