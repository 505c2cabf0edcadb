// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"testing"

	"github.com/formlab/posescore/internal/pose"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// StandingPose returns a plausible standing person centred at (cx, cy)
// with roughly the given pixel height, all joints at full confidence.
// Proportions follow a generic adult skeleton: head at the top ~12%,
// shoulders ~20% down, hips ~50%, knees ~75%, ankles at the bottom.
func StandingPose(cx, cy, height float64) pose.Pose {
	top := cy - height/2
	y := func(frac float64) float64 { return top + frac*height }
	shoulderHalf := height * 0.11
	hipHalf := height * 0.08

	var p pose.Pose
	set := func(joint int, x, yy float64) {
		p[joint] = pose.Keypoint{X: x, Y: yy, Confidence: 1}
	}
	set(pose.Nose, cx, y(0.06))
	set(pose.LeftEye, cx-height*0.02, y(0.05))
	set(pose.RightEye, cx+height*0.02, y(0.05))
	set(pose.LeftEar, cx-height*0.04, y(0.06))
	set(pose.RightEar, cx+height*0.04, y(0.06))
	set(pose.LeftShoulder, cx-shoulderHalf, y(0.20))
	set(pose.RightShoulder, cx+shoulderHalf, y(0.20))
	set(pose.LeftElbow, cx-shoulderHalf-height*0.03, y(0.34))
	set(pose.RightElbow, cx+shoulderHalf+height*0.03, y(0.34))
	set(pose.LeftWrist, cx-shoulderHalf-height*0.04, y(0.47))
	set(pose.RightWrist, cx+shoulderHalf+height*0.04, y(0.47))
	set(pose.LeftHip, cx-hipHalf, y(0.50))
	set(pose.RightHip, cx+hipHalf, y(0.50))
	set(pose.LeftKnee, cx-hipHalf, y(0.75))
	set(pose.RightKnee, cx+hipHalf, y(0.75))
	set(pose.LeftAnkle, cx-hipHalf, y(0.98))
	set(pose.RightAnkle, cx+hipHalf, y(0.98))
	return p
}

// WithConfidence returns a copy of the pose with every joint's
// confidence set to c.
func WithConfidence(p pose.Pose, c float64) pose.Pose {
	for i := range p {
		p[i].Confidence = c
	}
	return p
}

// Flatten converts a pose to the external 17×3 flat layout.
func Flatten(p pose.Pose) []float64 {
	out := make([]float64, 0, pose.NumKeypoints*3)
	for _, k := range p {
		out = append(out, k.X, k.Y, k.Confidence)
	}
	return out
}
