package smoothing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formlab/posescore/internal/pose"
)

func uniformPose(x, y, conf float64) pose.Pose {
	var p pose.Pose
	for i := range p {
		p[i] = pose.Keypoint{X: x, Y: y, Confidence: conf}
	}
	return p
}

func TestKeypointSmootherMeansPositions(t *testing.T) {
	t.Parallel()

	s := NewKeypointSmoother(3, ReduceMean)
	s.Push(uniformPose(10, 100, 0.9))
	s.Push(uniformPose(20, 110, 0.9))
	s.Push(uniformPose(30, 120, 0.9))
	require.True(t, s.IsReady())

	p, ok := s.Value()
	require.True(t, ok)
	assert.InDelta(t, 20.0, p[pose.Nose].X, 1e-9)
	assert.InDelta(t, 110.0, p[pose.Nose].Y, 1e-9)
}

func TestKeypointSmootherConfidencePassthrough(t *testing.T) {
	t.Parallel()

	// Confidence must come from the latest frame only: three confident
	// frames followed by an occluded one must not inflate the occluded
	// joint's confidence.
	s := NewKeypointSmoother(4, ReduceMean)
	s.Push(uniformPose(10, 10, 0.95))
	s.Push(uniformPose(10, 10, 0.95))
	s.Push(uniformPose(10, 10, 0.95))
	s.Push(uniformPose(10, 10, 0.05))

	p, ok := s.Value()
	require.True(t, ok)
	for joint := 0; joint < pose.NumKeypoints; joint++ {
		assert.InDelta(t, 0.05, p[joint].Confidence, 1e-9)
	}
}

func TestKeypointSmootherDiscardsNonFinitePose(t *testing.T) {
	t.Parallel()

	s := NewKeypointSmoother(3, ReduceMean)
	s.Push(uniformPose(10, 10, 0.9))

	bad := uniformPose(20, 20, 0.9)
	bad[pose.LeftWrist].X = math.NaN()
	s.Push(bad)

	assert.Equal(t, 1, s.Len())
	p, ok := s.Value()
	require.True(t, ok)
	assert.InDelta(t, 10.0, p[pose.LeftWrist].X, 1e-9)
}

func TestKeypointSmootherEmpty(t *testing.T) {
	t.Parallel()

	s := NewKeypointSmoother(3, ReduceMedian)
	_, ok := s.Value()
	assert.False(t, ok)
}
