package replay

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formlab/posescore/internal/config"
	"github.com/formlab/posescore/internal/testutil"
)

func captureFixture(frames int) *Capture {
	rec := &Capture{
		Name:             "fixture",
		FPS:              30,
		FrameWidth:       1280,
		FrameHeight:      720,
		ReferenceTorsoPx: 90,
		Reference: []ReferenceStat{
			{Metric: "torso_length", Mean: 90, Std: 4},
			{Metric: "arm_swing_left", Side: "left", Mean: -80, Std: 6},
			{Metric: "arm_swing_right", Side: "right", Mean: -80, Std: 6},
			{Metric: "leg_lift_left", Side: "left", Mean: -75, Std: 6},
			{Metric: "leg_lift_right", Side: "right", Mean: -75, Std: 6},
		},
	}
	for f := 0; f < frames; f++ {
		p := testutil.StandingPose(640, 360, 300)
		rec.Frames = append(rec.Frames, Frame{
			Frame:       f,
			TimestampMs: int64(f) * 33,
			Detections: []Detection{{
				Box:   [4]float64{580, 210, 700, 510},
				Score: 0.9,
				Pose:  testutil.Flatten(p),
			}},
		})
	}
	return rec
}

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("valid capture file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "capture.json")
		body := `{"name":"x","fps":30,"frame_width":1280,"frame_height":720,` +
			`"frames":[{"frame":0,"detections":[]}]}`
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

		rec, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "x", rec.Name)
		assert.Len(t, rec.Frames, 1)
	})

	t.Run("missing fps defaults to thirty", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "capture.json")
		body := `{"frames":[{"frame":0,"detections":[]}]}`
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

		rec, err := Load(path)
		require.NoError(t, err)
		assert.InDelta(t, 30.0, rec.FPS, 1e-9)
	})

	t.Run("no frames is an error", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "capture.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"fps":30}`), 0o644))
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("malformed json is an error", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "capture.json")
		require.NoError(t, os.WriteFile(path, []byte(`{broken`), 0o644))
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("missing file is an error", func(t *testing.T) {
		t.Parallel()
		_, err := Load("/nonexistent/capture.json")
		assert.Error(t, err)
	})
}

func TestRun(t *testing.T) {
	t.Parallel()

	t.Run("on-template capture scores clean", func(t *testing.T) {
		t.Parallel()
		rec := captureFixture(60)
		sum, err := Run(&config.TuningConfig{}, rec)
		require.NoError(t, err)

		assert.Equal(t, 60, sum.FramesScored)
		assert.Zero(t, sum.FramesDropped)
		assert.Zero(t, sum.Result.TotalDeduction)
		assert.Len(t, sum.Traces, 5)

		tr := sum.Traces["torso_length"]
		require.NotNil(t, tr)
		assert.Len(t, tr.Frames, 60)
		assert.InDelta(t, 90.0, tr.Raw[10], 1e-9)
	})

	t.Run("off-template capture accrues deduction", func(t *testing.T) {
		t.Parallel()
		rec := captureFixture(60)
		// Reference torso far from the observed 90px.
		rec.Reference[0] = ReferenceStat{Metric: "torso_length", Mean: 200, Std: 4}

		sum, err := Run(&config.TuningConfig{}, rec)
		require.NoError(t, err)
		assert.Greater(t, sum.Result.TotalDeduction, 0.0)
		require.NotEmpty(t, sum.Result.Sequences)
	})

	t.Run("malformed detections are dropped frames", func(t *testing.T) {
		t.Parallel()
		rec := captureFixture(10)
		for i := range rec.Frames {
			rec.Frames[i].Detections[0].Pose = rec.Frames[i].Detections[0].Pose[:10]
		}
		sum, err := Run(&config.TuningConfig{}, rec)
		require.NoError(t, err)
		assert.Zero(t, sum.FramesScored)
		assert.Equal(t, 10, sum.FramesDropped)
	})
}
