package threshold

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *Manager {
	return &Manager{
		Multiplier: 3.0,
		MinRatio:   0.3,
		MaxRatio:   2.0,
		HeightMin:  0.7,
		HeightMax:  1.3,
		cache:      make(map[Key]float64),
	}
}

func TestThresholdAdaptive(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		std  float64
		want float64
	}{
		{"three sigma inside the band", 5, 15.0},
		{"three sigma still inside", 25, 75.0},
		{"clamped to twice the default", 40, 100.0},
		{"clamped to lower bound", 1, 15.0},
		{"missing std falls back to default", -1, 50.0},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := newTestManager()
			got := m.Threshold("leg_lift", 60, tt.std, 50, DifficultyMedium, 0, 0)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestThresholdNonFiniteStd(t *testing.T) {
	t.Parallel()

	m := newTestManager()
	assert.InDelta(t, 50.0, m.Threshold("a", 1, math.NaN(), 50, DifficultyMedium, 0, 0), 1e-9)
	assert.InDelta(t, 50.0, m.Threshold("b", 1, math.Inf(1), 50, DifficultyMedium, 0, 0), 1e-9)
}

func TestThresholdDifficultyScaling(t *testing.T) {
	t.Parallel()

	// std=10, default=50: base 3σ = 30, inside the [15, 100] band with
	// room for both difficulty multipliers.
	m := newTestManager()
	medium := m.Threshold("m", 0, 10, 50, DifficultyMedium, 0, 0)
	easy := m.Threshold("e", 0, 10, 50, DifficultyEasy, 0, 0)
	hard := m.Threshold("h", 0, 10, 50, DifficultyHard, 0, 0)

	assert.InDelta(t, 30.0, medium, 1e-9)
	assert.InDelta(t, 36.0, easy, 1e-9)
	assert.InDelta(t, 24.0, hard, 1e-9)
}

func TestThresholdHeightFactor(t *testing.T) {
	t.Parallel()

	t.Run("shorter performer shrinks the threshold", func(t *testing.T) {
		t.Parallel()
		m := newTestManager()
		got := m.Threshold("m", 0, 10, 50, DifficultyMedium, 90, 100)
		assert.InDelta(t, 27.0, got, 1e-9) // 30 × 0.9
	})

	t.Run("ratio clamped to the configured band", func(t *testing.T) {
		t.Parallel()
		m := newTestManager()
		low := m.Threshold("lo", 0, 10, 50, DifficultyMedium, 10, 100)
		high := m.Threshold("hi", 0, 10, 50, DifficultyMedium, 500, 100)
		assert.InDelta(t, 21.0, low, 1e-9)  // 30 × 0.7
		assert.InDelta(t, 39.0, high, 1e-9) // 30 × 1.3
	})

	t.Run("non-positive torso disables the factor", func(t *testing.T) {
		t.Parallel()
		m := newTestManager()
		got := m.Threshold("m", 0, 10, 50, DifficultyMedium, 90, 0)
		assert.InDelta(t, 30.0, got, 1e-9)
	})
}

func TestThresholdCache(t *testing.T) {
	t.Parallel()

	m := newTestManager()
	a := m.Threshold("m", 60, 5, 50, DifficultyMedium, 0, 0)
	b := m.Threshold("m", 60, 5, 50, DifficultyMedium, 0, 0)
	assert.Equal(t, a, b)
	assert.Equal(t, 1, m.CacheSize())

	m.ClearCache()
	assert.Equal(t, 0, m.CacheSize())
}

func TestClassifyDifficulty(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		stds    []float64
		want    Difficulty
		wantAvg float64
	}{
		{"low variability is easy", []float64{5, 6}, DifficultyEasy, 5.5},
		{"moderate variability is medium", []float64{14}, DifficultyMedium, 14},
		{"boundary ten is medium", []float64{10}, DifficultyMedium, 10},
		{"high variability is hard", []float64{24}, DifficultyHard, 24},
		{"boundary twenty is hard", []float64{20}, DifficultyHard, 20},
		{"no statistics is unknown", nil, DifficultyUnknown, 0},
		{"unusable values ignored", []float64{math.NaN(), -3, 8}, DifficultyEasy, 8},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d, avg := ClassifyDifficulty(tt.stds)
			require.Equal(t, tt.want, d)
			assert.InDelta(t, tt.wantAvg, avg, 1e-9)
		})
	}
}
