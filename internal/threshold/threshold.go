// Package threshold converts reference-template variability into
// usable per-metric error thresholds.
//
// The core rule is three-sigma: threshold = multiplier × std, bounded
// to [default×minRatio, default×maxRatio] so a template with tiny or
// huge variance still yields a sane gate. Difficulty scales the sigma
// multiplier (easy templates are judged more loosely, hard ones more
// strictly) and performer height scales the bounded result. Computed
// thresholds are cached by the full input tuple; the cache must be
// cleared whenever a new reference template loads.
package threshold

import (
	"math"
	"sync"

	"github.com/formlab/posescore/internal/config"
)

// Difficulty classifies the inherent variability of a reference
// template.
type Difficulty string

const (
	DifficultyEasy    Difficulty = "easy"
	DifficultyMedium  Difficulty = "medium"
	DifficultyHard    Difficulty = "hard"
	DifficultyUnknown Difficulty = "unknown"
)

// Difficulty multipliers applied to the sigma multiplier. Easy
// templates get looser thresholds, hard ones stricter.
const (
	easyMultiplier = 1.2
	hardMultiplier = 0.8
)

// Key is the full cache tuple for a computed threshold. It is a
// comparable struct so it can key a map directly.
type Key struct {
	Metric      string
	Mean        float64
	Std         float64
	Difficulty  Difficulty
	TorsoLength float64 // performer torso length in pixels
}

// Manager computes and caches adaptive thresholds. One manager per
// evaluation context; the mutex covers cache access only.
type Manager struct {
	Multiplier float64 // sigma multiplier (3 by default)
	MinRatio   float64 // lower clamp, × default threshold
	MaxRatio   float64 // upper clamp, × default threshold
	HeightMin  float64 // height factor clamp
	HeightMax  float64

	mu    sync.Mutex
	cache map[Key]float64
}

// NewManager builds a Manager from tuning config.
func NewManager(cfg *config.TuningConfig) *Manager {
	return &Manager{
		Multiplier: cfg.GetThresholdMultiplier(),
		MinRatio:   cfg.GetThresholdMinRatio(),
		MaxRatio:   cfg.GetThresholdMaxRatio(),
		HeightMin:  cfg.GetHeightFactorMin(),
		HeightMax:  cfg.GetHeightFactorMax(),
		cache:      make(map[Key]float64),
	}
}

// Threshold returns the adaptive threshold for one metric.
//
// std carries the reference variability; a negative or non-finite std
// means "missing" and falls back to the difficulty- and height-adjusted
// default. performerTorso/referenceTorso drive the height factor; when
// either is non-positive the factor is 1 (invalid configuration
// degrades to the unmodified default, never to an error).
func (m *Manager) Threshold(metric string, mean, std, defaultThreshold float64, difficulty Difficulty, performerTorso, referenceTorso float64) float64 {
	key := Key{
		Metric:      metric,
		Mean:        mean,
		Std:         std,
		Difficulty:  difficulty,
		TorsoLength: performerTorso,
	}

	m.mu.Lock()
	if v, ok := m.cache[key]; ok {
		m.mu.Unlock()
		return v
	}
	m.mu.Unlock()

	v := m.compute(std, defaultThreshold, difficulty, performerTorso, referenceTorso)

	m.mu.Lock()
	m.cache[key] = v
	m.mu.Unlock()
	return v
}

func (m *Manager) compute(std, defaultThreshold float64, difficulty Difficulty, performerTorso, referenceTorso float64) float64 {
	diffMult := 1.0
	switch difficulty {
	case DifficultyEasy:
		diffMult = easyMultiplier
	case DifficultyHard:
		diffMult = hardMultiplier
	}

	heightFactor := 1.0
	if performerTorso > 0 && referenceTorso > 0 {
		heightFactor = performerTorso / referenceTorso
		if heightFactor < m.HeightMin {
			heightFactor = m.HeightMin
		}
		if heightFactor > m.HeightMax {
			heightFactor = m.HeightMax
		}
	}

	if std < 0 || math.IsNaN(std) || math.IsInf(std, 0) {
		return defaultThreshold * diffMult * heightFactor
	}

	t := m.Multiplier * diffMult * std
	lo := defaultThreshold * m.MinRatio
	hi := defaultThreshold * m.MaxRatio
	if t < lo {
		t = lo
	}
	if t > hi {
		t = hi
	}
	return t * heightFactor
}

// ClearCache drops all cached thresholds. Must be called when a new
// reference template loads: the same (metric, mean, std) tuple can
// legitimately map to a different value under new template context.
func (m *Manager) ClearCache() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache = make(map[Key]float64)
}

// CacheSize returns the number of cached entries.
func (m *Manager) CacheSize() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.cache)
}
