package threshold

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Difficulty classification boundaries over the average per-metric
// standard deviation.
const (
	easyStdBound = 10.0
	hardStdBound = 20.0
)

// ClassifyDifficulty averages all usable per-metric standard deviations
// (side-split entries included by the caller, missing entries passed as
// NaN or negative and ignored here) and maps the average to a
// difficulty level: <10 easy, [10, 20) medium, ≥20 hard. With no
// usable values it returns ("unknown", 0).
func ClassifyDifficulty(stds []float64) (Difficulty, float64) {
	usable := make([]float64, 0, len(stds))
	for _, s := range stds {
		if s < 0 || math.IsNaN(s) || math.IsInf(s, 0) {
			continue
		}
		usable = append(usable, s)
	}
	if len(usable) == 0 {
		return DifficultyUnknown, 0
	}

	avg := stat.Mean(usable, nil)
	switch {
	case avg < easyStdBound:
		return DifficultyEasy, avg
	case avg < hardStdBound:
		return DifficultyMedium, avg
	default:
		return DifficultyHard, avg
	}
}
