// Package units provides shared constants and conversion for the
// motion units used by the analyzers
package units

import "time"

// Unit constants
const (
	PxPerSec   = "pxs" // pixels per second
	PxPerFrame = "pxf" // pixels per frame
	PerMinute  = "epm" // events per minute (cadence)
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{PxPerSec, PxPerFrame, PerMinute}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "pxs, pxf, epm"
}

// SpeedPxPerSec converts a per-frame displacement to pixels per second
// given the capture rate. Non-positive fps yields 0.
func SpeedPxPerSec(pxPerFrame, fps float64) float64 {
	if fps <= 0 {
		return 0
	}
	return pxPerFrame * fps
}

// CadencePerMinute converts an event count over an elapsed duration to
// events per minute. Non-positive elapsed yields 0.
func CadencePerMinute(events int, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(events) / elapsed.Minutes()
}
