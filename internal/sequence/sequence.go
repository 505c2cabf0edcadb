// Package sequence collapses runs of consecutive same-kind frame
// errors into single scored units.
//
// A performer holding a wrong position for ten seconds commits one
// mistake, not three hundred: aggregation bounds the deduction of a
// persistent deviation logarithmically in its duration while a short
// sharp error keeps close to its naive per-frame total. The batch pass
// is stateless across calls and fans out across independent
// (type, part, side) partitions.
package sequence

import (
	"time"

	"github.com/formlab/posescore/internal/pose"
)

// ErrorType identifies the kind of deviation a frame error reports.
// Values are defined by the emitting component (score, rhythm).
type ErrorType string

// FrameError is a single frame-level deviation: what went wrong, where
// on the body, how badly, and what it costs before aggregation.
type FrameError struct {
	Type      ErrorType
	Part      pose.BodyPart
	Severity  float64 // dimensionless, ≥0; 1 ≈ at-threshold
	Deduction float64 // score points for this frame alone
	Frame     int
	Timestamp time.Time
}

// runKey partitions errors for aggregation. Frames with the same key
// belong to the same logical deviation; a run never crosses a key
// boundary.
type runKey struct {
	Type ErrorType
	Part pose.BodyPart
}

// ErrorSequence is a maximal contiguous run of same-kind frame errors
// collapsed into one scored unit.
type ErrorSequence struct {
	Type       ErrorType
	Part       pose.BodyPart
	StartFrame int
	EndFrame   int
	Count      int // frames in the run
	Severity   float64
	Deduction  float64
	Start      time.Time
	End        time.Time
}
