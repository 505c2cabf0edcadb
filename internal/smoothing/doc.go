// Package smoothing provides bounded-window temporal smoothers for
// scalar metrics and whole poses.
//
// Responsibilities: jitter reduction over a ring buffer with a choice
// of reductions (mean, median, Gaussian-weighted, Savitzky-Golay), a
// warm-up gate (IsReady), and reset semantics for session and template
// boundaries. The confidence channel of a pose is deliberately never
// smoothed: occluded joints must not appear artificially confident.
//
// Smoothers are single-owner state: one smoother belongs to exactly one
// evaluation context and is never shared across goroutines.
package smoothing
