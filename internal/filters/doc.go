// Package filters owns detection reliability filtering: the gate every
// raw detection passes before any scoring happens.
//
// Filters run in a fixed order (spatial consistency, keypoint
// geometric consistency, ghost suppression, velocity-based track
// plausibility, occlusion flagging), each one cheap to evaluate and
// rejecting a strictly implausible class of detections. Rejection is
// silent: a bad frame degrades to "no usable detection", never to an
// error that could abort a capture loop.
//
// All mutable state (track histories, occlusion pose history) is owned
// by a single evaluation context. Concurrent cameras use independent
// pipelines.
package filters
