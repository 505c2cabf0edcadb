// Package pose owns the base data model for the scoring pipeline:
// keypoints, fixed-arity poses in the COCO 17-joint layout, body part
// tags, and the skeletal geometry helpers (torso, leg and arm lengths,
// left/right symmetry) that every downstream filter builds on.
//
// Dependency rule: pose depends on nothing inside this module. Filters,
// smoothing, thresholding and scoring all depend on pose, never the
// other way around.
package pose
