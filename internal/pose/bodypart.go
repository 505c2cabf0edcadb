package pose

// Side distinguishes the left and right halves of the body. Center is
// used for midline parts (nose, neck, torso) and for metrics that have
// no side split.
type Side string

const (
	SideLeft   Side = "left"
	SideRight  Side = "right"
	SideCenter Side = "center"
)

// BodyPartKind enumerates the coarse anatomical regions used for error
// attribution. Finer granularity than this buys nothing for scoring.
type BodyPartKind string

const (
	PartHead     BodyPartKind = "head"
	PartShoulder BodyPartKind = "shoulder"
	PartArm      BodyPartKind = "arm"
	PartTorso    BodyPartKind = "torso"
	PartHip      BodyPartKind = "hip"
	PartLeg      BodyPartKind = "leg"
	PartFoot     BodyPartKind = "foot"
	PartFullBody BodyPartKind = "full_body"
)

// BodyPart is a tagged variant: a region kind plus a side. It replaces a
// per-part type hierarchy with a flat comparable record usable as a map
// key and as a run-partition key in sequence aggregation.
type BodyPart struct {
	Kind BodyPartKind
	Side Side
}

func (b BodyPart) String() string {
	if b.Side == SideCenter || b.Side == "" {
		return string(b.Kind)
	}
	return string(b.Side) + "_" + string(b.Kind)
}
