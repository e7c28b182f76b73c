package snapshot

// EdgeKind classifies the directed relations between entities.
type EdgeKind string

// Edge kinds.
const (
	// EdgeNeeds is a blocking causal dependency: the source cannot make
	// progress until the target does. Cycles over this relation are the
	// deadlock signal.
	EdgeNeeds EdgeKind = "needs"

	// EdgeHolds records resource ownership (task holds lock).
	EdgeHolds EdgeKind = "holds"

	// EdgePolls is a non-blocking observation.
	EdgePolls EdgeKind = "polls"

	// EdgeClosedBy records which entity closed another.
	EdgeClosedBy EdgeKind = "closed_by"

	// EdgeChannelLink is the structural tx→rx pairing input. Consumed by
	// the pairing merge; never survives into rendered edge sets.
	EdgeChannelLink EdgeKind = "channel_link"

	// EdgeRPCLink is the structural request→response pairing input.
	// Consumed like EdgeChannelLink.
	EdgeRPCLink EdgeKind = "rpc_link"

	// EdgeLinked is a synthetic, non-causal edge emitted by the collapse
	// engine to preserve reachability across hidden entities.
	EdgeLinked EdgeKind = "linked"
)

// IsPairing reports whether the kind is a structural pairing input.
func (k EdgeKind) IsPairing() bool {
	return k == EdgeChannelLink || k == EdgeRPCLink
}

// Edge is a directed relation between two entities, addressed by id.
// Edges never hold entity pointers: the graph is possibly cyclic and the
// arena in pkg/graph owns all entities.
type Edge struct {
	From EntityID `json:"from" bson:"from"`
	To   EntityID `json:"to" bson:"to"`
	Kind EdgeKind `json:"kind" bson:"kind"`

	// FromPort / ToPort record the original constituent endpoint when an
	// edge was rewritten onto a merge node, for edge-routing purposes.
	FromPort EntityID `json:"from_port,omitempty" bson:"from_port,omitempty"`
	ToPort   EntityID `json:"to_port,omitempty" bson:"to_port,omitempty"`
}

// Key returns a stable identity for the edge, used for union layout
// bookkeeping and diffing. Ports are presentation detail and excluded.
func (e Edge) Key() string {
	return string(e.From) + "→" + string(e.To) + "#" + string(e.Kind)
}
