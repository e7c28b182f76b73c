package snapshot

import "strings"

// IDSeparator joins the process id and the process-local id into a
// composite entity id.
const IDSeparator = "/"

// EntityID is the globally unique composite identifier of an entity:
// "{processID}/{localID}". It is immutable once assigned and opaque beyond
// the separator.
type EntityID string

// MakeID builds a composite entity id from a process id and a local id.
func MakeID(processID, localID string) EntityID {
	return EntityID(processID + IDSeparator + localID)
}

// Process returns the process id portion of the composite id, or "" if the
// id has no separator.
func (id EntityID) Process() string {
	if i := strings.Index(string(id), IDSeparator); i >= 0 {
		return string(id)[:i]
	}
	return ""
}

// IsComposite reports whether the id already carries a process prefix.
// Raw edges may reference entities in other processes by their full
// composite id; those endpoints must not be rewritten again.
func (id EntityID) IsComposite() bool {
	return strings.Contains(string(id), IDSeparator)
}

// Entity is one node in the concurrency graph: a single observable
// resource or task instance in one process.
//
// Derived fields (Kind, AgeMs, ApproxBirthUnixMs, InCycle, Status, Stat,
// StatTone) are populated by the normalizer and are read-only afterward.
type Entity struct {
	ID          EntityID `json:"id" bson:"id"`
	ProcessID   string   `json:"process_id" bson:"process_id"`
	ProcessName string   `json:"process_name,omitempty" bson:"process_name,omitempty"`

	// Kind is the discriminator of the active body variant ("future" when
	// the body is absent, "channel"/"rpc" for synthetic pair nodes).
	Kind Kind `json:"kind" bson:"kind"`

	// Body is the resource-specific state. Nil for bare futures.
	Body Body `json:"-" bson:"-"`

	// Crate and Source locate the instrumentation site that created the
	// entity. Both are optional and used only by visibility filters.
	Crate  string `json:"crate,omitempty" bson:"crate,omitempty"`
	Source string `json:"source,omitempty" bson:"source,omitempty"`

	// Birth is a process-relative monotonic timestamp in milliseconds. It
	// is not comparable across processes without an anchor.
	Birth int64 `json:"birth" bson:"birth"`

	// AgeMs is max(0, process "now" - Birth).
	AgeMs int64 `json:"age_ms" bson:"age_ms"`

	// ApproxBirthUnixMs estimates the wall-clock birth time from the
	// capturing process's clock anchor. An estimate, not authoritative.
	ApproxBirthUnixMs int64 `json:"approx_birth_unix_ms,omitempty" bson:"approx_birth_unix_ms,omitempty"`

	// InCycle is true iff the entity participates in a directed cycle of
	// "needs" edges (the deadlock signal).
	InCycle bool `json:"in_cycle,omitempty" bson:"in_cycle,omitempty"`

	Status   Status `json:"status" bson:"status"`
	Stat     string `json:"stat,omitempty" bson:"stat,omitempty"`
	StatTone Tone   `json:"stat_tone,omitempty" bson:"stat_tone,omitempty"`

	// ChannelPair / RPCPair mark this entity as a synthetic merge node
	// owning exactly two constituent entities. The constituents are removed
	// from the flat entity list and retained only here.
	ChannelPair *Pair `json:"channel_pair,omitempty" bson:"channel_pair,omitempty"`
	RPCPair     *Pair `json:"rpc_pair,omitempty" bson:"rpc_pair,omitempty"`
}

// Pair holds the two constituents of a merged entity. A is the channel tx
// (or RPC request) child, B the rx (or response) child.
type Pair struct {
	A *Entity `json:"a" bson:"a"`
	B *Entity `json:"b" bson:"b"`
}

// IsMerged reports whether the entity is a synthetic pair node.
func (e *Entity) IsMerged() bool {
	return e.ChannelPair != nil || e.RPCPair != nil
}

// Children returns the constituents of a merged entity, or nil.
func (e *Entity) Children() []*Entity {
	switch {
	case e.ChannelPair != nil:
		return []*Entity{e.ChannelPair.A, e.ChannelPair.B}
	case e.RPCPair != nil:
		return []*Entity{e.RPCPair.A, e.RPCPair.B}
	}
	return nil
}

// Label returns a short display label for the entity: the local id portion
// of the composite id, or the whole id when no separator is present.
func (e *Entity) Label() string {
	if i := strings.Index(string(e.ID), IDSeparator); i >= 0 {
		return string(e.ID)[i+1:]
	}
	return string(e.ID)
}
