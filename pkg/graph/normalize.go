package graph

import (
	"github.com/snarldev/snarl/pkg/snapshot"
)

// Frame is one normalized capture: the unified entity/edge graph produced
// from a raw frame, immutable once built. This is what layout, rendering,
// and diffing consume.
type Frame struct {
	Index            int                `json:"index" bson:"index"`
	CapturedAtUnixMs int64              `json:"captured_at_unix_ms" bson:"captured_at_unix_ms"`
	Entities         []*snapshot.Entity `json:"entities" bson:"entities"`
	Edges            []snapshot.Edge    `json:"edges" bson:"edges"`
	Scopes           []snapshot.Scope   `json:"scopes,omitempty" bson:"scopes,omitempty"`
}

// EntityIDs returns the set of entity ids present in the frame.
func (f Frame) EntityIDs() map[snapshot.EntityID]bool {
	ids := make(map[snapshot.EntityID]bool, len(f.Entities))
	for _, e := range f.Entities {
		ids[e.ID] = true
	}
	return ids
}

// EdgeKeys returns the set of edge keys present in the frame.
func (f Frame) EdgeKeys() map[string]bool {
	keys := make(map[string]bool, len(f.Edges))
	for _, e := range f.Edges {
		keys[e.Key()] = true
	}
	return keys
}

// Normalize converts a raw multi-process capture into the unified graph.
//
// The steps, in order: composite id assignment and field derivation for
// every entity of every process; edge endpoint rewriting onto composite
// ids; silent dropping of edges whose endpoints are absent (expected under
// eventually-consistent capture — never an error); channel and RPC pairing
// merges; and wait-for cycle marking over "needs" edges.
//
// Normalize never fails: malformed bodies degrade to the neutral status and
// anomalous edges are dropped.
func Normalize(raw snapshot.RawFrame) Frame {
	g := New()
	var edges []snapshot.Edge

	for _, ps := range raw.Processes {
		for _, re := range ps.Entities {
			e := normalizeEntity(ps, re)
			// First definition wins on (unexpected) duplicate ids.
			_ = g.AddEntity(e)
		}
		for _, rd := range ps.Edges {
			edges = append(edges, snapshot.Edge{
				From: compositeID(ps.ProcessID, rd.From),
				To:   compositeID(ps.ProcessID, rd.To),
				Kind: rd.Kind,
			})
		}
	}

	for _, e := range edges {
		_ = g.AddEdge(e) // dangling references dropped here
	}

	mergePairs(g)
	markCycles(g)

	return Frame{
		Index:            raw.Index,
		CapturedAtUnixMs: raw.CapturedAtUnixMs,
		Entities:         g.Entities(),
		Edges:            g.Edges(),
		Scopes:           raw.Scopes,
	}
}

// compositeID prefixes a process-local id, leaving already-composite ids
// (cross-process references) untouched.
func compositeID(processID, local string) snapshot.EntityID {
	if id := snapshot.EntityID(local); id.IsComposite() {
		return id
	}
	return snapshot.MakeID(processID, local)
}

func normalizeEntity(ps snapshot.ProcessSnapshot, re snapshot.RawEntity) *snapshot.Entity {
	// A malformed body is not an error: the entity falls back to the bare
	// future rendering.
	body, err := snapshot.UnmarshalBody(re.Body)
	if err != nil {
		body = nil
	}

	age := ps.NowMs - re.Birth
	if age < 0 {
		age = 0
	}
	approx := (ps.CapturedAtUnixMs - ps.NowMs) + re.Birth
	if approx < 0 {
		approx = 0
	}

	stat, statTone := snapshot.DeriveStat(body)
	return &snapshot.Entity{
		ID:                snapshot.MakeID(ps.ProcessID, re.LocalID),
		ProcessID:         ps.ProcessID,
		ProcessName:       ps.ProcessName,
		Kind:              snapshot.BodyKindOf(body),
		Body:              body,
		Crate:             re.Crate,
		Source:            re.Source,
		Birth:             re.Birth,
		AgeMs:             age,
		ApproxBirthUnixMs: approx,
		Status:            snapshot.DeriveStatus(body),
		Stat:              stat,
		StatTone:          statTone,
	}
}
