package graph

import (
	"github.com/snarldev/snarl/pkg/snapshot"
)

// PairIDPrefix marks synthetic merge entity ids.
const PairIDPrefix = "pair:"

// PairID derives the deterministic id of a merge node from its
// constituents. The derivation is stable across frames so that the union
// layout sees one consistent id for the pair over the whole recording.
func PairID(a, b snapshot.EntityID) snapshot.EntityID {
	return snapshot.EntityID(PairIDPrefix + string(a) + "+" + string(b))
}

// mergePairs folds channel_link and rpc_link edges into synthetic merge
// entities. For every pairing edge A→B where neither endpoint has been
// claimed by an earlier pairing, the constituents are removed from the flat
// entity list, retained as children of the merge node, and every edge that
// referenced A or B is rewritten onto the merge id with the original
// endpoint recorded as a port.
//
// Pairing edges are expected to be 1:1; an endpoint already claimed leaves
// the later pair unmerged (the conflicting link edge is still consumed).
// Pairing edges never survive into the output either way.
func mergePairs(g *Graph) {
	claimed := make(map[snapshot.EntityID]snapshot.EntityID) // constituent -> merge id
	var merged []*snapshot.Entity

	for _, e := range g.Edges() {
		if !e.Kind.IsPairing() {
			continue
		}
		if _, taken := claimed[e.From]; taken {
			continue
		}
		if _, taken := claimed[e.To]; taken {
			continue
		}
		a, okA := g.Entity(e.From)
		b, okB := g.Entity(e.To)
		if !okA || !okB || e.From == e.To {
			continue
		}

		node := newPairEntity(e.Kind, a, b)
		claimed[a.ID] = node.ID
		claimed[b.ID] = node.ID
		merged = append(merged, node)
	}

	if len(claimed) == 0 {
		// Still consume any conflicting pairing edges.
		dropPairingEdges(g)
		return
	}

	// Rewrite surviving edges onto the merge nodes, dropping pairing edges
	// and anything that collapses onto a single merge node as a self-loop.
	rewritten := make([]snapshot.Edge, 0, g.EdgeCount())
	seen := make(map[string]bool)
	for _, e := range g.Edges() {
		if e.Kind.IsPairing() {
			continue
		}
		out := e
		if m, ok := claimed[e.From]; ok {
			out.FromPort = e.From
			out.From = m
		}
		if m, ok := claimed[e.To]; ok {
			out.ToPort = e.To
			out.To = m
		}
		if out.From == out.To && (out.FromPort != "" || out.ToPort != "") {
			continue // both endpoints absorbed into the same pair
		}
		if seen[out.Key()] {
			continue
		}
		seen[out.Key()] = true
		rewritten = append(rewritten, out)
	}

	next := New()
	for _, ent := range g.Entities() {
		if _, absorbed := claimed[ent.ID]; absorbed {
			continue
		}
		_ = next.AddEntity(ent)
	}
	for _, node := range merged {
		_ = next.AddEntity(node)
	}
	for _, e := range rewritten {
		_ = next.AddEdge(e)
	}
	*g = *next
}

func dropPairingEdges(g *Graph) {
	kept := make([]snapshot.Edge, 0, g.EdgeCount())
	for _, e := range g.Edges() {
		if !e.Kind.IsPairing() {
			kept = append(kept, e)
		}
	}
	g.setEdges(kept)
}

// newPairEntity builds the synthetic merge node for constituents a and b.
// The node inherits the tx/request side's identity and, for RPC pairs, the
// response's status when present — the response is what the user cares
// about once it exists.
func newPairEntity(kind snapshot.EdgeKind, a, b *snapshot.Entity) *snapshot.Entity {
	body := a.Body
	entityKind := snapshot.KindChannel
	var channelPair, rpcPair *snapshot.Pair
	if kind == snapshot.EdgeRPCLink {
		entityKind = snapshot.KindRPC
		if b.Body != nil {
			body = b.Body
		}
		rpcPair = &snapshot.Pair{A: a, B: b}
	} else {
		channelPair = &snapshot.Pair{A: a, B: b}
	}

	age := a.AgeMs
	if b.AgeMs > age {
		age = b.AgeMs
	}
	approx := a.ApproxBirthUnixMs
	if b.ApproxBirthUnixMs != 0 && (approx == 0 || b.ApproxBirthUnixMs < approx) {
		approx = b.ApproxBirthUnixMs
	}

	stat, statTone := snapshot.DeriveStat(body)
	return &snapshot.Entity{
		ID:                PairID(a.ID, b.ID),
		ProcessID:         a.ProcessID,
		ProcessName:       a.ProcessName,
		Kind:              entityKind,
		Body:              body,
		Crate:             a.Crate,
		Source:            a.Source,
		Birth:             a.Birth,
		AgeMs:             age,
		ApproxBirthUnixMs: approx,
		Status:            snapshot.DeriveStatus(body),
		Stat:              stat,
		StatTone:          statTone,
		ChannelPair:       channelPair,
		RPCPair:           rpcPair,
	}
}
