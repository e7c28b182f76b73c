package visibility

import (
	"github.com/snarldev/snarl/pkg/snapshot"
)

// Apply filters the graph to the entities admitted by spec, collapsing
// edges through hidden entities into synthetic "linked" edges so that
// directed reachability between visible entities is preserved.
//
// Apply is idempotent: running it again over its own output with the same
// spec returns the same result. It never emits self-loops, and unless
// spec.ShowLoners is set it removes entities left with zero incident edges
// after collapsing.
func Apply(entities []*snapshot.Entity, edges []snapshot.Edge, spec FilterSpec) ([]*snapshot.Entity, []snapshot.Edge) {
	visible := make(map[snapshot.EntityID]bool, len(entities))
	for _, e := range entities {
		if spec.Visible(e) {
			visible[e.ID] = true
		}
	}

	outgoing := make(map[snapshot.EntityID][]snapshot.Edge)
	for _, e := range edges {
		outgoing[e.From] = append(outgoing[e.From], e)
	}

	var kept []snapshot.Edge
	direct := make(map[[2]snapshot.EntityID]bool)
	for _, e := range edges {
		if visible[e.From] && visible[e.To] {
			kept = append(kept, e)
			direct[[2]snapshot.EntityID{e.From, e.To}] = true
		}
	}

	// Pass-through collapse: from every visible entity, walk maximal
	// hidden chains and link the visible entities they reach. A hidden
	// entity is a pure conduit regardless of edge kinds on either side.
	for _, src := range entities {
		if !visible[src.ID] {
			continue
		}
		for _, reached := range hiddenReach(src.ID, outgoing, visible) {
			if reached == src.ID {
				continue // never synthesize a self-loop
			}
			pair := [2]snapshot.EntityID{src.ID, reached}
			if direct[pair] {
				continue
			}
			direct[pair] = true
			kept = append(kept, snapshot.Edge{From: src.ID, To: reached, Kind: snapshot.EdgeLinked})
		}
	}

	// Loner pruning runs after collapsing so a synthetic edge can keep an
	// otherwise isolated entity on screen.
	degree := make(map[snapshot.EntityID]int)
	for _, e := range kept {
		degree[e.From]++
		degree[e.To]++
	}

	var outEntities []*snapshot.Entity
	for _, e := range entities {
		if !visible[e.ID] {
			continue
		}
		if !spec.ShowLoners && degree[e.ID] == 0 {
			continue
		}
		outEntities = append(outEntities, e)
	}
	return outEntities, kept
}

// hiddenReach returns, in deterministic edge order, the visible entities
// reachable from src through at least one hidden intermediary.
func hiddenReach(src snapshot.EntityID, outgoing map[snapshot.EntityID][]snapshot.Edge, visible map[snapshot.EntityID]bool) []snapshot.EntityID {
	var reached []snapshot.EntityID
	seenHidden := make(map[snapshot.EntityID]bool)
	seenVisible := make(map[snapshot.EntityID]bool)

	var stack []snapshot.EntityID
	for _, e := range outgoing[src] {
		if !visible[e.To] && !seenHidden[e.To] {
			seenHidden[e.To] = true
			stack = append(stack, e.To)
		}
	}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, e := range outgoing[cur] {
			if visible[e.To] {
				if !seenVisible[e.To] {
					seenVisible[e.To] = true
					reached = append(reached, e.To)
				}
				continue
			}
			if !seenHidden[e.To] {
				seenHidden[e.To] = true
				stack = append(stack, e.To)
			}
		}
	}
	return reached
}

// Focus restricts the graph to one entity plus everything directly
// connected to it by a surviving edge. Entities and edges are assumed to be
// an Apply output (or a full normalized frame when no filtering is wanted).
func Focus(entities []*snapshot.Entity, edges []snapshot.Edge, id snapshot.EntityID) ([]*snapshot.Entity, []snapshot.Edge) {
	keep := map[snapshot.EntityID]bool{id: true}
	var keptEdges []snapshot.Edge
	for _, e := range edges {
		if e.From == id || e.To == id {
			keep[e.From] = true
			keep[e.To] = true
			keptEdges = append(keptEdges, e)
		}
	}

	var keptEntities []*snapshot.Entity
	for _, e := range entities {
		if keep[e.ID] {
			keptEntities = append(keptEntities, e)
		}
	}
	return keptEntities, keptEdges
}
