package graph

import "github.com/snarldev/snarl/pkg/snapshot"

// markCycles sets InCycle on every entity that participates in a directed
// cycle of "needs" edges, and on no other entity. Entities merely reachable
// from a cycle, or leading into one, are not marked.
//
// The marking computes strongly connected components of the needs subgraph
// (Tarjan): an entity is on a cycle exactly when its component has more
// than one member, or it carries a needs self-loop. Components make the
// result independent of edge insertion order, which per-cycle path marking
// is not once cycles overlap.
//
// The search is iterative with an explicit frame stack so pathological
// chain depth cannot exhaust the call stack.
func markCycles(g *Graph) {
	adj := make(map[snapshot.EntityID][]snapshot.EntityID, g.EntityCount())
	selfLoop := make(map[snapshot.EntityID]bool)
	for _, e := range g.Edges() {
		if e.Kind != snapshot.EdgeNeeds {
			continue
		}
		adj[e.From] = append(adj[e.From], e.To)
		if e.From == e.To {
			selfLoop[e.From] = true
		}
	}

	index := make(map[snapshot.EntityID]int, g.EntityCount())
	low := make(map[snapshot.EntityID]int, g.EntityCount())
	onStack := make(map[snapshot.EntityID]bool)
	var sccStack []snapshot.EntityID
	next := 0

	type frame struct {
		id   snapshot.EntityID
		next int
	}
	var stack []frame

	visit := func(id snapshot.EntityID) {
		index[id] = next
		low[id] = next
		next++
		sccStack = append(sccStack, id)
		onStack[id] = true
		stack = append(stack, frame{id: id})
	}

	for _, root := range g.Entities() {
		if _, seen := index[root.ID]; seen {
			continue
		}
		visit(root.ID)

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			children := adj[top.id]
			if top.next < len(children) {
				child := children[top.next]
				top.next++
				if _, seen := index[child]; !seen {
					visit(child)
				} else if onStack[child] && index[child] < low[top.id] {
					low[top.id] = index[child]
				}
				continue
			}

			id := top.id
			stack = stack[:len(stack)-1]
			if len(stack) > 0 {
				parent := &stack[len(stack)-1]
				if low[id] < low[parent.id] {
					low[parent.id] = low[id]
				}
			}

			if low[id] != index[id] {
				continue
			}
			// id is the root of a finished component; pop its members.
			var members []snapshot.EntityID
			for {
				member := sccStack[len(sccStack)-1]
				sccStack = sccStack[:len(sccStack)-1]
				onStack[member] = false
				members = append(members, member)
				if member == id {
					break
				}
			}
			if len(members) == 1 && !selfLoop[id] {
				continue
			}
			for _, member := range members {
				if ent, ok := g.Entity(member); ok {
					ent.InCycle = true
				}
			}
		}
	}
}
