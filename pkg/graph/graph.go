package graph

import (
	"errors"
	"slices"

	"github.com/snarldev/snarl/pkg/snapshot"
)

var (
	// ErrInvalidEntityID is returned by [Graph.AddEntity] when the entity
	// id is empty. All entities must have non-empty composite ids.
	ErrInvalidEntityID = errors.New("entity ID must not be empty")

	// ErrDuplicateEntityID is returned by [Graph.AddEntity] when an entity
	// with the same id already exists. Entity ids are unique per frame.
	ErrDuplicateEntityID = errors.New("duplicate entity ID")

	// ErrUnknownEndpoint is returned by [Graph.AddEdge] when either
	// endpoint does not exist in the arena.
	ErrUnknownEndpoint = errors.New("unknown edge endpoint")
)

// Graph is an arena of entities addressed by id plus the directed edges
// between them. It admits cycles — the wait-for relation is exactly what
// deadlock detection inspects — so unlike a layered DAG it never validates
// acyclicity.
//
// The zero value is not usable; use [New]. Graph is not safe for concurrent
// use without external synchronization.
type Graph struct {
	entities map[snapshot.EntityID]*snapshot.Entity
	order    []snapshot.EntityID // insertion order, for deterministic iteration
	edges    []snapshot.Edge
	outgoing map[snapshot.EntityID][]int // entity id -> indices into edges
	incoming map[snapshot.EntityID][]int
}

// New creates an empty graph arena.
func New() *Graph {
	return &Graph{
		entities: make(map[snapshot.EntityID]*snapshot.Entity),
		outgoing: make(map[snapshot.EntityID][]int),
		incoming: make(map[snapshot.EntityID][]int),
	}
}

// FromLists builds a graph from flat entity and edge lists, silently
// dropping edges whose endpoints are missing. This mirrors the normalizer's
// failure semantics: dangling references are expected under
// eventually-consistent capture and are never an error.
func FromLists(entities []*snapshot.Entity, edges []snapshot.Edge) *Graph {
	g := New()
	for _, e := range entities {
		_ = g.AddEntity(e)
	}
	for _, e := range edges {
		_ = g.AddEdge(e)
	}
	return g
}

// AddEntity adds an entity to the arena.
func (g *Graph) AddEntity(e *snapshot.Entity) error {
	if e.ID == "" {
		return ErrInvalidEntityID
	}
	if _, exists := g.entities[e.ID]; exists {
		return ErrDuplicateEntityID
	}
	g.entities[e.ID] = e
	g.order = append(g.order, e.ID)
	return nil
}

// AddEdge adds a directed edge between two existing entities.
// Returns ErrUnknownEndpoint if either endpoint is absent.
func (g *Graph) AddEdge(e snapshot.Edge) error {
	if _, ok := g.entities[e.From]; !ok {
		return ErrUnknownEndpoint
	}
	if _, ok := g.entities[e.To]; !ok {
		return ErrUnknownEndpoint
	}
	idx := len(g.edges)
	g.edges = append(g.edges, e)
	g.outgoing[e.From] = append(g.outgoing[e.From], idx)
	g.incoming[e.To] = append(g.incoming[e.To], idx)
	return nil
}

// RemoveEntity deletes an entity and every edge incident to it.
func (g *Graph) RemoveEntity(id snapshot.EntityID) {
	if _, ok := g.entities[id]; !ok {
		return
	}
	delete(g.entities, id)
	g.order = slices.DeleteFunc(g.order, func(o snapshot.EntityID) bool { return o == id })
	kept := g.edges[:0:0]
	for _, e := range g.edges {
		if e.From != id && e.To != id {
			kept = append(kept, e)
		}
	}
	g.setEdges(kept)
}

// setEdges replaces the edge list and rebuilds the adjacency indices.
func (g *Graph) setEdges(edges []snapshot.Edge) {
	g.edges = edges
	g.outgoing = make(map[snapshot.EntityID][]int, len(g.entities))
	g.incoming = make(map[snapshot.EntityID][]int, len(g.entities))
	for i, e := range g.edges {
		g.outgoing[e.From] = append(g.outgoing[e.From], i)
		g.incoming[e.To] = append(g.incoming[e.To], i)
	}
}

// Entity returns the entity with the given id, or nil and false.
func (g *Graph) Entity(id snapshot.EntityID) (*snapshot.Entity, bool) {
	e, ok := g.entities[id]
	return e, ok
}

// Entities returns all entities in insertion order.
func (g *Graph) Entities() []*snapshot.Entity {
	out := make([]*snapshot.Entity, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.entities[id])
	}
	return out
}

// Edges returns a copy of all edges in insertion order.
func (g *Graph) Edges() []snapshot.Edge { return slices.Clone(g.edges) }

// EntityCount returns the number of entities in the arena.
func (g *Graph) EntityCount() int { return len(g.entities) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Outgoing returns the edges leaving the entity, optionally restricted to a
// single kind ("" matches every kind).
func (g *Graph) Outgoing(id snapshot.EntityID, kind snapshot.EdgeKind) []snapshot.Edge {
	var out []snapshot.Edge
	for _, i := range g.outgoing[id] {
		if kind == "" || g.edges[i].Kind == kind {
			out = append(out, g.edges[i])
		}
	}
	return out
}

// Incoming returns the edges entering the entity, optionally restricted to
// a single kind.
func (g *Graph) Incoming(id snapshot.EntityID, kind snapshot.EdgeKind) []snapshot.Edge {
	var out []snapshot.Edge
	for _, i := range g.incoming[id] {
		if kind == "" || g.edges[i].Kind == kind {
			out = append(out, g.edges[i])
		}
	}
	return out
}

// Degree returns the number of edges incident to the entity.
func (g *Graph) Degree(id snapshot.EntityID) int {
	return len(g.outgoing[id]) + len(g.incoming[id])
}
