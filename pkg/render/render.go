package render

import (
	"github.com/snarldev/snarl/pkg/errors"
	"github.com/snarldev/snarl/pkg/layout"
	"github.com/snarldev/snarl/pkg/snapshot"
	"github.com/snarldev/snarl/pkg/visibility"
)

// Node is one positioned entity in a rendered frame.
type Node struct {
	Entity   *snapshot.Entity `json:"entity"`
	Position layout.Position  `json:"position"`

	// Ghost marks an entity absent from the snapped frame but present
	// elsewhere in the union. Ghosts are non-interactive and drawn dimmed.
	Ghost bool `json:"ghost,omitempty"`
}

// Edge is one routed edge in a rendered frame. Synthetic collapse edges and
// edges with no computed route fall back to a straight line between their
// endpoints.
type Edge struct {
	Edge  snapshot.Edge `json:"edge"`
	Route layout.Route  `json:"route"`
	Ghost bool          `json:"ghost,omitempty"`
}

// Graph is the render-ready output for one frame.
type Graph struct {
	// RequestedIndex is the index the caller asked for; SnappedIndex is
	// the processed index actually rendered (nearest at or below).
	RequestedIndex int `json:"requested_index"`
	SnappedIndex   int `json:"snapped_index"`

	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`

	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Options configures one render call.
type Options struct {
	Filter visibility.FilterSpec

	// FocusID, when non-empty, restricts output to that entity and its
	// direct neighbors.
	FocusID snapshot.EntityID

	// GhostMode draws union entities absent from this frame as dimmed
	// ghosts instead of omitting them.
	GhostMode bool
}

// Frame renders an arbitrary frame index against a union layout. The index
// is snapped to the nearest processed index at or below it.
func Frame(index int, u *layout.UnionLayout, opts Options) (Graph, error) {
	if u == nil {
		return Graph{}, errors.New(errors.ErrCodeNoLayout, "no union layout built")
	}

	snapped := u.SnapBelow(index)
	frame, ok := u.FrameCache[snapped]
	if !ok {
		return Graph{}, errors.New(errors.ErrCodeFrameNotFound, "processed frame %d missing from cache", snapped)
	}

	entities, edges := visibility.Apply(frame.Entities, frame.Edges, opts.Filter)

	out := Graph{
		RequestedIndex: index,
		SnappedIndex:   snapped,
		Width:          u.Geometry.Width,
		Height:         u.Geometry.Height,
	}

	present := make(map[snapshot.EntityID]bool, len(entities))
	for _, e := range entities {
		present[e.ID] = true
		out.Nodes = append(out.Nodes, Node{
			Entity:   e,
			Position: u.Geometry.Positions[e.ID],
		})
	}

	edgeSeen := make(map[string]bool, len(edges))
	for _, e := range edges {
		edgeSeen[e.Key()] = true
		out.Edges = append(out.Edges, Edge{
			Edge:  e,
			Route: routeFor(e, u.Geometry),
		})
	}

	if opts.GhostMode {
		addGhosts(&out, u, opts.Filter, present, edgeSeen)
	}

	if opts.FocusID != "" {
		focus(&out, opts.FocusID)
	}
	return out, nil
}

// addGhosts appends union entities and edges absent from the snapped frame.
// Ghost edges are only drawn when both endpoints are on screen, solid or
// ghost; a dangling ghost edge would point at nothing.
func addGhosts(out *Graph, u *layout.UnionLayout, spec visibility.FilterSpec, present map[snapshot.EntityID]bool, edgeSeen map[string]bool) {
	ghostEntities, ghostEdges := visibility.Apply(u.UnionEntities, u.UnionEdges, spec)

	onScreen := make(map[snapshot.EntityID]bool, len(present))
	for id := range present {
		onScreen[id] = true
	}
	for _, e := range ghostEntities {
		if present[e.ID] {
			continue
		}
		onScreen[e.ID] = true
		out.Nodes = append(out.Nodes, Node{
			Entity:   e,
			Position: u.Geometry.Positions[e.ID],
			Ghost:    true,
		})
	}

	for _, e := range ghostEdges {
		if edgeSeen[e.Key()] {
			continue
		}
		if !onScreen[e.From] || !onScreen[e.To] {
			continue
		}
		out.Edges = append(out.Edges, Edge{
			Edge:  e,
			Route: routeFor(e, u.Geometry),
			Ghost: true,
		})
	}
}

// focus trims the graph to the focused entity and its direct neighbors.
func focus(out *Graph, id snapshot.EntityID) {
	keep := map[snapshot.EntityID]bool{id: true}
	var edges []Edge
	for _, e := range out.Edges {
		if e.Edge.From == id || e.Edge.To == id {
			keep[e.Edge.From] = true
			keep[e.Edge.To] = true
			edges = append(edges, e)
		}
	}
	var nodes []Node
	for _, n := range out.Nodes {
		if keep[n.Entity.ID] {
			nodes = append(nodes, n)
		}
	}
	out.Nodes = nodes
	out.Edges = edges
}

// routeFor returns the union route for an edge, or a straight line between
// the endpoint positions when none was computed (synthetic collapse edges
// never reach the geometry provider).
func routeFor(e snapshot.Edge, geom layout.Geometry) layout.Route {
	if r, ok := geom.Routes[e.Key()]; ok {
		return r
	}
	from := geom.Positions[e.From]
	to := geom.Positions[e.To]
	return layout.Route{Points: []layout.Point{
		{X: from.X, Y: from.Y},
		{X: to.X, Y: to.Y},
	}}
}
