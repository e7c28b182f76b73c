package layout

import (
	"context"

	"github.com/snarldev/snarl/pkg/snapshot"
)

// Point is a coordinate in layout space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Position places an entity in layout space.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w,omitempty"`
	H float64 `json:"h,omitempty"`
}

// Route is the polyline a rendered edge follows.
type Route struct {
	Points []Point `json:"points"`
}

// Geometry is the output of one geometry computation: a stable position per
// entity id and a route per edge key, plus the overall canvas extent.
type Geometry struct {
	Positions map[snapshot.EntityID]Position `json:"positions"`
	Routes    map[string]Route               `json:"routes"`
	Width     float64                        `json:"width"`
	Height    float64                        `json:"height"`
}

// Provider computes geometry for a node/edge set. Implementations are
// expected to be deterministic for a given input but not stable under input
// deltas, which is why the builder calls ComputeGeometry exactly once per
// union build.
type Provider interface {
	ComputeGeometry(ctx context.Context, entities []*snapshot.Entity, edges []snapshot.Edge) (Geometry, error)
}
