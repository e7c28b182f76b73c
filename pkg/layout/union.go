package layout

import (
	"github.com/snarldev/snarl/pkg/graph"
	"github.com/snarldev/snarl/pkg/snapshot"
)

// UnionLayout is the product of one build: the processed frame indices, the
// geometry computed once over the union graph, the normalized frame cache,
// and the union node/edge sets themselves (needed for ghost rendering).
//
// A UnionLayout is immutable after Build returns; renders share it freely.
type UnionLayout struct {
	// BuildID distinguishes layouts across rebuilds, mostly for logging.
	BuildID string `json:"build_id"`

	// DownsampleInterval is the k the layout was built with.
	DownsampleInterval int `json:"downsample_interval"`

	// ProcessedFrameIndices is strictly ascending and always contains the
	// first and last frame of the recording.
	ProcessedFrameIndices []int `json:"processed_frame_indices"`

	Geometry Geometry `json:"geometry"`

	// FrameCache holds the normalized graph for every processed index.
	FrameCache map[int]graph.Frame `json:"frame_cache"`

	// UnionEntities and UnionEdges are the merged node/edge sets the
	// geometry was computed over, in deterministic first-seen order.
	UnionEntities []*snapshot.Entity `json:"union_entities"`
	UnionEdges    []snapshot.Edge    `json:"union_edges"`
}

// SnapBelow maps an arbitrary frame index to the nearest processed index at
// or below it. Requests before the first processed index snap to the first.
func (u *UnionLayout) SnapBelow(index int) int {
	if len(u.ProcessedFrameIndices) == 0 {
		return 0
	}
	snapped := u.ProcessedFrameIndices[0]
	for _, pi := range u.ProcessedFrameIndices {
		if pi > index {
			break
		}
		snapped = pi
	}
	return snapped
}

// FrameAt returns the cached normalized frame for an arbitrary index after
// snapping it to the nearest processed index below.
func (u *UnionLayout) FrameAt(index int) (graph.Frame, bool) {
	f, ok := u.FrameCache[u.SnapBelow(index)]
	return f, ok
}

// Downsample selects every k-th index from the ascending full index list,
// always forcing the first and last index in. The result is strictly
// ascending. k values below 1 are treated as 1.
func Downsample(indices []int, k int) []int {
	if len(indices) == 0 {
		return nil
	}
	if k < 1 {
		k = 1
	}
	var out []int
	for i, idx := range indices {
		if i%k == 0 {
			out = append(out, idx)
		}
	}
	if last := indices[len(indices)-1]; out[len(out)-1] != last {
		out = append(out, last)
	}
	return out
}

// mergeUnion folds the processed frames, in ascending index order, into one
// entity set and one edge set. When an id recurs across frames the later
// frame's definition wins, so the union reflects each entity's most recent
// observed state. First-seen order is preserved for determinism.
func mergeUnion(indices []int, frames map[int]graph.Frame) ([]*snapshot.Entity, []snapshot.Edge) {
	entityAt := make(map[snapshot.EntityID]int)
	var entities []*snapshot.Entity
	edgeAt := make(map[string]int)
	var edges []snapshot.Edge

	for _, idx := range indices {
		f := frames[idx]
		for _, e := range f.Entities {
			if at, ok := entityAt[e.ID]; ok {
				entities[at] = e
				continue
			}
			entityAt[e.ID] = len(entities)
			entities = append(entities, e)
		}
		for _, e := range f.Edges {
			key := e.Key()
			if at, ok := edgeAt[key]; ok {
				edges[at] = e
				continue
			}
			edgeAt[key] = len(edges)
			edges = append(edges, e)
		}
	}
	return entities, edges
}
