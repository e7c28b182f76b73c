// Package diff computes the change index of a recording: per-frame
// added/removed entity and edge counts between consecutive processed frames,
// and the sorted list of frames where anything changed. The UI uses it to
// jump between state transitions instead of scrubbing linearly.
package diff

import (
	"github.com/snarldev/snarl/pkg/errors"
	"github.com/snarldev/snarl/pkg/layout"
	"github.com/snarldev/snarl/pkg/snapshot"
)

// Summary counts what changed in one processed frame relative to the
// previous processed frame.
type Summary struct {
	EntitiesAdded   int `json:"entities_added"`
	EntitiesRemoved int `json:"entities_removed"`
	EdgesAdded      int `json:"edges_added"`
	EdgesRemoved    int `json:"edges_removed"`
}

// IsChange reports whether any count is nonzero.
func (s Summary) IsChange() bool {
	return s.EntitiesAdded > 0 || s.EntitiesRemoved > 0 || s.EdgesAdded > 0 || s.EdgesRemoved > 0
}

// Summaries diffs consecutive processed frames of a union layout. The first
// processed frame has no predecessor and gets no summary.
func Summaries(u *layout.UnionLayout) (map[int]Summary, error) {
	if u == nil {
		return nil, errors.New(errors.ErrCodeNoLayout, "no union layout built")
	}

	out := make(map[int]Summary, len(u.ProcessedFrameIndices))
	var prevEntities map[snapshot.EntityID]bool
	var prevEdges map[string]bool

	for i, idx := range u.ProcessedFrameIndices {
		f, ok := u.FrameCache[idx]
		if !ok {
			return nil, errors.New(errors.ErrCodeFrameNotFound, "processed frame %d missing from cache", idx)
		}
		entities := f.EntityIDs()
		edges := f.EdgeKeys()

		if i > 0 {
			out[idx] = Summary{
				EntitiesAdded:   countMissing(entities, prevEntities),
				EntitiesRemoved: countMissing(prevEntities, entities),
				EdgesAdded:      countMissingKeys(edges, prevEdges),
				EdgesRemoved:    countMissingKeys(prevEdges, edges),
			}
		}
		prevEntities = entities
		prevEdges = edges
	}
	return out, nil
}

// ChangeFrames returns the processed frame indices whose summary has any
// nonzero count, in ascending order. The first frame is never included.
func ChangeFrames(u *layout.UnionLayout) ([]int, error) {
	summaries, err := Summaries(u)
	if err != nil {
		return nil, err
	}

	var out []int
	for _, idx := range u.ProcessedFrameIndices {
		if s, ok := summaries[idx]; ok && s.IsChange() {
			out = append(out, idx)
		}
	}
	return out, nil
}

// countMissing counts ids in a that are absent from b.
func countMissing(a, b map[snapshot.EntityID]bool) int {
	n := 0
	for id := range a {
		if !b[id] {
			n++
		}
	}
	return n
}

func countMissingKeys(a, b map[string]bool) int {
	n := 0
	for k := range a {
		if !b[k] {
			n++
		}
	}
	return n
}
