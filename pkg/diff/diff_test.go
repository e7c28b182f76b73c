package diff

import (
	"reflect"
	"testing"

	"github.com/snarldev/snarl/pkg/errors"
	"github.com/snarldev/snarl/pkg/graph"
	"github.com/snarldev/snarl/pkg/layout"
	"github.com/snarldev/snarl/pkg/snapshot"
)

func ent(id string) *snapshot.Entity {
	return &snapshot.Entity{ID: snapshot.EntityID(id), Kind: snapshot.KindFuture}
}

func needs(from, to string) snapshot.Edge {
	return snapshot.Edge{From: snapshot.EntityID(from), To: snapshot.EntityID(to), Kind: snapshot.EdgeNeeds}
}

func unionOf(frames map[int]graph.Frame, indices ...int) *layout.UnionLayout {
	return &layout.UnionLayout{
		ProcessedFrameIndices: indices,
		FrameCache:            frames,
	}
}

func TestSummaries_AddedEntityRemovedEdge(t *testing.T) {
	// frame 3 adds exactly one entity and removes exactly one edge
	frames := map[int]graph.Frame{
		0: {
			Entities: []*snapshot.Entity{ent("p/a"), ent("p/b")},
			Edges:    []snapshot.Edge{needs("p/a", "p/b")},
		},
		3: {
			Entities: []*snapshot.Entity{ent("p/a"), ent("p/b"), ent("p/c")},
		},
	}
	u := unionOf(frames, 0, 3)

	summaries, err := Summaries(u)
	if err != nil {
		t.Fatalf("Summaries: %v", err)
	}

	if _, ok := summaries[0]; ok {
		t.Error("first processed frame has a summary; it has no predecessor")
	}

	got := summaries[3]
	want := Summary{EntitiesAdded: 1, EntitiesRemoved: 0, EdgesAdded: 0, EdgesRemoved: 1}
	if got != want {
		t.Errorf("summaries[3] = %+v, want %+v", got, want)
	}

	changes, err := ChangeFrames(u)
	if err != nil {
		t.Fatalf("ChangeFrames: %v", err)
	}
	if !reflect.DeepEqual(changes, []int{3}) {
		t.Errorf("ChangeFrames = %v, want [3]", changes)
	}
}

func TestSummaries_NoChange(t *testing.T) {
	same := graph.Frame{
		Entities: []*snapshot.Entity{ent("p/a"), ent("p/b")},
		Edges:    []snapshot.Edge{needs("p/a", "p/b")},
	}
	u := unionOf(map[int]graph.Frame{0: same, 4: same, 8: same}, 0, 4, 8)

	summaries, err := Summaries(u)
	if err != nil {
		t.Fatalf("Summaries: %v", err)
	}
	for idx, s := range summaries {
		if s.IsChange() {
			t.Errorf("frame %d reported a change on identical frames: %+v", idx, s)
		}
	}

	changes, err := ChangeFrames(u)
	if err != nil {
		t.Fatalf("ChangeFrames: %v", err)
	}
	if len(changes) != 0 {
		t.Errorf("ChangeFrames = %v, want empty", changes)
	}
}

func TestSummaries_EdgeKindChangeCountsBothWays(t *testing.T) {
	// the same endpoints with a different kind is a different edge id
	frames := map[int]graph.Frame{
		0: {
			Entities: []*snapshot.Entity{ent("p/a"), ent("p/b")},
			Edges:    []snapshot.Edge{{From: "p/a", To: "p/b", Kind: snapshot.EdgePolls}},
		},
		1: {
			Entities: []*snapshot.Entity{ent("p/a"), ent("p/b")},
			Edges:    []snapshot.Edge{{From: "p/a", To: "p/b", Kind: snapshot.EdgeHolds}},
		},
	}
	u := unionOf(frames, 0, 1)

	summaries, err := Summaries(u)
	if err != nil {
		t.Fatalf("Summaries: %v", err)
	}
	got := summaries[1]
	want := Summary{EdgesAdded: 1, EdgesRemoved: 1}
	if got != want {
		t.Errorf("summaries[1] = %+v, want %+v", got, want)
	}
}

func TestChangeFrames_Sorted(t *testing.T) {
	frames := map[int]graph.Frame{
		0: {Entities: []*snapshot.Entity{ent("p/a")}},
		2: {Entities: []*snapshot.Entity{ent("p/a"), ent("p/b")}},
		4: {Entities: []*snapshot.Entity{ent("p/a"), ent("p/b")}},
		6: {Entities: []*snapshot.Entity{ent("p/a")}},
	}
	u := unionOf(frames, 0, 2, 4, 6)

	changes, err := ChangeFrames(u)
	if err != nil {
		t.Fatalf("ChangeFrames: %v", err)
	}
	if !reflect.DeepEqual(changes, []int{2, 6}) {
		t.Errorf("ChangeFrames = %v, want [2 6]", changes)
	}
}

func TestSummaries_NilLayout(t *testing.T) {
	_, err := Summaries(nil)
	if !errors.Is(err, errors.ErrCodeNoLayout) {
		t.Errorf("Summaries(nil) error = %v, want NO_LAYOUT", err)
	}
}
