package layout

import (
	"reflect"
	"testing"

	"github.com/snarldev/snarl/pkg/graph"
	"github.com/snarldev/snarl/pkg/snapshot"
)

func TestDownsample_ContainsFirstAndLast(t *testing.T) {
	indices := make([]int, 100)
	for i := range indices {
		indices[i] = i
	}

	for _, k := range []int{1, 2, 3, 7, 50, 99, 100, 1000} {
		out := Downsample(indices, k)
		if out[0] != 0 {
			t.Errorf("k=%d: first = %d, want 0", k, out[0])
		}
		if out[len(out)-1] != 99 {
			t.Errorf("k=%d: last = %d, want 99", k, out[len(out)-1])
		}
		for i := 1; i < len(out); i++ {
			if out[i] <= out[i-1] {
				t.Errorf("k=%d: not strictly ascending at %d: %v", k, i, out)
			}
		}
	}
}

func TestDownsample_KOne(t *testing.T) {
	indices := []int{0, 1, 2, 3}
	if got := Downsample(indices, 1); !reflect.DeepEqual(got, indices) {
		t.Errorf("Downsample(k=1) = %v, want all indices", got)
	}
}

func TestDownsample_Degenerate(t *testing.T) {
	if got := Downsample(nil, 3); got != nil {
		t.Errorf("Downsample(nil) = %v, want nil", got)
	}
	if got := Downsample([]int{0}, 5); !reflect.DeepEqual(got, []int{0}) {
		t.Errorf("Downsample(single) = %v, want [0]", got)
	}
	// k below 1 behaves like 1
	if got := Downsample([]int{0, 1, 2}, 0); !reflect.DeepEqual(got, []int{0, 1, 2}) {
		t.Errorf("Downsample(k=0) = %v, want [0 1 2]", got)
	}
}

func TestSnapBelow(t *testing.T) {
	u := &UnionLayout{ProcessedFrameIndices: []int{0, 5, 10}}

	tests := []struct {
		request int
		want    int
	}{
		{0, 0}, {3, 0}, {5, 5}, {9, 5}, {10, 10}, {99, 10},
		{-1, 0}, // before the first processed index snaps to the first
	}
	for _, tt := range tests {
		if got := u.SnapBelow(tt.request); got != tt.want {
			t.Errorf("SnapBelow(%d) = %d, want %d", tt.request, got, tt.want)
		}
	}
}

func TestMergeUnion_LaterFrameWins(t *testing.T) {
	old := &snapshot.Entity{ID: "p/a", Status: snapshot.Status{Label: "polling"}}
	newer := &snapshot.Entity{ID: "p/a", Status: snapshot.Status{Label: "held", Tone: snapshot.ToneWarn}}
	frames := map[int]graph.Frame{
		0: {Index: 0, Entities: []*snapshot.Entity{old}},
		5: {Index: 5, Entities: []*snapshot.Entity{newer}},
	}

	entities, _ := mergeUnion([]int{0, 5}, frames)

	if len(entities) != 1 {
		t.Fatalf("len(entities) = %d, want 1", len(entities))
	}
	if entities[0].Status.Label != "held" {
		t.Errorf("union kept %q, want the later frame's definition", entities[0].Status.Label)
	}
}

func TestMergeUnion_PreservesFirstSeenOrder(t *testing.T) {
	frames := map[int]graph.Frame{
		0: {Entities: []*snapshot.Entity{{ID: "p/a"}, {ID: "p/b"}}},
		1: {Entities: []*snapshot.Entity{{ID: "p/b"}, {ID: "p/c"}}},
	}

	entities, _ := mergeUnion([]int{0, 1}, frames)

	got := make([]snapshot.EntityID, len(entities))
	for i, e := range entities {
		got[i] = e.ID
	}
	want := []snapshot.EntityID{"p/a", "p/b", "p/c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("union order = %v, want %v", got, want)
	}
}

func TestMergeUnion_EdgesDeduplicatedByKey(t *testing.T) {
	edge := snapshot.Edge{From: "p/a", To: "p/b", Kind: snapshot.EdgeNeeds}
	frames := map[int]graph.Frame{
		0: {Edges: []snapshot.Edge{edge}},
		1: {Edges: []snapshot.Edge{edge, {From: "p/b", To: "p/a", Kind: snapshot.EdgeNeeds}}},
	}

	_, edges := mergeUnion([]int{0, 1}, frames)

	if len(edges) != 2 {
		t.Errorf("len(edges) = %d, want 2", len(edges))
	}
}
