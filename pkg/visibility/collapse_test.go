package visibility

import (
	"reflect"
	"testing"

	"github.com/snarldev/snarl/pkg/snapshot"
)

func ent(id, crate string) *snapshot.Entity {
	return &snapshot.Entity{
		ID:    snapshot.EntityID(id),
		Kind:  snapshot.KindFuture,
		Crate: crate,
	}
}

func needsEdge(from, to string) snapshot.Edge {
	return snapshot.Edge{From: snapshot.EntityID(from), To: snapshot.EntityID(to), Kind: snapshot.EdgeNeeds}
}

func edgeSet(edges []snapshot.Edge) map[string]snapshot.EdgeKind {
	m := make(map[string]snapshot.EdgeKind, len(edges))
	for _, e := range edges {
		m[string(e.From)+"→"+string(e.To)] = e.Kind
	}
	return m
}

func TestApply_HiddenNodeCollapsed(t *testing.T) {
	entities := []*snapshot.Entity{
		ent("p/a", "app"),
		ent("p/b", "runtime"),
		ent("p/c", "app"),
	}
	edges := []snapshot.Edge{
		needsEdge("p/a", "p/b"),
		needsEdge("p/b", "p/c"),
	}
	spec := FilterSpec{ExcludeCrates: []string{"runtime"}}

	outE, outEd := Apply(entities, edges, spec)

	if len(outE) != 2 {
		t.Fatalf("len(entities) = %d, want 2", len(outE))
	}
	set := edgeSet(outEd)
	kind, ok := set["p/a→p/c"]
	if !ok {
		t.Fatalf("collapsed edge p/a→p/c missing; got %v", set)
	}
	if kind != snapshot.EdgeLinked {
		t.Errorf("collapsed edge kind = %q, want %q", kind, snapshot.EdgeLinked)
	}
	if len(outEd) != 1 {
		t.Errorf("len(edges) = %d, want 1", len(outEd))
	}
}

func TestApply_FanThroughHiddenNode(t *testing.T) {
	// Two visible sources feed one hidden node that feeds two visible
	// sinks. Every source must be linked to every sink, with no duplicates.
	entities := []*snapshot.Entity{
		ent("p/s1", "app"), ent("p/s2", "app"),
		ent("p/hidden", "runtime"),
		ent("p/t1", "app"), ent("p/t2", "app"),
	}
	edges := []snapshot.Edge{
		needsEdge("p/s1", "p/hidden"),
		needsEdge("p/s2", "p/hidden"),
		needsEdge("p/hidden", "p/t1"),
		needsEdge("p/hidden", "p/t2"),
	}
	spec := FilterSpec{ExcludeCrates: []string{"runtime"}}

	_, outEd := Apply(entities, edges, spec)

	set := edgeSet(outEd)
	for _, want := range []string{"p/s1→p/t1", "p/s1→p/t2", "p/s2→p/t1", "p/s2→p/t2"} {
		if set[want] != snapshot.EdgeLinked {
			t.Errorf("missing synthetic edge %s; got %v", want, set)
		}
	}
	if len(outEd) != 4 {
		t.Errorf("len(edges) = %d, want 4 (deduplicated)", len(outEd))
	}
}

func TestApply_ReachabilityPreserved(t *testing.T) {
	// Chain of three hidden intermediaries between two visible endpoints.
	entities := []*snapshot.Entity{
		ent("p/a", "app"),
		ent("p/h1", "runtime"), ent("p/h2", "runtime"), ent("p/h3", "runtime"),
		ent("p/b", "app"),
	}
	edges := []snapshot.Edge{
		needsEdge("p/a", "p/h1"),
		needsEdge("p/h1", "p/h2"),
		needsEdge("p/h2", "p/h3"),
		needsEdge("p/h3", "p/b"),
	}
	spec := FilterSpec{ExcludeCrates: []string{"runtime"}}

	_, outEd := Apply(entities, edges, spec)

	if edgeSet(outEd)["p/a→p/b"] != snapshot.EdgeLinked {
		t.Errorf("path through hidden chain not preserved: %v", outEd)
	}
}

func TestApply_NoSelfLoopSynthesized(t *testing.T) {
	entities := []*snapshot.Entity{
		ent("p/a", "app"),
		ent("p/h", "runtime"),
	}
	edges := []snapshot.Edge{
		needsEdge("p/a", "p/h"),
		needsEdge("p/h", "p/a"),
	}
	spec := FilterSpec{ExcludeCrates: []string{"runtime"}, ShowLoners: true}

	_, outEd := Apply(entities, edges, spec)

	for _, e := range outEd {
		if e.From == e.To {
			t.Errorf("self-loop synthesized: %v", e)
		}
	}
}

func TestApply_DirectEdgeNotDuplicated(t *testing.T) {
	// a→b exists directly and through a hidden node; the direct edge must
	// survive alone, with its original kind.
	entities := []*snapshot.Entity{
		ent("p/a", "app"),
		ent("p/h", "runtime"),
		ent("p/b", "app"),
	}
	edges := []snapshot.Edge{
		{From: "p/a", To: "p/b", Kind: snapshot.EdgeHolds},
		needsEdge("p/a", "p/h"),
		needsEdge("p/h", "p/b"),
	}
	spec := FilterSpec{ExcludeCrates: []string{"runtime"}}

	_, outEd := Apply(entities, edges, spec)

	if len(outEd) != 1 {
		t.Fatalf("len(edges) = %d, want 1", len(outEd))
	}
	if outEd[0].Kind != snapshot.EdgeHolds {
		t.Errorf("edge kind = %q, want original %q", outEd[0].Kind, snapshot.EdgeHolds)
	}
}

func TestApply_Idempotent(t *testing.T) {
	entities := []*snapshot.Entity{
		ent("p/a", "app"),
		ent("p/h1", "runtime"), ent("p/h2", "runtime"),
		ent("p/b", "app"), ent("p/c", "app"),
		ent("p/loner", "app"),
	}
	edges := []snapshot.Edge{
		needsEdge("p/a", "p/h1"),
		needsEdge("p/h1", "p/b"),
		needsEdge("p/h1", "p/h2"),
		needsEdge("p/h2", "p/c"),
		needsEdge("p/b", "p/c"),
	}
	spec := FilterSpec{ExcludeCrates: []string{"runtime"}}

	e1, ed1 := Apply(entities, edges, spec)
	e2, ed2 := Apply(e1, ed1, spec)

	if !reflect.DeepEqual(edgeSet(ed1), edgeSet(ed2)) {
		t.Errorf("edges not stable under reapplication: %v vs %v", ed1, ed2)
	}
	if len(e1) != len(e2) {
		t.Errorf("entity count not stable: %d vs %d", len(e1), len(e2))
	}
}

func TestApply_LonersPruned(t *testing.T) {
	entities := []*snapshot.Entity{
		ent("p/a", "app"), ent("p/b", "app"),
		ent("p/loner", "app"),
	}
	edges := []snapshot.Edge{needsEdge("p/a", "p/b")}

	outE, _ := Apply(entities, edges, FilterSpec{})
	if len(outE) != 2 {
		t.Errorf("len(entities) = %d, want 2 (loner pruned)", len(outE))
	}

	outE, _ = Apply(entities, edges, FilterSpec{ShowLoners: true})
	if len(outE) != 3 {
		t.Errorf("len(entities) = %d with ShowLoners, want 3", len(outE))
	}
}

func TestApply_SyntheticEdgeKeepsEntityOnScreen(t *testing.T) {
	// b is only connected through hidden h; after collapsing, the linked
	// edge must count toward b's degree so loner pruning keeps it.
	entities := []*snapshot.Entity{
		ent("p/a", "app"),
		ent("p/h", "runtime"),
		ent("p/b", "app"),
	}
	edges := []snapshot.Edge{
		needsEdge("p/a", "p/h"),
		needsEdge("p/h", "p/b"),
	}
	spec := FilterSpec{ExcludeCrates: []string{"runtime"}}

	outE, _ := Apply(entities, edges, spec)

	if len(outE) != 2 {
		t.Errorf("len(entities) = %d, want 2 (b kept by synthetic edge)", len(outE))
	}
}

func TestApply_ExclusionWinsOverInclusion(t *testing.T) {
	entities := []*snapshot.Entity{
		ent("p/a", "app"),
		ent("p/b", "app"),
	}
	spec := FilterSpec{
		IncludeCrates: []string{"app"},
		ExcludeIDs:    []string{"p/b"},
		ShowLoners:    true,
	}

	outE, _ := Apply(entities, nil, spec)

	if len(outE) != 1 || outE[0].ID != "p/a" {
		t.Errorf("entities = %v, want only p/a", outE)
	}
}

func TestFocus_DirectNeighborsOnly(t *testing.T) {
	entities := []*snapshot.Entity{
		ent("p/a", "app"), ent("p/b", "app"), ent("p/c", "app"), ent("p/far", "app"),
	}
	edges := []snapshot.Edge{
		needsEdge("p/a", "p/b"),
		needsEdge("p/c", "p/b"),
		needsEdge("p/c", "p/far"),
	}

	outE, outEd := Focus(entities, edges, "p/b")

	if len(outE) != 3 {
		t.Fatalf("len(entities) = %d, want 3", len(outE))
	}
	for _, e := range outE {
		if e.ID == "p/far" {
			t.Errorf("p/far kept despite not touching the focus entity")
		}
	}
	if len(outEd) != 2 {
		t.Errorf("len(edges) = %d, want 2", len(outEd))
	}
}

func TestFocus_UnknownIDYieldsEmpty(t *testing.T) {
	entities := []*snapshot.Entity{ent("p/a", "app")}

	outE, outEd := Focus(entities, nil, "p/nope")

	if len(outE) != 0 || len(outEd) != 0 {
		t.Errorf("Focus on unknown id = %d entities %d edges, want empty", len(outE), len(outEd))
	}
}
