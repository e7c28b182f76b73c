package layout

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/snarldev/snarl/pkg/errors"
	"github.com/snarldev/snarl/pkg/snapshot"
)

// fakeSource serves a synthetic recording of n frames, each with one entity
// named after its frame index plus one shared entity.
type fakeSource struct {
	frames  int
	failAt  int // frame index that errors, -1 for none
	fetches atomic.Int64
}

func (s *fakeSource) Meta(context.Context) (snapshot.RecordingMeta, error) {
	ts := make([]int64, s.frames)
	for i := range ts {
		ts[i] = int64(i * 100)
	}
	return snapshot.RecordingMeta{FrameCount: s.frames, FrameTimestamps: ts}, nil
}

func (s *fakeSource) Frame(_ context.Context, index int) (snapshot.RawFrame, error) {
	s.fetches.Add(1)
	if index == s.failAt {
		return snapshot.RawFrame{}, fmt.Errorf("frame %d unavailable", index)
	}
	return snapshot.RawFrame{
		Index: index,
		Processes: []snapshot.ProcessSnapshot{{
			ProcessID: "p",
			Entities: []snapshot.RawEntity{
				{LocalID: "shared"},
				{LocalID: fmt.Sprintf("only-%d", index)},
			},
			Edges: []snapshot.RawEdge{
				{From: "shared", To: fmt.Sprintf("only-%d", index), Kind: snapshot.EdgeNeeds},
			},
		}},
	}, nil
}

// gridProvider assigns deterministic positions by entity order.
type gridProvider struct {
	calls atomic.Int64
	fail  bool
}

func (p *gridProvider) ComputeGeometry(_ context.Context, entities []*snapshot.Entity, edges []snapshot.Edge) (Geometry, error) {
	p.calls.Add(1)
	if p.fail {
		return Geometry{}, fmt.Errorf("layout engine crashed")
	}
	g := Geometry{
		Positions: make(map[snapshot.EntityID]Position, len(entities)),
		Routes:    make(map[string]Route, len(edges)),
	}
	for i, e := range entities {
		g.Positions[e.ID] = Position{X: float64(i) * 10, Y: float64(i) * 5}
	}
	for _, e := range edges {
		g.Routes[e.Key()] = Route{Points: []Point{{0, 0}, {1, 1}}}
	}
	return g, nil
}

func TestBuilder_Build(t *testing.T) {
	src := &fakeSource{frames: 10, failAt: -1}
	prov := &gridProvider{}
	b := NewBuilder(prov, src, nil)

	var progress []int
	u, err := b.Build(context.Background(), BuildOptions{
		DownsampleInterval: 3,
		Progress:           func(loaded, total int) { progress = append(progress, loaded) },
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// indices 0,3,6,9: every 3rd plus the forced last (9 is already included)
	want := []int{0, 3, 6, 9}
	if len(u.ProcessedFrameIndices) != len(want) {
		t.Fatalf("ProcessedFrameIndices = %v, want %v", u.ProcessedFrameIndices, want)
	}
	for i, idx := range want {
		if u.ProcessedFrameIndices[i] != idx {
			t.Errorf("ProcessedFrameIndices[%d] = %d, want %d", i, u.ProcessedFrameIndices[i], idx)
		}
	}

	if got := prov.calls.Load(); got != 1 {
		t.Errorf("geometry computed %d times, want exactly 1", got)
	}

	// union: shared + one entity per processed frame
	if len(u.UnionEntities) != 1+len(want) {
		t.Errorf("len(UnionEntities) = %d, want %d", len(u.UnionEntities), 1+len(want))
	}
	for _, e := range u.UnionEntities {
		if _, ok := u.Geometry.Positions[e.ID]; !ok {
			t.Errorf("no position for union entity %q", e.ID)
		}
	}

	if len(u.FrameCache) != len(want) {
		t.Errorf("len(FrameCache) = %d, want %d", len(u.FrameCache), len(want))
	}

	// progress reported once per processed frame, ascending
	if len(progress) != len(want) {
		t.Fatalf("progress calls = %d, want %d", len(progress), len(want))
	}
	for i, loaded := range progress {
		if loaded != i+1 {
			t.Errorf("progress[%d] = %d, want %d", i, loaded, i+1)
		}
	}

	if b.Current() != u {
		t.Error("Current() does not return the built layout")
	}
}

func TestBuilder_FetchFailureAbortsAndRetainsPrevious(t *testing.T) {
	src := &fakeSource{frames: 4, failAt: -1}
	prov := &gridProvider{}
	b := NewBuilder(prov, src, nil)

	first, err := b.Build(context.Background(), BuildOptions{DownsampleInterval: 1})
	if err != nil {
		t.Fatalf("first Build: %v", err)
	}

	src.failAt = 2
	_, err = b.Build(context.Background(), BuildOptions{DownsampleInterval: 1})
	if !errors.Is(err, errors.ErrCodeFetchFailed) {
		t.Fatalf("Build error = %v, want FETCH_FAILED", err)
	}

	if b.Current() != first {
		t.Error("failed build replaced the previous layout")
	}
}

func TestBuilder_GeometryFailureAbortsAndRetainsPrevious(t *testing.T) {
	src := &fakeSource{frames: 4, failAt: -1}
	prov := &gridProvider{}
	b := NewBuilder(prov, src, nil)

	first, err := b.Build(context.Background(), BuildOptions{DownsampleInterval: 1})
	if err != nil {
		t.Fatalf("first Build: %v", err)
	}

	prov.fail = true
	_, err = b.Build(context.Background(), BuildOptions{DownsampleInterval: 2})
	if !errors.Is(err, errors.ErrCodeGeometryFailed) {
		t.Fatalf("Build error = %v, want GEOMETRY_FAILED", err)
	}

	if b.Current() != first {
		t.Error("failed build replaced the previous layout")
	}
}

func TestBuilder_SupersededBuildDiscarded(t *testing.T) {
	src := &fakeSource{frames: 6, failAt: -1}
	prov := &gridProvider{}
	b := NewBuilder(prov, src, nil)

	// Simulate supersession: bump the generation mid-build via the
	// progress callback, as a concurrent Build call would.
	var bumped bool
	_, err := b.Build(context.Background(), BuildOptions{
		DownsampleInterval: 1,
		Progress: func(loaded, total int) {
			if !bumped {
				bumped = true
				b.gen.Add(1)
			}
		},
	})
	if !errors.Is(err, errors.ErrCodeBuildSuperseded) {
		t.Fatalf("Build error = %v, want BUILD_SUPERSEDED", err)
	}
	if b.Current() != nil {
		t.Error("superseded build installed a layout")
	}
}

func TestBuilder_CancelledContext(t *testing.T) {
	src := &fakeSource{frames: 6, failAt: -1}
	b := NewBuilder(&gridProvider{}, src, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Build(ctx, BuildOptions{DownsampleInterval: 1})
	if err == nil {
		t.Fatal("Build with cancelled context succeeded")
	}
}

func TestBuilder_InvalidInterval(t *testing.T) {
	b := NewBuilder(&gridProvider{}, &fakeSource{frames: 2, failAt: -1}, nil)

	_, err := b.Build(context.Background(), BuildOptions{DownsampleInterval: 0})
	if !errors.Is(err, errors.ErrCodeInvalidInterval) {
		t.Errorf("Build error = %v, want INVALID_INTERVAL", err)
	}
}

func TestBuilder_RebuildReplacesLayout(t *testing.T) {
	src := &fakeSource{frames: 9, failAt: -1}
	prov := &gridProvider{}
	b := NewBuilder(prov, src, nil)

	first, err := b.Build(context.Background(), BuildOptions{DownsampleInterval: 1})
	if err != nil {
		t.Fatalf("first Build: %v", err)
	}
	second, err := b.Build(context.Background(), BuildOptions{DownsampleInterval: 4})
	if err != nil {
		t.Fatalf("second Build: %v", err)
	}

	if first.BuildID == second.BuildID {
		t.Error("rebuild reused the previous build id")
	}
	if b.Current() != second {
		t.Error("Current() not updated after rebuild")
	}
	if len(second.ProcessedFrameIndices) >= len(first.ProcessedFrameIndices) {
		t.Errorf("rebuild with larger k processed %d frames, first processed %d",
			len(second.ProcessedFrameIndices), len(first.ProcessedFrameIndices))
	}
}
