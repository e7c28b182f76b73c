package layout

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/snarldev/snarl/pkg/errors"
	"github.com/snarldev/snarl/pkg/graph"
	"github.com/snarldev/snarl/pkg/observability"
	"github.com/snarldev/snarl/pkg/snapshot"
)

// DefaultFetchWorkers bounds concurrent frame fetches during a build.
const DefaultFetchWorkers = 8

// FrameSource fetches raw frames and recording metadata. Implementations
// live in pkg/source; the builder only needs these two calls.
type FrameSource interface {
	Meta(ctx context.Context) (snapshot.RecordingMeta, error)
	Frame(ctx context.Context, index int) (snapshot.RawFrame, error)
}

// ProgressFunc receives incremental progress as frames are normalized.
type ProgressFunc func(loaded, total int)

// BuildOptions configures one union layout build.
type BuildOptions struct {
	// DownsampleInterval is k: every k-th frame is processed, plus the
	// first and last frame. Must be >= 1.
	DownsampleInterval int

	// Progress, if set, is called after each frame is normalized and
	// merged, in ascending index order.
	Progress ProgressFunc

	// Workers bounds concurrent fetches. Zero means DefaultFetchWorkers.
	Workers int
}

// Builder computes union layouts. It holds the current layout and a
// generation counter so a newer Build supersedes any in-flight one: the
// superseded build's result is discarded, never installed.
//
// A Builder is safe for concurrent use.
type Builder struct {
	provider Provider
	source   FrameSource
	logger   *log.Logger

	gen atomic.Int64

	mu      sync.RWMutex
	current *UnionLayout
}

// NewBuilder creates a builder over a geometry provider and a frame source.
// A nil logger discards output.
func NewBuilder(provider Provider, source FrameSource, logger *log.Logger) *Builder {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Builder{
		provider: provider,
		source:   source,
		logger:   logger,
	}
}

// Current returns the most recently installed union layout, or nil if no
// build has completed.
func (b *Builder) Current() *UnionLayout {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.current
}

// Build computes a new union layout. On any fetch or geometry failure the
// build aborts, the previous layout is retained untouched, and the error is
// returned. If a newer Build starts while this one runs, this one finishes
// with ErrCodeBuildSuperseded and its result is discarded.
func (b *Builder) Build(ctx context.Context, opts BuildOptions) (*UnionLayout, error) {
	if err := errors.ValidateDownsampleInterval(opts.DownsampleInterval); err != nil {
		return nil, err
	}

	gen := b.gen.Add(1)
	start := time.Now()

	meta, err := b.source.Meta(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFetchFailed, err, "fetch recording metadata")
	}
	indices := Downsample(meta.Indices(), opts.DownsampleInterval)
	if len(indices) == 0 {
		return nil, errors.New(errors.ErrCodeFrameNotFound, "recording has no frames")
	}

	b.logger.Info("building union layout",
		"frames", meta.FrameCount,
		"processed", len(indices),
		"interval", opts.DownsampleInterval)
	observability.Layout().OnBuildStart(ctx, len(indices))

	frames, err := b.fetchAll(ctx, gen, indices, opts)
	if err != nil {
		observability.Layout().OnBuildComplete(ctx, "", time.Since(start), err)
		return nil, err
	}

	unionEntities, unionEdges := mergeUnion(indices, frames)

	if err := b.superseded(ctx, gen); err != nil {
		return nil, err
	}

	geomStart := time.Now()
	geom, err := b.provider.ComputeGeometry(ctx, unionEntities, unionEdges)
	observability.Layout().OnGeometryComputed(ctx, len(unionEntities), len(unionEdges), time.Since(geomStart), err)
	if err != nil {
		err = errors.Wrap(errors.ErrCodeGeometryFailed, err, "compute geometry for %d entities", len(unionEntities))
		observability.Layout().OnBuildComplete(ctx, "", time.Since(start), err)
		return nil, err
	}

	layout := &UnionLayout{
		BuildID:               uuid.NewString(),
		DownsampleInterval:    opts.DownsampleInterval,
		ProcessedFrameIndices: indices,
		Geometry:              geom,
		FrameCache:            frames,
		UnionEntities:         unionEntities,
		UnionEdges:            unionEdges,
	}

	// Install only if still the newest build. A superseded result is
	// dropped so it can never overwrite a newer layout.
	if err := b.superseded(ctx, gen); err != nil {
		return nil, err
	}
	b.mu.Lock()
	b.current = layout
	b.mu.Unlock()

	b.logger.Info("union layout built",
		"build", layout.BuildID,
		"entities", len(unionEntities),
		"edges", len(unionEdges),
		"duration", time.Since(start))
	observability.Layout().OnBuildComplete(ctx, layout.BuildID, time.Since(start), nil)
	return layout, nil
}

// fetchAll fetches the selected frames with bounded concurrency, then
// normalizes and merges them in ascending index order so tie-breaking in the
// union is reproducible. Any single failure aborts the whole build.
func (b *Builder) fetchAll(ctx context.Context, gen int64, indices []int, opts BuildOptions) (map[int]graph.Frame, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultFetchWorkers
	}
	if workers > len(indices) {
		workers = len(indices)
	}

	fetchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		pos int
		raw snapshot.RawFrame
		err error
	}

	jobs := make(chan int, len(indices))
	results := make(chan result, len(indices))
	var wg sync.WaitGroup

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pos := range jobs {
				if fetchCtx.Err() != nil {
					results <- result{pos: pos, err: fetchCtx.Err()}
					continue
				}
				raw, err := b.source.Frame(fetchCtx, indices[pos])
				results <- result{pos: pos, raw: raw, err: err}
			}
		}()
	}
	for pos := range indices {
		jobs <- pos
	}
	close(jobs)

	raws := make([]snapshot.RawFrame, len(indices))
	var firstErr error
	for range indices {
		r := <-results
		if r.err != nil {
			if firstErr == nil {
				firstErr = errors.Wrap(errors.ErrCodeFetchFailed, r.err, "fetch frame %d", indices[r.pos])
				cancel()
			}
			continue
		}
		raws[r.pos] = r.raw
	}
	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}

	// Consolidation is serialized on index order; fetches above were not.
	frames := make(map[int]graph.Frame, len(indices))
	for pos, idx := range indices {
		if err := b.superseded(ctx, gen); err != nil {
			return nil, err
		}
		f := graph.Normalize(raws[pos])
		frames[idx] = f
		observability.Normalize().OnFrameNormalized(ctx, idx, len(f.Entities), len(f.Edges))
		if opts.Progress != nil {
			opts.Progress(pos+1, len(indices))
		}
	}
	return frames, nil
}

// superseded reports whether this build generation has been overtaken or
// cancelled.
func (b *Builder) superseded(ctx context.Context, gen int64) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(errors.ErrCodeBuildSuperseded, err, "build cancelled")
	}
	if b.gen.Load() != gen {
		return errors.New(errors.ErrCodeBuildSuperseded, "a newer build superseded this one")
	}
	return nil
}
