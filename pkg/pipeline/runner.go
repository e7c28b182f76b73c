package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/snarldev/snarl/pkg/cache"
	"github.com/snarldev/snarl/pkg/diff"
	"github.com/snarldev/snarl/pkg/graph"
	"github.com/snarldev/snarl/pkg/layout"
	"github.com/snarldev/snarl/pkg/render"
	"github.com/snarldev/snarl/pkg/snapshot"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache, the layout builder, and the
// logger. Multiple goroutines can safely use the same Runner with different
// options.
type Runner struct {
	Cache   cache.Cache
	Keyer   cache.Keyer
	Logger  *log.Logger
	Source  layout.FrameSource
	Builder *layout.Builder
}

// NewRunner creates a runner over a geometry provider and a frame source.
// If keyer is nil, a DefaultKeyer is used.
// If c is nil, a NullCache is used (caching disabled).
func NewRunner(provider layout.Provider, source layout.FrameSource, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:   c,
		Keyer:   keyer,
		Logger:  logger,
		Source:  source,
		Builder: layout.NewBuilder(provider, source, logger),
	}
}

// NormalizeFrame fetches and normalizes one raw frame with caching.
func (r *Runner) NormalizeFrame(ctx context.Context, index int, opts Options) (graph.Frame, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return graph.Frame{}, false, fmt.Errorf("invalid options: %w", err)
	}

	cacheKey := r.Keyer.FrameKey(opts.Recording, index)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var f graph.Frame
			if err := json.Unmarshal(data, &f); err == nil {
				return f, true, nil // Cache hit
			}
		}
	}

	raw, err := r.Source.Frame(ctx, index)
	if err != nil {
		return graph.Frame{}, false, err
	}
	f := graph.Normalize(raw)

	if data, err := json.Marshal(f); err == nil {
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLFrame)
	}
	return f, false, nil // Cache miss
}

// BuildUnion builds (or loads from cache) the union layout for a recording.
// The second return reports whether the layout came from cache.
func (r *Runner) BuildUnion(ctx context.Context, opts Options, progress layout.ProgressFunc) (*layout.UnionLayout, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, fmt.Errorf("invalid options: %w", err)
	}

	cacheKey := r.Keyer.UnionKey(opts.Recording, opts.UnionKeyOpts())
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var u layout.UnionLayout
			if err := json.Unmarshal(data, &u); err == nil {
				return &u, true, nil // Cache hit
			}
			// If deserialization fails, fall through to rebuild
		}
	}

	start := time.Now()
	u, err := r.Builder.Build(ctx, layout.BuildOptions{
		DownsampleInterval: opts.DownsampleInterval,
		Workers:            opts.Workers,
		Progress:           progress,
	})
	if err != nil {
		return nil, false, err
	}

	r.Logger.Info("built union layout",
		"recording", opts.Recording,
		"processed", len(u.ProcessedFrameIndices),
		"duration", time.Since(start))

	if data, err := json.Marshal(u); err == nil {
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLUnion)
	}
	return u, false, nil // Cache miss
}

// RenderFrame renders one frame against a union layout with caching.
func (r *Runner) RenderFrame(ctx context.Context, index int, u *layout.UnionLayout, opts Options) (render.Graph, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return render.Graph{}, false, fmt.Errorf("invalid options: %w", err)
	}

	var cacheKey string
	if u != nil {
		cacheKey = r.Keyer.RenderKey(u.BuildID, opts.RenderKeyOpts(index))
		if !opts.Refresh {
			if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
				var g render.Graph
				if err := json.Unmarshal(data, &g); err == nil {
					return g, true, nil // Cache hit
				}
			}
		}
	}

	g, err := render.Frame(index, u, render.Options{
		Filter:    opts.Filter,
		FocusID:   snapshot.EntityID(opts.FocusID),
		GhostMode: opts.GhostMode,
	})
	if err != nil {
		return render.Graph{}, false, err
	}

	if cacheKey != "" {
		if data, err := json.Marshal(g); err == nil {
			_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLRender)
		}
	}
	return g, false, nil // Cache miss
}

// Changes computes per-frame change summaries and the change frame index
// for a union layout. Diffing is cheap relative to building, so it is not
// cached.
func (r *Runner) Changes(u *layout.UnionLayout) (map[int]diff.Summary, []int, error) {
	summaries, err := diff.Summaries(u)
	if err != nil {
		return nil, nil, err
	}
	frames, err := diff.ChangeFrames(u)
	if err != nil {
		return nil, nil, err
	}
	return summaries, frames, nil
}

// Meta returns the recording metadata from the source.
func (r *Runner) Meta(ctx context.Context) (snapshot.RecordingMeta, error) {
	return r.Source.Meta(ctx)
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
