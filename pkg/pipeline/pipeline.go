// Package pipeline provides the core recording pipeline for Snarl.
//
// This package implements the fetch → normalize → union layout → render
// flow that can be used by CLI and API components. By centralizing this
// logic, behavior stays consistent across entry points.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Normalize: fetch raw frames and unify them into per-frame graphs
//  2. Union: build one stable geometry across the downsampled recording
//  3. Render: project any frame index onto the union layout
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
// Create a Runner and build a union layout:
//
//	runner := pipeline.NewRunner(provider, source, cache, nil, logger)
//	opts := pipeline.Options{Recording: "deadlock-repro", DownsampleInterval: 5}
//	union, cached, err := runner.BuildUnion(ctx, opts, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	frame, _, err := runner.RenderFrame(ctx, 42, union, opts)
package pipeline

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/snarldev/snarl/pkg/cache"
	"github.com/snarldev/snarl/pkg/snapshot"
	"github.com/snarldev/snarl/pkg/visibility"
)

// Default values shared by CLI and API.
const (
	// DefaultDownsampleInterval processes every frame. Long recordings
	// should raise this; the first and last frame are always processed.
	DefaultDownsampleInterval = 1

	// DefaultWorkers bounds concurrent frame fetches during a build.
	DefaultWorkers = 8
)

// Options contains all configuration for the recording pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Recording names the recording; it namespaces cache keys.
	Recording string `json:"recording"`

	// Build options
	DownsampleInterval int  `json:"downsample_interval,omitempty"`
	Workers            int  `json:"workers,omitempty"`
	Refresh            bool `json:"refresh,omitempty"`

	// Render options
	Filter    visibility.FilterSpec `json:"filter,omitempty"`
	FocusID   string                `json:"focus_id,omitempty"`
	GhostMode bool                  `json:"ghost_mode,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent - calling it multiple times has the same effect
// as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Recording == "" {
		return fmt.Errorf("recording is required")
	}
	if o.DownsampleInterval == 0 {
		o.DownsampleInterval = DefaultDownsampleInterval
	}
	if o.DownsampleInterval < 1 {
		return fmt.Errorf("downsample interval must be >= 1, got %d", o.DownsampleInterval)
	}
	if o.Workers == 0 {
		o.Workers = DefaultWorkers
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// FilterHash returns a content hash of the filter spec for cache keys.
func (o *Options) FilterHash() string {
	if o.Filter.IsZero() && !o.Filter.ShowLoners {
		return ""
	}
	data, _ := json.Marshal(o.Filter)
	return cache.Hash(data)
}

// UnionKeyOpts returns cache key options for union layout builds.
func (o *Options) UnionKeyOpts() cache.UnionKeyOpts {
	return cache.UnionKeyOpts{
		Interval: o.DownsampleInterval,
	}
}

// RenderKeyOpts returns cache key options for rendering one frame.
func (o *Options) RenderKeyOpts(index int) cache.RenderKeyOpts {
	return cache.RenderKeyOpts{
		Index:      index,
		FilterHash: o.FilterHash(),
		FocusID:    o.FocusID,
		Ghost:      o.GhostMode,
	}
}

// FocusEntityID returns the focus id as a typed entity id.
func (o *Options) FocusEntityID() snapshot.EntityID {
	return snapshot.EntityID(o.FocusID)
}
