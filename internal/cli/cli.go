// Package cli implements the snarl command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/snarldev/snarl/pkg/buildinfo"
	"github.com/snarldev/snarl/pkg/cache"
	"github.com/snarldev/snarl/pkg/layout"
	"github.com/snarldev/snarl/pkg/layout/graphviz"
	"github.com/snarldev/snarl/pkg/pipeline"
	"github.com/snarldev/snarl/pkg/source"
	"github.com/snarldev/snarl/pkg/visibility"
)

// appName is the application name used for directories and display.
const appName = "snarl"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "snarl",
		Short:        "Snarl renders concurrency recordings as stable graph timelines",
		Long:         `Snarl normalizes per-process concurrency snapshots into a unified graph, lays the whole recording out once, and lets you scrub, render, and diff any frame against that stable geometry.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.scrubCommand())
	root.AddCommand(c.diffCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Common flags
// =============================================================================

// commonFlags are the pipeline flags shared by render, scrub, diff, and
// serve.
type commonFlags struct {
	interval int    // downsample interval (every k-th frame)
	workers  int    // concurrent frame fetches
	filters  string // path to a TOML filter preset
	noCache  bool   // disable the local cache
	refresh  bool   // bypass cached artifacts
}

func addCommonFlags(cmd *cobra.Command, f *commonFlags) {
	cmd.Flags().IntVarP(&f.interval, "interval", "i", pipeline.DefaultDownsampleInterval, "process every k-th frame (first and last always included)")
	cmd.Flags().IntVar(&f.workers, "workers", pipeline.DefaultWorkers, "concurrent frame fetches during a build")
	cmd.Flags().StringVar(&f.filters, "filters", "", "TOML filter preset file")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable the local cache")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "rebuild even when a cached layout exists")
}

// buildOptions assembles pipeline options from a recording reference and the
// common flags, loading the filter preset if one was given.
func (c *CLI) buildOptions(recording string, f *commonFlags) (pipeline.Options, error) {
	opts := pipeline.Options{
		Recording:          recording,
		DownsampleInterval: f.interval,
		Workers:            f.workers,
		Refresh:            f.refresh,
		Logger:             c.Logger,
	}
	if f.filters != "" {
		spec, err := visibility.LoadFilterSpec(f.filters)
		if err != nil {
			return pipeline.Options{}, err
		}
		opts.Filter = spec
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return pipeline.Options{}, err
	}
	return opts, nil
}

// =============================================================================
// Runner factory
// =============================================================================

// newRunner creates a pipeline runner for a recording reference.
func (c *CLI) newRunner(recording string, noCache bool) (*pipeline.Runner, error) {
	src, err := newSource(recording)
	if err != nil {
		return nil, err
	}
	store, err := newCache(noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(graphviz.New(), src, store, nil, c.Logger), nil
}

// newSource resolves a recording reference into a frame source. An http(s)
// URL becomes an HTTP source with retry; anything else is treated as a
// recording directory.
func newSource(recording string) (layout.FrameSource, error) {
	if strings.HasPrefix(recording, "http://") || strings.HasPrefix(recording, "https://") {
		return source.NewHTTPSource(recording, 0)
	}
	return source.NewDirSource(recording)
}

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// cacheDir returns the cache directory using XDG standard (~/.cache/snarl/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Build helper
// =============================================================================

// buildUnion runs a union build behind a spinner that tracks fetch progress.
func (c *CLI) buildUnion(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options) (*layout.UnionLayout, bool, error) {
	sp := newSpinnerWithContext(ctx, "Building union layout")
	sp.Start()
	u, cached, err := runner.BuildUnion(ctx, opts, func(loaded, total int) {
		sp.UpdateMessage("Building union layout (%d/%d frames)", loaded, total)
	})
	sp.Stop()
	return u, cached, err
}
