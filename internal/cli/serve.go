package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	mongoopts "go.mongodb.org/mongo-driver/mongo/options"

	"github.com/snarldev/snarl/internal/api"
	"github.com/snarldev/snarl/pkg/cache"
	"github.com/snarldev/snarl/pkg/layout"
	"github.com/snarldev/snarl/pkg/layout/graphviz"
	"github.com/snarldev/snarl/pkg/pipeline"
	"github.com/snarldev/snarl/pkg/source"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	common   commonFlags
	addr     string // listen address
	redisURL string // shared cache backend, empty for the local file cache
	mongoURI string // recording storage backend, empty for dir/http sources
	mongoDB  string // database name when mongoURI is set
}

// serveCommand creates the serve command, which exposes one recording over
// HTTP. With --mongo-uri the recording argument names a recording stored in
// Mongo; otherwise it is a directory or recorder URL as with render.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve <recording>",
		Short: "Serve a recording's frames and change index over HTTP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), args[0], &opts)
		},
	}

	addCommonFlags(cmd, &opts.common)
	cmd.Flags().StringVar(&opts.addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&opts.redisURL, "redis-url", "", "redis:// URL for a shared cache")
	cmd.Flags().StringVar(&opts.mongoURI, "mongo-uri", "", "mongodb:// URI for recording storage")
	cmd.Flags().StringVar(&opts.mongoDB, "mongo-db", "snarl", "database name when --mongo-uri is set")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, recording string, opts *serveOpts) error {
	pOpts, err := c.buildOptions(recording, &opts.common)
	if err != nil {
		return err
	}

	src, cleanup, err := c.serveSource(ctx, recording, opts)
	if err != nil {
		return err
	}
	defer cleanup()

	store, err := c.serveCache(ctx, opts)
	if err != nil {
		return err
	}

	runner := pipeline.NewRunner(graphviz.New(), src, store, nil, c.Logger)
	defer runner.Close()

	// Warm the union layout before accepting traffic so the first request
	// does not pay for the build.
	u, cached, err := c.buildUnion(ctx, runner, pOpts)
	if err != nil {
		return err
	}
	c.Logger.Info("union layout ready",
		"processed", len(u.ProcessedFrameIndices),
		"entities", len(u.UnionEntities),
		"cached", cached)

	srv, err := api.New(runner, pOpts, c.Logger)
	if err != nil {
		return err
	}

	httpSrv := &http.Server{
		Addr:              opts.addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	printSuccess("Serving %s on %s", recording, opts.addr)
	if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// serveSource resolves the frame source for serving. The cleanup function
// disconnects the Mongo client when one was opened.
func (c *CLI) serveSource(ctx context.Context, recording string, opts *serveOpts) (layout.FrameSource, func(), error) {
	if opts.mongoURI == "" {
		src, err := newSource(recording)
		return src, func() {}, err
	}

	client, err := mongo.Connect(ctx, mongoopts.Client().ApplyURI(opts.mongoURI))
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(disconnectCtx)
	}
	src, err := source.NewMongoSource(client, opts.mongoDB, recording)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return src, cleanup, nil
}

// serveCache picks the cache backend: Redis when configured, otherwise the
// local file cache (or none).
func (c *CLI) serveCache(ctx context.Context, opts *serveOpts) (cache.Cache, error) {
	if opts.redisURL != "" {
		return cache.NewRedisCacheFromURL(ctx, opts.redisURL)
	}
	return newCache(opts.common.noCache)
}
