package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	common commonFlags
	frame  int    // frame index, -1 for the last frame
	output string // output file path, empty for stdout
	focus  string // entity id to focus on
	ghost  bool   // draw union-only entities as ghosts
}

// renderCommand creates the render command. It builds (or loads) the union
// layout for the recording and writes one positioned frame as JSON.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render <recording>",
		Short: "Render one frame of a recording as positioned JSON",
		Long: `Render builds the union layout for a recording and projects one frame
onto it. The recording is a directory of frame-NNNN.json files or an
http(s) recorder URL. Output is a JSON document with positioned nodes
and routed edges, suitable for a UI to draw directly.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), args[0], &opts)
		},
	}

	addCommonFlags(cmd, &opts.common)
	cmd.Flags().IntVarP(&opts.frame, "frame", "f", -1, "frame index to render (-1 for the last frame)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&opts.focus, "focus", "", "restrict output to this entity and its direct neighbors")
	cmd.Flags().BoolVar(&opts.ghost, "ghost", false, "draw union entities absent from the frame as ghosts")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, recording string, opts *renderOpts) error {
	pOpts, err := c.buildOptions(recording, &opts.common)
	if err != nil {
		return err
	}
	pOpts.FocusID = opts.focus
	pOpts.GhostMode = opts.ghost

	runner, err := c.newRunner(recording, opts.common.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	p := newProgress(c.Logger)
	u, cached, err := c.buildUnion(ctx, runner, pOpts)
	if err != nil {
		return err
	}
	c.Logger.Debug("union layout ready",
		"processed", len(u.ProcessedFrameIndices),
		"entities", len(u.UnionEntities),
		"cached", cached)

	index := opts.frame
	if index < 0 {
		index = u.ProcessedFrameIndices[len(u.ProcessedFrameIndices)-1]
	}

	g, frameCached, err := runner.RenderFrame(ctx, index, u, pOpts)
	if err != nil {
		return err
	}
	p.done(fmt.Sprintf("Rendered frame %d (snapped to %d)", g.RequestedIndex, g.SnappedIndex))

	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return err
	}

	if opts.output == "" {
		fmt.Println(string(data))
		return nil
	}
	if err := os.WriteFile(opts.output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}

	printSuccess("Rendered frame %d", g.SnappedIndex)
	printFile(opts.output)
	printStats(len(g.Nodes), len(g.Edges), frameCached)
	return nil
}
