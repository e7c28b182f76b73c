package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// diffCommand creates the diff command, which prints the change index of a
// recording: which processed frames changed and by how much.
func (c *CLI) diffCommand() *cobra.Command {
	var flags commonFlags

	cmd := &cobra.Command{
		Use:   "diff <recording>",
		Short: "Show which frames of a recording changed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDiff(cmd.Context(), args[0], &flags)
		},
	}

	addCommonFlags(cmd, &flags)
	return cmd
}

func (c *CLI) runDiff(ctx context.Context, recording string, flags *commonFlags) error {
	opts, err := c.buildOptions(recording, flags)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(recording, flags.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	u, cached, err := c.buildUnion(ctx, runner, opts)
	if err != nil {
		return err
	}

	summaries, changeFrames, err := runner.Changes(u)
	if err != nil {
		return err
	}

	printInfo("%s", StyleTitle.Render(recording))
	printKeyValue("frames", fmt.Sprintf("%d processed (interval %d)", len(u.ProcessedFrameIndices), u.DownsampleInterval))
	printKeyValue("changes", fmt.Sprintf("%d", len(changeFrames)))
	printStats(len(u.UnionEntities), len(u.UnionEdges), cached)
	printNewline()

	if len(changeFrames) == 0 {
		printDetail("recording is static: no entity or edge changes between processed frames")
		return nil
	}

	for _, idx := range changeFrames {
		s := summaries[idx]
		var parts []string
		if s.EntitiesAdded > 0 {
			parts = append(parts, StyleSuccess.Render(fmt.Sprintf("+%d entities", s.EntitiesAdded)))
		}
		if s.EntitiesRemoved > 0 {
			parts = append(parts, StyleDanger.Render(fmt.Sprintf("-%d entities", s.EntitiesRemoved)))
		}
		if s.EdgesAdded > 0 {
			parts = append(parts, StyleSuccess.Render(fmt.Sprintf("+%d edges", s.EdgesAdded)))
		}
		if s.EdgesRemoved > 0 {
			parts = append(parts, StyleDanger.Render(fmt.Sprintf("-%d edges", s.EdgesRemoved)))
		}
		fmt.Printf("  %s %s\n",
			StyleHighlight.Render(fmt.Sprintf("frame %4d", idx)),
			strings.Join(parts, StyleDim.Render(" · ")))
	}
	return nil
}
