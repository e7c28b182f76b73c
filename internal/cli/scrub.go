package cli

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/snarldev/snarl/pkg/render"
)

// scrubCommand creates the scrub command: an interactive terminal scrubber
// over the processed frames of a recording.
func (c *CLI) scrubCommand() *cobra.Command {
	var flags commonFlags
	var focus string
	var ghost bool

	cmd := &cobra.Command{
		Use:   "scrub <recording>",
		Short: "Scrub through a recording interactively",
		Long: `Scrub builds the union layout for a recording and opens a terminal
scrubber over its processed frames. Change frames are marked on the
slider; a deadlock indicator lights up when the current frame contains
a wait-for cycle.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runScrub(cmd.Context(), args[0], &flags, focus, ghost)
		},
	}

	addCommonFlags(cmd, &flags)
	cmd.Flags().StringVar(&focus, "focus", "", "restrict view to this entity and its direct neighbors")
	cmd.Flags().BoolVar(&ghost, "ghost", false, "draw union entities absent from the frame as ghosts")

	return cmd
}

func (c *CLI) runScrub(ctx context.Context, recording string, flags *commonFlags, focus string, ghost bool) error {
	opts, err := c.buildOptions(recording, flags)
	if err != nil {
		return err
	}
	opts.FocusID = focus
	opts.GhostMode = ghost

	runner, err := c.newRunner(recording, flags.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	u, _, err := c.buildUnion(ctx, runner, opts)
	if err != nil {
		return err
	}
	summaries, changes, err := runner.Changes(u)
	if err != nil {
		return err
	}

	model := newScrubModel(recording, u, render.Options{
		Filter:    opts.Filter,
		FocusID:   opts.FocusEntityID(),
		GhostMode: ghost,
	}, summaries, changes)

	_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
