package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/storyforge/storyforge/internal/run"
	"github.com/storyforge/storyforge/internal/story"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new story",
	Long: `Generate runs the full pipeline for a new story. Interrupting with
Ctrl-C suspends the run at the next phase boundary; resume it later with
'storyforge resume'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		genre, _ := cmd.Flags().GetString("genre")
		title, _ := cmd.Flags().GetString("title")
		rawInputs, _ := cmd.Flags().GetStringArray("input")

		inputs, err := parseInputs(rawInputs)
		if err != nil {
			return err
		}

		coord, cleanup, err := newCoordinator()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		out, err := coord.Start(ctx, run.StartOpts{
			Genre:        genre,
			Title:        title,
			CustomInputs: inputs,
		})
		if err != nil {
			return err
		}
		printOutcome(cmd, out)
		return nil
	},
}

func printOutcome(cmd *cobra.Command, out *run.Outcome) {
	w := cmd.OutOrStdout()
	switch out.Status {
	case story.StatusCompleted:
		fmt.Fprintf(w, "Run %s completed (%d words).\n", out.RunID, out.WordCount)
		fmt.Fprintf(w, "Export it with: storyforge export %s\n", out.RunID)
	case story.StatusFailed:
		fmt.Fprintf(w, "Run %s failed. Inspect with: storyforge status %s\n", out.RunID, out.RunID)
		fmt.Fprintf(w, "Retry the failed phase with: storyforge resume %s\n", out.RunID)
	case story.StatusSuspended:
		fmt.Fprintf(w, "Run %s suspended. Pick it up with: storyforge resume %s\n", out.RunID, out.RunID)
	default:
		fmt.Fprintf(w, "Run %s is %s.\n", out.RunID, out.Status)
	}
}

func init() {
	generateCmd.Flags().String("genre", "", "story genre, e.g. noir, sci-fi, adventure (required)")
	generateCmd.Flags().String("title", "", "story title")
	generateCmd.Flags().StringArray("input", nil, "custom story element as key=value (repeatable)")
	_ = generateCmd.MarkFlagRequired("genre")
}
