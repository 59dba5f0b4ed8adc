package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/storyforge/storyforge/internal/story"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		coord, cleanup, err := newCoordinator()
		if err != nil {
			return err
		}
		defer cleanup()

		statusFilter, _ := cmd.Flags().GetString("status")
		runs, err := coord.List(story.Status(statusFilter))
		if err != nil {
			return fmt.Errorf("list runs: %w", err)
		}

		if len(runs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No runs found.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "RUN\tSTATUS\tGENRE\tCH\tWORDS\tCREATED\tTITLE")
		for _, st := range runs {
			title := st.Title
			if len(title) > 40 {
				title = title[:37] + "..."
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
				st.RunID, st.Status, st.Genre, st.Chapter, st.WordCount, st.CreatedAt, title)
		}
		return w.Flush()
	},
}

func init() {
	listCmd.Flags().String("status", "", "filter by status: pending, in_progress, completed, failed, suspended")
}
