package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status [run-id]",
	Short: "Show the status of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		coord, cleanup, err := newCoordinator()
		if err != nil {
			return err
		}
		defer cleanup()

		info, err := coord.Status(args[0])
		if err != nil {
			return err
		}

		format, _ := cmd.Flags().GetString("format")
		if format == "json" {
			data, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal json: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Run:       %s\n", info.RunID)
		fmt.Fprintf(w, "Genre:     %s\n", info.Genre)
		if info.Title != "" {
			fmt.Fprintf(w, "Title:     %s\n", info.Title)
		}
		fmt.Fprintf(w, "Chapter:   %d\n", info.Chapter)
		fmt.Fprintf(w, "Status:    %s\n", info.Status)
		fmt.Fprintf(w, "Completed: %s\n", joinOrDash(info.Completed))
		fmt.Fprintf(w, "Pending:   %s\n", joinOrDash(info.Pending))
		if info.FailurePhase != "" {
			fmt.Fprintf(w, "Failure:   %s (%s)\n", info.FailurePhase, info.FailureKind)
		}
		if info.WordCount > 0 {
			fmt.Fprintf(w, "Words:     %d\n", info.WordCount)
		}
		if info.SeedRunID != "" {
			fmt.Fprintf(w, "Seeded by: %s\n", info.SeedRunID)
		}
		return nil
	},
}

func joinOrDash(ids []string) string {
	if len(ids) == 0 {
		return "-"
	}
	return strings.Join(ids, ", ")
}

func init() {
	statusCmd.Flags().String("format", "text", "Output format: text or json")
}
