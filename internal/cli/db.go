package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/storyforge/storyforge/internal/db"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Event journal management",
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply journal schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		journal, err := openJournal()
		if err != nil {
			return err
		}
		defer journal.Close()
		fmt.Fprintln(cmd.OutOrStdout(), "Journal schema is up to date.")
		return nil
	},
}

var dbResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Drop and recreate the event journal (destructive!)",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := db.DefaultDBPath()
		if err != nil {
			return err
		}
		journal, err := db.Open(path)
		if err != nil {
			return err
		}
		defer journal.Close()
		if err := journal.Reset(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Journal reset.")
		return nil
	},
}

var dbEventsCmd = &cobra.Command{
	Use:   "events [run-id]",
	Short: "Show the journal entries for a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		journal, err := openJournal()
		if err != nil {
			return err
		}
		defer journal.Close()

		events, err := journal.RunEvents(args[0])
		if err != nil {
			return err
		}
		if len(events) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No events recorded.")
			return nil
		}
		for _, e := range events {
			line := fmt.Sprintf("%s  %s", e.Timestamp, e.Event)
			if e.Phase != "" {
				line += "  phase=" + e.Phase
			}
			if e.Attempt > 0 {
				line += fmt.Sprintf("  attempt=%d", e.Attempt)
			}
			if e.Detail != "" {
				line += "  " + e.Detail
			}
			fmt.Fprintln(cmd.OutOrStdout(), line)
		}
		return nil
	},
}

func init() {
	dbCmd.AddCommand(dbMigrateCmd)
	dbCmd.AddCommand(dbResetCmd)
	dbCmd.AddCommand(dbEventsCmd)
}
