package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cancelCmd = &cobra.Command{
	Use:   "cancel [run-id]",
	Short: "Suspend a pending or in-progress run",
	Long: `Cancel marks the run suspended so its checkpoint stays intact.
A suspended run can be picked up later with 'storyforge resume'.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		coord, cleanup, err := newCoordinator()
		if err != nil {
			return err
		}
		defer cleanup()

		if err := coord.Cancel(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Run %s suspended.\n", args[0])
		return nil
	},
}
