package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var resumeCmd = &cobra.Command{
	Use:   "resume [run-id]",
	Short: "Resume a failed or suspended run",
	Long: `Resume restores the run's last checkpoint and executes only the
phases that have no artifact yet. Resuming an already completed run does
nothing and reports the existing result.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		coord, cleanup, err := newCoordinator()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		out, err := coord.Resume(ctx, args[0])
		if err != nil {
			return err
		}
		printOutcome(cmd, out)
		return nil
	},
}
