package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var continueCmd = &cobra.Command{
	Use:   "continue [run-id]",
	Short: "Generate the next chapter of a completed story",
	Long: `Continue starts a fresh run seeded with the given run's finished
chapter, so every agent sees the previous chapter as context. The new run
gets its own id; the original run is left untouched.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		coord, cleanup, err := newCoordinator()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		out, err := coord.Continue(ctx, args[0])
		if err != nil {
			return err
		}
		printOutcome(cmd, out)
		return nil
	},
}
