package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/storyforge/storyforge/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export [run-id]",
	Short: "Export a completed story",
	Long: `Export renders the run's final chapter in the requested format
(` + strings.Join(export.Formats(), ", ") + `) to stdout or a file.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		coord, cleanup, err := newCoordinator()
		if err != nil {
			return err
		}
		defer cleanup()

		st, final, err := coord.Final(args[0])
		if err != nil {
			return err
		}

		format, _ := cmd.Flags().GetString("format")
		outPath, _ := cmd.Flags().GetString("out")

		if outPath == "" {
			return export.Export(cmd.OutOrStdout(), format, st, final)
		}

		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create %s: %w", outPath, err)
		}
		defer f.Close()
		if err := export.Export(f, format, st, final); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s\n", args[0], outPath)
		return nil
	},
}

func init() {
	exportCmd.Flags().String("format", "markdown", "output format: "+strings.Join(export.Formats(), ", "))
	exportCmd.Flags().String("out", "", "write to file instead of stdout")
}
