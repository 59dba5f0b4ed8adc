package cli

import (
	"github.com/spf13/cobra"
)

var version = "dev"

func SetVersion(v string) {
	version = v
}

var configFile string

var rootCmd = &cobra.Command{
	Use:   "storyforge",
	Short: "A multi-agent pulp fiction generator",
	Long: `storyforge drives a pipeline of role-specialized model agents
(researcher, worldbuilder, character creator, plotter, writer, editor)
to generate genre fiction chapter by chapter.

Every run checkpoints after each phase, so an interrupted or failed run
resumes from the last completed phase. State lives in ~/.storyforge/
(JSON snapshots per run, SQLite for the event journal).`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "path to storyforge config file")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(continueCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(cancelCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(dbCmd)
}
