package main

import (
	"github.com/spf13/cobra"
)

const configFlag = "config"

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "releasewatch",
		Short: "Watch GitHub releases and Plausible stats, push changes to ntfy",
		Long: `releasewatch polls the latest release of configured GitHub repositories and the daily
aggregate stats of configured Plausible sites, and pushes a notification to ntfy whenever
something new shows up. The serve command runs the scheduler together with the web interface.`,
		Example:      "releasewatch serve --config config.yaml",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringP(configFlag, "c", "", "Path to the YAML/JSON configuration file (default: search standard locations)")

	cmd.AddCommand(
		newServeCmd(),
		newCheckCmd(),
		newStatusCmd(),
		newSitesCmd(),
		newUserCmd(),
	)
	return cmd
}

func configPathFrom(cmd *cobra.Command) string {
	path, _ := cmd.Flags().GetString(configFlag)
	return path
}
