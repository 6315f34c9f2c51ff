// Package cli implements the ottowrite command tree: serving the API,
// running analytics workers, and managing jobs and snapshot bundles.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/tempandmajor/ottowrite-sub007/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "ottowrite",
	Short: "Document snapshot and writing-analytics service",
	Long: `ottowrite tracks document content over time: fingerprinted snapshots,
autosave conflict detection, and a queue of background analytics jobs
(velocity, structure, summaries) over the snapshot history.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var configPath string

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (overrides the default lookup)")
}

func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}
