// Package cmd implements the hierlog command line.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "hierlog",
	Short: "Hierarchical logger with file rotation and remote delivery",
	Long: `hierlog routes log lines through a named logger configured from a
YAML file: console and midnight-rotated file output, a status line, and
optional delivery to a remote ingestion service over HTTP or NATS.

The configuration file is watched while running, so edits are applied to
the live logger.`,
	SilenceUsage: true,
}

var cfgFile string

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default is $HOME/.config/hierlog/hierlog.yaml or ./hierlog.yaml)")
}
