// Command memcurve evaluates the memory model from the command line and
// replays acceptance scenarios against a parameter table.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "memcurve",
		Short: "Memory model calculator for spaced repetition",
		Long: `memcurve predicts how recall probability decays after a review and
how long to wait before the next one to hit a target retention.

Settings are read from --config (YAML), MEMCURVE_* environment variables
and flags, in increasing precedence.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format (text, json)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "memcurve v%s (%s)\n", version, commit)
		},
	})

	rootCmd.AddCommand(
		newSimulateCmd(),
		newIntervalCmd(),
		newRetrievabilityCmd(),
		newVerifyCmd(),
		newParamsCmd(),
		newRunsCmd(),
	)
	return rootCmd
}
