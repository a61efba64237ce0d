package commands

import (
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "signalgate",
	Short: "Explainable signal scoring and validation gate",
	Long: `SignalGate scores incoming trade signals against weighted quality
factors, validates them through news, prop-rule, score and strategy
filters, and tunes its own factor weights from realized outcomes.

Usage:
  go run ./cmd/signalgate [command]

Examples:
  go run ./cmd/signalgate serve
  go run ./cmd/signalgate evaluate 1042
  go run ./cmd/signalgate weights list
  go run ./cmd/signalgate optimize --commit`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}
