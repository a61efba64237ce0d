package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mtarnawa/signalgate/internal/contracts"
)

// rescoreCmd represents the rescore command
var rescoreCmd = &cobra.Command{
	Use:   "rescore",
	Short: "Recompute scores for stored signals",
	Long: `Recomputes scores against the active weight config for every
signal matching the filter flags.

Example:
  go run ./cmd/signalgate rescore
  go run ./cmd/signalgate rescore --strategy "Trend Following" --days 30`,
	RunE: runRescore,
}

var (
	rescoreStrategy  string
	rescoreSymbol    string
	rescoreTimeframe string
	rescoreDays      int
)

func init() {
	rootCmd.AddCommand(rescoreCmd)

	rescoreCmd.Flags().StringVar(&rescoreStrategy, "strategy", "", "only this strategy")
	rescoreCmd.Flags().StringVar(&rescoreSymbol, "symbol", "", "only this symbol")
	rescoreCmd.Flags().StringVar(&rescoreTimeframe, "timeframe", "", "only this timeframe")
	rescoreCmd.Flags().IntVar(&rescoreDays, "days", 0, "only signals from the last N days (0 = all)")
}

func runRescore(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	filter := contracts.SignalFilter{
		Strategy:  rescoreStrategy,
		Symbol:    rescoreSymbol,
		Timeframe: rescoreTimeframe,
	}
	if rescoreDays > 0 {
		filter.From = time.Now().UTC().AddDate(0, 0, -rescoreDays)
	}

	summary, err := a.scorer.BulkRescore(ctx, a.signals, filter)
	if err != nil {
		return fmt.Errorf("rescore: %w", err)
	}

	fmt.Printf("Rescored %d/%d signals against weights %s\n",
		summary.Scored, summary.Total, summary.Version)

	return nil
}
