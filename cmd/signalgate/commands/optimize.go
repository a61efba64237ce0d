package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mtarnawa/signalgate/internal/contracts"
)

// optimizeCmd represents the optimize command
var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Propose new factor weights from recent outcomes",
	Long: `Runs the weight optimizer over the recent closed-signal window and
prints the proposal. With --commit the proposal is stored and
activated.

Example:
  go run ./cmd/signalgate optimize
  go run ./cmd/signalgate optimize --window 60 --rate 0.05
  go run ./cmd/signalgate optimize --commit`,
	RunE: runOptimize,
}

var (
	optimizeWindow int
	optimizeRate   float64
	optimizeCommit bool
)

func init() {
	rootCmd.AddCommand(optimizeCmd)

	optimizeCmd.Flags().IntVar(&optimizeWindow, "window", 0, "lookback window in days (default from config)")
	optimizeCmd.Flags().Float64Var(&optimizeRate, "rate", 0, "learning rate (default from config)")
	optimizeCmd.Flags().BoolVar(&optimizeCommit, "commit", false, "store and activate the proposal")
}

func runOptimize(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	window := optimizeWindow
	if window <= 0 {
		window = a.cfg.Scoring.OptimizerWindow
	}
	rate := optimizeRate
	if rate <= 0 {
		rate = a.cfg.Scoring.OptimizerRate
	}

	proposal, err := a.optimizer.Propose(ctx, window, rate)
	if err != nil {
		return fmt.Errorf("propose weights: %w", err)
	}

	if proposal.Insufficient {
		fmt.Printf("Not enough data: %s (%d samples)\n", proposal.Reason, proposal.SampleSize)
		return nil
	}

	fmt.Printf("Window: %dd, samples: %d, win rate: %.1f%%, learning rate: %.2f\n",
		proposal.WindowDays, proposal.SampleSize, proposal.WinRate*100, proposal.LearningRate)
	fmt.Printf("Base config: %s\n\n", proposal.OldVersion)
	fmt.Printf("%-18s %8s %8s %8s\n", "factor", "old", "new", "corr")
	for _, name := range contracts.FactorNames {
		fmt.Printf("%-18s %8.4f %8.4f %+8.4f\n",
			name, proposal.OldWeights[name], proposal.NewWeights[name], proposal.Correlations[name])
	}

	if !optimizeCommit {
		fmt.Println("\nDry run. Re-run with --commit to activate.")
		return nil
	}

	cfg, err := a.optimizer.Commit(ctx, proposal)
	if err != nil {
		return fmt.Errorf("commit weights: %w", err)
	}

	fmt.Printf("\nActivated %s\n", cfg.Version)
	return nil
}
