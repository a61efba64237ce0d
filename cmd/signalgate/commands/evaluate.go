package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mtarnawa/signalgate/internal/contracts"
)

// evaluateCmd represents the evaluate command
var evaluateCmd = &cobra.Command{
	Use:   "evaluate <signal-id>",
	Short: "Run a signal through the validation pipeline",
	Long: `Scores a signal and runs it through the news, prop, score and
strategy filters, then prints the verdict.

Example:
  go run ./cmd/signalgate evaluate 1042`,
	Args: cobra.ExactArgs(1),
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid signal id %q", args[0])
	}

	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sig, err := a.signals.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load signal: %w", err)
	}

	eval, err := a.pipeline.Evaluate(ctx, sig)
	if err != nil {
		return fmt.Errorf("evaluate signal: %w", err)
	}

	verdict := "BLOCKED"
	if eval.Passed {
		verdict = "PASSED"
	}

	fmt.Printf("Signal %d (%s %s %s): %s\n", sig.ID, sig.Symbol, sig.Timeframe, sig.Strategy, verdict)
	fmt.Printf("  score:    %d (%s)\n", eval.Score, contracts.ScoreLabel(eval.Score))
	fmt.Printf("  reason:   %s\n", eval.BlockedReason)
	fmt.Printf("  news:     %v\n", eval.NewsOK)
	fmt.Printf("  prop:     %v\n", eval.PropOK)
	fmt.Printf("  score ok: %v\n", eval.ScoreOK)
	fmt.Printf("  strategy: %v\n", eval.StrategyOK)
	if eval.Notes != "" {
		fmt.Printf("  notes:    %s\n", eval.Notes)
	}

	return nil
}
