package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mtarnawa/signalgate/internal/contracts"
)

// weightsCmd represents the weights command
var weightsCmd = &cobra.Command{
	Use:   "weights",
	Short: "Inspect and manage weight configs",
}

// weightsListCmd lists all stored configs
var weightsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored weight configs",
	RunE:  runWeightsList,
}

// weightsActiveCmd shows the active config
var weightsActiveCmd = &cobra.Command{
	Use:   "active",
	Short: "Show the active weight config",
	RunE:  runWeightsActive,
}

// weightsActivateCmd activates a stored version
var weightsActivateCmd = &cobra.Command{
	Use:   "activate <version>",
	Short: "Activate a stored weight config",
	Args:  cobra.ExactArgs(1),
	RunE:  runWeightsActivate,
}

func init() {
	rootCmd.AddCommand(weightsCmd)
	weightsCmd.AddCommand(weightsListCmd)
	weightsCmd.AddCommand(weightsActiveCmd)
	weightsCmd.AddCommand(weightsActivateCmd)
}

func runWeightsList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	configs, err := a.weights.List(ctx)
	if err != nil {
		return fmt.Errorf("list weight configs: %w", err)
	}

	for i := range configs {
		cfg := &configs[i]
		marker := " "
		if cfg.Active {
			marker = "*"
		}
		fmt.Printf("%s %-22s min=%d  %s\n", marker, cfg.Version, cfg.MinScore, cfg.Notes)
	}

	return nil
}

func runWeightsActive(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	cfg, err := a.weights.Active(ctx)
	if err != nil {
		return fmt.Errorf("load active config: %w", err)
	}

	printWeightConfig(cfg)
	return nil
}

func runWeightsActivate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	version := args[0]
	if err := a.weights.Activate(ctx, version); err != nil {
		return fmt.Errorf("activate %s: %w", version, err)
	}

	fmt.Printf("Activated %s\n", version)
	return nil
}

func printWeightConfig(cfg *contracts.WeightConfig) {
	fmt.Printf("Version:   %s\n", cfg.Version)
	fmt.Printf("Min score: %d\n", cfg.MinScore)
	if cfg.Notes != "" {
		fmt.Printf("Notes:     %s\n", cfg.Notes)
	}
	fmt.Println("Weights:")
	for _, name := range contracts.FactorNames {
		fmt.Printf("  %-18s %.4f\n", name, cfg.Weights[name])
	}
}
