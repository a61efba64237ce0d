package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status",
	Long: `Checks the database and cache connections and prints the active
weight config.

Example:
  go run ./cmd/signalgate status`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	health, err := a.db.HealthCheck(ctx)
	if err != nil {
		fmt.Println("database:  DOWN")
		return fmt.Errorf("database health check: %w", err)
	}
	fmt.Printf("database:  ok (%d/%d connections in use, ping %v)\n",
		health.Stats.AcquiredConns, health.Stats.TotalConns, health.ResponseTime)

	if a.cache.Enabled() {
		if err := a.cache.Redis().Ping(ctx).Err(); err != nil {
			fmt.Println("redis:     DOWN")
		} else {
			fmt.Println("redis:     ok")
		}
	} else {
		fmt.Println("redis:     disabled")
	}

	cfg, err := a.weights.Active(ctx)
	if err != nil {
		return fmt.Errorf("load active weights: %w", err)
	}

	fmt.Println()
	printWeightConfig(cfg)

	return nil
}
