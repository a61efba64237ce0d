package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mtarnawa/signalgate/internal/scheduler"
	"github.com/mtarnawa/signalgate/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run the background job scheduler",
	Long: `Starts the cron scheduler with the background jobs:

  news_sync         - hourly economic calendar refresh
  optimize_weights  - weekly weight optimization (Sunday 03:00 UTC)
  nightly_rescore   - daily rescore of recent signals (02:00 UTC)

Example:
  go run ./cmd/signalgate scheduler
  go run ./cmd/signalgate scheduler --run-now news_sync`,
	RunE: runScheduler,
}

var schedulerRunNow string

func init() {
	rootCmd.AddCommand(schedulerCmd)

	schedulerCmd.Flags().StringVar(&schedulerRunNow, "run-now", "", "trigger a job immediately on startup")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sched := scheduler.New(a.logger)

	jobList := []scheduler.Job{
		jobs.NewNewsSyncJob(a.calendar, a.news, a.logger),
		jobs.NewOptimizeWeightsJob(a.optimizer, a.cfg, a.logger),
		jobs.NewRescoreJob(a.scorer, a.signals, 7, a.logger),
	}
	for _, job := range jobList {
		if err := sched.AddJob(job); err != nil {
			return fmt.Errorf("register job: %w", err)
		}
	}

	sched.Start()
	defer sched.Stop()

	if schedulerRunNow != "" {
		if err := sched.RunJob(schedulerRunNow); err != nil {
			return fmt.Errorf("run job now: %w", err)
		}
	}

	fmt.Println("Scheduler running. Press Ctrl+C to stop")
	for _, job := range jobList {
		fmt.Printf("  %-18s %s\n", job.Name(), job.Schedule())
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	return nil
}
