package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/mtarnawa/signalgate/internal/contracts"
	"github.com/mtarnawa/signalgate/internal/scoring"
	"github.com/mtarnawa/signalgate/pkg/logger"
)

// RescoreJob recomputes scores for recent signals against the current
// active weights. Keeps stored scores comparable after a weight
// activation mid-week.
type RescoreJob struct {
	scorer  *scoring.Scorer
	signals contracts.SignalReader
	window  time.Duration
	logger  *logger.Logger
}

// NewRescoreJob creates a nightly rescore job over the given lookback
func NewRescoreJob(scorer *scoring.Scorer, signals contracts.SignalReader, windowDays int, log *logger.Logger) *RescoreJob {
	if windowDays <= 0 {
		windowDays = 7
	}
	return &RescoreJob{
		scorer:  scorer,
		signals: signals,
		window:  time.Duration(windowDays) * 24 * time.Hour,
		logger:  log,
	}
}

// Name returns the job name
func (j *RescoreJob) Name() string {
	return "nightly_rescore"
}

// Schedule runs daily at 02:00 UTC
func (j *RescoreJob) Schedule() string {
	return "0 0 2 * * *"
}

// Run rescores signals created inside the lookback window
func (j *RescoreJob) Run(ctx context.Context) error {
	from := time.Now().UTC().Add(-j.window)

	summary, err := j.scorer.BulkRescore(ctx, j.signals, contracts.SignalFilter{From: from})
	if err != nil {
		return fmt.Errorf("bulk rescore: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"total":   summary.Total,
		"scored":  summary.Scored,
		"version": summary.Version,
	}).Info("Nightly rescore completed")

	return nil
}
