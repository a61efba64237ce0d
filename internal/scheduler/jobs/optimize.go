package jobs

import (
	"context"
	"fmt"

	"github.com/mtarnawa/signalgate/internal/optimizer"
	"github.com/mtarnawa/signalgate/pkg/config"
	"github.com/mtarnawa/signalgate/pkg/logger"
)

// OptimizeWeightsJob runs the weight optimizer over the recent
// outcome window. Proposals are committed only when auto-commit is
// enabled; otherwise they are logged for manual review through the
// API.
type OptimizeWeightsJob struct {
	optimizer *optimizer.Optimizer
	config    *config.Config
	logger    *logger.Logger
}

// NewOptimizeWeightsJob creates a weight optimization job
func NewOptimizeWeightsJob(opt *optimizer.Optimizer, cfg *config.Config, log *logger.Logger) *OptimizeWeightsJob {
	return &OptimizeWeightsJob{
		optimizer: opt,
		config:    cfg,
		logger:    log,
	}
}

// Name returns the job name
func (j *OptimizeWeightsJob) Name() string {
	return "optimize_weights"
}

// Schedule runs weekly, Sunday 03:00 UTC, before the trading week opens
func (j *OptimizeWeightsJob) Schedule() string {
	return "0 0 3 * * 0"
}

// Run proposes new weights and optionally activates them
func (j *OptimizeWeightsJob) Run(ctx context.Context) error {
	proposal, err := j.optimizer.Propose(ctx,
		j.config.Scoring.OptimizerWindow, j.config.Scoring.OptimizerRate)
	if err != nil {
		return fmt.Errorf("propose weights: %w", err)
	}

	if proposal.Insufficient {
		j.logger.WithFields(map[string]interface{}{
			"samples": proposal.SampleSize,
			"reason":  proposal.Reason,
		}).Info("Skipping weight optimization")
		return nil
	}

	j.logger.WithFields(map[string]interface{}{
		"samples":  proposal.SampleSize,
		"win_rate": proposal.WinRate,
		"old":      proposal.OldVersion,
	}).Info("Weight proposal computed")

	if !j.config.Scoring.AutoCommitWeights {
		j.logger.Info("Auto-commit disabled, proposal not activated")
		return nil
	}

	cfg, err := j.optimizer.Commit(ctx, proposal)
	if err != nil {
		return fmt.Errorf("commit weights: %w", err)
	}

	j.logger.WithField("version", cfg.Version).Info("New weights activated")
	return nil
}
