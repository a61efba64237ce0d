package scoring

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/mtarnawa/signalgate/internal/contracts"
	"github.com/mtarnawa/signalgate/pkg/logger"
)

// Scorer computes the explainable 0-100 quality score for a signal
// under a given weight config and persists the result.
//
// Scoring is deterministic for identical signal state, weight version
// and historical-signal snapshot. It is NOT deterministic across time:
// the rolling win-rate factor reads a trailing window, so re-scoring
// the same signal later can legitimately yield a different score.
type Scorer struct {
	extractor *Extractor
	weights   contracts.WeightStore
	scores    contracts.ScoreStore
	logger    *logger.Logger
}

// NewScorer creates a scorer
func NewScorer(extractor *Extractor, weights contracts.WeightStore, scores contracts.ScoreStore, log *logger.Logger) *Scorer {
	return &Scorer{
		extractor: extractor,
		weights:   weights,
		scores:    scores,
		logger:    log,
	}
}

// Score computes the score for a signal under the currently active
// weight config and upserts it. At most one score row exists per
// signal; rescoring overwrites.
func (s *Scorer) Score(ctx context.Context, sig *contracts.Signal) (*contracts.Score, error) {
	cfg, err := s.weights.Active(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load active weights: %w", err)
	}

	score := s.Compute(ctx, sig, cfg)

	if err := s.scores.Upsert(ctx, score); err != nil {
		return nil, fmt.Errorf("failed to persist score for signal %d: %w", sig.ID, err)
	}

	s.logger.WithFields(map[string]interface{}{
		"signal_id": sig.ID,
		"score":     score.Value,
		"label":     score.Label(),
		"weights":   cfg.Version,
	}).Debug("Signal scored")

	return score, nil
}

// Compute builds the score without persisting it: extract, normalize,
// aggregate, explain.
func (s *Scorer) Compute(ctx context.Context, sig *contracts.Signal, cfg *contracts.WeightConfig) *contracts.Score {
	extracted := s.extractor.Extract(ctx, sig)

	now := time.Now()
	score := &contracts.Score{
		SignalID:       sig.ID,
		WeightsVersion: cfg.Version,
		Breakdown:      make([]contracts.FactorBreakdown, 0, len(contracts.FactorNames)),
		Factors:        make(contracts.ScoreFactors, len(contracts.FactorNames)),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	total := 0.0
	for _, name := range contracts.FactorNames {
		fv := extracted[name]
		weight := cfg.Weights[name]
		contribution := weight * fv.Normalized
		total += contribution

		score.Factors[name] = fv.Normalized
		score.Breakdown = append(score.Breakdown, contracts.FactorBreakdown{
			Factor:       name,
			RawValue:     fv.Raw,
			Normalized:   fv.Normalized,
			Weight:       weight,
			Contribution: contribution,
			Explanation:  factorExplanations[name],
		})
	}

	score.Value = clampScore(int(math.Round(total * 100)))
	return score
}

// clampScore bounds a score value to [0, 100]
func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// RescoreSummary reports the result of a bulk rescore run
type RescoreSummary struct {
	Total   int    `json:"total"`
	Scored  int    `json:"scored"`
	Version string `json:"version"`
}

// BulkRescore re-scores every signal matching the filter under the
// currently active weights. Idempotent: scores are overwritten, never
// appended. Per-signal failures are logged and skipped so one bad row
// cannot abort the batch.
func (s *Scorer) BulkRescore(ctx context.Context, reader contracts.SignalReader, f contracts.SignalFilter) (*RescoreSummary, error) {
	cfg, err := s.weights.Active(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load active weights: %w", err)
	}

	ids, err := reader.ListIDs(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list signals for rescore: %w", err)
	}

	summary := &RescoreSummary{Total: len(ids), Version: cfg.Version}

	s.logger.WithFields(map[string]interface{}{
		"total":   len(ids),
		"weights": cfg.Version,
	}).Info("Starting bulk rescore")

	for _, id := range ids {
		sig, err := reader.GetByID(ctx, id)
		if err != nil {
			s.logger.WithFields(map[string]interface{}{
				"signal_id": id,
				"error":     err.Error(),
			}).Warn("Failed to load signal for rescore")
			continue
		}

		score := s.Compute(ctx, sig, cfg)
		if err := s.scores.Upsert(ctx, score); err != nil {
			s.logger.WithFields(map[string]interface{}{
				"signal_id": id,
				"error":     err.Error(),
			}).Warn("Failed to persist rescored signal")
			continue
		}

		summary.Scored++
	}

	s.logger.WithFields(map[string]interface{}{
		"total":  summary.Total,
		"scored": summary.Scored,
		"failed": summary.Total - summary.Scored,
	}).Info("Bulk rescore completed")

	return summary, nil
}
