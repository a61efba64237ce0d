package pipeline

import (
	"context"
	"fmt"

	"github.com/mtarnawa/signalgate/internal/contracts"
	"github.com/mtarnawa/signalgate/pkg/logger"
)

// SignalScorer computes and persists a quality score for a signal.
type SignalScorer interface {
	Score(ctx context.Context, sig *contracts.Signal) (*contracts.Score, error)
}

// ScoreFilter scores the signal and blocks it when the value falls
// below the hard minimum. The active weight config's MinScore is
// advisory: scores under it are noted on the outcome but still pass.
type ScoreFilter struct {
	scorer  SignalScorer
	weights contracts.WeightStore
	minimum int
	logger  *logger.Logger
}

// NewScoreFilter creates a score filter with a hard minimum gate
func NewScoreFilter(scorer SignalScorer, weights contracts.WeightStore, minimum int, log *logger.Logger) *ScoreFilter {
	return &ScoreFilter{
		scorer:  scorer,
		weights: weights,
		minimum: minimum,
		logger:  log,
	}
}

// Name implements Filter
func (f *ScoreFilter) Name() string { return "score" }

// Check implements Filter
func (f *ScoreFilter) Check(ctx context.Context, sig *contracts.Signal) Outcome {
	score, err := f.scorer.Score(ctx, sig)
	if err != nil {
		return Indeterminate(fmt.Errorf("scoring failed: %w", err))
	}

	if score.Value < f.minimum {
		out := Blocked(fmt.Sprintf("score %d is below minimum %d", score.Value, f.minimum))
		out.Score = &score.Value
		return out
	}

	out := Passed()
	out.Score = &score.Value

	if f.weights != nil {
		if cfg, err := f.weights.Active(ctx); err == nil && score.Value < cfg.MinScore {
			out.Reason = fmt.Sprintf("score %d is under the advisory target %d", score.Value, cfg.MinScore)
			f.logger.WithFields(map[string]interface{}{
				"signal_id": sig.ID,
				"score":     score.Value,
				"target":    cfg.MinScore,
			}).Debug("Score under advisory target")
		}
	}

	return out
}
