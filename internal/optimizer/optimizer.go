package optimizer

import (
	"context"
	"fmt"
	"time"

	"github.com/mtarnawa/signalgate/internal/contracts"
	"github.com/mtarnawa/signalgate/internal/weights"
	"github.com/mtarnawa/signalgate/pkg/logger"
)

// Optimizer proposes adjusted factor weights from observed outcomes.
// It reads closed signals with their cached factors, measures how each
// factor separates winners from losers, and nudges weights toward the
// factors that discriminate. It never touches existing scores; a new
// config only affects future scoring.
type Optimizer struct {
	scores     contracts.ScoreStore
	weights    contracts.WeightStore
	logger     *logger.Logger
	minSamples int
	now        func() time.Time
}

// New creates an optimizer. minSamples guards against tuning on noise.
func New(scores contracts.ScoreStore, ws contracts.WeightStore, log *logger.Logger, minSamples int) *Optimizer {
	if minSamples <= 0 {
		minSamples = 10
	}
	return &Optimizer{
		scores:     scores,
		weights:    ws,
		logger:     log,
		minSamples: minSamples,
		now:        time.Now,
	}
}

// Proposal is the outcome of one optimization pass
type Proposal struct {
	OldVersion string                 `json:"old_version"`
	OldWeights contracts.ScoreFactors `json:"old_weights"`
	NewWeights contracts.ScoreFactors `json:"new_weights"`

	// Correlations holds the per-factor mean difference between
	// winners and losers. This is the algorithm's definition, a mean
	// difference in [-1, 1], not a Pearson coefficient.
	Correlations contracts.ScoreFactors `json:"correlations"`

	SampleSize   int     `json:"sample_size"`
	WinRate      float64 `json:"win_rate"`
	WindowDays   int     `json:"window_days"`
	LearningRate float64 `json:"learning_rate"`

	// Insufficient marks a refusal to propose for lack of data. Not an
	// error: the caller simply cannot optimize yet.
	Insufficient bool   `json:"insufficient"`
	Reason       string `json:"reason,omitempty"`
}

// Propose analyzes the trailing window and computes an adjusted weight
// set. Below the minimum sample size it returns an insufficient-data
// proposal instead of optimizing on noise.
func (o *Optimizer) Propose(ctx context.Context, windowDays int, learningRate float64) (*Proposal, error) {
	if windowDays <= 0 {
		windowDays = 30
	}
	if learningRate <= 0 {
		learningRate = 0.10
	}

	active, err := o.weights.Active(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load active weights: %w", err)
	}

	since := o.now().AddDate(0, 0, -windowDays)
	outcomes, err := o.scores.ListScoredOutcomes(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load scored outcomes: %w", err)
	}

	// Breakeven closes carry no directional information; only wins and
	// losses participate
	winners := make([]contracts.ScoredOutcome, 0, len(outcomes))
	losers := make([]contracts.ScoredOutcome, 0, len(outcomes))
	for _, oc := range outcomes {
		switch oc.Outcome {
		case contracts.OutcomeWin:
			winners = append(winners, oc)
		case contracts.OutcomeLoss:
			losers = append(losers, oc)
		}
	}

	proposal := &Proposal{
		OldVersion:   active.Version,
		OldWeights:   cloneFactors(active.Weights),
		WindowDays:   windowDays,
		LearningRate: learningRate,
		SampleSize:   len(winners) + len(losers),
	}

	if proposal.SampleSize < o.minSamples {
		proposal.Insufficient = true
		proposal.Reason = fmt.Sprintf("need at least %d closed signals, have %d", o.minSamples, proposal.SampleSize)

		o.logger.WithFields(map[string]interface{}{
			"sample_size": proposal.SampleSize,
			"min_samples": o.minSamples,
			"window_days": windowDays,
		}).Info("Not enough data to optimize weights")

		return proposal, nil
	}

	proposal.WinRate = float64(len(winners)) / float64(proposal.SampleSize)
	proposal.Correlations = factorCorrelations(winners, losers)

	newWeights := make(contracts.ScoreFactors, len(contracts.FactorNames))
	for _, name := range contracts.FactorNames {
		adjusted := active.Weights[name] + proposal.Correlations[name]*learningRate
		newWeights[name] = clamp(adjusted, contracts.WeightMin, contracts.WeightMax)
	}
	normalizeBounded(newWeights, contracts.WeightMin, contracts.WeightMax)
	proposal.NewWeights = newWeights

	o.logger.WithFields(map[string]interface{}{
		"sample_size": proposal.SampleSize,
		"win_rate":    proposal.WinRate,
		"window_days": windowDays,
		"old_version": active.Version,
	}).Info("Weight proposal computed")

	return proposal, nil
}

// Commit installs a proposal as the new active weight config. The
// previous config stays in the audit trail, deactivated atomically.
func (o *Optimizer) Commit(ctx context.Context, proposal *Proposal) (*contracts.WeightConfig, error) {
	if proposal.Insufficient {
		return nil, fmt.Errorf("cannot commit an insufficient-data proposal: %s", proposal.Reason)
	}

	active, err := o.weights.Active(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load active weights: %w", err)
	}

	cfg := &contracts.WeightConfig{
		Version:  weights.NewVersion(o.now()),
		Weights:  cloneFactors(proposal.NewWeights),
		MinScore: active.MinScore,
		Notes: fmt.Sprintf("optimized over %dd window: %d samples, %.1f%% win rate, lr=%.2f",
			proposal.WindowDays, proposal.SampleSize, proposal.WinRate*100, proposal.LearningRate),
	}

	if err := o.weights.CreateAndActivate(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to commit weight proposal: %w", err)
	}

	return cfg, nil
}

// factorCorrelations computes avg(factor|winners) - avg(factor|losers)
// per factor. When the window holds only one outcome class the
// difference is undefined, so every factor gets zero adjustment.
func factorCorrelations(winners, losers []contracts.ScoredOutcome) contracts.ScoreFactors {
	corr := make(contracts.ScoreFactors, len(contracts.FactorNames))
	for _, name := range contracts.FactorNames {
		corr[name] = 0
	}

	if len(winners) == 0 || len(losers) == 0 {
		return corr
	}

	for _, name := range contracts.FactorNames {
		corr[name] = factorMean(winners, name) - factorMean(losers, name)
	}
	return corr
}

func factorMean(outcomes []contracts.ScoredOutcome, factor string) float64 {
	sum := 0.0
	for _, o := range outcomes {
		sum += o.Factors[factor]
	}
	return sum / float64(len(outcomes))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// normalizeBounded rescales weights to sum to 1.0 while keeping every
// weight inside [lo, hi]: weights pushed past a bound are pinned there
// and the remaining mass is redistributed over the free ones.
func normalizeBounded(w contracts.ScoreFactors, lo, hi float64) {
	pinned := make(map[string]float64)

	for range w {
		free := make([]string, 0, len(w))
		remaining := 1.0
		freeSum := 0.0
		for name, v := range w {
			if pv, ok := pinned[name]; ok {
				remaining -= pv
				continue
			}
			free = append(free, name)
			freeSum += v
		}

		if len(free) == 0 {
			break
		}

		changed := false
		for _, name := range free {
			var scaled float64
			if freeSum > 0 {
				scaled = w[name] * remaining / freeSum
			} else {
				scaled = remaining / float64(len(free))
			}

			if scaled < lo {
				pinned[name] = lo
				changed = true
			} else if scaled > hi {
				pinned[name] = hi
				changed = true
			}
		}

		if !changed {
			for _, name := range free {
				if freeSum > 0 {
					w[name] = w[name] * remaining / freeSum
				} else {
					w[name] = remaining / float64(len(free))
				}
			}
			break
		}
	}

	for name, v := range pinned {
		w[name] = v
	}
}

func cloneFactors(src contracts.ScoreFactors) contracts.ScoreFactors {
	dst := make(contracts.ScoreFactors, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
