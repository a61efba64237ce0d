package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/mtarnawa/signalgate/internal/contracts"
	"github.com/mtarnawa/signalgate/pkg/logger"
)

// ================================================================
// Validation Pipeline
// ================================================================

// Broadcaster receives evaluations after they are persisted, e.g. a
// websocket hub pushing them to connected clients.
type Broadcaster interface {
	BroadcastEvaluation(eval *contracts.Evaluation)
}

// Pipeline runs a signal through the ordered validation filters and
// persists the resulting evaluation. Indeterminate filter outcomes
// count as passed so that missing data never blocks a signal.
type Pipeline struct {
	filters     []Filter
	evaluations contracts.EvaluationStore
	broadcaster Broadcaster
	logger      *logger.Logger
}

// New creates a pipeline with news, prop, score and strategy filters
// in that order.
func New(news *NewsFilter, prop *PropRuleFilter, score *ScoreFilter, strategy *StrategyFilter, evals contracts.EvaluationStore, log *logger.Logger) *Pipeline {
	return &Pipeline{
		filters:     []Filter{news, prop, score, strategy},
		evaluations: evals,
		logger:      log,
	}
}

// NewWithFilters creates a pipeline over an explicit filter chain.
// Used by tests and by callers that need a reduced chain.
func NewWithFilters(filters []Filter, evals contracts.EvaluationStore, log *logger.Logger) *Pipeline {
	return &Pipeline{
		filters:     filters,
		evaluations: evals,
		logger:      log,
	}
}

// SetBroadcaster wires an optional evaluation broadcaster
func (p *Pipeline) SetBroadcaster(b Broadcaster) { p.broadcaster = b }

// Evaluate runs every filter against the signal, derives the combined
// verdict and stores it. All filters run even after a block so the
// evaluation records the full picture.
func (p *Pipeline) Evaluate(ctx context.Context, sig *contracts.Signal) (*contracts.Evaluation, error) {
	if sig == nil {
		return nil, fmt.Errorf("pipeline: nil signal")
	}

	eval := &contracts.Evaluation{
		SignalID:    sig.ID,
		EvaluatedAt: time.Now().UTC(),
	}

	verdicts := make(map[string]bool, len(p.filters))
	for _, f := range p.filters {
		out := p.runFilter(ctx, f, sig)

		passed := out.Status != StatusBlocked
		if out.Status == StatusIndeterminate {
			p.logger.WithFields(map[string]interface{}{
				"signal_id": sig.ID,
				"filter":    f.Name(),
				"error":     out.Reason,
			}).Error("Filter indeterminate, treating as passed")
		}

		verdicts[f.Name()] = passed
		if out.Score != nil {
			eval.Score = *out.Score
		}
		if out.Status == StatusBlocked {
			p.logger.WithFields(map[string]interface{}{
				"signal_id": sig.ID,
				"filter":    f.Name(),
				"reason":    out.Reason,
			}).Info("Filter blocked signal")
		}
		if out.Reason != "" && out.Status != StatusBlocked {
			eval.Notes = appendNote(eval.Notes, out.Reason)
		}
	}

	eval.NewsOK = verdictFor(verdicts, "news")
	eval.PropOK = verdictFor(verdicts, "prop")
	eval.ScoreOK = verdictFor(verdicts, "score")
	eval.StrategyOK = verdictFor(verdicts, "strategy")
	eval.BlockedReason = contracts.DeriveBlockedReason(eval.NewsOK, eval.PropOK, eval.ScoreOK, eval.StrategyOK)
	eval.Passed = eval.BlockedReason == contracts.ReasonPassed

	if p.evaluations != nil {
		if err := p.evaluations.Upsert(ctx, eval); err != nil {
			p.logger.WithFields(map[string]interface{}{
				"signal_id": sig.ID,
				"error":     err.Error(),
			}).Error("Failed to persist evaluation")
		}
	}

	if p.broadcaster != nil {
		p.broadcaster.BroadcastEvaluation(eval)
	}

	return eval, nil
}

// runFilter isolates a single filter call. A panicking filter yields
// an indeterminate outcome instead of taking down the pipeline.
func (p *Pipeline) runFilter(ctx context.Context, f Filter, sig *contracts.Signal) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = Indeterminate(fmt.Errorf("filter %s panicked: %v", f.Name(), r))
		}
	}()
	return f.Check(ctx, sig)
}

func verdictFor(verdicts map[string]bool, name string) bool {
	ok, found := verdicts[name]
	if !found {
		return true
	}
	return ok
}

func appendNote(existing, note string) string {
	if existing == "" {
		return note
	}
	return existing + "; " + note
}
