package contracts

import "time"

// BlockedReason explains why a signal was not admitted
type BlockedReason string

const (
	ReasonPassed   BlockedReason = "passed"
	ReasonNews     BlockedReason = "news"
	ReasonProp     BlockedReason = "prop"
	ReasonScore    BlockedReason = "score"
	ReasonStrategy BlockedReason = "strategy"
	ReasonManual   BlockedReason = "manual"
	ReasonMultiple BlockedReason = "multiple"
)

// Evaluation is the pass/fail verdict for a signal with per-check
// detail. One per signal; re-evaluation overwrites.
type Evaluation struct {
	SignalID int64 `json:"signal_id"`

	Passed        bool          `json:"passed"`
	BlockedReason BlockedReason `json:"blocked_reason"`

	// Score is the value produced by the score check, recorded even
	// when the signal is blocked so operators can see how close it was
	Score int `json:"score"`

	// Per-filter sub-check results
	NewsOK     bool `json:"news_ok"`
	PropOK     bool `json:"prop_ok"`
	ScoreOK    bool `json:"score_ok"`
	StrategyOK bool `json:"strategy_ok"`

	Notes       string    `json:"notes,omitempty"`
	EvaluatedAt time.Time `json:"evaluated_at"`
}

// DeriveBlockedReason computes the blocked reason from the four
// sub-check results: passed when all hold, the single failing check's
// name when exactly one fails, multiple otherwise.
func DeriveBlockedReason(newsOK, propOK, scoreOK, strategyOK bool) BlockedReason {
	failed := make([]BlockedReason, 0, 4)
	if !newsOK {
		failed = append(failed, ReasonNews)
	}
	if !propOK {
		failed = append(failed, ReasonProp)
	}
	if !scoreOK {
		failed = append(failed, ReasonScore)
	}
	if !strategyOK {
		failed = append(failed, ReasonStrategy)
	}

	switch len(failed) {
	case 0:
		return ReasonPassed
	case 1:
		return failed[0]
	default:
		return ReasonMultiple
	}
}
