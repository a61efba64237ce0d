package pipeline

import (
	"context"
	"fmt"

	"github.com/mtarnawa/signalgate/internal/contracts"
	"github.com/mtarnawa/signalgate/pkg/logger"
)

// PropRuleFilter enforces prop-firm challenge rules: a failed
// challenge blocks everything, and realized daily or overall loss at
// the configured percentage limits blocks new signals. Approaching a
// limit logs a warning but still passes.
type PropRuleFilter struct {
	accounts  contracts.AccountReader
	warnRatio float64
	logger    *logger.Logger
}

// NewPropRuleFilter creates a prop rule filter
func NewPropRuleFilter(accounts contracts.AccountReader, warnRatio float64, log *logger.Logger) *PropRuleFilter {
	if warnRatio <= 0 || warnRatio >= 1 {
		warnRatio = 0.80
	}
	return &PropRuleFilter{
		accounts:  accounts,
		warnRatio: warnRatio,
		logger:    log,
	}
}

// Name implements Filter
func (f *PropRuleFilter) Name() string { return "prop" }

// Check implements Filter
func (f *PropRuleFilter) Check(ctx context.Context, sig *contracts.Signal) Outcome {
	if f.accounts == nil {
		return Passed()
	}

	settings, err := f.accounts.Settings(ctx)
	if err != nil {
		return Indeterminate(fmt.Errorf("account settings lookup failed: %w", err))
	}

	if settings.ChallengeStatus == contracts.ChallengeFailed {
		return Blocked("challenge is already failed")
	}

	losses, err := f.accounts.LossSnapshot(ctx, sig.CreatedAt)
	if err != nil {
		return Indeterminate(fmt.Errorf("loss snapshot lookup failed: %w", err))
	}

	if out, blocked := f.checkLimit("daily", losses.DailyLoss, settings.AccountSize, settings.MaxDailyLossPct); blocked {
		return out
	}
	if out, blocked := f.checkLimit("overall", losses.OverallLoss, settings.AccountSize, settings.MaxOverallLossPct); blocked {
		return out
	}

	return Passed()
}

// checkLimit evaluates one loss limit. Unconfigured limits (zero
// account size or percentage) are skipped.
func (f *PropRuleFilter) checkLimit(kind string, loss, accountSize, limitPct float64) (Outcome, bool) {
	if accountSize <= 0 || limitPct <= 0 {
		return Passed(), false
	}

	limit := accountSize * limitPct / 100
	if loss >= limit {
		return Blocked(fmt.Sprintf("%s loss %.2f reached the %.2f limit (%.1f%% of account)",
			kind, loss, limit, limitPct)), true
	}

	if loss >= limit*f.warnRatio {
		f.logger.WithFields(map[string]interface{}{
			"kind":  kind,
			"loss":  loss,
			"limit": limit,
			"used":  loss / limit,
		}).Warn("Loss approaching prop limit")
	}

	return Passed(), false
}
