package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mtarnawa/signalgate/internal/contracts"
	"github.com/mtarnawa/signalgate/pkg/logger"
)

// NewsFilter blocks signals whose timestamp falls inside a blackout
// window around a high-impact news event matching one of the signal's
// currencies. No news source configured means no blackout.
type NewsFilter struct {
	news            contracts.NewsStore
	accounts        contracts.AccountReader
	defaultBlackout int // minutes, used when account settings carry none
	logger          *logger.Logger
}

// NewNewsFilter creates a news filter. news may be nil when no
// calendar source is configured.
func NewNewsFilter(news contracts.NewsStore, accounts contracts.AccountReader, defaultBlackout int, log *logger.Logger) *NewsFilter {
	if defaultBlackout <= 0 {
		defaultBlackout = 30
	}
	return &NewsFilter{
		news:            news,
		accounts:        accounts,
		defaultBlackout: defaultBlackout,
		logger:          log,
	}
}

// Name implements Filter
func (f *NewsFilter) Name() string { return "news" }

// Check implements Filter
func (f *NewsFilter) Check(ctx context.Context, sig *contracts.Signal) Outcome {
	if f.news == nil {
		return Passed()
	}

	blackout := f.blackoutMinutes(ctx)
	window := time.Duration(blackout) * time.Minute
	from := sig.CreatedAt.Add(-window)
	to := sig.CreatedAt.Add(window)

	events, err := f.news.ListHighImpactBetween(ctx, from, to)
	if err != nil {
		return Indeterminate(fmt.Errorf("news lookup failed: %w", err))
	}

	currencies := sig.Currencies()
	for _, ev := range events {
		if !ev.IsHighImpact() {
			continue
		}
		for _, cur := range currencies {
			if strings.EqualFold(ev.Currency, cur) {
				return Blocked(fmt.Sprintf("%s blackout: %q at %s (window %dm)",
					ev.Currency, ev.Title, ev.EventTime.Format("15:04"), blackout))
			}
		}
	}

	return Passed()
}

// blackoutMinutes prefers the per-user setting over the default
func (f *NewsFilter) blackoutMinutes(ctx context.Context) int {
	if f.accounts == nil {
		return f.defaultBlackout
	}

	settings, err := f.accounts.Settings(ctx)
	if err != nil || settings.BlackoutMinutes <= 0 {
		if err != nil {
			f.logger.WithError(err).Debug("Account settings unavailable, using default blackout")
		}
		return f.defaultBlackout
	}
	return settings.BlackoutMinutes
}
