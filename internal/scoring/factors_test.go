package scoring

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mtarnawa/signalgate/internal/contracts"
	"github.com/mtarnawa/signalgate/pkg/logger"
)

// fakeSignalReader serves canned history so tests run against a frozen
// window instead of a live database.
type fakeSignalReader struct {
	signals []contracts.Signal
	err     error
}

func (f *fakeSignalReader) GetByID(ctx context.Context, id int64) (*contracts.Signal, error) {
	for i := range f.signals {
		if f.signals[i].ID == id {
			return &f.signals[i], nil
		}
	}
	return nil, fmt.Errorf("signal %d not found", id)
}

func (f *fakeSignalReader) ListHistory(ctx context.Context, strategy, symbol, timeframe string, from, to time.Time) ([]contracts.Signal, error) {
	if f.err != nil {
		return nil, f.err
	}

	out := make([]contracts.Signal, 0)
	for _, s := range f.signals {
		if s.Strategy == strategy && s.Symbol == symbol && s.Timeframe == timeframe &&
			!s.CreatedAt.Before(from) && s.CreatedAt.Before(to) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSignalReader) ListClosedSince(ctx context.Context, since time.Time) ([]contracts.Signal, error) {
	if f.err != nil {
		return nil, f.err
	}

	out := make([]contracts.Signal, 0)
	for _, s := range f.signals {
		if s.IsClosed() && !s.CreatedAt.Before(since) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSignalReader) ListIDs(ctx context.Context, _ contracts.SignalFilter) ([]int64, error) {
	if f.err != nil {
		return nil, f.err
	}

	ids := make([]int64, 0, len(f.signals))
	for _, s := range f.signals {
		ids = append(ids, s.ID)
	}
	return ids, nil
}

func newTestExtractor(history contracts.SignalReader) *Extractor {
	return NewExtractor(history, logger.NewNop(), 30, 3)
}

func TestExtractor_Confidence(t *testing.T) {
	e := newTestExtractor(&fakeSignalReader{})

	fv := e.confidence(&contracts.Signal{Confidence: 85})
	assert.InDelta(t, 0.85, fv.Normalized, 1e-9)
	assert.Equal(t, "85/100", fv.Raw)

	// Out of range degrades to neutral, never fails
	fv = e.confidence(&contracts.Signal{Confidence: 130})
	assert.InDelta(t, 0.5, fv.Normalized, 1e-9)
}

func TestExtractor_ATRSafety(t *testing.T) {
	e := newTestExtractor(&fakeSignalReader{})

	tests := []struct {
		name  string
		price float64
		stop  float64
		want  float64
	}{
		{"very tight stop", 100, 99.95, 0.95}, // 0.05% -> percentile 0.05
		{"tight stop", 100, 99.85, 0.85},      // 0.15% -> percentile 0.15
		{"moderate stop", 100, 99.72, 0.70},   // 0.28% -> percentile 0.30
		{"wide stop", 100, 98.80, 0.20},       // 1.20% -> percentile 0.80
		{"very wide stop", 100, 95.00, 0.03},  // 5.00% -> ceiling 0.97
		{"missing stop is neutral", 100, 0, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fv := e.atrSafety(&contracts.Signal{Price: tt.price, StopLoss: tt.stop})
			assert.InDelta(t, tt.want, fv.Normalized, 1e-9)
		})
	}
}

func TestExtractor_StrategyBias(t *testing.T) {
	e := newTestExtractor(&fakeSignalReader{})

	tests := []struct {
		strategy string
		want     float64
	}{
		{"Trend Following", 0.70},
		{"trend_following", 0.70},
		{"Momentum", 0.66},
		{"Breakout", 0.62},
		{"Mean Reversion", 0.55},
		{"Scalping", 0.48},
		{"Martingale", 0.5},
		{"", 0.5},
	}

	for _, tt := range tests {
		fv := e.strategyBias(&contracts.Signal{Strategy: tt.strategy})
		assert.InDelta(t, tt.want, fv.Normalized, 1e-9, "strategy %q", tt.strategy)
	}
}

func TestExtractor_RegimeFit(t *testing.T) {
	e := newTestExtractor(&fakeSignalReader{})

	tests := []struct {
		strategy string
		regime   string
		want     float64
	}{
		{"Trend Following", "Trending", 0.95},
		{"Trend Following", "Ranging", 0.30},
		{"Mean Reversion", "Ranging", 0.85},
		{"Trend Following", "Sideways Chop", 0.5}, // unknown regime
		{"Martingale", "Trending", 0.5},           // unknown strategy
	}

	for _, tt := range tests {
		fv := e.regimeFit(&contracts.Signal{Strategy: tt.strategy, Regime: tt.regime})
		assert.InDelta(t, tt.want, fv.Normalized, 1e-9, "%s in %s", tt.strategy, tt.regime)
	}
}

func TestExtractor_RollingWinRate(t *testing.T) {
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	mk := func(id int64, daysAgo int, outcome contracts.Outcome) contracts.Signal {
		return contracts.Signal{
			ID: id, Strategy: "Trend Following", Symbol: "EURUSD", Timeframe: "H1",
			Outcome: outcome, CreatedAt: now.AddDate(0, 0, -daysAgo),
		}
	}

	sig := &contracts.Signal{
		ID: 100, Strategy: "Trend Following", Symbol: "EURUSD", Timeframe: "H1",
		CreatedAt: now,
	}

	t.Run("wins over losses", func(t *testing.T) {
		e := newTestExtractor(&fakeSignalReader{signals: []contracts.Signal{
			mk(1, 5, contracts.OutcomeWin),
			mk(2, 10, contracts.OutcomeWin),
			mk(3, 15, contracts.OutcomeWin),
			mk(4, 20, contracts.OutcomeLoss),
		}})

		fv := e.rollingWinRate(context.Background(), sig)
		assert.InDelta(t, 0.75, fv.Normalized, 1e-9)
		assert.Equal(t, "3 wins / 4 trades (30d)", fv.Raw)
	})

	t.Run("insufficient samples fall back to neutral", func(t *testing.T) {
		e := newTestExtractor(&fakeSignalReader{signals: []contracts.Signal{
			mk(1, 5, contracts.OutcomeWin),
			mk(2, 10, contracts.OutcomeLoss),
		}})

		fv := e.rollingWinRate(context.Background(), sig)
		assert.InDelta(t, 0.5, fv.Normalized, 1e-9)
	})

	t.Run("open trades are ignored", func(t *testing.T) {
		e := newTestExtractor(&fakeSignalReader{signals: []contracts.Signal{
			mk(1, 5, contracts.OutcomeWin),
			mk(2, 10, contracts.OutcomeWin),
			mk(3, 12, contracts.OutcomeWin),
			mk(4, 15, ""), // still open
		}})

		fv := e.rollingWinRate(context.Background(), sig)
		assert.InDelta(t, 1.0, fv.Normalized, 1e-9)
	})

	t.Run("history error degrades to neutral", func(t *testing.T) {
		e := newTestExtractor(&fakeSignalReader{err: fmt.Errorf("connection refused")})

		fv := e.rollingWinRate(context.Background(), sig)
		assert.InDelta(t, 0.5, fv.Normalized, 1e-9)
	})

	t.Run("signals outside the window are excluded", func(t *testing.T) {
		e := newTestExtractor(&fakeSignalReader{signals: []contracts.Signal{
			mk(1, 5, contracts.OutcomeWin),
			mk(2, 10, contracts.OutcomeWin),
			mk(3, 45, contracts.OutcomeLoss), // beyond 30d
		}})

		// Only 2 in-window samples -> below minimum -> neutral
		fv := e.rollingWinRate(context.Background(), sig)
		assert.InDelta(t, 0.5, fv.Normalized, 1e-9)
	})
}

func TestNormalizeLabel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Trend Following", "trend following"},
		{"  TREND_FOLLOWING  ", "trend following"},
		{"mean-reversion", "mean reversion"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := normalizeLabel(tt.in); got != tt.want {
			t.Errorf("normalizeLabel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
