package contracts

import (
	"strings"
	"time"
)

// Signal is a single proposed trade setup received from an external
// alert source. Owned by the ingestion subsystem; this module only
// reads signals, it never creates or mutates them.
type Signal struct {
	ID         int64   `json:"id"`
	Symbol     string  `json:"symbol"`    // e.g. "EURUSD", "XAUUSD"
	Timeframe  string  `json:"timeframe"` // e.g. "M15", "H1"
	Side       Side    `json:"side"`
	Price      float64 `json:"price"`
	StopLoss   float64 `json:"stop_loss"`
	TakeProfit float64 `json:"take_profit"`

	// Confidence supplied by the alert source, 0-100
	Confidence float64 `json:"confidence"`

	Strategy string `json:"strategy"`
	Regime   string `json:"regime"`
	Session  string `json:"session"`

	// Outcome is empty while the trade is open
	Outcome     Outcome `json:"outcome,omitempty"`
	RealizedPnL float64 `json:"realized_pnl"`

	CreatedAt time.Time  `json:"created_at"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
}

// Side represents the trade direction
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Outcome represents how a closed signal resolved
type Outcome string

const (
	OutcomeWin       Outcome = "win"
	OutcomeLoss      Outcome = "loss"
	OutcomeBreakeven Outcome = "breakeven"
)

// IsClosed reports whether the signal has a known outcome
func (s *Signal) IsClosed() bool {
	return s.Outcome != ""
}

// IsWin reports whether the signal closed as a win
func (s *Signal) IsWin() bool {
	return s.Outcome == OutcomeWin
}

// StopDistancePct returns the stop-loss distance as a percentage of
// price. Returns 0 when price or stop-loss is missing; callers treat
// that as "unknown" and fall back to a neutral factor value.
func (s *Signal) StopDistancePct() float64 {
	if s.Price <= 0 || s.StopLoss <= 0 {
		return 0
	}

	dist := s.Price - s.StopLoss
	if dist < 0 {
		dist = -dist
	}

	return dist / s.Price * 100
}

// Currencies splits a 6-letter FX symbol into its base and quote
// currency codes. Non-FX symbols (metals, indices, crypto tickers)
// return the symbol itself as a single element so news matching can
// still compare against it.
func (s *Signal) Currencies() []string {
	sym := strings.ToUpper(strings.TrimSpace(s.Symbol))
	if len(sym) == 6 {
		return []string{sym[:3], sym[3:]}
	}
	return []string{sym}
}
