package contracts

import "time"

// Factor names. Every Score carries exactly these five factors.
const (
	FactorConfidence     = "confidence"
	FactorATRSafety      = "atr_safety"
	FactorStrategyBias   = "strategy_bias"
	FactorRegimeFit      = "regime_fit"
	FactorRollingWinRate = "rolling_win_rate"
)

// FactorNames lists the five scoring factors in breakdown order
var FactorNames = []string{
	FactorConfidence,
	FactorATRSafety,
	FactorStrategyBias,
	FactorRegimeFit,
	FactorRollingWinRate,
}

// ScoreFactors maps factor name to its normalized value in [0, 1]
type ScoreFactors map[string]float64

// FactorBreakdown is one line of a score's explanation: how a single
// factor contributed to the total.
type FactorBreakdown struct {
	Factor       string  `json:"factor"`
	RawValue     string  `json:"raw_value"` // human units, e.g. "85/100", "0.28% SL distance"
	Normalized   float64 `json:"normalized"`
	Weight       float64 `json:"weight"`
	Contribution float64 `json:"contribution"`
	Explanation  string  `json:"explanation"`
}

// Score is the explainable 0-100 quality rating computed for a signal.
// At most one Score exists per signal; rescoring overwrites it.
type Score struct {
	SignalID int64 `json:"signal_id"`

	// Value is the aggregated integer score in [0, 100]
	Value int `json:"value"`

	// Breakdown lists the per-factor contributions in factor order
	Breakdown []FactorBreakdown `json:"breakdown"`

	// WeightsVersion records which weight config produced this score
	WeightsVersion string `json:"weights_version"`

	// Factors duplicates the five normalized values for efficient
	// filtering and for the optimizer's training window
	Factors ScoreFactors `json:"factors"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Label buckets a score value for display
func (s *Score) Label() string {
	return ScoreLabel(s.Value)
}

// ScoreLabel buckets a score value for display
func ScoreLabel(value int) string {
	switch {
	case value >= 80:
		return "High"
	case value >= 60:
		return "Medium"
	case value >= 40:
		return "Low"
	default:
		return "Poor"
	}
}
