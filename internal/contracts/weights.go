package contracts

import (
	"fmt"
	"math"
	"time"
)

// WeightSumTolerance is the floating tolerance when checking that
// factor weights sum to 1.0
const WeightSumTolerance = 1e-6

// Weight bounds enforced by the optimizer on every committed config
const (
	WeightMin = 0.05
	WeightMax = 0.50
)

// WeightConfig is one versioned set of scoring-factor weights plus an
// advisory minimum-score threshold. Configs are append-only; exactly
// one is active at any moment.
type WeightConfig struct {
	Version string `json:"version"`

	// Weights maps the five factor names to weights summing to 1.0
	Weights ScoreFactors `json:"weights"`

	// MinScore is the advisory admissibility threshold in [0, 100]
	MinScore int `json:"min_score"`

	Active    bool      `json:"active"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// DefaultWeightConfig returns the bootstrap config installed when no
// weight config exists yet.
func DefaultWeightConfig() *WeightConfig {
	return &WeightConfig{
		Version: "v0-default",
		Weights: ScoreFactors{
			FactorConfidence:     0.32,
			FactorATRSafety:      0.18,
			FactorStrategyBias:   0.16,
			FactorRegimeFit:      0.18,
			FactorRollingWinRate: 0.16,
		},
		MinScore: 60,
		Notes:    "bootstrap default",
	}
}

// WeightSum returns the sum of all factor weights
func (w *WeightConfig) WeightSum() float64 {
	sum := 0.0
	for _, v := range w.Weights {
		sum += v
	}
	return sum
}

// Validate checks structural invariants: all five factors present,
// weights summing to 1.0 within tolerance, threshold in range.
func (w *WeightConfig) Validate() error {
	if w.Version == "" {
		return fmt.Errorf("weight config version is empty")
	}

	for _, name := range FactorNames {
		if _, ok := w.Weights[name]; !ok {
			return fmt.Errorf("weight config %s missing factor %q", w.Version, name)
		}
	}
	if len(w.Weights) != len(FactorNames) {
		return fmt.Errorf("weight config %s has %d factors, want %d", w.Version, len(w.Weights), len(FactorNames))
	}

	if sum := w.WeightSum(); math.Abs(sum-1.0) > WeightSumTolerance {
		return fmt.Errorf("weight config %s weights sum to %.6f, want 1.0", w.Version, sum)
	}

	if w.MinScore < 0 || w.MinScore > 100 {
		return fmt.Errorf("weight config %s min score %d out of [0, 100]", w.Version, w.MinScore)
	}

	return nil
}

// Normalize rescales weights so they sum to exactly 1.0. Invariant
// violations are prevented on save, not detected afterwards.
func (w *WeightConfig) Normalize() {
	sum := w.WeightSum()
	if sum <= 0 {
		return
	}
	for name, v := range w.Weights {
		w.Weights[name] = v / sum
	}
}
