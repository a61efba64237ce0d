package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/mtarnawa/signalgate/internal/contracts"
)

// allowedStrategies lists the strategy families permitted through the
// pipeline. Lookups are case-insensitive and tolerant of underscores
// and hyphens. Signals without a strategy label pass.
var allowedStrategies = map[string]bool{
	"trend following": true,
	"trend":           true,
	"momentum":        true,
	"breakout":        true,
	"mean reversion":  true,
	"scalping":        true,
	"unknown":         true,
}

// StrategyFilter blocks signals whose strategy is not on the allow list.
type StrategyFilter struct{}

// NewStrategyFilter creates a strategy allow-list filter
func NewStrategyFilter() *StrategyFilter { return &StrategyFilter{} }

// Name implements Filter
func (f *StrategyFilter) Name() string { return "strategy" }

// Check implements Filter
func (f *StrategyFilter) Check(_ context.Context, sig *contracts.Signal) Outcome {
	key := canonicalStrategy(sig.Strategy)
	if key == "" || allowedStrategies[key] {
		return Passed()
	}
	return Blocked(fmt.Sprintf("strategy %q is not allowed", sig.Strategy))
}

func canonicalStrategy(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
