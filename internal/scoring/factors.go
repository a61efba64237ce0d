package scoring

import (
	"context"
	"fmt"
	"strings"

	"github.com/mtarnawa/signalgate/internal/contracts"
	"github.com/mtarnawa/signalgate/pkg/logger"
)

// neutralValue is the fallback for any factor whose input is missing
// or unknown. Scoring never fails on bad data; it degrades to neutral.
const neutralValue = 0.5

// FactorValue is one extracted factor: the normalized value in [0, 1]
// plus the raw value rendered in human units for the breakdown.
type FactorValue struct {
	Normalized float64
	Raw        string
}

// atrBucket maps a stop-loss distance band to a volatility percentile.
// The stop distance is a proxy for volatility-adjusted risk: a tighter
// stop means a lower percentile and therefore higher safety.
type atrBucket struct {
	maxSLPct   float64
	percentile float64
}

var atrBuckets = []atrBucket{
	{0.10, 0.05},
	{0.20, 0.15},
	{0.35, 0.30},
	{0.50, 0.45},
	{0.75, 0.60},
	{1.00, 0.70},
	{1.50, 0.80},
	{2.50, 0.90},
}

// atrPercentileCeiling applies above the last bucket
const atrPercentileCeiling = 0.97

// strategyBias is the fixed strategy -> baseline performance table.
// Keys are normalized with normalizeLabel.
var strategyBias = map[string]float64{
	"trend following": 0.70,
	"momentum":        0.66,
	"breakout":        0.62,
	"mean reversion":  0.55,
	"scalping":        0.48,
}

// regimeFit is the fixed strategy x regime matrix. Unknown
// combinations fall back to neutral.
var regimeFit = map[string]map[string]float64{
	"trend following": {
		"trending": 0.95,
		"ranging":  0.30,
		"volatile": 0.45,
		"quiet":    0.50,
	},
	"momentum": {
		"trending": 0.85,
		"ranging":  0.35,
		"volatile": 0.60,
		"quiet":    0.40,
	},
	"breakout": {
		"trending": 0.70,
		"ranging":  0.55,
		"volatile": 0.75,
		"quiet":    0.35,
	},
	"mean reversion": {
		"trending": 0.25,
		"ranging":  0.85,
		"volatile": 0.40,
		"quiet":    0.70,
	},
	"scalping": {
		"trending": 0.55,
		"ranging":  0.60,
		"volatile": 0.35,
		"quiet":    0.65,
	},
}

// factorExplanations are the static breakdown texts, one per factor
var factorExplanations = map[string]string{
	contracts.FactorConfidence:     "Alert-source confidence scaled to [0,1]",
	contracts.FactorATRSafety:      "Tighter stop distance relative to price scores safer",
	contracts.FactorStrategyBias:   "Baseline historical edge of the strategy",
	contracts.FactorRegimeFit:      "Fit between the strategy and the current market regime",
	contracts.FactorRollingWinRate: "Recent win rate for the same strategy, symbol and timeframe",
}

// Extractor turns a signal into the five normalized scoring factors.
// The rolling win-rate factor reads historical signals, which makes
// re-extraction at a later time yield different values as the window
// moves. That freshness-over-reproducibility trade-off is intentional.
type Extractor struct {
	history    contracts.SignalReader
	logger     *logger.Logger
	windowDays int
	minSamples int
}

// NewExtractor creates a factor extractor
func NewExtractor(history contracts.SignalReader, log *logger.Logger, windowDays, minSamples int) *Extractor {
	if windowDays <= 0 {
		windowDays = 30
	}
	if minSamples <= 0 {
		minSamples = 3
	}
	return &Extractor{
		history:    history,
		logger:     log,
		windowDays: windowDays,
		minSamples: minSamples,
	}
}

// Extract computes all five factors for a signal. It never returns an
// error: any missing or malformed field is logged at debug level and
// replaced by the neutral value.
func (e *Extractor) Extract(ctx context.Context, sig *contracts.Signal) map[string]FactorValue {
	return map[string]FactorValue{
		contracts.FactorConfidence:     e.confidence(sig),
		contracts.FactorATRSafety:      e.atrSafety(sig),
		contracts.FactorStrategyBias:   e.strategyBias(sig),
		contracts.FactorRegimeFit:      e.regimeFit(sig),
		contracts.FactorRollingWinRate: e.rollingWinRate(ctx, sig),
	}
}

// confidence normalizes the alert-source confidence from 0-100
func (e *Extractor) confidence(sig *contracts.Signal) FactorValue {
	c := sig.Confidence
	if c < 0 || c > 100 {
		e.logger.WithFields(map[string]interface{}{
			"signal_id":  sig.ID,
			"confidence": c,
		}).Debug("Confidence out of range, using neutral")
		return FactorValue{Normalized: neutralValue, Raw: "n/a"}
	}

	return FactorValue{
		Normalized: c / 100,
		Raw:        fmt.Sprintf("%.0f/100", c),
	}
}

// atrSafety derives safety from the stop-loss distance percentile
func (e *Extractor) atrSafety(sig *contracts.Signal) FactorValue {
	slPct := sig.StopDistancePct()
	if slPct <= 0 {
		e.logger.WithField("signal_id", sig.ID).Debug("Missing stop-loss distance, using neutral ATR safety")
		return FactorValue{Normalized: neutralValue, Raw: "no stop-loss"}
	}

	percentile := atrPercentileCeiling
	for _, b := range atrBuckets {
		if slPct < b.maxSLPct {
			percentile = b.percentile
			break
		}
	}

	return FactorValue{
		Normalized: 1 - percentile,
		Raw:        fmt.Sprintf("%.2f%% SL distance", slPct),
	}
}

// strategyBias looks up the strategy's baseline performance
func (e *Extractor) strategyBias(sig *contracts.Signal) FactorValue {
	key := normalizeLabel(sig.Strategy)
	bias, ok := strategyBias[key]
	if !ok {
		e.logger.WithFields(map[string]interface{}{
			"signal_id": sig.ID,
			"strategy":  sig.Strategy,
		}).Debug("Unknown strategy, using neutral bias")
		return FactorValue{Normalized: neutralValue, Raw: labelOrUnknown(sig.Strategy)}
	}

	return FactorValue{Normalized: bias, Raw: sig.Strategy}
}

// regimeFit looks up the strategy x regime matrix
func (e *Extractor) regimeFit(sig *contracts.Signal) FactorValue {
	strategyKey := normalizeLabel(sig.Strategy)
	regimeKey := normalizeLabel(sig.Regime)

	row, ok := regimeFit[strategyKey]
	if !ok {
		return FactorValue{Normalized: neutralValue, Raw: labelOrUnknown(sig.Regime)}
	}

	fit, ok := row[regimeKey]
	if !ok {
		e.logger.WithFields(map[string]interface{}{
			"signal_id": sig.ID,
			"strategy":  sig.Strategy,
			"regime":    sig.Regime,
		}).Debug("Unknown strategy/regime combination, using neutral fit")
		return FactorValue{Normalized: neutralValue, Raw: labelOrUnknown(sig.Regime)}
	}

	return FactorValue{Normalized: fit, Raw: fmt.Sprintf("%s in %s", sig.Strategy, sig.Regime)}
}

// rollingWinRate is the fraction of wins among recent closed signals
// sharing strategy, symbol and timeframe. The window ends strictly
// before the signal's own timestamp so a signal never sees itself.
func (e *Extractor) rollingWinRate(ctx context.Context, sig *contracts.Signal) FactorValue {
	to := sig.CreatedAt
	from := to.AddDate(0, 0, -e.windowDays)

	history, err := e.history.ListHistory(ctx, sig.Strategy, sig.Symbol, sig.Timeframe, from, to)
	if err != nil {
		e.logger.WithFields(map[string]interface{}{
			"signal_id": sig.ID,
			"error":     err.Error(),
		}).Debug("History lookup failed, using neutral win rate")
		return FactorValue{Normalized: neutralValue, Raw: "history unavailable"}
	}

	wins, total := 0, 0
	for i := range history {
		h := &history[i]
		if !h.IsClosed() || h.ID == sig.ID {
			continue
		}
		total++
		if h.IsWin() {
			wins++
		}
	}

	if total < e.minSamples {
		return FactorValue{
			Normalized: neutralValue,
			Raw:        fmt.Sprintf("%d closed trades (need %d)", total, e.minSamples),
		}
	}

	rate := float64(wins) / float64(total)
	return FactorValue{
		Normalized: rate,
		Raw:        fmt.Sprintf("%d wins / %d trades (%dd)", wins, total, e.windowDays),
	}
}

// normalizeLabel lowercases and collapses separators so lookups accept
// "Trend Following", "trend_following" and "TREND-FOLLOWING" alike
func normalizeLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")
	return strings.Join(strings.Fields(s), " ")
}

func labelOrUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "unknown"
	}
	return s
}
