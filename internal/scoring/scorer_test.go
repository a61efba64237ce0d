package scoring

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtarnawa/signalgate/internal/contracts"
	"github.com/mtarnawa/signalgate/pkg/logger"
)

// fakeWeightStore serves a fixed active config
type fakeWeightStore struct {
	active *contracts.WeightConfig
	err    error
}

func (f *fakeWeightStore) Active(ctx context.Context) (*contracts.WeightConfig, error) {
	return f.active, f.err
}

func (f *fakeWeightStore) Get(ctx context.Context, version string) (*contracts.WeightConfig, error) {
	return f.active, f.err
}

func (f *fakeWeightStore) List(ctx context.Context) ([]contracts.WeightConfig, error) {
	return []contracts.WeightConfig{*f.active}, f.err
}

func (f *fakeWeightStore) CreateAndActivate(ctx context.Context, cfg *contracts.WeightConfig) error {
	f.active = cfg
	return f.err
}

func (f *fakeWeightStore) Activate(ctx context.Context, version string) error { return f.err }
func (f *fakeWeightStore) EnsureDefault(ctx context.Context) error            { return f.err }

// fakeScoreStore records upserts in memory
type fakeScoreStore struct {
	scores map[int64]*contracts.Score
	err    error
}

func newFakeScoreStore() *fakeScoreStore {
	return &fakeScoreStore{scores: make(map[int64]*contracts.Score)}
}

func (f *fakeScoreStore) Upsert(ctx context.Context, score *contracts.Score) error {
	if f.err != nil {
		return f.err
	}
	f.scores[score.SignalID] = score
	return nil
}

func (f *fakeScoreStore) GetBySignal(ctx context.Context, signalID int64) (*contracts.Score, error) {
	s, ok := f.scores[signalID]
	if !ok {
		return nil, fmt.Errorf("no score for signal %d", signalID)
	}
	return s, nil
}

func (f *fakeScoreStore) ListScoredOutcomes(ctx context.Context, since time.Time) ([]contracts.ScoredOutcome, error) {
	return nil, nil
}

// exampleSignal is the reference setup: confidence 85, 0.28% stop
// distance (ATR safety 0.70), trend following in a trending regime
// (bias 0.70, fit 0.95), perfect rolling win rate.
func exampleSignal(now time.Time) *contracts.Signal {
	return &contracts.Signal{
		ID:         100,
		Symbol:     "EURUSD",
		Timeframe:  "H1",
		Side:       contracts.SideBuy,
		Price:      100,
		StopLoss:   99.72,
		Confidence: 85,
		Strategy:   "Trend Following",
		Regime:     "Trending",
		CreatedAt:  now,
	}
}

func exampleHistory(now time.Time) []contracts.Signal {
	history := make([]contracts.Signal, 0, 3)
	for i := int64(1); i <= 3; i++ {
		history = append(history, contracts.Signal{
			ID: i, Strategy: "Trend Following", Symbol: "EURUSD", Timeframe: "H1",
			Outcome: contracts.OutcomeWin, CreatedAt: now.AddDate(0, 0, -int(i)*5),
		})
	}
	return history
}

func newTestScorer(history contracts.SignalReader, weights contracts.WeightStore, scores contracts.ScoreStore) *Scorer {
	return NewScorer(NewExtractor(history, logger.NewNop(), 30, 3), weights, scores, logger.NewNop())
}

func TestScorer_Compute_ReferenceExample(t *testing.T) {
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	reader := &fakeSignalReader{signals: exampleHistory(now)}
	scorer := newTestScorer(reader, &fakeWeightStore{active: contracts.DefaultWeightConfig()}, newFakeScoreStore())

	score := scorer.Compute(context.Background(), exampleSignal(now), contracts.DefaultWeightConfig())

	// 0.32*0.85 + 0.18*0.70 + 0.16*0.70 + 0.18*0.95 + 0.16*1.00 = 0.841
	assert.Equal(t, 84, score.Value)
	assert.Equal(t, "High", score.Label())
	assert.Equal(t, "v0-default", score.WeightsVersion)

	require.Len(t, score.Breakdown, 5)
	byFactor := make(map[string]contracts.FactorBreakdown)
	for _, b := range score.Breakdown {
		byFactor[b.Factor] = b
	}

	assert.InDelta(t, 0.85, byFactor[contracts.FactorConfidence].Normalized, 1e-9)
	assert.Equal(t, "85/100", byFactor[contracts.FactorConfidence].RawValue)
	assert.InDelta(t, 0.272, byFactor[contracts.FactorConfidence].Contribution, 1e-9)

	assert.InDelta(t, 0.70, byFactor[contracts.FactorATRSafety].Normalized, 1e-9)
	assert.Equal(t, "0.28% SL distance", byFactor[contracts.FactorATRSafety].RawValue)

	assert.InDelta(t, 0.95, byFactor[contracts.FactorRegimeFit].Normalized, 1e-9)
	assert.InDelta(t, 1.0, byFactor[contracts.FactorRollingWinRate].Normalized, 1e-9)

	// Contributions sum back to the pre-rounding total
	sum := 0.0
	for _, b := range score.Breakdown {
		sum += b.Contribution
	}
	assert.InDelta(t, 0.841, sum, 1e-9)
}

func TestScorer_Compute_MediumBand(t *testing.T) {
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	reader := &fakeSignalReader{} // no history -> neutral win rate

	sig := exampleSignal(now)
	sig.Confidence = 70

	scorer := newTestScorer(reader, &fakeWeightStore{active: contracts.DefaultWeightConfig()}, newFakeScoreStore())
	score := scorer.Compute(context.Background(), sig, contracts.DefaultWeightConfig())

	// 0.32*0.70 + 0.18*0.70 + 0.16*0.70 + 0.18*0.95 + 0.16*0.50 = 0.713
	assert.Equal(t, 71, score.Value)
	assert.Equal(t, "Medium", score.Label())
}

func TestScorer_Compute_RangeProperty(t *testing.T) {
	// For all weight sets summing to 1.0 and factors in [0, 1] the
	// score must land in [0, 100]
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	reader := &fakeSignalReader{}
	scorer := newTestScorer(reader, &fakeWeightStore{}, newFakeScoreStore())

	configs := []*contracts.WeightConfig{
		contracts.DefaultWeightConfig(),
		{
			Version: "uniform",
			Weights: contracts.ScoreFactors{
				contracts.FactorConfidence:     0.20,
				contracts.FactorATRSafety:      0.20,
				contracts.FactorStrategyBias:   0.20,
				contracts.FactorRegimeFit:      0.20,
				contracts.FactorRollingWinRate: 0.20,
			},
		},
		{
			Version: "confidence-heavy",
			Weights: contracts.ScoreFactors{
				contracts.FactorConfidence:     0.50,
				contracts.FactorATRSafety:      0.05,
				contracts.FactorStrategyBias:   0.05,
				contracts.FactorRegimeFit:      0.20,
				contracts.FactorRollingWinRate: 0.20,
			},
		},
	}

	signals := []*contracts.Signal{
		{ID: 1, Confidence: 0, CreatedAt: now},
		{ID: 2, Confidence: 100, Price: 100, StopLoss: 99.95, Strategy: "Trend Following", Regime: "Trending", CreatedAt: now},
		{ID: 3, Confidence: 50, Price: 100, StopLoss: 90, Strategy: "Scalping", Regime: "Volatile", CreatedAt: now},
		{ID: 4, CreatedAt: now}, // everything missing
	}

	for _, cfg := range configs {
		for _, sig := range signals {
			score := scorer.Compute(context.Background(), sig, cfg)
			assert.GreaterOrEqual(t, score.Value, 0, "config %s signal %d", cfg.Version, sig.ID)
			assert.LessOrEqual(t, score.Value, 100, "config %s signal %d", cfg.Version, sig.ID)
			assert.Len(t, score.Breakdown, 5)
		}
	}
}

func TestScorer_Compute_Idempotent(t *testing.T) {
	// Identical signal, weights and frozen history window must produce
	// identical output
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	reader := &fakeSignalReader{signals: exampleHistory(now)}
	scorer := newTestScorer(reader, &fakeWeightStore{}, newFakeScoreStore())

	cfg := contracts.DefaultWeightConfig()
	first := scorer.Compute(context.Background(), exampleSignal(now), cfg)
	second := scorer.Compute(context.Background(), exampleSignal(now), cfg)

	assert.Equal(t, first.Value, second.Value)
	assert.Equal(t, first.Factors, second.Factors)
	assert.Equal(t, first.Breakdown, second.Breakdown)
}

func TestScorer_Score_Persists(t *testing.T) {
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	reader := &fakeSignalReader{signals: exampleHistory(now)}
	store := newFakeScoreStore()
	scorer := newTestScorer(reader, &fakeWeightStore{active: contracts.DefaultWeightConfig()}, store)

	sig := exampleSignal(now)
	score, err := scorer.Score(context.Background(), sig)
	require.NoError(t, err)

	persisted, err := store.GetBySignal(context.Background(), sig.ID)
	require.NoError(t, err)
	assert.Equal(t, score.Value, persisted.Value)

	// Rescore overwrites, never appends
	_, err = scorer.Score(context.Background(), sig)
	require.NoError(t, err)
	assert.Len(t, store.scores, 1)
}

func TestScorer_BulkRescore(t *testing.T) {
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	reader := &fakeSignalReader{signals: []contracts.Signal{
		*exampleSignal(now),
		{ID: 101, Symbol: "GBPUSD", Timeframe: "M15", Confidence: 40, CreatedAt: now},
		{ID: 102, Symbol: "EURUSD", Timeframe: "H4", Confidence: 60, CreatedAt: now},
	}}
	store := newFakeScoreStore()
	scorer := newTestScorer(reader, &fakeWeightStore{active: contracts.DefaultWeightConfig()}, store)

	summary, err := scorer.BulkRescore(context.Background(), reader, contracts.SignalFilter{})
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 3, summary.Scored)
	assert.Equal(t, "v0-default", summary.Version)
	assert.Len(t, store.scores, 3)
}
