package contracts

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultWeightConfig(t *testing.T) {
	cfg := DefaultWeightConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 60, cfg.MinScore)
	assert.InDelta(t, 0.32, cfg.Weights[FactorConfidence], 1e-9)
	assert.InDelta(t, 0.18, cfg.Weights[FactorATRSafety], 1e-9)
	assert.InDelta(t, 0.16, cfg.Weights[FactorStrategyBias], 1e-9)
	assert.InDelta(t, 0.18, cfg.Weights[FactorRegimeFit], 1e-9)
	assert.InDelta(t, 0.16, cfg.Weights[FactorRollingWinRate], 1e-9)
	assert.InDelta(t, 1.0, cfg.WeightSum(), WeightSumTolerance)
}

func TestWeightConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*WeightConfig)
		wantErr bool
	}{
		{"default is valid", func(c *WeightConfig) {}, false},
		{"empty version", func(c *WeightConfig) { c.Version = "" }, true},
		{"missing factor", func(c *WeightConfig) { delete(c.Weights, FactorRegimeFit) }, true},
		{"extra factor", func(c *WeightConfig) { c.Weights["sentiment"] = 0.0 }, true},
		{"sum not one", func(c *WeightConfig) { c.Weights[FactorConfidence] = 0.50 }, true},
		{"threshold too high", func(c *WeightConfig) { c.MinScore = 120 }, true},
		{"threshold negative", func(c *WeightConfig) { c.MinScore = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultWeightConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWeightConfig_Normalize(t *testing.T) {
	cfg := &WeightConfig{
		Version: "test",
		Weights: ScoreFactors{
			FactorConfidence:     0.40,
			FactorATRSafety:      0.40,
			FactorStrategyBias:   0.40,
			FactorRegimeFit:      0.40,
			FactorRollingWinRate: 0.40,
		},
	}

	cfg.Normalize()

	if math.Abs(cfg.WeightSum()-1.0) > WeightSumTolerance {
		t.Errorf("normalized sum = %v, want 1.0", cfg.WeightSum())
	}
	for _, name := range FactorNames {
		assert.InDelta(t, 0.20, cfg.Weights[name], 1e-9)
	}
}
