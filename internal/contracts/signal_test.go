package contracts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignal_StopDistancePct(t *testing.T) {
	tests := []struct {
		name     string
		price    float64
		stopLoss float64
		want     float64
	}{
		{"long stop below price", 1.1000, 1.0945, 0.5},
		{"short stop above price", 1.1000, 1.1055, 0.5},
		{"missing stop", 1.1000, 0, 0},
		{"missing price", 0, 1.1000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Signal{Price: tt.price, StopLoss: tt.stopLoss}
			assert.InDelta(t, tt.want, s.StopDistancePct(), 1e-6)
		})
	}
}

func TestSignal_Currencies(t *testing.T) {
	tests := []struct {
		symbol string
		want   []string
	}{
		{"EURUSD", []string{"EUR", "USD"}},
		{"gbpjpy", []string{"GBP", "JPY"}},
		{"XAUUSD", []string{"XAU", "USD"}},
		{"US30", []string{"US30"}},
		{"BTCUSDT", []string{"BTCUSDT"}},
	}

	for _, tt := range tests {
		s := &Signal{Symbol: tt.symbol}
		assert.Equal(t, tt.want, s.Currencies(), "symbol %s", tt.symbol)
	}
}

func TestSignal_Lifecycle(t *testing.T) {
	open := &Signal{}
	assert.False(t, open.IsClosed())
	assert.False(t, open.IsWin())

	won := &Signal{Outcome: OutcomeWin}
	assert.True(t, won.IsClosed())
	assert.True(t, won.IsWin())

	lost := &Signal{Outcome: OutcomeLoss}
	assert.True(t, lost.IsClosed())
	assert.False(t, lost.IsWin())
}

func TestScoreLabel(t *testing.T) {
	tests := []struct {
		value int
		want  string
	}{
		{100, "High"},
		{80, "High"},
		{79, "Medium"},
		{60, "Medium"},
		{59, "Low"},
		{40, "Low"},
		{39, "Poor"},
		{0, "Poor"},
	}

	for _, tt := range tests {
		if got := ScoreLabel(tt.value); got != tt.want {
			t.Errorf("ScoreLabel(%d) = %q, want %q", tt.value, got, tt.want)
		}
	}
}
