package contracts

import "testing"

func TestDeriveBlockedReason(t *testing.T) {
	tests := []struct {
		name       string
		newsOK     bool
		propOK     bool
		scoreOK    bool
		strategyOK bool
		want       BlockedReason
	}{
		{"all pass", true, true, true, true, ReasonPassed},
		{"news only", false, true, true, true, ReasonNews},
		{"prop only", true, false, true, true, ReasonProp},
		{"score only", true, true, false, true, ReasonScore},
		{"strategy only", true, true, true, false, ReasonStrategy},
		{"two failures", false, true, false, true, ReasonMultiple},
		{"three failures", false, false, false, true, ReasonMultiple},
		{"all fail", false, false, false, false, ReasonMultiple},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveBlockedReason(tt.newsOK, tt.propOK, tt.scoreOK, tt.strategyOK)
			if got != tt.want {
				t.Errorf("DeriveBlockedReason() = %v, want %v", got, tt.want)
			}
		})
	}
}
