package contracts

import "time"

// ChallengeStatus is the current state of the prop-firm challenge
type ChallengeStatus string

const (
	ChallengeActive ChallengeStatus = "active"
	ChallengePassed ChallengeStatus = "passed"
	ChallengeFailed ChallengeStatus = "failed"
)

// AccountSettings holds the user's prop-account configuration,
// consumed read-only by the validation pipeline.
type AccountSettings struct {
	AccountSize       float64         `json:"account_size"`
	MaxDailyLossPct   float64         `json:"max_daily_loss_pct"`   // e.g. 5.0
	MaxOverallLossPct float64         `json:"max_overall_loss_pct"` // e.g. 10.0
	ChallengeStatus   ChallengeStatus `json:"challenge_status"`

	// BlackoutMinutes is the per-user news blackout window; 0 means
	// use the configured default
	BlackoutMinutes int `json:"blackout_minutes"`
}

// LossSnapshot summarizes realized losses at a point in time. Losses
// are reported as positive numbers; zero means no loss.
type LossSnapshot struct {
	DailyLoss   float64   `json:"daily_loss"`
	OverallLoss float64   `json:"overall_loss"`
	AsOf        time.Time `json:"as_of"`
}

// NewsEvent is one high-impact economic calendar entry
type NewsEvent struct {
	ID        int64     `json:"id"`
	Currency  string    `json:"currency"` // e.g. "USD"
	Title     string    `json:"title"`
	Impact    string    `json:"impact"` // low, medium, high
	EventTime time.Time `json:"event_time"`
	Source    string    `json:"source"`
}

// IsHighImpact reports whether the event should trigger a blackout
func (e *NewsEvent) IsHighImpact() bool {
	return e.Impact == "high"
}
