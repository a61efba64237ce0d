package contracts

import (
	"context"
	"time"
)

// SignalFilter narrows signal id listings for bulk operations.
// Zero values mean "any".
type SignalFilter struct {
	Strategy  string
	Symbol    string
	Timeframe string
	From      time.Time
	To        time.Time
}

// SignalReader provides read access to signals owned by the ingestion
// subsystem.
type SignalReader interface {
	GetByID(ctx context.Context, id int64) (*Signal, error)

	// ListHistory returns closed signals sharing strategy, symbol and
	// timeframe within [from, to), ordered by creation time
	ListHistory(ctx context.Context, strategy, symbol, timeframe string, from, to time.Time) ([]Signal, error)

	// ListClosedSince returns signals with a known outcome created at
	// or after since
	ListClosedSince(ctx context.Context, since time.Time) ([]Signal, error)

	// ListIDs returns signal ids matching the filter
	ListIDs(ctx context.Context, f SignalFilter) ([]int64, error)
}

// ScoredOutcome pairs a closed signal's outcome with its cached
// normalized factors, the optimizer's training row.
type ScoredOutcome struct {
	SignalID int64
	Factors  ScoreFactors
	Outcome  Outcome
}

// ScoreStore persists computed scores, one per signal
type ScoreStore interface {
	Upsert(ctx context.Context, score *Score) error
	GetBySignal(ctx context.Context, signalID int64) (*Score, error)

	// ListScoredOutcomes returns closed signals created at or after
	// since together with their cached factors
	ListScoredOutcomes(ctx context.Context, since time.Time) ([]ScoredOutcome, error)
}

// EvaluationStore persists pipeline verdicts, one per signal
type EvaluationStore interface {
	Upsert(ctx context.Context, eval *Evaluation) error
	GetBySignal(ctx context.Context, signalID int64) (*Evaluation, error)
}

// WeightStore persists versioned weight configs. Implementations must
// guarantee that exactly one config is active at any moment and that
// activation flips the previous active config atomically.
type WeightStore interface {
	Active(ctx context.Context) (*WeightConfig, error)
	Get(ctx context.Context, version string) (*WeightConfig, error)
	List(ctx context.Context) ([]WeightConfig, error)

	// CreateAndActivate inserts a new config and makes it the single
	// active one in the same transaction
	CreateAndActivate(ctx context.Context, cfg *WeightConfig) error

	// Activate makes an existing version the single active config
	Activate(ctx context.Context, version string) error

	// EnsureDefault installs the bootstrap default when no config
	// exists. Run once at startup, never lazily.
	EnsureDefault(ctx context.Context) error
}

// NewsStore provides calendar events for the news filter
type NewsStore interface {
	ListHighImpactBetween(ctx context.Context, from, to time.Time) ([]NewsEvent, error)
	Upsert(ctx context.Context, events []NewsEvent) (int, error)
}

// AccountReader provides the user's prop-account configuration and
// realized loss state.
type AccountReader interface {
	Settings(ctx context.Context) (*AccountSettings, error)
	LossSnapshot(ctx context.Context, at time.Time) (*LossSnapshot, error)
}
