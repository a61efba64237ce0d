package pipeline

import (
	"context"

	"github.com/mtarnawa/signalgate/internal/contracts"
)

// Status tags a filter result. Indeterminate marks an internal fault;
// the pipeline maps it to a pass (fail-open) so one broken filter
// cannot block every signal.
type Status string

const (
	StatusPassed        Status = "passed"
	StatusBlocked       Status = "blocked"
	StatusIndeterminate Status = "indeterminate"
)

// Outcome is the tagged result of one filter check
type Outcome struct {
	Status Status
	Reason string

	// Score is set by the score check only, recorded on the
	// evaluation whether or not the signal passes
	Score *int
}

// Passed returns a passing outcome
func Passed() Outcome {
	return Outcome{Status: StatusPassed}
}

// PassedWithReason returns a passing outcome carrying an advisory note
func PassedWithReason(reason string) Outcome {
	return Outcome{Status: StatusPassed, Reason: reason}
}

// Blocked returns a blocking outcome
func Blocked(reason string) Outcome {
	return Outcome{Status: StatusBlocked, Reason: reason}
}

// Indeterminate returns a fault outcome
func Indeterminate(err error) Outcome {
	return Outcome{Status: StatusIndeterminate, Reason: err.Error()}
}

// Filter is one admissibility check. Names are fixed: "news", "prop",
// "score", "strategy". Check must not fail the pipeline; internal
// faults are reported as Indeterminate outcomes.
type Filter interface {
	Name() string
	Check(ctx context.Context, sig *contracts.Signal) Outcome
}
