package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mtarnawa/signalgate/internal/contracts"
)

// EvaluationRepository implements contracts.EvaluationStore on
// PostgreSQL.
type EvaluationRepository struct {
	pool *pgxpool.Pool
}

// NewEvaluationRepository creates an evaluation repository
func NewEvaluationRepository(pool *pgxpool.Pool) *EvaluationRepository {
	return &EvaluationRepository{pool: pool}
}

// Upsert saves an evaluation, replacing any previous verdict for the
// same signal
func (r *EvaluationRepository) Upsert(ctx context.Context, eval *contracts.Evaluation) error {
	query := `
		INSERT INTO signal_evaluations (
			signal_id, passed, blocked_reason, score,
			news_ok, prop_ok, score_ok, strategy_ok,
			notes, evaluated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (signal_id) DO UPDATE SET
			passed = EXCLUDED.passed,
			blocked_reason = EXCLUDED.blocked_reason,
			score = EXCLUDED.score,
			news_ok = EXCLUDED.news_ok,
			prop_ok = EXCLUDED.prop_ok,
			score_ok = EXCLUDED.score_ok,
			strategy_ok = EXCLUDED.strategy_ok,
			notes = EXCLUDED.notes,
			evaluated_at = EXCLUDED.evaluated_at
	`

	_, err := r.pool.Exec(ctx, query,
		eval.SignalID, eval.Passed, string(eval.BlockedReason), eval.Score,
		eval.NewsOK, eval.PropOK, eval.ScoreOK, eval.StrategyOK,
		eval.Notes, eval.EvaluatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert evaluation for signal %d: %w", eval.SignalID, err)
	}

	return nil
}

// GetBySignal retrieves the evaluation for a signal
func (r *EvaluationRepository) GetBySignal(ctx context.Context, signalID int64) (*contracts.Evaluation, error) {
	query := `
		SELECT
			signal_id, passed, blocked_reason, score,
			news_ok, prop_ok, score_ok, strategy_ok,
			notes, evaluated_at
		FROM signal_evaluations
		WHERE signal_id = $1
	`

	var (
		eval   contracts.Evaluation
		reason string
	)

	err := r.pool.QueryRow(ctx, query, signalID).Scan(
		&eval.SignalID, &eval.Passed, &reason, &eval.Score,
		&eval.NewsOK, &eval.PropOK, &eval.ScoreOK, &eval.StrategyOK,
		&eval.Notes, &eval.EvaluatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("no evaluation for signal %d: %w", signalID, err)
		}
		return nil, fmt.Errorf("failed to get evaluation for signal %d: %w", signalID, err)
	}

	eval.BlockedReason = contracts.BlockedReason(reason)
	return &eval, nil
}
