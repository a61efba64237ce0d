package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mtarnawa/signalgate/internal/contracts"
)

// Repository implements contracts.ScoreStore on PostgreSQL.
// The five normalized factors are stored as flat columns next to the
// JSON breakdown so the optimizer can read its training window without
// unpacking JSON.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a score repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Upsert writes the score for a signal, overwriting any previous one
func (r *Repository) Upsert(ctx context.Context, score *contracts.Score) error {
	breakdown, err := json.Marshal(score.Breakdown)
	if err != nil {
		return fmt.Errorf("failed to marshal breakdown: %w", err)
	}

	query := `
		INSERT INTO signal_scores (
			signal_id, value, breakdown, weights_version,
			confidence, atr_safety, strategy_bias, regime_fit, rolling_win_rate,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		ON CONFLICT (signal_id) DO UPDATE SET
			value = EXCLUDED.value,
			breakdown = EXCLUDED.breakdown,
			weights_version = EXCLUDED.weights_version,
			confidence = EXCLUDED.confidence,
			atr_safety = EXCLUDED.atr_safety,
			strategy_bias = EXCLUDED.strategy_bias,
			regime_fit = EXCLUDED.regime_fit,
			rolling_win_rate = EXCLUDED.rolling_win_rate,
			updated_at = NOW()
	`

	_, err = r.pool.Exec(ctx, query,
		score.SignalID, score.Value, breakdown, score.WeightsVersion,
		score.Factors[contracts.FactorConfidence],
		score.Factors[contracts.FactorATRSafety],
		score.Factors[contracts.FactorStrategyBias],
		score.Factors[contracts.FactorRegimeFit],
		score.Factors[contracts.FactorRollingWinRate],
		score.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert score for signal %d: %w", score.SignalID, err)
	}

	return nil
}

// GetBySignal retrieves the score for a signal
func (r *Repository) GetBySignal(ctx context.Context, signalID int64) (*contracts.Score, error) {
	query := `
		SELECT
			signal_id, value, breakdown, weights_version,
			confidence, atr_safety, strategy_bias, regime_fit, rolling_win_rate,
			created_at, updated_at
		FROM signal_scores
		WHERE signal_id = $1
	`

	var (
		score        contracts.Score
		breakdownRaw []byte
	)
	var confidence, atrSafety, strategyBias, regimeFit, rollingWinRate float64

	err := r.pool.QueryRow(ctx, query, signalID).Scan(
		&score.SignalID, &score.Value, &breakdownRaw, &score.WeightsVersion,
		&confidence, &atrSafety, &strategyBias, &regimeFit, &rollingWinRate,
		&score.CreatedAt, &score.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("no score for signal %d: %w", signalID, err)
		}
		return nil, fmt.Errorf("failed to get score for signal %d: %w", signalID, err)
	}

	if err := json.Unmarshal(breakdownRaw, &score.Breakdown); err != nil {
		return nil, fmt.Errorf("failed to unmarshal breakdown: %w", err)
	}

	score.Factors = contracts.ScoreFactors{
		contracts.FactorConfidence:     confidence,
		contracts.FactorATRSafety:      atrSafety,
		contracts.FactorStrategyBias:   strategyBias,
		contracts.FactorRegimeFit:      regimeFit,
		contracts.FactorRollingWinRate: rollingWinRate,
	}

	return &score, nil
}

// ListScoredOutcomes returns closed signals created at or after since
// joined with their cached factor values
func (r *Repository) ListScoredOutcomes(ctx context.Context, since time.Time) ([]contracts.ScoredOutcome, error) {
	query := `
		SELECT
			sc.signal_id,
			sc.confidence, sc.atr_safety, sc.strategy_bias, sc.regime_fit, sc.rolling_win_rate,
			s.outcome
		FROM signal_scores sc
		JOIN signals s ON s.id = sc.signal_id
		WHERE s.outcome IS NOT NULL AND s.outcome <> ''
		  AND s.created_at >= $1
		ORDER BY s.created_at
	`

	rows, err := r.pool.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query scored outcomes: %w", err)
	}
	defer rows.Close()

	outcomes := make([]contracts.ScoredOutcome, 0)
	for rows.Next() {
		var (
			o       contracts.ScoredOutcome
			factors [5]float64
			outcome string
		)

		err := rows.Scan(&o.SignalID,
			&factors[0], &factors[1], &factors[2], &factors[3], &factors[4],
			&outcome,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scored outcome: %w", err)
		}

		o.Factors = contracts.ScoreFactors{
			contracts.FactorConfidence:     factors[0],
			contracts.FactorATRSafety:      factors[1],
			contracts.FactorStrategyBias:   factors[2],
			contracts.FactorRegimeFit:      factors[3],
			contracts.FactorRollingWinRate: factors[4],
		}
		o.Outcome = contracts.Outcome(outcome)

		outcomes = append(outcomes, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scored outcomes: %w", err)
	}

	return outcomes, nil
}
