package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mtarnawa/signalgate/internal/contracts"
)

// AccountRepository implements contracts.AccountReader on PostgreSQL.
// account_settings holds a single row; losses are derived from the
// signals table on demand.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates an account repository
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// Settings retrieves the prop-account configuration. A missing row
// returns permissive defaults so the pipeline keeps working before
// the account is configured.
func (r *AccountRepository) Settings(ctx context.Context) (*contracts.AccountSettings, error) {
	query := `
		SELECT account_size, max_daily_loss_pct, max_overall_loss_pct,
		       challenge_status, blackout_minutes
		FROM account_settings
		ORDER BY id
		LIMIT 1
	`

	var (
		settings contracts.AccountSettings
		status   string
	)

	err := r.pool.QueryRow(ctx, query).Scan(
		&settings.AccountSize, &settings.MaxDailyLossPct, &settings.MaxOverallLossPct,
		&status, &settings.BlackoutMinutes,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &contracts.AccountSettings{ChallengeStatus: contracts.ChallengeActive}, nil
		}
		return nil, fmt.Errorf("failed to get account settings: %w", err)
	}

	settings.ChallengeStatus = contracts.ChallengeStatus(status)
	return &settings, nil
}

// LossSnapshot sums realized losses from closed signals: daily over
// the UTC day containing at, overall across all time. Losses come
// back as positive numbers; profitable days report zero.
func (r *AccountRepository) LossSnapshot(ctx context.Context, at time.Time) (*contracts.LossSnapshot, error) {
	dayStart := at.UTC().Truncate(24 * time.Hour)
	dayEnd := dayStart.Add(24 * time.Hour)

	query := `
		SELECT
			COALESCE(GREATEST(-SUM(realized_pnl) FILTER (
				WHERE closed_at >= $1 AND closed_at < $2
			), 0), 0) AS daily_loss,
			COALESCE(GREATEST(-SUM(realized_pnl), 0), 0) AS overall_loss
		FROM signals
		WHERE outcome IS NOT NULL AND outcome <> ''
	`

	snapshot := contracts.LossSnapshot{AsOf: at}
	err := r.pool.QueryRow(ctx, query, dayStart, dayEnd).Scan(
		&snapshot.DailyLoss, &snapshot.OverallLoss,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compute loss snapshot: %w", err)
	}

	return &snapshot, nil
}
