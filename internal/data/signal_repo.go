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

const signalColumns = `
	id, symbol, timeframe, side, price, stop_loss, take_profit,
	confidence, strategy, regime, session,
	COALESCE(outcome, ''), realized_pnl, created_at, closed_at
`

// SignalRepository implements contracts.SignalReader on PostgreSQL.
// Signals are written by the ingestion subsystem; everything here is
// read-only.
type SignalRepository struct {
	pool *pgxpool.Pool
}

// NewSignalRepository creates a signal repository
func NewSignalRepository(pool *pgxpool.Pool) *SignalRepository {
	return &SignalRepository{pool: pool}
}

// GetByID retrieves a single signal
func (r *SignalRepository) GetByID(ctx context.Context, id int64) (*contracts.Signal, error) {
	query := `SELECT ` + signalColumns + ` FROM signals WHERE id = $1`

	sig, err := scanSignal(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("signal %d not found: %w", id, err)
		}
		return nil, fmt.Errorf("failed to get signal %d: %w", id, err)
	}

	return sig, nil
}

// ListHistory returns closed signals sharing strategy, symbol and
// timeframe created within [from, to), oldest first
func (r *SignalRepository) ListHistory(ctx context.Context, strategy, symbol, timeframe string, from, to time.Time) ([]contracts.Signal, error) {
	query := `
		SELECT ` + signalColumns + `
		FROM signals
		WHERE strategy = $1 AND symbol = $2 AND timeframe = $3
		  AND outcome IS NOT NULL AND outcome <> ''
		  AND created_at >= $4 AND created_at < $5
		ORDER BY created_at
	`

	rows, err := r.pool.Query(ctx, query, strategy, symbol, timeframe, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query signal history: %w", err)
	}
	defer rows.Close()

	return collectSignals(rows)
}

// ListClosedSince returns signals with a known outcome created at or
// after since
func (r *SignalRepository) ListClosedSince(ctx context.Context, since time.Time) ([]contracts.Signal, error) {
	query := `
		SELECT ` + signalColumns + `
		FROM signals
		WHERE outcome IS NOT NULL AND outcome <> ''
		  AND created_at >= $1
		ORDER BY created_at
	`

	rows, err := r.pool.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query closed signals: %w", err)
	}
	defer rows.Close()

	return collectSignals(rows)
}

// ListIDs returns signal ids matching the filter, oldest first
func (r *SignalRepository) ListIDs(ctx context.Context, f contracts.SignalFilter) ([]int64, error) {
	query := `SELECT id FROM signals WHERE 1=1`
	args := make([]interface{}, 0, 5)

	addArg := func(clause string, val interface{}) {
		args = append(args, val)
		query += fmt.Sprintf(" AND %s $%d", clause, len(args))
	}

	if f.Strategy != "" {
		addArg("strategy =", f.Strategy)
	}
	if f.Symbol != "" {
		addArg("symbol =", f.Symbol)
	}
	if f.Timeframe != "" {
		addArg("timeframe =", f.Timeframe)
	}
	if !f.From.IsZero() {
		addArg("created_at >=", f.From)
	}
	if !f.To.IsZero() {
		addArg("created_at <", f.To)
	}
	query += " ORDER BY created_at"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query signal ids: %w", err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan signal id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating signal ids: %w", err)
	}

	return ids, nil
}

func scanSignal(row pgx.Row) (*contracts.Signal, error) {
	var (
		sig     contracts.Signal
		outcome string
	)

	err := row.Scan(
		&sig.ID, &sig.Symbol, &sig.Timeframe, &sig.Side,
		&sig.Price, &sig.StopLoss, &sig.TakeProfit,
		&sig.Confidence, &sig.Strategy, &sig.Regime, &sig.Session,
		&outcome, &sig.RealizedPnL, &sig.CreatedAt, &sig.ClosedAt,
	)
	if err != nil {
		return nil, err
	}

	sig.Outcome = contracts.Outcome(outcome)
	return &sig, nil
}

func collectSignals(rows pgx.Rows) ([]contracts.Signal, error) {
	signals := make([]contracts.Signal, 0)
	for rows.Next() {
		sig, err := scanSignal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan signal: %w", err)
		}
		signals = append(signals, *sig)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating signals: %w", err)
	}

	return signals, nil
}
