package data

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mtarnawa/signalgate/internal/contracts"
)

// NewsRepository implements contracts.NewsStore on PostgreSQL.
// Events are keyed by (source, event_time, currency, title) so
// repeated calendar syncs are idempotent.
type NewsRepository struct {
	pool *pgxpool.Pool
}

// NewNewsRepository creates a news repository
func NewNewsRepository(pool *pgxpool.Pool) *NewsRepository {
	return &NewsRepository{pool: pool}
}

// ListHighImpactBetween returns high-impact events inside [from, to]
func (r *NewsRepository) ListHighImpactBetween(ctx context.Context, from, to time.Time) ([]contracts.NewsEvent, error) {
	query := `
		SELECT id, currency, title, impact, event_time, source
		FROM news_events
		WHERE impact = 'high'
		  AND event_time >= $1 AND event_time <= $2
		ORDER BY event_time
	`

	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query news events: %w", err)
	}
	defer rows.Close()

	events := make([]contracts.NewsEvent, 0)
	for rows.Next() {
		var ev contracts.NewsEvent
		err := rows.Scan(&ev.ID, &ev.Currency, &ev.Title, &ev.Impact, &ev.EventTime, &ev.Source)
		if err != nil {
			return nil, fmt.Errorf("failed to scan news event: %w", err)
		}
		events = append(events, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating news events: %w", err)
	}

	return events, nil
}

// Upsert saves calendar events, returning the number written. Impact
// changes on a known event (calendars revise them) update in place.
func (r *NewsRepository) Upsert(ctx context.Context, events []contracts.NewsEvent) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO news_events (currency, title, impact, event_time, source)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (source, event_time, currency, title) DO UPDATE SET
			impact = EXCLUDED.impact
	`

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	count := 0
	for _, ev := range events {
		_, err := tx.Exec(ctx, query, ev.Currency, ev.Title, ev.Impact, ev.EventTime, ev.Source)
		if err != nil {
			return 0, fmt.Errorf("failed to upsert news event %q: %w", ev.Title, err)
		}
		count++
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit news events: %w", err)
	}

	return count, nil
}
