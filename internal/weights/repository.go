package weights

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mtarnawa/signalgate/internal/contracts"
)

// advisoryLockKey serializes default bootstrap across processes so two
// callers can never both materialize a "default" config
const advisoryLockKey = 7431902

// Repository implements contracts.WeightStore on PostgreSQL. Configs
// are append-only; activation flips the previous active row and the
// new one inside a single transaction, so readers observe exactly one
// active config at any moment.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a weight config repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Active returns the single active config
func (r *Repository) Active(ctx context.Context) (*contracts.WeightConfig, error) {
	query := `
		SELECT version, weights, min_score, active, notes, created_at
		FROM weight_configs
		WHERE active = true
	`
	return r.scanOne(r.pool.QueryRow(ctx, query))
}

// Get returns a config by version
func (r *Repository) Get(ctx context.Context, version string) (*contracts.WeightConfig, error) {
	query := `
		SELECT version, weights, min_score, active, notes, created_at
		FROM weight_configs
		WHERE version = $1
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, version))
}

// List returns all configs, newest first. Configs are never deleted;
// the full list is the audit trail.
func (r *Repository) List(ctx context.Context) ([]contracts.WeightConfig, error) {
	query := `
		SELECT version, weights, min_score, active, notes, created_at
		FROM weight_configs
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query weight configs: %w", err)
	}
	defer rows.Close()

	configs := make([]contracts.WeightConfig, 0)
	for rows.Next() {
		var (
			cfg        contracts.WeightConfig
			weightsRaw []byte
		)
		if err := rows.Scan(&cfg.Version, &weightsRaw, &cfg.MinScore, &cfg.Active, &cfg.Notes, &cfg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan weight config: %w", err)
		}
		if err := json.Unmarshal(weightsRaw, &cfg.Weights); err != nil {
			return nil, fmt.Errorf("failed to unmarshal weights for %s: %w", cfg.Version, err)
		}
		configs = append(configs, cfg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating weight configs: %w", err)
	}

	return configs, nil
}

// CreateAndActivate inserts a new config and makes it the single
// active one atomically. Weights are normalized before save so the
// sum-to-one invariant is enforced by construction.
func (r *Repository) CreateAndActivate(ctx context.Context, cfg *contracts.WeightConfig) error {
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid weight config: %w", err)
	}

	weightsRaw, err := json.Marshal(cfg.Weights)
	if err != nil {
		return fmt.Errorf("failed to marshal weights: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `UPDATE weight_configs SET active = false WHERE active = true`); err != nil {
		return fmt.Errorf("failed to deactivate previous config: %w", err)
	}

	query := `
		INSERT INTO weight_configs (version, weights, min_score, active, notes, created_at)
		VALUES ($1, $2, $3, true, $4, NOW())
	`
	if _, err := tx.Exec(ctx, query, cfg.Version, weightsRaw, cfg.MinScore, cfg.Notes); err != nil {
		return fmt.Errorf("failed to insert weight config %s: %w", cfg.Version, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit weight config %s: %w", cfg.Version, err)
	}

	cfg.Active = true
	return nil
}

// Activate makes an existing version the single active config
func (r *Repository) Activate(ctx context.Context, version string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `UPDATE weight_configs SET active = false WHERE active = true`); err != nil {
		return fmt.Errorf("failed to deactivate previous config: %w", err)
	}

	tag, err := tx.Exec(ctx, `UPDATE weight_configs SET active = true WHERE version = $1`, version)
	if err != nil {
		return fmt.Errorf("failed to activate config %s: %w", version, err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("weight config %s not found", version)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit activation of %s: %w", version, err)
	}

	return nil
}

// EnsureDefault installs the bootstrap default config when the table
// is empty. Explicit startup step, guarded by an advisory lock against
// concurrent bootstrap.
func (r *Repository) EnsureDefault(ctx context.Context) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, advisoryLockKey); err != nil {
		return fmt.Errorf("failed to take bootstrap lock: %w", err)
	}

	var count int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM weight_configs`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count weight configs: %w", err)
	}
	if count > 0 {
		return nil
	}

	cfg := contracts.DefaultWeightConfig()
	weightsRaw, err := json.Marshal(cfg.Weights)
	if err != nil {
		return fmt.Errorf("failed to marshal default weights: %w", err)
	}

	query := `
		INSERT INTO weight_configs (version, weights, min_score, active, notes, created_at)
		VALUES ($1, $2, $3, true, $4, NOW())
	`
	if _, err := tx.Exec(ctx, query, cfg.Version, weightsRaw, cfg.MinScore, cfg.Notes); err != nil {
		return fmt.Errorf("failed to insert default weight config: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit default weight config: %w", err)
	}

	return nil
}

func (r *Repository) scanOne(row pgx.Row) (*contracts.WeightConfig, error) {
	var (
		cfg        contracts.WeightConfig
		weightsRaw []byte
	)

	err := row.Scan(&cfg.Version, &weightsRaw, &cfg.MinScore, &cfg.Active, &cfg.Notes, &cfg.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("no weight config found: %w", err)
		}
		return nil, fmt.Errorf("failed to scan weight config: %w", err)
	}

	if err := json.Unmarshal(weightsRaw, &cfg.Weights); err != nil {
		return nil, fmt.Errorf("failed to unmarshal weights for %s: %w", cfg.Version, err)
	}

	return &cfg, nil
}
