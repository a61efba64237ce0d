package weights

import (
	"context"
	"fmt"
	"time"

	"github.com/mtarnawa/signalgate/internal/contracts"
	"github.com/mtarnawa/signalgate/pkg/logger"
	"github.com/mtarnawa/signalgate/pkg/redis"
)

const (
	activeCacheKey = "weights:active"
	activeCacheTTL = time.Minute
)

// Store wraps the repository with a short-lived cache of the active
// config. Scoring reads the active config on every call; the cache
// keeps that off the database. Activation invalidates the cache, so
// concurrent scorers read either the old or the new config, never
// neither and never both.
type Store struct {
	repo   contracts.WeightStore
	cache  *redis.Cache
	logger *logger.Logger
}

// NewStore creates a cached weight store
func NewStore(repo contracts.WeightStore, cache *redis.Cache, log *logger.Logger) *Store {
	return &Store{
		repo:   repo,
		cache:  cache,
		logger: log,
	}
}

// NewVersion derives a fresh version identifier from the current time.
// Versions sort monotonically by creation.
func NewVersion(at time.Time) string {
	return "v" + at.UTC().Format("20060102-150405")
}

// Active returns the single active config, cache first
func (s *Store) Active(ctx context.Context) (*contracts.WeightConfig, error) {
	if s.cache != nil {
		var cached contracts.WeightConfig
		found, err := s.cache.Get(ctx, activeCacheKey, &cached)
		if err != nil {
			s.logger.WithError(err).Warn("Active weights cache read failed")
		} else if found {
			return &cached, nil
		}
	}

	cfg, err := s.repo.Active(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, activeCacheKey, cfg, activeCacheTTL); err != nil {
			s.logger.WithError(err).Warn("Active weights cache write failed")
		}
	}

	return cfg, nil
}

// Get returns a config by version
func (s *Store) Get(ctx context.Context, version string) (*contracts.WeightConfig, error) {
	return s.repo.Get(ctx, version)
}

// List returns the full config audit trail, newest first
func (s *Store) List(ctx context.Context) ([]contracts.WeightConfig, error) {
	return s.repo.List(ctx)
}

// CreateAndActivate saves a new config as active and invalidates the
// cached active config
func (s *Store) CreateAndActivate(ctx context.Context, cfg *contracts.WeightConfig) error {
	if err := s.repo.CreateAndActivate(ctx, cfg); err != nil {
		return err
	}
	s.invalidate(ctx)

	s.logger.WithFields(map[string]interface{}{
		"version":   cfg.Version,
		"min_score": cfg.MinScore,
	}).Info("Weight config created and activated")

	return nil
}

// Activate switches the active config to an existing version
func (s *Store) Activate(ctx context.Context, version string) error {
	if err := s.repo.Activate(ctx, version); err != nil {
		return err
	}
	s.invalidate(ctx)

	s.logger.WithField("version", version).Info("Weight config activated")
	return nil
}

// EnsureDefault installs the bootstrap default when no config exists.
// Called once at process start.
func (s *Store) EnsureDefault(ctx context.Context) error {
	if err := s.repo.EnsureDefault(ctx); err != nil {
		return fmt.Errorf("weight store bootstrap failed: %w", err)
	}
	return nil
}

func (s *Store) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, activeCacheKey); err != nil {
		s.logger.WithError(err).Warn("Active weights cache invalidation failed")
	}
}
