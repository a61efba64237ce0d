package commands

import (
	"context"
	"fmt"

	"github.com/mtarnawa/signalgate/internal/data"
	"github.com/mtarnawa/signalgate/internal/external/ffcal"
	"github.com/mtarnawa/signalgate/internal/optimizer"
	"github.com/mtarnawa/signalgate/internal/pipeline"
	"github.com/mtarnawa/signalgate/internal/scoring"
	"github.com/mtarnawa/signalgate/internal/weights"
	"github.com/mtarnawa/signalgate/pkg/config"
	"github.com/mtarnawa/signalgate/pkg/database"
	"github.com/mtarnawa/signalgate/pkg/httputil"
	"github.com/mtarnawa/signalgate/pkg/logger"
	"github.com/mtarnawa/signalgate/pkg/redis"
)

// app wires the shared services used by every command. Commands build
// it once at startup and close it on exit.
type app struct {
	cfg    *config.Config
	logger *logger.Logger
	db     *database.DB
	cache  *redis.Client

	signals  *data.SignalRepository
	news     *data.NewsRepository
	accounts *data.AccountRepository
	scores   *scoring.Repository
	weights  *weights.Store

	scorer      *scoring.Scorer
	optimizer   *optimizer.Optimizer
	pipeline    *pipeline.Pipeline
	evaluations *pipeline.EvaluationRepository
	calendar    *ffcal.Client
}

// newApp loads config, connects the stores and builds the service
// graph. The bootstrap default weight config is installed here so
// every command sees an active config.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	cache, err := redis.New(cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	a := &app{
		cfg:    cfg,
		logger: log,
		db:     db,
		cache:  cache,
	}

	a.signals = data.NewSignalRepository(db.Pool)
	a.news = data.NewNewsRepository(db.Pool)
	a.accounts = data.NewAccountRepository(db.Pool)
	a.scores = scoring.NewRepository(db.Pool)

	weightCache := redis.NewCache(cache, "signalgate")
	a.weights = weights.NewStore(weights.NewRepository(db.Pool), weightCache, log)

	if err := a.weights.EnsureDefault(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("ensure default weights: %w", err)
	}

	extractor := scoring.NewExtractor(a.signals, log,
		cfg.Scoring.RollingWindowDays, cfg.Scoring.RollingMinSamples)
	a.scorer = scoring.NewScorer(extractor, a.weights, a.scores, log)

	a.optimizer = optimizer.New(a.scores, a.weights, log, cfg.Scoring.OptimizerMinSample)

	httpClient := httputil.New(log, cfg.Calendar.RequestTimeout).
		WithRateLimit(cfg.Calendar.RatePerMinute)
	a.calendar = ffcal.New(httpClient, cfg.Calendar.BaseURL, log)

	newsFilter := pipeline.NewNewsFilter(a.news, a.accounts, cfg.Pipeline.NewsBlackoutMinutes, log)
	propFilter := pipeline.NewPropRuleFilter(a.accounts, cfg.Pipeline.PropWarnRatio, log)
	scoreFilter := pipeline.NewScoreFilter(a.scorer, a.weights, cfg.Pipeline.ScoreMinimum, log)
	strategyFilter := pipeline.NewStrategyFilter()

	a.evaluations = pipeline.NewEvaluationRepository(db.Pool)
	a.pipeline = pipeline.New(newsFilter, propFilter, scoreFilter, strategyFilter, a.evaluations, log)

	return a, nil
}

// Close releases the app's connections
func (a *app) Close() {
	if a.cache != nil {
		a.cache.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}
