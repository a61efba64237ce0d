package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// All environment variables are read here and nowhere else.
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Scoring / optimizer
	Scoring ScoringConfig

	// Validation pipeline
	Pipeline PipelineConfig

	// Economic calendar source
	Calendar CalendarConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// ScoringConfig holds TradeScorer and WeightOptimizer tunables
type ScoringConfig struct {
	RollingWindowDays  int     // trailing window for the rolling win-rate factor
	RollingMinSamples  int     // below this the factor falls back to neutral
	OptimizerWindow    int     // default lookback (days) for weight proposals
	OptimizerRate      float64 // default learning rate
	OptimizerMinSample int     // refuse to propose below this many closed signals
	AutoCommitWeights  bool    // scheduled optimizer commits proposals when true
}

// PipelineConfig holds validation pipeline tunables
type PipelineConfig struct {
	ScoreMinimum         int // hard admissibility gate for ScoreFilter
	NewsBlackoutMinutes  int // fallback when account settings carry none
	PropWarnRatio        float64
	BroadcastEvaluations bool
}

// CalendarConfig holds the economic calendar source configuration
type CalendarConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
	RatePerMinute  int
}

// Load reads configuration from environment variables.
// This function is the only caller of os.Getenv().
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8090"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
		},

		// Scoring
		Scoring: ScoringConfig{
			RollingWindowDays:  getEnvAsInt("SCORING_ROLLING_WINDOW_DAYS", 30),
			RollingMinSamples:  getEnvAsInt("SCORING_ROLLING_MIN_SAMPLES", 3),
			OptimizerWindow:    getEnvAsInt("OPTIMIZER_WINDOW_DAYS", 30),
			OptimizerRate:      getEnvAsFloat("OPTIMIZER_LEARNING_RATE", 0.10),
			OptimizerMinSample: getEnvAsInt("OPTIMIZER_MIN_SAMPLES", 10),
			AutoCommitWeights:  getEnvAsBool("OPTIMIZER_AUTO_COMMIT", false),
		},

		// Pipeline
		Pipeline: PipelineConfig{
			ScoreMinimum:         getEnvAsInt("PIPELINE_SCORE_MINIMUM", 30),
			NewsBlackoutMinutes:  getEnvAsInt("PIPELINE_NEWS_BLACKOUT_MINUTES", 30),
			PropWarnRatio:        getEnvAsFloat("PIPELINE_PROP_WARN_RATIO", 0.80),
			BroadcastEvaluations: getEnvAsBool("PIPELINE_BROADCAST_EVALUATIONS", true),
		},

		// Calendar
		Calendar: CalendarConfig{
			BaseURL:        getEnv("CALENDAR_BASE_URL", "https://www.forexfactory.com"),
			RequestTimeout: getEnvAsDuration("CALENDAR_REQUEST_TIMEOUT", "30s"),
			RatePerMinute:  getEnvAsInt("CALENDAR_RATE_PER_MINUTE", 10),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Pipeline.ScoreMinimum < 0 || c.Pipeline.ScoreMinimum > 100 {
		return fmt.Errorf("PIPELINE_SCORE_MINIMUM must be in [0, 100]")
	}

	if c.Scoring.OptimizerRate <= 0 || c.Scoring.OptimizerRate > 1 {
		return fmt.Errorf("OPTIMIZER_LEARNING_RATE must be in (0, 1]")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
