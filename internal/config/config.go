package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:"127.0.0.1:34116"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	DBPath   string     `env:"DB_PATH" envDefault:"data/gamehost.db"`

	// RedisURL enables the cross-process submission guard when set.
	RedisURL string `env:"REDIS_URL"`

	BundleDir     string `env:"BUNDLE_DIR" envDefault:"data/bundles"`
	BundleBaseURL string `env:"BUNDLE_BASE_URL"`
	SeedDemo      bool   `env:"SEED_DEMO" envDefault:"true"`

	// SubmitURL is the remote results endpoint. Results are stored locally
	// when it is empty.
	SubmitURL     string        `env:"SUBMIT_URL"`
	SubmitTimeout time.Duration `env:"SUBMIT_TIMEOUT" envDefault:"10s"`

	AllowedOrigins []string `env:"GAME_ALLOWED_ORIGINS" envSeparator:","`
	InitialLives   int      `env:"INITIAL_LIVES" envDefault:"3"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if cfg.InitialLives < 0 || cfg.InitialLives > 10 {
		return nil, fmt.Errorf("INITIAL_LIVES must be between 0 and 10, got %d", cfg.InitialLives)
	}
	if cfg.SubmitTimeout <= 0 {
		return nil, fmt.Errorf("SUBMIT_TIMEOUT must be positive, got %s", cfg.SubmitTimeout)
	}
	return &cfg, nil
}
