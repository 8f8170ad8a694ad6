package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr    string     `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel    slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	LogFormat   string     `env:"LOG_FORMAT" envDefault:"json"`
	SPADir      string     `env:"SPA_DIR" envDefault:"../web/dist"`
	DBPath      string     `env:"DB_PATH" envDefault:"data/console.db"`
	CORSOrigins []string   `env:"CORS_ORIGINS" envSeparator:","`

	ScoreAPIURL     string        `env:"SCORE_API_URL,required,notEmpty"`
	ScoreAPITimeout time.Duration `env:"SCORE_API_TIMEOUT" envDefault:"5s"`

	PollInterval        time.Duration `env:"POLL_INTERVAL" envDefault:"1s"`
	StaleTickPolicy     string        `env:"STALE_TICK_POLICY" envDefault:"last-wins"`
	CompensateOnFailure bool          `env:"COMPENSATE_ON_FAILURE" envDefault:"true"`

	// AdminPasswordHash is a bcrypt hash. When empty, login falls back to
	// the plaintext password stored in the remote settings.
	AdminPasswordHash string `env:"ADMIN_PASSWORD_HASH"`

	RedisURL    string        `env:"REDIS_URL"`
	SnapshotTTL time.Duration `env:"SNAPSHOT_TTL" envDefault:"10m"`
}

// Load reads an optional .env file from the working directory and then
// parses the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("POLL_INTERVAL must be positive, got %s", cfg.PollInterval)
	}
	switch cfg.LogFormat {
	case "json", "text":
	default:
		return nil, fmt.Errorf("LOG_FORMAT must be json or text, got %q", cfg.LogFormat)
	}
	return &cfg, nil
}
