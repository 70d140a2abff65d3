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
	DatabaseURL string     `env:"DATABASE_URL" envDefault:"file:data/houseparty.db"`
	LogLevel    slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	RedisURL    string     `env:"REDIS_URL"`
	PublicURL   string     `env:"PUBLIC_URL" envDefault:"http://localhost:8080"`
	CORSOrigins []string   `env:"CORS_ORIGINS" envDefault:"*" envSeparator:","`

	LiveScore LiveScore

	SquaresAllGuests bool `env:"SQUARES_FALLBACK_ALL_GUESTS" envDefault:"false"`
}

type LiveScore struct {
	URL     string        `env:"LIVESCORE_URL" envDefault:"https://site.api.espn.com/apis/site/v2/sports/football/nfl/scoreboard?dates=20260208"`
	EventID string        `env:"LIVESCORE_EVENT_ID" envDefault:"401772988"`
	TTLPre  time.Duration `env:"LIVESCORE_TTL_PRE" envDefault:"5m"`
	TTLLive time.Duration `env:"LIVESCORE_TTL_LIVE" envDefault:"30s"`
	TTLPost time.Duration `env:"LIVESCORE_TTL_POST" envDefault:"1h"`
	Timeout time.Duration `env:"LIVESCORE_TIMEOUT" envDefault:"10s"`
}

// Load reads an optional .env file, then the environment. Variables
// already set in the environment win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}
