package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath   string     `env:"DB_PATH" envDefault:"data/fingergame.db"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`

	// CatalogDir holds tasks, memes and badwords files. Empty serves the
	// built-in datasets.
	CatalogDir string `env:"CATALOG_DIR"`

	// PublicURL is the base URL encoded into game QR codes.
	PublicURL          string        `env:"PUBLIC_URL"`
	LeaderboardTimeout time.Duration `env:"LEADERBOARD_TIMEOUT" envDefault:"5s"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}
