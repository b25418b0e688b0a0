package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" || cfg.LogLevel != slog.LevelInfo || cfg.LeaderboardTimeout != 5*time.Second {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.CatalogDir != "" {
		t.Fatalf("expected built-in catalog by default, got %q", cfg.CatalogDir)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("DB_PATH", ":memory:")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("CATALOG_DIR", "/srv/catalog")
	t.Setenv("PUBLIC_URL", "https://play.example.com")
	t.Setenv("LEADERBOARD_TIMEOUT", "250ms")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := Config{
		HTTPAddr:           ":9999",
		DBPath:             ":memory:",
		LogLevel:           slog.LevelDebug,
		CatalogDir:         "/srv/catalog",
		PublicURL:          "https://play.example.com",
		LeaderboardTimeout: 250 * time.Millisecond,
	}
	if *cfg != want {
		t.Fatalf("expected %+v, got %+v", want, *cfg)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("LEADERBOARD_TIMEOUT", "soon")
	if _, err := Load(); err == nil {
		t.Fatal("expected an error for an invalid duration")
	}
}
