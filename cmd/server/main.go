package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/playperu/fingergame/internal/catalog"
	"github.com/playperu/fingergame/internal/config"
	"github.com/playperu/fingergame/internal/database"
	"github.com/playperu/fingergame/internal/engine"
	"github.com/playperu/fingergame/internal/handler/health"
	"github.com/playperu/fingergame/internal/leaderboard"
	"github.com/playperu/fingergame/internal/server"
	"github.com/playperu/fingergame/internal/session"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	// A missing .env is fine; real environment variables win either way.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- Leaderboard ---
	if cfg.DBPath != database.Memory {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return fmt.Errorf("creating database dir: %w", err)
		}
	}
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to libsql: %w", err)
	}
	defer db.Close()

	store, err := leaderboard.NewStore(ctx, db)
	if err != nil {
		return fmt.Errorf("initializing leaderboard: %w", err)
	}
	logger.Info("connected to libsql", "path", cfg.DBPath)

	// --- Catalog ---
	cat := catalog.LoadDir(cfg.CatalogDir, logger)

	// --- Sessions ---
	broker := server.NewBroker()
	sessions := session.NewStore(
		session.WithNotifier(broker.Publish),
		session.WithLogger(logger.With("component", "sessions")),
	)

	// --- HTTP Server ---
	checks := health.NewHandler(logger, map[string]health.Checker{
		"leaderboard": store,
		"catalog": health.CheckerFunc(func(context.Context) error {
			if len(cat.Tasks()) == 0 {
				return errors.New("no tasks loaded")
			}
			return nil
		}),
	})
	srv := server.New(cfg.HTTPAddr, logger, server.Deps{
		Sessions:           sessions,
		Broker:             broker,
		Catalog:            cat,
		Engine:             engine.New(cat, nil),
		Leaderboard:        leaderboard.NewCached(store),
		PublicURL:          cfg.PublicURL,
		LeaderboardTimeout: cfg.LeaderboardTimeout,
	}, checks.Mount)

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}
