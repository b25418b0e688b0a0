package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/playperu/fingergame/internal/apiclient"
	"github.com/playperu/fingergame/internal/catalog"
	"github.com/playperu/fingergame/internal/database"
	"github.com/playperu/fingergame/internal/engine"
	"github.com/playperu/fingergame/internal/leaderboard"
	"github.com/playperu/fingergame/internal/session"
	"github.com/playperu/fingergame/internal/winstats"
	"github.com/playperu/fingergame/internal/wizard"
)

func run(ctx context.Context, cfg *Config, in io.Reader, out, errOut io.Writer) error {
	level := slog.LevelInfo
	if cfg.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: level}))

	db, err := database.Open(ctx, cfg.db)
	if err != nil {
		return fmt.Errorf("opening %s: %w", cfg.db, err)
	}
	defer db.Close()

	var (
		games wizard.Games
		cat   *catalog.Catalog
		board leaderboard.Client
	)
	if cfg.server == "" {
		cat = catalog.LoadDir(cfg.catalogDir, logger)
		games = wizard.NewLocalGames(session.NewStore())
		store, err := leaderboard.NewStore(ctx, db)
		if err != nil {
			return fmt.Errorf("initializing local leaderboard: %w", err)
		}
		board = store
		logger.Debug("playing offline", "db", cfg.db)
	} else {
		client := apiclient.New(cfg.server)
		if cat, err = client.Catalog(ctx); err != nil {
			return fmt.Errorf("loading catalog from %s: %w", cfg.server, err)
		}
		games, board = client, client
		logger.Debug("playing against server", "server", cfg.server)
	}

	con := newConsole(out)
	for _, w := range cat.Warnings() {
		con.printf("warning: %s\n", w)
	}

	backend, err := winstats.NewSQLBackend(ctx, db)
	if err != nil {
		return err
	}
	stats, err := winstats.Open(ctx, backend, cat.Denylist())
	if err != nil {
		return err
	}
	board = leaderboard.NewCached(board)

	wz := wizard.New(wizard.Config{
		Games:         games,
		Engine:        engine.New(cat, nil),
		Denylist:      cat.Denylist(),
		Stats:         stats,
		Leaderboard:   board,
		Logger:        logger,
		HoldThreshold: cfg.hold,
		OnReadiness:   con.readiness,
	})
	defer wz.Close()

	repl := newREPL(wz, con, stats, board)
	return repl.Run(ctx, in)
}
