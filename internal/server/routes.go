package server

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"
)

func addRoutes(r chi.Router, logger *slog.Logger, deps Deps) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Finger Game API", "/openapi.json", "/docs"))

	// Static datasets.
	r.Get("/api/tasks", handleTasks(deps.Catalog))
	r.Get("/api/memes", handleMemes(deps.Catalog))
	r.Get("/api/bad-words", handleBadWords(deps.Catalog))

	r.Post("/api/games", handleCreateGame(logger, deps.Sessions))
	r.Route("/api/games/{id}", func(r chi.Router) {
		r.Get("/random-task", handleRandomTask(logger, deps.Sessions, deps.Engine))
		r.Post("/players", handleAddPlayer(logger, deps.Sessions))
		r.Post("/eliminate", handleEliminate(logger, deps.Sessions))
		r.Get("/status", handleStatus(logger, deps.Sessions))
		r.Get("/events", handleEvents(logger, deps.Sessions, deps.Broker))
		r.Get("/qr", handleQR(logger, deps.Sessions, deps.PublicURL))
	})

	r.Post("/api/game-result", handleGameResult(logger, deps.Leaderboard, deps.LeaderboardTimeout))
	r.Get("/api/leaderboard", handleLeaderboard(logger, deps.Leaderboard, deps.LeaderboardTimeout))
}
