package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/playperu/fingergame/internal/fingergame"
	"github.com/playperu/fingergame/internal/leaderboard"
)

type GameResultResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
}

func handleGameResult(logger *slog.Logger, board leaderboard.Client, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var res fingergame.Result
		if err := readJSON(r, &res); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		id, err := board.ReportResult(ctx, res)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, GameResultResponse{Success: true, ID: id})
	}
}

func handleLeaderboard(logger *slog.Logger, board leaderboard.Client, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		counts, err := board.FetchWinCounts(ctx)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, counts)
	}
}
