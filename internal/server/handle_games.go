package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/fingergame/internal/engine"
	"github.com/playperu/fingergame/internal/fingergame"
	"github.com/playperu/fingergame/internal/session"
)

type CreateGameResponse struct {
	GameID string `json:"gameId"`
}

type PlayerRequest struct {
	PlayerName string `json:"playerName"`
}

type PlayersResponse struct {
	Message string   `json:"message"`
	Players []string `json:"players"`
}

type EliminateResponse struct {
	Message    string   `json:"message"`
	Eliminated []string `json:"eliminated"`
	Winner     *string  `json:"winner"`
}

type GameIDPath struct {
	ID string `path:"id"`
}

type RandomTaskRequest struct {
	GameIDPath
	Difficulty string `query:"difficulty" enum:"any,easy,medium,hard"`
}

type PlayerActionRequest struct {
	GameIDPath
	PlayerRequest
}

func handleCreateGame(logger *slog.Logger, sessions *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := sessions.Create()
		logger.Info("game created", "game_id", id)
		writeJSON(w, http.StatusOK, CreateGameResponse{GameID: id})
	}
}

func handleRandomTask(logger *slog.Logger, sessions *session.Store, eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := sessions.Get(chi.URLParam(r, "id")); err != nil {
			writeDomainError(w, logger, err)
			return
		}

		task, err := eng.PickTask(fingergame.Difficulty(r.URL.Query().Get("difficulty")))
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, task)
	}
}

func handleAddPlayer(logger *slog.Logger, sessions *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PlayerRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		players, err := sessions.AddPlayer(chi.URLParam(r, "id"), req.PlayerName)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, PlayersResponse{Message: "Player added", Players: players})
	}
}

func handleEliminate(logger *slog.Logger, sessions *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PlayerRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		res, err := sessions.Eliminate(chi.URLParam(r, "id"), req.PlayerName)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, EliminateResponse{
			Message:    "Player eliminated",
			Eliminated: res.Eliminated,
			Winner:     res.Winner,
		})
	}
}

func handleStatus(logger *slog.Logger, sessions *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := sessions.Status(chi.URLParam(r, "id"))
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}
