package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/playperu/fingergame/internal/fingergame"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeDomainError maps the error taxonomy onto HTTP statuses. Lookup and
// duplicate failures carry the sentinel's text so clients can tell them
// apart; other bad input carries the full message.
func writeDomainError(w http.ResponseWriter, logger *slog.Logger, err error) {
	for _, m := range []struct {
		sentinel error
		status   int
	}{
		{fingergame.ErrPlayerNotFound, http.StatusNotFound},
		{fingergame.ErrEmptyPool, http.StatusNotFound},
		{fingergame.ErrNotFound, http.StatusNotFound},
		{fingergame.ErrDuplicate, http.StatusBadRequest},
		{fingergame.ErrInvalidInput, http.StatusBadRequest},
	} {
		if !errors.Is(err, m.sentinel) {
			continue
		}
		msg := m.sentinel.Error()
		if m.sentinel == fingergame.ErrInvalidInput {
			msg = err.Error()
		}
		writeError(w, m.status, msg)
		return
	}

	logger.Error("request failed", "error", err)
	if errors.Is(err, fingergame.ErrExternalStore) {
		writeError(w, http.StatusInternalServerError, fingergame.ErrExternalStore.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, "internal error")
}
