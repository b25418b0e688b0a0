package server

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/skip2/go-qrcode"

	"github.com/playperu/fingergame/internal/session"
)

const qrSize = 320

// handleQR renders a PNG QR code pointing at the game's status URL. The
// base is publicURL when set, otherwise it is derived from the request.
func handleQR(logger *slog.Logger, sessions *session.Store, publicURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, err := sessions.Get(id); err != nil {
			writeDomainError(w, logger, err)
			return
		}

		png, err := qrcode.Encode(gameURL(r, publicURL, id), qrcode.Medium, qrSize)
		if err != nil {
			logger.Error("qr generation failed", "game_id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "qr generation failed")
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		_, _ = w.Write(png)
	}
}

func gameURL(r *http.Request, publicURL, id string) string {
	base := strings.TrimRight(publicURL, "/")
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}
		base = scheme + "://" + r.Host
	}
	return base + "/api/games/" + id + "/status"
}
