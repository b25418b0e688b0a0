package server

import (
	"net/http"

	"github.com/playperu/fingergame/internal/catalog"
)

func handleTasks(c *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, c.Tasks())
	}
}

func handleMemes(c *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, c.Media())
	}
}

func handleBadWords(c *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, c.BadWords())
	}
}
