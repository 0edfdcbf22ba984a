package handlers

import (
	"net/http"

	"github.com/scuciatto/paperballspoker/internal/services"
)

// HandleHealth reports liveness and the live session/connection counts.
func HandleHealth(registry *services.Registry, hub *services.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"status":             "ok",
			"active_sessions":    registry.Count(),
			"active_connections": hub.ConnectionCount(),
		})
	}
}
