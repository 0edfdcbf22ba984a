package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/scuciatto/paperballspoker/internal/observability"
	"github.com/scuciatto/paperballspoker/internal/security"
	"github.com/scuciatto/paperballspoker/internal/services"
)

// NewRouter wires HTTP routes to the registry and hub.
func NewRouter(registry *services.Registry, hub *services.Hub, metrics *observability.Metrics, origins *security.OriginValidator) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	sessions := NewSessionHandlers(registry, metrics)
	ws := NewWSHandler(hub, origins)

	r.Get("/", sessions.Home)
	r.Get("/room/{roomID}", sessions.RoomPage)
	r.Post("/api/create-session", sessions.CreateSession)
	r.Get("/ws", ws.HandleWebSocket)

	r.Get("/healthz", HandleHealth(registry, hub))
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	return r
}
