package handlers

import (
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/scuciatto/paperballspoker/internal/observability"
	"github.com/scuciatto/paperballspoker/internal/security"
	"github.com/scuciatto/paperballspoker/internal/services"
)

type SessionHandlers struct {
	registry *services.Registry
	metrics  *observability.Metrics
}

func NewSessionHandlers(registry *services.Registry, metrics *observability.Metrics) *SessionHandlers {
	return &SessionHandlers{
		registry: registry,
		metrics:  metrics,
	}
}

type createSessionRequest struct {
	SessionName string `json:"sessionName"`
}

type createSessionResponse struct {
	SessionID string `json:"sessionId"`
	Name      string `json:"name"`
}

// CreateSession allocates a new session id. A missing or invalid name
// falls back to the default rather than failing the request.
func (h *SessionHandlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	name, err := security.ValidateSessionName(req.SessionName)
	if err != nil {
		name = ""
	}

	session := h.registry.Create(name)
	h.metrics.ActiveSessions.Inc()
	h.metrics.SessionEvents.WithLabelValues("session_created").Inc()

	respondJSON(w, http.StatusOK, createSessionResponse{
		SessionID: session.ID,
		Name:      session.Name,
	})
}

var roomShell = template.Must(template.New("room").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>Planning Poker</title>
</head>
<body data-session-id="{{.SessionID}}">
    <div id="app"></div>
    <p>Session ID: {{.SessionID}}</p>
    <p>WebSocket endpoint: /ws</p>
</body>
</html>
`))

// RoomPage serves the client shell for a session. The id is not
// validated here; an unknown session surfaces at join time over the
// WebSocket protocol.
func (h *SessionHandlers) RoomPage(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "roomID")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = roomShell.Execute(w, map[string]string{"SessionID": sessionID})
}

// Home serves the landing shell.
func (h *SessionHandlers) Home(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(`<!DOCTYPE html>
<html>
<head>
    <title>Planning Poker</title>
</head>
<body>
    <h1>Planning Poker</h1>
    <p>POST /api/create-session to start a session.</p>
</body>
</html>
`))
}
