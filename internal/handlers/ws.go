package handlers

import (
	"log"
	"net/http"

	"github.com/coder/websocket"

	"github.com/scuciatto/paperballspoker/internal/security"
	"github.com/scuciatto/paperballspoker/internal/services"
)

type WSHandler struct {
	hub     *services.Hub
	origins *security.OriginValidator
}

func NewWSHandler(hub *services.Hub, origins *security.OriginValidator) *WSHandler {
	return &WSHandler{
		hub:     hub,
		origins: origins,
	}
}

// HandleWebSocket upgrades the connection and runs it until it drops.
// Session membership is established later by a join-session command;
// until then the connection carries no binding.
func (h *WSHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, h.origins.GetAcceptOptions())
	if err != nil {
		log.Printf("websocket accept failed: %v", err)
		return
	}

	client := services.NewClient(conn, h.hub)
	h.hub.Register(client)
	client.Run()
}
