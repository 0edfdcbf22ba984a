package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/scuciatto/paperballspoker/internal/config"
	"github.com/scuciatto/paperballspoker/internal/models"
	"github.com/scuciatto/paperballspoker/internal/observability"
	"github.com/scuciatto/paperballspoker/internal/security"
)

// DefaultParticipantName is used when a join carries a blank or invalid
// user name. Joins are never rejected over a bad name.
const DefaultParticipantName = "Anonymous"

// Hub owns every connection and its session binding, and applies every
// command. All session mutations happen on the single Run goroutine, so
// commands for a session are linearized and broadcast in application
// order without per-session locks.
type Hub struct {
	registry *Registry
	metrics  *observability.Metrics
	limiter  *security.RateLimiter

	register   chan *Client
	unregister chan *Client
	inbound    chan *clientMessage

	// Owned by the run goroutine.
	clients  map[*Client]bool
	sessions map[string]map[*Client]bool

	connections atomic.Int64
}

type clientMessage struct {
	client *Client
	data   []byte
}

func NewHub(registry *Registry, metrics *observability.Metrics) *Hub {
	return &Hub{
		registry:   registry,
		metrics:    metrics,
		limiter:    security.NewRateLimiter(config.MaxMessagesPerSecond, config.RateLimitWindow),
		register:   make(chan *Client),
		unregister: make(chan *Client, config.HubUnregisterBufferSize),
		inbound:    make(chan *clientMessage, config.HubInboundBufferSize),
		clients:    make(map[*Client]bool),
		sessions:   make(map[string]map[*Client]bool),
	}
}

// Run processes registrations and commands until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case msg := <-h.inbound:
			h.handleMessage(msg.client, msg.data)

		case <-ctx.Done():
			return
		}
	}
}

// Register hands a freshly accepted connection to the hub. It blocks
// until the hub has taken ownership, so a client's pumps only ever run
// after registration.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister reports a dropped connection. Safe to call for clients
// that never joined a session or were already removed.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Dispatch queues a raw inbound frame for processing.
func (h *Hub) Dispatch(client *Client, data []byte) {
	h.inbound <- &clientMessage{client: client, data: data}
}

// ConnectionCount reports the number of registered connections.
func (h *Hub) ConnectionCount() int64 {
	return h.connections.Load()
}

func (h *Hub) registerClient(client *Client) {
	h.clients[client] = true
	h.connections.Add(1)
	h.metrics.ActiveConnections.Inc()
	log.Printf("connection registered (conn=%s, total=%d)", client.id, len(h.clients))
}

func (h *Hub) unregisterClient(client *Client) {
	if !h.clients[client] {
		// Disconnect for an unknown connection is a no-op, not an error.
		return
	}
	delete(h.clients, client)
	h.connections.Add(-1)
	h.metrics.ActiveConnections.Dec()
	h.limiter.Remove(client.id)
	h.detachFromSession(client)
	log.Printf("connection unregistered (conn=%s, total=%d)", client.id, len(h.clients))
}

// detachFromSession removes the client's participant from its session,
// notifies the remaining members, and disposes the session when it
// empties. A client with no binding is left alone.
func (h *Hub) detachFromSession(client *Client) {
	if client.sessionID == "" {
		return
	}
	sessionID := client.sessionID

	if conns, ok := h.sessions[sessionID]; ok {
		delete(conns, client)
		if len(conns) == 0 {
			delete(h.sessions, sessionID)
		}
	}

	session, err := h.registry.Get(sessionID)
	if err == nil {
		if session.Leave(client.participantID) {
			h.broadcastToSession(sessionID, client, &models.WSMessage{
				Type:    models.MsgTypeParticipantLeft,
				Payload: models.ParticipantLeftPayload{ParticipantID: client.participantID},
			})
			h.metrics.SessionEvents.WithLabelValues("participant_left").Inc()
			log.Printf("%s left session %s", client.userName, sessionID)
		}
		if h.registry.DisposeIfEmpty(sessionID) {
			h.metrics.ActiveSessions.Dec()
			h.metrics.SessionEvents.WithLabelValues("session_disposed").Inc()
			log.Printf("session %s disposed (no participants)", sessionID)
		}
	}

	client.sessionID = ""
	client.participantID = ""
	client.userName = ""
}

func (h *Hub) handleMessage(client *Client, data []byte) {
	var msg models.WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("error unmarshaling message (conn=%s): %v", client.id, err)
		return
	}

	if !security.IsValidMessageType(msg.Type) {
		h.sendError(client, "Unknown message type")
		return
	}
	h.metrics.WSMessages.WithLabelValues("inbound", msg.Type).Inc()

	switch msg.Type {
	case models.MsgTypeJoinSession:
		h.handleJoin(client, &msg)
	case models.MsgTypeCastVote:
		h.handleVote(client, &msg)
	case models.MsgTypeRevealVotes:
		h.handleReveal(client)
	case models.MsgTypeResetVotes:
		h.handleReset(client)
	}
}

func (h *Hub) handleJoin(client *Client, msg *models.WSMessage) {
	sessionID := payloadString(msg.Payload, "sessionId")
	userName := payloadString(msg.Payload, "userName")

	// A malformed id cannot name a session; same answer as a miss.
	if err := security.ValidateSessionID(sessionID); err != nil {
		h.sendError(client, "Session not found")
		return
	}

	session, err := h.registry.Get(sessionID)
	if err != nil {
		h.sendError(client, "Session not found")
		return
	}

	name, err := security.ValidateParticipantName(userName)
	if err != nil {
		name = DefaultParticipantName
	}

	// A second join on the same connection moves it: the old membership
	// ends exactly as if the connection had dropped.
	if client.sessionID != "" {
		h.detachFromSession(client)
	}

	participant := models.NewParticipant(client.id, name)
	session.Join(participant)
	client.sessionID = session.ID
	client.participantID = participant.ID
	client.userName = name

	if h.sessions[session.ID] == nil {
		h.sessions[session.ID] = make(map[*Client]bool)
	}
	h.sessions[session.ID][client] = true

	h.sendTo(client, &models.WSMessage{
		Type:    models.MsgTypeSessionState,
		Payload: models.SessionStatePayload{Session: session.Snapshot()},
	})
	h.broadcastToSession(session.ID, client, &models.WSMessage{
		Type:    models.MsgTypeParticipantJoined,
		Payload: models.ParticipantJoinedPayload{Participant: participant},
	})

	h.metrics.SessionEvents.WithLabelValues("participant_joined").Inc()
	log.Printf("%s joined session %s", name, session.ID)
}

func (h *Hub) handleVote(client *Client, msg *models.WSMessage) {
	session, ok := h.boundSession(client)
	if !ok {
		return
	}

	value := strings.TrimSpace(payloadString(msg.Payload, "vote"))

	switch err := session.CastVote(client.participantID, value); {
	case errors.Is(err, models.ErrRoundRevealed):
		// Expected race with a stale client UI; drop without an error.
		return
	case errors.Is(err, models.ErrNotMember):
		h.sendError(client, "Not a member of this session")
		return
	}

	// The voter gets the same hasVoted signal as everyone else; the
	// value itself stays hidden until reveal.
	h.broadcastToSession(session.ID, nil, &models.WSMessage{
		Type: models.MsgTypeVoteCast,
		Payload: models.VoteCastPayload{
			ParticipantID: client.participantID,
			HasVoted:      true,
		},
	})
	log.Printf("%s voted in session %s", client.userName, session.ID)
}

func (h *Hub) handleReveal(client *Client) {
	session, ok := h.boundSession(client)
	if !ok {
		return
	}

	session.Reveal()
	votes := session.RevealedVotes()

	h.broadcastToSession(session.ID, nil, &models.WSMessage{
		Type: models.MsgTypeVotesRevealed,
		Payload: models.VotesRevealedPayload{
			Votes: votes,
			Stats: ComputeVoteStats(votes),
		},
	})
	h.metrics.SessionEvents.WithLabelValues("votes_revealed").Inc()
	log.Printf("votes revealed in session %s", session.ID)
}

func (h *Hub) handleReset(client *Client) {
	session, ok := h.boundSession(client)
	if !ok {
		return
	}

	session.Reset()

	h.broadcastToSession(session.ID, nil, &models.WSMessage{
		Type: models.MsgTypeVotesReset,
	})
	h.metrics.SessionEvents.WithLabelValues("votes_reset").Inc()
	log.Printf("votes reset in session %s", session.ID)
}

// boundSession resolves the client's session binding, surfacing an
// error event when the client never joined or the session is gone.
func (h *Hub) boundSession(client *Client) (*models.Session, bool) {
	if client.sessionID == "" {
		h.sendError(client, "Not in a session")
		return nil, false
	}
	session, err := h.registry.Get(client.sessionID)
	if err != nil {
		h.sendError(client, "Session not found")
		return nil, false
	}
	return session, true
}

// broadcastToSession fans a message out to every connection bound to
// the session, skipping exclude when set.
func (h *Hub) broadcastToSession(sessionID string, exclude *Client, msg *models.WSMessage) {
	conns := h.sessions[sessionID]
	if len(conns) == 0 {
		return
	}

	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("error marshaling message: %v", err)
		return
	}

	for conn := range conns {
		if conn == exclude {
			continue
		}
		if conn.Send(data) {
			h.metrics.WSMessages.WithLabelValues("outbound", msg.Type).Inc()
		}
	}
}

func (h *Hub) sendTo(client *Client, msg *models.WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("error marshaling message: %v", err)
		return
	}
	if client.Send(data) {
		h.metrics.WSMessages.WithLabelValues("outbound", msg.Type).Inc()
	}
}

func (h *Hub) sendError(client *Client, message string) {
	h.sendTo(client, &models.WSMessage{
		Type:    models.MsgTypeError,
		Payload: models.ErrorPayload{Message: message},
	})
}

// payloadString pulls a string field out of a decoded JSON payload.
func payloadString(payload interface{}, key string) string {
	m, ok := payload.(map[string]interface{})
	if !ok {
		return ""
	}
	v, _ := m[key].(string)
	return v
}
