package handlers_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/scuciatto/paperballspoker/internal/handlers"
	"github.com/scuciatto/paperballspoker/internal/models"
	"github.com/scuciatto/paperballspoker/internal/observability"
	"github.com/scuciatto/paperballspoker/internal/security"
	"github.com/scuciatto/paperballspoker/internal/services"
)

// testServer bundles a running hub with an httptest HTTP front.
type testServer struct {
	*httptest.Server
	registry *services.Registry
	hub      *services.Hub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	metrics := observability.NewMetrics("test")
	registry := services.NewRegistry()
	hub := services.NewHub(registry, metrics)
	origins := security.NewOriginValidator([]string{"*"})

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(handlers.NewRouter(registry, hub, metrics, origins))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})

	return &testServer{Server: srv, registry: registry, hub: hub}
}

// wsClient is a test WebSocket client.
type wsClient struct {
	conn       *websocket.Conn
	messages   []models.WSMessage
	messagesMu sync.RWMutex
	closed     bool
	closedMu   sync.RWMutex
}

func dialWS(t *testing.T, server *testServer) *wsClient {
	t.Helper()

	c := &wsClient{}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, server.URL+"/ws", nil)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	c.conn = conn

	go c.receiveMessages()
	t.Cleanup(c.Close)

	return c
}

// receiveMessages continuously reads messages from the WebSocket.
func (c *wsClient) receiveMessages() {
	for {
		c.closedMu.RLock()
		if c.closed {
			c.closedMu.RUnlock()
			return
		}
		c.closedMu.RUnlock()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_, data, err := c.conn.Read(ctx)
		cancel()

		if err != nil {
			return
		}

		var msg models.WSMessage
		if err := json.Unmarshal(data, &msg); err == nil {
			c.messagesMu.Lock()
			c.messages = append(c.messages, msg)
			c.messagesMu.Unlock()
		}
	}
}

func (c *wsClient) send(msg map[string]any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.conn.Write(ctx, websocket.MessageText, data)
}

func (c *wsClient) join(sessionID, userName string) error {
	return c.send(map[string]any{
		"type": models.MsgTypeJoinSession,
		"payload": map[string]any{
			"sessionId": sessionID,
			"userName":  userName,
		},
	})
}

func (c *wsClient) vote(value string) error {
	return c.send(map[string]any{
		"type": models.MsgTypeCastVote,
		"payload": map[string]any{
			"vote": value,
		},
	})
}

func (c *wsClient) reveal() error {
	return c.send(map[string]any{"type": models.MsgTypeRevealVotes})
}

func (c *wsClient) reset() error {
	return c.send(map[string]any{"type": models.MsgTypeResetVotes})
}

// waitForMessageType waits for a specific message type.
func (c *wsClient) waitForMessageType(msgType string, timeout time.Duration) *models.WSMessage {
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		c.messagesMu.RLock()
		for i := range c.messages {
			if c.messages[i].Type == msgType {
				msg := c.messages[i]
				c.messagesMu.RUnlock()
				return &msg
			}
		}
		c.messagesMu.RUnlock()

		time.Sleep(10 * time.Millisecond)
	}

	return nil
}

func (c *wsClient) receivedMessages() []models.WSMessage {
	c.messagesMu.RLock()
	defer c.messagesMu.RUnlock()

	messages := make([]models.WSMessage, len(c.messages))
	copy(messages, c.messages)
	return messages
}

func (c *wsClient) clearMessages() {
	c.messagesMu.Lock()
	c.messages = nil
	c.messagesMu.Unlock()
}

func (c *wsClient) Close() {
	c.closedMu.Lock()
	if c.closed {
		c.closedMu.Unlock()
		return
	}
	c.closed = true
	c.closedMu.Unlock()

	c.conn.Close(websocket.StatusNormalClosure, "")
}

// payloadMap extracts a message payload as a generic map.
func payloadMap(t *testing.T, msg *models.WSMessage) map[string]any {
	t.Helper()
	m, ok := msg.Payload.(map[string]any)
	if !ok {
		t.Fatalf("payload is not an object: %#v", msg.Payload)
	}
	return m
}

// mustJoin joins and waits for the session-state snapshot.
func mustJoin(t *testing.T, c *wsClient, sessionID, userName string) map[string]any {
	t.Helper()
	if err := c.join(sessionID, userName); err != nil {
		t.Fatalf("join failed: %v", err)
	}
	msg := c.waitForMessageType(models.MsgTypeSessionState, 2*time.Second)
	if msg == nil {
		t.Fatalf("no session-state received for %s", userName)
	}
	state := payloadMap(t, msg)
	session, ok := state["session"].(map[string]any)
	if !ok {
		t.Fatalf("session-state payload missing session: %#v", state)
	}
	return session
}

func participantIDByName(t *testing.T, session map[string]any, name string) string {
	t.Helper()
	participants, _ := session["participants"].([]any)
	for _, raw := range participants {
		p, _ := raw.(map[string]any)
		if p["name"] == name {
			id, _ := p["id"].(string)
			return id
		}
	}
	t.Fatalf("participant %q not found in snapshot %#v", name, session)
	return ""
}
