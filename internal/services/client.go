package services

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/scuciatto/paperballspoker/internal/config"
	"github.com/scuciatto/paperballspoker/internal/models"
)

// Client represents a single WebSocket connection with its own send
// goroutine. Its id is the connection identity and becomes the
// participant id after a successful join.
type Client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	hub  *Hub

	// Session binding. Unset until a successful join; written and read
	// only by the hub's run goroutine after registration.
	sessionID     string
	participantID string
	userName      string

	// Lifecycle
	ctx     context.Context
	cancel  context.CancelFunc
	closed  bool
	closeMu sync.Mutex
}

// NewClient creates a new client instance around an accepted connection.
func NewClient(conn *websocket.Conn, hub *Hub) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		id:     uuid.NewString(),
		conn:   conn,
		send:   make(chan []byte, config.ClientSendBufferSize),
		hub:    hub,
		ctx:    ctx,
		cancel: cancel,
	}
}

// ID returns the connection identity.
func (c *Client) ID() string {
	return c.id
}

// Run starts the write pump and blocks reading inbound frames until the
// connection drops. The client unregisters itself from the hub on exit.
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

// writePump handles outgoing messages to the WebSocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				// Channel closed, connection is closing
				_ = c.conn.Close(websocket.StatusNormalClosure, "")
				return
			}

			writeCtx, cancel := context.WithTimeout(c.ctx, config.WriteTimeout)
			err := c.conn.Write(writeCtx, websocket.MessageText, message)
			cancel()

			if err != nil {
				log.Printf("write error (conn=%s): %v", c.id, err)
				c.hub.metrics.BroadcastErrors.Inc()
				return
			}

		case <-ticker.C:
			// Keep the connection alive through idle rounds.
			pingCtx, cancel := context.WithTimeout(c.ctx, config.WriteTimeout)
			err := c.conn.Ping(pingCtx)
			cancel()

			if err != nil {
				log.Printf("ping error (conn=%s): %v", c.id, err)
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// readPump handles incoming messages from the WebSocket connection.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.Close()
	}()

	for {
		readCtx, cancel := context.WithTimeout(c.ctx, config.PongTimeout)
		_, message, err := c.conn.Read(readCtx)
		cancel()

		if err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure {
				log.Printf("read error (conn=%s): %v", c.id, err)
			}
			return
		}

		if !c.hub.limiter.Allow(c.id) {
			log.Printf("rate limit exceeded (conn=%s)", c.id)
			errMsg := &models.WSMessage{
				Type: models.MsgTypeError,
				Payload: models.ErrorPayload{
					Message: "Rate limit exceeded. Please slow down.",
				},
			}
			if data, err := json.Marshal(errMsg); err == nil {
				c.Send(data)
			}
			continue
		}

		c.hub.Dispatch(c, message)
	}
}

// Send queues a message for sending to the client.
func (c *Client) Send(message []byte) bool {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- message:
		return true
	default:
		// Channel full, client is too slow
		log.Printf("send buffer full, closing slow client (conn=%s)", c.id)
		c.hub.metrics.BroadcastErrors.Inc()
		go c.Close()
		return false
	}
}

// Close cleanly shuts down the client connection.
func (c *Client) Close() {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()

	if c.closed {
		return
	}

	c.closed = true
	c.cancel()
	close(c.send)
	_ = c.conn.Close(websocket.StatusNormalClosure, "")
}
