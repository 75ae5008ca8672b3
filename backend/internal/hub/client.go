package hub

import (
	"log/slog"
	"sync"

	"github.com/lxzan/gws"

	"github.com/soar/touchremote/backend/internal/wire"
)

const sendBuffer = 256

// Session is the per-connection logic behind a client.
type Session interface {
	HandleMessage(msg wire.ClientMessage)
	Close()
}

// SessionFactory creates the session for a newly opened client.
type SessionFactory func(c *Client) Session

// Client represents a connected WebSocket client.
type Client struct {
	id      string
	conn    *gws.Conn
	send    chan []byte
	session Session
	lang    string
	log     *slog.Logger

	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

// NewClient creates a client around conn. conn may be nil for a client
// whose messages are only ever read from its send channel.
func NewClient(id string, conn *gws.Conn, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		id:   id,
		conn: conn,
		send: make(chan []byte, sendBuffer),
		log:  logger.With("client", id),
	}
}

func (c *Client) ID() string { return c.id }

// Lang is the language the client asked for, as a tag or an
// Accept-Language value.
func (c *Client) Lang() string { return c.lang }

// Messages exposes the outbound queue.
func (c *Client) Messages() <-chan []byte { return c.send }

// Send queues msg without blocking. It reports false when the buffer is full
// or the client is gone.
func (c *Client) Send(msg []byte) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// Emit encodes an event and queues it for the client.
func (c *Client) Emit(event string, payload any) {
	data, err := wire.Encode(event, payload)
	if err != nil {
		c.log.Error("encode message", "event", event, "error", err)
		return
	}
	if !c.Send(data) {
		c.log.Warn("message dropped", "event", event)
	}
}

func (c *Client) closeSend() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		close(c.send)
		c.mu.Unlock()
	})
}

// WritePump sends messages from the send channel to the WebSocket connection.
func (c *Client) WritePump() {
	defer func() {
		if c.conn != nil {
			c.conn.WriteClose(1000, nil)
		}
	}()

	for msg := range c.send {
		if c.conn == nil {
			continue
		}
		if err := c.conn.WriteMessage(gws.OpcodeText, msg); err != nil {
			c.log.Debug("write failed", "error", err)
			break
		}
	}
}
