package hub

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/lxzan/gws"
	"go.uber.org/atomic"

	"github.com/soar/touchremote/backend/internal/wire"
)

const (
	clientKey = "client"
	langKey   = "lang"
)

// Handler is the gws event handler behind /ws. Each opened socket gets a
// Client registered with the hub and a Session built by the factory.
type Handler struct {
	gws.BuiltinEventHandler

	hub        *Hub
	newSession SessionFactory
	onOpen     func(c *Client)
	upgrader   *gws.Upgrader
	nextID     atomic.Int64
	log        *slog.Logger
}

func NewHandler(h *Hub, newSession SessionFactory, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	handler := &Handler{hub: h, newSession: newSession, log: logger}
	handler.upgrader = handler.newUpgrader()
	return handler
}

// OnConnected registers a hook run after a client is registered, before any
// of its messages are read.
func (h *Handler) OnConnected(fn func(c *Client)) { h.onOpen = fn }

// ServeHTTP upgrades the request and runs the socket's read loop.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	socket, err := h.upgrader.Upgrade(w, r)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	go socket.ReadLoop()
}

func (h *Handler) newUpgrader() *gws.Upgrader {
	return gws.NewUpgrader(h, &gws.ServerOption{
		ParallelEnabled:   false,
		PermessageDeflate: gws.PermessageDeflate{Enabled: true},
		Recovery:          gws.Recovery,
		Authorize: func(r *http.Request, session gws.SessionStorage) bool {
			lang := r.URL.Query().Get("lang")
			if lang == "" {
				lang = r.Header.Get("Accept-Language")
			}
			session.Store(langKey, lang)
			return true
		},
	})
}

func (h *Handler) OnOpen(socket *gws.Conn) {
	c := NewClient("c"+strconv.FormatInt(h.nextID.Inc(), 10), socket, h.log)
	if v, ok := socket.Session().Load(langKey); ok {
		c.lang, _ = v.(string)
	}
	socket.Session().Store(clientKey, c)
	h.hub.Register(c)
	go c.WritePump()

	if h.newSession != nil {
		c.session = h.newSession(c)
	}
	if h.onOpen != nil {
		h.onOpen(c)
	}
}

func (h *Handler) OnClose(socket *gws.Conn, err error) {
	c, ok := clientOf(socket)
	if !ok {
		return
	}
	h.log.Debug("socket closed", "client", c.ID(), "reason", err)
	h.hub.Unregister(c)
	if c.session != nil {
		c.session.Close()
	}
}

func (h *Handler) OnPing(socket *gws.Conn, payload []byte) {
	_ = socket.WritePong(payload)
}

func (h *Handler) OnMessage(socket *gws.Conn, message *gws.Message) {
	defer message.Close()

	c, ok := clientOf(socket)
	if !ok || c.session == nil {
		return
	}

	var msg wire.ClientMessage
	if err := json.Unmarshal(message.Bytes(), &msg); err != nil {
		c.log.Warn("malformed message", "error", err)
		return
	}
	if msg.Type == "" {
		c.log.Warn("message without type")
		return
	}
	c.session.HandleMessage(msg)
}

func clientOf(socket *gws.Conn) (*Client, bool) {
	v, ok := socket.Session().Load(clientKey)
	if !ok {
		return nil, false
	}
	c, ok := v.(*Client)
	return c, ok
}
