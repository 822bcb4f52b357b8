package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ayusman/handcontrol/internal/app"
	"github.com/ayusman/handcontrol/internal/surface"
)

const (
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// Message types sent to pages in addition to surface events.
const (
	MessageHello  = "hello"
	MessageStatus = "status"
)

type helloMessage struct {
	Type   string         `json:"type"`
	ID     string         `json:"id"`
	Status app.Status     `json:"status,omitempty"`
	Cursor surface.Cursor `json:"cursor"`
}

type statusMessage struct {
	Type   string     `json:"type"`
	Status app.Status `json:"status"`
}

// inboundMessage is a page-originated update.
type inboundMessage struct {
	Type    string  `json:"type"`
	ID      string  `json:"id"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Visible *bool   `json:"visible"`
}

// Inbound message types.
const (
	InboundViewport   = "viewport"
	InboundVisibility = "visibility"
)

// Hub pushes page mutations to every connected page over WebSocket and
// applies the viewport and visibility changes pages report back.
type Hub struct {
	layout  *surface.Layout
	status  func() app.Status
	clients map[string]*client
	mu      sync.RWMutex
	log     *slog.Logger
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates a Hub mirroring layout. status may be nil.
func NewHub(layout *surface.Layout, status func() app.Status) *Hub {
	return &Hub{
		layout:  layout,
		status:  status,
		clients: make(map[string]*client),
		log:     slog.With("component", "hub"),
	}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade error", "error", err)
		return
	}

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}

	hello := helloMessage{Type: MessageHello, ID: c.id}
	if h.layout != nil {
		hello.Cursor = h.layout.Cursor()
	}
	if h.status != nil {
		hello.Status = h.status()
	}
	if msg, err := json.Marshal(hello); err == nil {
		c.send <- msg
	}

	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
	h.log.Info("page connected", "client", c.id, "remote", r.RemoteAddr)

	go h.writePump(c)
	h.readPump(c)
}

// readPump applies inbound messages until the connection fails.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.remove(c)
		c.conn.Close()
		h.log.Info("page disconnected", "client", c.id)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg inboundMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("websocket read error", "client", c.id, "error", err)
			}
			return
		}
		h.apply(msg)
	}
}

func (h *Hub) apply(msg inboundMessage) {
	if h.layout == nil {
		return
	}
	switch msg.Type {
	case InboundViewport:
		h.layout.SetViewport(surface.Size{Width: msg.Width, Height: msg.Height})
	case InboundVisibility:
		if msg.Visible == nil {
			return
		}
		if err := h.layout.SetVisible(msg.ID, *msg.Visible); err != nil {
			h.log.Debug("visibility update", "id", msg.ID, "error", err)
		}
	default:
		h.log.Debug("unknown message", "type", msg.Type)
	}
}

// writePump sends queued messages and keeps the connection alive with pings.
func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.id]; ok {
		delete(h.clients, c.id)
		close(c.send)
	}
}

// Broadcast queues v as JSON for every page. Pages that fall too far behind
// are disconnected.
func (h *Hub) Broadcast(v any) {
	msg, err := json.Marshal(v)
	if err != nil {
		h.log.Error("failed to encode message", "error", err)
		return
	}

	var slow []*client
	h.mu.RLock()
	for _, c := range h.clients {
		select {
		case c.send <- msg:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.log.Warn("dropping slow page", "client", c.id)
		h.remove(c)
	}
}

// Publish forwards a layout event to every page.
func (h *Hub) Publish(e surface.Event) {
	h.Broadcast(e)
}

// UpdateHandPosition forwards the raw wrist position to every page.
func (h *Hub) UpdateHandPosition(x, y float64) {
	h.Broadcast(surface.Event{Type: surface.EventHand, X: x, Y: y})
}

// PublishStatus tells every page the hand control status changed.
func (h *Hub) PublishStatus(s app.Status) {
	h.Broadcast(statusMessage{Type: MessageStatus, Status: s})
}

// Clients returns the number of connected pages.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every page.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[string]*client)
	h.mu.Unlock()

	for _, c := range clients {
		close(c.send)
	}
}
