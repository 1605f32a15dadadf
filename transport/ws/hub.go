// Package ws implements the live-viewer transport: a gorilla/websocket hub
// that fans completed cycle results out to every connected client. The hub is
// the process's core.Broadcaster; slow or broken connections are dropped
// rather than allowed to stall the world.
package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ThoBustos/tinyworld/core"
	"github.com/ThoBustos/tinyworld/logging"
)

// Message is the JSON envelope for every frame sent to viewers.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

const writeTimeout = 5 * time.Second

// client wraps a connection with a write lock so broadcast and per-client
// sends never interleave frames.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(msg)
}

// Hub tracks active viewer connections and implements core.Broadcaster.
type Hub struct {
	logger logging.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
}

// NewHub creates an empty hub.
func NewHub(logger logging.Logger) *Hub {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Hub{logger: logger, clients: make(map[*client]struct{})}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("viewer connected", "active_connections", n)
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("viewer disconnected", "active_connections", n)
}

func (h *Hub) snapshotClients() []*client {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		out = append(out, c)
	}
	return out
}

// ActiveConnections returns the number of connected viewers.
func (h *Hub) ActiveConnections() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast sends a completed cycle result to every viewer as an agent_update
// frame. Implements core.Broadcaster.
func (h *Hub) Broadcast(ev core.BroadcastEvent) {
	h.broadcast(Message{Type: "agent_update", Data: ev})
}

func (h *Hub) broadcast(msg Message) {
	for _, c := range h.snapshotClients() {
		if err := c.send(msg); err != nil {
			h.logger.Warn("viewer write failed, dropping connection", "error", err)
			_ = c.conn.Close()
			h.unregister(c)
		}
	}
}
