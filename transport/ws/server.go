package ws

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
)

// HandlerOptions configures the websocket endpoint.
type HandlerOptions struct {
	// Welcome, when set, is invoked on connect and its result is sent to the
	// new viewer as a welcome frame before any broadcasts reach it.
	Welcome func() any

	// CheckOrigin overrides the upgrader origin policy. The default accepts
	// all origins, matching a viewer page served from a separate host.
	CheckOrigin func(r *http.Request) bool
}

// Handler returns the HTTP handler that upgrades viewer connections and
// keeps them registered in the hub until they disconnect.
func (h *Hub) Handler(optFns ...func(o *HandlerOptions)) http.HandlerFunc {
	opts := HandlerOptions{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     opts.CheckOrigin,
	}

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Warn("websocket upgrade failed", "error", err)
			return
		}

		c := &client{conn: conn}
		h.register(c)
		defer func() {
			h.unregister(c)
			_ = conn.Close()
		}()

		if opts.Welcome != nil {
			if err := c.send(Message{Type: "welcome", Data: opts.Welcome()}); err != nil {
				h.logger.Warn("welcome frame failed", "error", err)
				return
			}
		}

		h.readLoop(c)
	}
}

// readLoop consumes frames from a viewer until the connection closes.
// Position frames from the front-end are relayed to all other viewers so
// every client renders the character at the same place.
func (h *Hub) readLoop(c *client) {
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Warn("viewer read error", "error", err)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			h.logger.Debug("ignoring malformed viewer frame", "error", err)
			continue
		}

		switch msg.Type {
		case "character_position":
			h.broadcast(Message{Type: "position_update", Data: msg.Data})
		default:
			h.logger.Debug("ignoring viewer frame", "type", msg.Type)
		}
	}
}
