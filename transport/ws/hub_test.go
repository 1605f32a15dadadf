package ws

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ThoBustos/tinyworld/core"
)

var _ core.Broadcaster = (*Hub)(nil)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func waitForConnections(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ActiveConnections() != want {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d connections, have %d", want, hub.ActiveConnections())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHandler_SendsWelcomeOnConnect(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(hub.Handler(func(o *HandlerOptions) {
		o.Welcome = func() any { return map[string]string{"character": "Socrates"} }
	}))
	defer srv.Close()

	conn := dial(t, srv)

	msg := readFrame(t, conn)
	assert.Equal(t, "welcome", msg.Type)
	data, ok := msg.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Socrates", data["character"])
}

func TestBroadcast_ReachesAllViewers(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	a := dial(t, srv)
	b := dial(t, srv)
	waitForConnections(t, hub, 2)

	hub.Broadcast(core.BroadcastEvent{
		ID:            "ev-1",
		CharacterID:   "char-1",
		CharacterName: "Socrates",
		Message:       "What is virtue?",
	})

	for _, conn := range []*websocket.Conn{a, b} {
		msg := readFrame(t, conn)
		assert.Equal(t, "agent_update", msg.Type)
		data, ok := msg.Data.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "What is virtue?", data["message"])
		assert.Equal(t, "Socrates", data["character_name"])
	}
}

func TestReadLoop_RelaysPositionFrames(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	sender := dial(t, srv)
	viewer := dial(t, srv)
	waitForConnections(t, hub, 2)

	require.NoError(t, sender.WriteJSON(Message{
		Type: "character_position",
		Data: map[string]any{"character_id": "char-1", "x": 640, "y": 320},
	}))

	msg := readFrame(t, viewer)
	assert.Equal(t, "position_update", msg.Type)
	data, ok := msg.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "char-1", data["character_id"])
}

func TestHub_UnregistersOnDisconnect(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	conn := dial(t, srv)
	waitForConnections(t, hub, 1)

	conn.Close()
	waitForConnections(t, hub, 0)
}

func TestBroadcast_NoViewersIsNoOp(t *testing.T) {
	hub := NewHub(nil)
	hub.Broadcast(core.BroadcastEvent{ID: "ev-1"})
	assert.Zero(t, hub.ActiveConnections())
}
