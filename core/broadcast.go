package core

import "time"

// BroadcastEvent is emitted once per completed cycle for live viewers.
// Movement fields are included only when a move was decided.
type BroadcastEvent struct {
	ID             string    `json:"id"`
	CharacterID    string    `json:"character_id"`
	CharacterName  string    `json:"character_name"`
	Message        string    `json:"message"`
	Timestamp      time.Time `json:"timestamp"`
	WantsToMove    *bool     `json:"wants_to_move,omitempty"`
	TargetPosition *Point    `json:"target_position,omitempty"`
}

// Broadcaster fans a completed cycle result out to connected viewers.
// Implementations must not block the caller indefinitely; slow consumers are
// the transport layer's problem, not the orchestrator's.
type Broadcaster interface {
	Broadcast(ev BroadcastEvent)
}

// NoOpBroadcaster discards every event. Useful default for tests and headless
// runs.
type NoOpBroadcaster struct{}

// Broadcast implements Broadcaster.
func (NoOpBroadcaster) Broadcast(BroadcastEvent) {}
