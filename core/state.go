package core

import (
	"time"

	"github.com/google/uuid"
)

// NewID generates a unique identifier for memory records and broadcast events.
func NewID() string { return uuid.NewString() }

// Point is a position in world coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// MovementDecision captures the outcome of a movement-planning step. Target is
// non-nil only when the planner produced a point that passed world-bounds
// validation; a nil Target with WantsToMove set means planning was skipped or
// rejected.
type MovementDecision struct {
	WantsToMove bool   `json:"wants_to_move"`
	Target      *Point `json:"target,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// CycleState is the mutable record carried across decision cycles for a single
// character. It is created once at process start and mutated exclusively by
// the cycle orchestrator after a cycle completes; concurrent readers must go
// through Snapshot.
type CycleState struct {
	CharacterID       string    `json:"character_id"`
	CurrentReflection string    `json:"current_reflection,omitempty"`
	CycleCount        int       `json:"cycle_count"`
	LastDecisionTime  time.Time `json:"last_decision_time"`
	WantsToMove       bool      `json:"wants_to_move"`
	TargetPosition    *Point    `json:"target_position,omitempty"`
	Position          *Point    `json:"position,omitempty"`
	ExecutionCount    int       `json:"execution_count"`
}

// NewCycleState creates the initial state for a character with empty fields.
func NewCycleState(characterID string) *CycleState {
	return &CycleState{CharacterID: characterID}
}

// Snapshot returns a value copy safe to hand across goroutine boundaries.
// Pointer fields are deep-copied so readers never alias live orchestrator
// state.
func (s *CycleState) Snapshot() CycleState {
	out := *s
	if s.TargetPosition != nil {
		p := *s.TargetPosition
		out.TargetPosition = &p
	}
	if s.Position != nil {
		p := *s.Position
		out.Position = &p
	}
	return out
}

// Bounds describes the rectangular world the character moves in. The origin
// is (0,0); Width and Height are exclusive upper limits.
type Bounds struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Contains reports whether p lies inside the world rectangle.
func (b Bounds) Contains(p Point) bool {
	return p.X >= 0 && p.X <= b.Width && p.Y >= 0 && p.Y <= b.Height
}
