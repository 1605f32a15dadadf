package core

import (
	"sync"
	"time"
)

// DefaultWindowCapacity bounds the rolling context window when no explicit
// capacity is configured.
const DefaultWindowCapacity = 10

// WindowEntry is a single remembered reflection inside the rolling context
// window.
type WindowEntry struct {
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// ContextWindow is a fixed-capacity, time-ordered buffer of the most recent
// reflections. Pushing beyond capacity evicts the oldest entry (FIFO);
// insertion order is chronological order. Safe for concurrent use: Snapshot
// returns a point-in-time copy, never a live view, so prompt construction
// never aliases mutable state.
type ContextWindow struct {
	mu       sync.Mutex
	capacity int
	entries  []WindowEntry
}

// NewContextWindow creates a window holding at most capacity entries.
// Non-positive capacities fall back to DefaultWindowCapacity.
func NewContextWindow(capacity int) *ContextWindow {
	if capacity <= 0 {
		capacity = DefaultWindowCapacity
	}
	return &ContextWindow{capacity: capacity}
}

// Push appends an entry, evicting the oldest one when the window is full.
func (w *ContextWindow) Push(text string, ts time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entries = append(w.entries, WindowEntry{Text: text, Timestamp: ts})
	if len(w.entries) > w.capacity {
		w.entries = w.entries[len(w.entries)-w.capacity:]
	}
}

// Snapshot returns a copy of the current entries, most-recent-last.
func (w *ContextWindow) Snapshot() []WindowEntry {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]WindowEntry, len(w.entries))
	copy(out, w.entries)
	return out
}

// Len returns the current number of entries.
func (w *ContextWindow) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.entries)
}

// Capacity returns the fixed capacity of the window.
func (w *ContextWindow) Capacity() int { return w.capacity }

// Reset discards all entries while keeping the capacity.
func (w *ContextWindow) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entries = nil
}
