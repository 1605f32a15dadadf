// Package core provides the foundational domain types and interfaces used by
// TinyWorld. It defines the core abstractions for:
//
//   - CycleState (the character's mutable decision-cycle record)
//   - MovementDecision (validated movement artifacts)
//   - ContextWindow (bounded recent-reflection buffer)
//   - BroadcastEvent / Broadcaster (live viewer fan-out)
//   - Pluggable MemoryStore for reflection persistence and recall
//
// The package intentionally keeps implementation concerns (persistence, model
// providers, cycle orchestration) out of scope, exposing small interfaces to
// enable custom backends and extensions.
package core
