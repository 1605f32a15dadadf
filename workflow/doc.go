// Package workflow implements the decision-cycle orchestrator: a strict
// linear pipeline (vision, reflect, optional movement plan, persist) driven
// by an explicit stage enum. Each stage degrades to a fallback on failure so
// a cycle always runs to completion; the orchestrator is the only writer of
// the character's CycleState and context window. It is never invoked
// concurrently for the same character (the scheduler guarantees that), so no
// internal locking is needed.
package workflow
