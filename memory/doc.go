// Package memory provides MemoryStore implementations for reflection
// persistence: a process-local in-memory store suitable for tests and demos,
// and (in the sqlitestore subpackage) a durable SQLite-backed store with
// optional embedding-ranked retrieval.
package memory
