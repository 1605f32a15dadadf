// Package logging provides a minimal logging interface and adapters for TinyWorld.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that the workflow and scheduler use for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (testing, minimal setups)
//   - WorldLogger with domain helpers (model calls, cycles, memory writes)
//
// Usage:
//
//	logger := logging.NewLogger(logging.DefaultLoggerConfig())
//	tw := tinyworld.New(llm, func(o *tinyworld.Options) { o.Logger = logger })
//
// The design intentionally keeps the interface minimal to avoid vendor lock-in
// while supporting structured logging where available.
package logging
