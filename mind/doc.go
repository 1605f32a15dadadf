// Package mind implements the three stateless reasoning components of the
// decision cycle: the reflection engine, the vision extractor and the
// movement planner. Every component converts transport, quota or parsing
// failures into a fixed fallback at its own boundary; errors never propagate
// to the orchestrator.
package mind
