// Package character holds the immutable per-process identity of the simulated
// character and the prompt templates that express it. Identity fields are
// loaded once at startup and never mutated; prompts are rendered through a
// typed template function that rejects unresolved placeholders.
package character
