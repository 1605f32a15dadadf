// Package model defines the minimal language-model abstraction used by the
// reasoning components, plus a deterministic MockModel for tests. Concrete
// provider adapters live in the openai and anthropic subpackages.
package model
