package mind

import (
	"context"
	"time"

	"github.com/ThoBustos/tinyworld/character"
	"github.com/ThoBustos/tinyworld/core"
	"github.com/ThoBustos/tinyworld/logging"
	"github.com/ThoBustos/tinyworld/model"
)

// FallbackReflection is the fixed substitute used when the model call or
// response parsing fails. Viewers only ever see successful-looking cycles.
const FallbackReflection = "I find myself unable to express my thoughts clearly."

// DefaultMaxReflectionChars is the reflection length requested of the model.
// It is a presentation constraint, not independently enforced.
const DefaultMaxReflectionChars = 300

// DefaultContextEntries bounds how many window entries are rendered into the
// prompt regardless of window capacity.
const DefaultContextEntries = 10

// ReflectionResult is the structured outcome of one reflection step.
type ReflectionResult struct {
	Message     string `json:"message"`
	WantsToMove bool   `json:"wants_to_move"`
	Fallback    bool   `json:"-"` // true when the fixed substitute was used
}

// ReflectionEngineOptions configure a ReflectionEngine.
type ReflectionEngineOptions struct {
	MaxChars       int
	ContextEntries int
	Logger         logging.Logger
}

// ReflectionEngine produces a new reflection and move-intent flag from the
// character identity, the rolling context window and an optional visual
// description. It is stateless between calls and never raises past its own
// boundary.
type ReflectionEngine struct {
	llm            model.Model
	identity       character.Identity
	maxChars       int
	contextEntries int
	logger         logging.Logger
}

// NewReflectionEngine creates a reflection engine for the given identity.
func NewReflectionEngine(llm model.Model, identity character.Identity, optFns ...func(o *ReflectionEngineOptions)) *ReflectionEngine {
	opts := ReflectionEngineOptions{
		MaxChars:       DefaultMaxReflectionChars,
		ContextEntries: DefaultContextEntries,
		Logger:         logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &ReflectionEngine{
		llm:            llm,
		identity:       identity,
		maxChars:       opts.MaxChars,
		contextEntries: opts.ContextEntries,
		logger:         opts.Logger,
	}
}

// Reflect runs one reflection step. Any failure (prompt rendering, transport,
// parsing, validation) yields the fixed fallback with WantsToMove false.
func (e *ReflectionEngine) Reflect(ctx context.Context, entries []core.WindowEntry, visualDescription string) ReflectionResult {
	fallback := ReflectionResult{Message: FallbackReflection, WantsToMove: false, Fallback: true}

	if len(entries) > e.contextEntries {
		entries = entries[len(entries)-e.contextEntries:]
	}
	prompt, err := character.ReflectionPrompt(e.identity, character.FormatMemories(entries), visualDescription, e.maxChars)
	if err != nil {
		e.logger.Error("reflection prompt rendering failed", "error", err)
		return fallback
	}

	start := time.Now()
	resp, err := e.llm.Generate(ctx, model.Request{Prompt: prompt})
	if err != nil {
		e.logger.Warn("reflection model call failed, using fallback", "error", err, "duration", time.Since(start))
		return fallback
	}

	var result ReflectionResult
	if err := decodeValidated(resp.Text, reflectionSchema, &result); err != nil {
		e.logger.Warn("reflection response unparseable, using fallback", "error", err)
		return fallback
	}
	return result
}
