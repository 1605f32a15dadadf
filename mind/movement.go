package mind

import (
	"context"
	"time"

	"github.com/ThoBustos/tinyworld/character"
	"github.com/ThoBustos/tinyworld/core"
	"github.com/ThoBustos/tinyworld/logging"
	"github.com/ThoBustos/tinyworld/model"
)

// DefaultMaxDisplacement is the radius requested of the model when choosing a
// destination. It is an instruction, not an enforced invariant; only world
// bounds are hard-validated.
const DefaultMaxDisplacement = 300.0

// MovementPlannerOptions configure a MovementPlanner.
type MovementPlannerOptions struct {
	MaxDisplacement float64
	Logger          logging.Logger
}

// MovementPlanner proposes a target point for the character given its current
// reflection, position and a view of the world. Out-of-bounds proposals are
// logged and dropped rather than clamped, so model errors stay visible.
type MovementPlanner struct {
	llm             model.Model
	identity        character.Identity
	bounds          core.Bounds
	maxDisplacement float64
	logger          logging.Logger
}

// NewMovementPlanner creates a planner constrained to the given world bounds.
func NewMovementPlanner(llm model.Model, identity character.Identity, bounds core.Bounds, optFns ...func(o *MovementPlannerOptions)) *MovementPlanner {
	opts := MovementPlannerOptions{MaxDisplacement: DefaultMaxDisplacement, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &MovementPlanner{
		llm:             llm,
		identity:        identity,
		bounds:          bounds,
		maxDisplacement: opts.MaxDisplacement,
		logger:          opts.Logger,
	}
}

// Plan returns a validated movement decision, or nil when the model call
// fails, the response cannot be parsed, or the target falls outside world
// bounds.
func (p *MovementPlanner) Plan(ctx context.Context, pos core.Point, reflection string, image []byte, mime string) *core.MovementDecision {
	prompt, err := character.MovementPrompt(p.identity, reflection, pos, p.bounds, p.maxDisplacement)
	if err != nil {
		p.logger.Error("movement prompt rendering failed", "error", err)
		return nil
	}

	start := time.Now()
	resp, err := p.llm.Generate(ctx, model.Request{
		Prompt:    prompt,
		Image:     image,
		ImageMIME: mime,
		MaxTokens: 120,
	})
	if err != nil {
		p.logger.Warn("movement model call failed, dropping move", "error", err, "duration", time.Since(start))
		return nil
	}

	var parsed struct {
		X      float64 `json:"x"`
		Y      float64 `json:"y"`
		Reason string  `json:"reason"`
	}
	if err := decodeValidated(resp.Text, movementSchema, &parsed); err != nil {
		p.logger.Warn("movement response unparseable, dropping move", "error", err)
		return nil
	}

	target := core.Point{X: parsed.X, Y: parsed.Y}
	if !p.bounds.Contains(target) {
		p.logger.Warn("movement target outside world bounds, dropping move",
			"x", parsed.X, "y", parsed.Y, "width", p.bounds.Width, "height", p.bounds.Height)
		return nil
	}
	return &core.MovementDecision{WantsToMove: true, Target: &target, Reason: parsed.Reason}
}
