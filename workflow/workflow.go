package workflow

import (
	"context"
	"time"

	"github.com/ThoBustos/tinyworld/character"
	"github.com/ThoBustos/tinyworld/core"
	"github.com/ThoBustos/tinyworld/logging"
	"github.com/ThoBustos/tinyworld/mind"
)

// DefaultNamespace is the memory collection reflections are written to.
const DefaultNamespace = "tinyworld-characters-memory"

// DefaultImportance is the fixed importance score attached to every
// persisted reflection.
const DefaultImportance = 5.0

// cycleStage enumerates the states of the decision pipeline. The only
// conditional edge is reflect -> movement vs reflect -> persist.
type cycleStage int

const (
	stageVision cycleStage = iota
	stageReflect
	stageMovement
	stagePersist
	stageDone
)

// CycleInput carries the optional per-cycle inputs. Image bytes may come from
// a staged temporary file; the trigger owner, not the workflow, deletes it
// after the cycle completes.
type CycleInput struct {
	Image     []byte
	ImageMIME string
	Position  *core.Point
}

// Options configure a Workflow.
type Options struct {
	Namespace  string
	Importance float64
	Logger     logging.Logger
}

// Workflow sequences one decision cycle for a single character.
type Workflow struct {
	identity   character.Identity
	reflector  *mind.ReflectionEngine
	vision     *mind.VisionExtractor
	planner    *mind.MovementPlanner
	store      core.MemoryStore
	namespace  string
	importance float64
	logger     logging.Logger
}

// New creates a workflow from explicitly injected dependencies. The memory
// store is passed in, never looked up from a global.
func New(
	identity character.Identity,
	reflector *mind.ReflectionEngine,
	vision *mind.VisionExtractor,
	planner *mind.MovementPlanner,
	store core.MemoryStore,
	optFns ...func(o *Options),
) *Workflow {
	opts := Options{
		Namespace:  DefaultNamespace,
		Importance: DefaultImportance,
		Logger:     logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Workflow{
		identity:   identity,
		reflector:  reflector,
		vision:     vision,
		planner:    planner,
		store:      store,
		namespace:  opts.Namespace,
		importance: opts.Importance,
		logger:     opts.Logger,
	}
}

// Namespace returns the memory collection this workflow writes to.
func (w *Workflow) Namespace() string { return w.namespace }

// RunCycle executes one full decision cycle and mutates state in place once
// the cycle has completed. It returns a snapshot of the updated state.
// RunCycle never returns an error: every sub-step failure is converted to its
// fallback and the cycle still completes. LastDecisionTime is set only after
// the persistence attempt, so the timer loop cannot re-trigger mid-cycle.
func (w *Workflow) RunCycle(ctx context.Context, state *core.CycleState, window *core.ContextWindow, in CycleInput) core.CycleState {
	start := time.Now()

	var (
		visualDescription string
		reflection        mind.ReflectionResult
		decision          *core.MovementDecision
	)

	stage := stageVision
	for stage != stageDone {
		switch stage {
		case stageVision:
			if len(in.Image) > 0 {
				visualDescription = w.vision.Describe(ctx, in.Image, in.ImageMIME)
			} else {
				visualDescription = mind.NoVisualInput
			}
			stage = stageReflect

		case stageReflect:
			reflection = w.reflector.Reflect(ctx, window.Snapshot(), visualDescription)
			if reflection.WantsToMove {
				stage = stageMovement
			} else {
				stage = stagePersist
			}

		case stageMovement:
			// Planning needs both a position and an image; without either the
			// move intent stands but no target is produced.
			if in.Position == nil || len(in.Image) == 0 {
				w.logger.Debug("movement planning skipped", "has_position", in.Position != nil, "has_image", len(in.Image) > 0)
			} else {
				decision = w.planner.Plan(ctx, *in.Position, reflection.Message, in.Image, in.ImageMIME)
			}
			stage = stagePersist

		case stagePersist:
			w.persist(state, reflection.Message)
			stage = stageDone
		}
	}

	now := time.Now().UTC()
	state.CurrentReflection = reflection.Message
	state.CycleCount++
	state.ExecutionCount++
	state.WantsToMove = reflection.WantsToMove
	state.TargetPosition = nil
	if decision != nil && decision.Target != nil {
		t := *decision.Target
		state.TargetPosition = &t
	}
	window.Push(reflection.Message, now)
	state.LastDecisionTime = now

	w.logger.Info("cycle finished",
		"cycle_count", state.CycleCount,
		"wants_to_move", state.WantsToMove,
		"has_target", state.TargetPosition != nil,
		"fallback", reflection.Fallback,
		"duration", time.Since(start))
	return state.Snapshot()
}

// persist writes exactly one memory record for the cycle. A failed write is
// logged and swallowed: the reflection was still produced, so the cycle
// reports success.
func (w *Workflow) persist(state *core.CycleState, message string) {
	now := time.Now().UTC()
	metadata := map[string]any{
		"character":    w.identity.Name,
		"character_id": state.CharacterID,
		"tick_count":   state.CycleCount + 1,
		"message_type": "character_reflection",
		"personality":  w.identity.Personality,
		"importance":   w.importance,
		"timestamp":    float64(now.UnixNano()) / float64(time.Second),
		"datetime":     now.Format(time.RFC3339),
	}
	id, err := w.store.Add(w.namespace, message, metadata)
	if err != nil {
		w.logger.Error("memory write failed", "namespace", w.namespace, "error", err)
		return
	}
	w.logger.Debug("memory record written", "namespace", w.namespace, "record_id", id)
}
