// Package tinyworld provides a high-level façade over the decision-cycle
// machinery: character identity, reasoning components, memory persistence,
// scheduling and viewer broadcast. Most applications interact with this
// package by:
//  1. Creating a World via New() with a model and optional overrides
//  2. Running the scheduler loop (Run) or triggering cycles externally (Trigger)
//  3. Reading state snapshots and memory through the accessor methods
//
// The façade delegates cycle execution to workflow.Workflow and scheduling to
// sim.Loop while keeping setup concise. All defaults are safe for local
// development; production deployments typically supply a durable memory store,
// a websocket broadcaster and a structured logger.
package tinyworld

import (
	"context"
	"sync"
	"time"

	"github.com/ThoBustos/tinyworld/character"
	"github.com/ThoBustos/tinyworld/core"
	"github.com/ThoBustos/tinyworld/logging"
	"github.com/ThoBustos/tinyworld/memory"
	"github.com/ThoBustos/tinyworld/mind"
	"github.com/ThoBustos/tinyworld/model"
	"github.com/ThoBustos/tinyworld/sim"
	"github.com/ThoBustos/tinyworld/workflow"
)

// Options configures the World instance.
type Options struct {
	// Identity of the single inhabitant. Defaults to Socrates.
	Identity character.Identity

	// StartPosition places the character at world start. Defaults to the
	// center of Bounds.
	StartPosition *core.Point

	// Bounds of the rectangular world.
	Bounds core.Bounds

	// WindowCapacity bounds the rolling context of recent reflections.
	WindowCapacity int

	// MaxDisplacement is the movement radius requested of the model.
	MaxDisplacement float64

	// MaxReflectionChars caps the reflection length requested of the model
	// and truncates overlong broadcast messages for display.
	MaxReflectionChars int

	// Namespace is the memory collection reflections are written to.
	Namespace string

	// Scheduling.
	Mode             sim.Mode
	DecisionInterval time.Duration

	// MemoryStore defaults to an in-memory implementation if not provided.
	MemoryStore core.MemoryStore

	// Broadcaster receives one event per completed cycle. Defaults to NoOp.
	Broadcaster core.Broadcaster

	// Logger defaults to NoOp if nil.
	Logger logging.Logger
}

// World is the high-level façade aggregating one character's state, its
// reasoning workflow and the scheduler around it.
type World struct {
	opts     Options
	identity character.Identity
	store    core.MemoryStore
	wf       *workflow.Workflow
	loop     *sim.Loop
	logger   logging.Logger

	// stateMu serializes cycle execution against Reset. The scheduler already
	// guarantees at most one cycle in flight; Reset takes the same lock so it
	// never interleaves with a running cycle.
	stateMu sync.Mutex
	state   *core.CycleState
	window  *core.ContextWindow

	// snapMu guards the published snapshot so readers never block on a cycle.
	snapMu    sync.Mutex
	published core.CycleState
}

var _ sim.Runner = (*World)(nil)

// New creates a World around the given model. Any unset service is
// initialized with an in-memory or no-op implementation.
func New(llm model.Model, optFns ...func(o *Options)) *World {
	opts := Options{
		Identity:           character.Socrates(),
		Bounds:             core.Bounds{Width: 1280, Height: 1280},
		WindowCapacity:     core.DefaultWindowCapacity,
		MaxDisplacement:    mind.DefaultMaxDisplacement,
		MaxReflectionChars: mind.DefaultMaxReflectionChars,
		Namespace:          workflow.DefaultNamespace,
		Mode:               sim.ModeTimer,
		DecisionInterval:   sim.DefaultDecisionInterval,
		MemoryStore:        memory.NewInMemoryStore(),
		Broadcaster:        core.NoOpBroadcaster{},
		Logger:             logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	state := core.NewCycleState(opts.Identity.ID)
	if opts.StartPosition != nil {
		p := *opts.StartPosition
		state.Position = &p
	} else {
		state.Position = &core.Point{X: opts.Bounds.Width / 2, Y: opts.Bounds.Height / 2}
	}

	reflector := mind.NewReflectionEngine(llm, opts.Identity, func(o *mind.ReflectionEngineOptions) {
		o.MaxChars = opts.MaxReflectionChars
		o.ContextEntries = opts.WindowCapacity
		o.Logger = opts.Logger
	})
	vision := mind.NewVisionExtractor(llm, func(o *mind.VisionExtractorOptions) {
		o.Logger = opts.Logger
	})
	planner := mind.NewMovementPlanner(llm, opts.Identity, opts.Bounds, func(o *mind.MovementPlannerOptions) {
		o.MaxDisplacement = opts.MaxDisplacement
		o.Logger = opts.Logger
	})

	wf := workflow.New(opts.Identity, reflector, vision, planner, opts.MemoryStore, func(o *workflow.Options) {
		o.Namespace = opts.Namespace
		o.Logger = opts.Logger
	})

	w := &World{
		opts:      opts,
		identity:  opts.Identity,
		store:     opts.MemoryStore,
		wf:        wf,
		logger:    opts.Logger,
		state:     state,
		window:    core.NewContextWindow(opts.WindowCapacity),
		published: state.Snapshot(),
	}
	w.loop = sim.NewLoop(w, func(o *sim.Options) {
		o.Mode = opts.Mode
		o.DecisionInterval = opts.DecisionInterval
		o.Logger = opts.Logger
	})
	return w
}

// Run blocks until ctx is cancelled, driving the scheduler loop. In timer
// mode cycles fire on the decision interval; in event mode the loop idles and
// cycles come from Trigger.
func (w *World) Run(ctx context.Context) { w.loop.Run(ctx) }

// Trigger attempts to start one cycle with the given input. It returns false
// when a cycle is already in flight; cleanup runs either way, so callers can
// hand over ownership of staged temporary files unconditionally.
func (w *World) Trigger(ctx context.Context, in workflow.CycleInput, cleanup func()) bool {
	return w.loop.TryTrigger(ctx, in, cleanup)
}

// RunCycle executes one decision cycle and publishes the resulting snapshot.
// Implements sim.Runner; the scheduler never calls it concurrently.
func (w *World) RunCycle(ctx context.Context, in workflow.CycleInput) core.CycleState {
	w.stateMu.Lock()
	defer w.stateMu.Unlock()

	if in.Position == nil && w.state.Position != nil {
		p := *w.state.Position
		in.Position = &p
	}

	snap := w.wf.RunCycle(ctx, w.state, w.window, in)
	w.publish(snap)
	w.opts.Broadcaster.Broadcast(w.eventFor(snap))
	return snap
}

func (w *World) publish(snap core.CycleState) {
	w.snapMu.Lock()
	w.published = snap
	w.snapMu.Unlock()
}

// eventFor shapes a completed cycle into the viewer event. The full
// reflection is persisted unmodified; only the broadcast copy is truncated.
// Movement fields are attached only when a move was decided.
func (w *World) eventFor(snap core.CycleState) core.BroadcastEvent {
	ev := core.BroadcastEvent{
		ID:            core.NewID(),
		CharacterID:   snap.CharacterID,
		CharacterName: w.identity.Name,
		Message:       truncate(snap.CurrentReflection, w.opts.MaxReflectionChars),
		Timestamp:     snap.LastDecisionTime,
	}
	if snap.WantsToMove {
		wants := true
		ev.WantsToMove = &wants
		ev.TargetPosition = snap.TargetPosition
	}
	return ev
}

func truncate(s string, max int) string {
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

// StateSnapshot returns the most recently published cycle state without
// blocking on an in-flight cycle.
func (w *World) StateSnapshot() core.CycleState {
	w.snapMu.Lock()
	defer w.snapMu.Unlock()
	return w.published.Snapshot()
}

// Reset clears counters, the current reflection and the context window while
// keeping the identity and position. It waits for any in-flight cycle to
// finish first.
func (w *World) Reset() core.CycleState {
	w.stateMu.Lock()
	defer w.stateMu.Unlock()

	fresh := core.NewCycleState(w.state.CharacterID)
	if w.state.Position != nil {
		p := *w.state.Position
		fresh.Position = &p
	}
	w.state = fresh
	w.window.Reset()

	snap := fresh.Snapshot()
	w.publish(snap)
	w.logger.Info("world state reset", "character_id", fresh.CharacterID)
	return snap
}

// Identity returns the character identity the world was built with.
func (w *World) Identity() character.Identity { return w.identity }

// Memory exposes the underlying store for read-only inspection endpoints.
func (w *World) Memory() core.MemoryStore { return w.store }

// Namespace returns the memory collection reflections are written to.
func (w *World) Namespace() string { return w.wf.Namespace() }

// Dropped returns how many triggers were discarded by the in-flight guard.
func (w *World) Dropped() uint64 { return w.loop.Dropped() }

// InFlight reports whether a cycle is currently running.
func (w *World) InFlight() bool { return w.loop.InFlight() }
