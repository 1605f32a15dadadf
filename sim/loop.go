package sim

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ThoBustos/tinyworld/core"
	"github.com/ThoBustos/tinyworld/logging"
	"github.com/ThoBustos/tinyworld/workflow"
)

// Mode selects how cycles are triggered. The two modes are mutually
// exclusive per deployment.
type Mode int

const (
	// ModeTimer triggers a cycle whenever the decision interval has elapsed.
	ModeTimer Mode = iota
	// ModeEvent leaves triggering to external events; the loop is reduced to
	// a heartbeat.
	ModeEvent
)

// DefaultDecisionInterval is the minimum time between timer-triggered cycles.
const DefaultDecisionInterval = 30 * time.Second

// DefaultTickInterval is how often the supervising loop wakes up.
const DefaultTickInterval = time.Second

// Runner runs one decision cycle to completion and returns the updated state
// snapshot. Implementations must be safe to call repeatedly but are never
// called concurrently by the Loop.
type Runner interface {
	RunCycle(ctx context.Context, in workflow.CycleInput) core.CycleState
}

// Options configure a Loop.
type Options struct {
	Mode             Mode
	DecisionInterval time.Duration
	TickInterval     time.Duration
	Logger           logging.Logger
}

// Loop is the supervising scheduler for a single character. It owns the
// in-flight guard: TryTrigger from any goroutine races on an atomic flag and
// loses cleanly when a cycle is already running.
type Loop struct {
	runner   Runner
	mode     Mode
	interval time.Duration
	tick     time.Duration
	logger   logging.Logger

	inFlight atomic.Bool
	dropped  atomic.Uint64

	mu           sync.Mutex
	lastDecision time.Time
}

// NewLoop creates a scheduler around runner.
func NewLoop(runner Runner, optFns ...func(o *Options)) *Loop {
	opts := Options{
		Mode:             ModeTimer,
		DecisionInterval: DefaultDecisionInterval,
		TickInterval:     DefaultTickInterval,
		Logger:           logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Loop{
		runner:   runner,
		mode:     opts.Mode,
		interval: opts.DecisionInterval,
		tick:     opts.TickInterval,
		logger:   opts.Logger,
	}
}

// Run blocks until ctx is cancelled, waking every tick interval. In timer
// mode it triggers a cycle once the decision interval has elapsed since the
// last completed cycle; in event mode each wake is a no-op heartbeat.
// Cancellation stops the loop without aborting a cycle already in flight.
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(l.tick)
	defer ticker.Stop()

	l.logger.Info("world loop started", "mode", int(l.mode), "decision_interval", l.interval)
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("world loop stopped")
			return
		case <-ticker.C:
			if l.mode != ModeTimer {
				continue
			}
			if time.Since(l.LastDecisionTime()) <= l.interval {
				continue
			}
			// A cycle outliving a tick is routine, not a collision; the
			// dropped counter is reserved for external triggers that lose
			// the guard race.
			if l.inFlight.Load() {
				l.logger.Debug("cycle still running, timer check skipped")
				continue
			}
			l.TryTrigger(ctx, workflow.CycleInput{}, nil)
		}
	}
}

// TryTrigger attempts to start a cycle with the given input. It returns false
// when a cycle is already in flight; the trigger is dropped, counted and
// cleanup (if any) still runs so staged resources are not leaked. On success
// the cycle runs on its own goroutine; cleanup executes after the cycle
// completes and before the guard is released.
func (l *Loop) TryTrigger(ctx context.Context, in workflow.CycleInput, cleanup func()) bool {
	if !l.inFlight.CompareAndSwap(false, true) {
		l.dropped.Add(1)
		l.logger.Debug("cycle trigger dropped, decision already in progress", "dropped_total", l.dropped.Load())
		if cleanup != nil {
			cleanup()
		}
		return false
	}

	go func() {
		defer l.inFlight.Store(false)
		defer func() {
			if cleanup != nil {
				cleanup()
			}
		}()
		snap := l.runner.RunCycle(ctx, in)
		l.setLastDecision(snap.LastDecisionTime)
	}()
	return true
}

// Dropped returns how many triggers were discarded because a cycle was in
// flight.
func (l *Loop) Dropped() uint64 { return l.dropped.Load() }

// InFlight reports whether a cycle is currently running.
func (l *Loop) InFlight() bool { return l.inFlight.Load() }

// LastDecisionTime returns when the last cycle completed.
func (l *Loop) LastDecisionTime() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastDecision
}

func (l *Loop) setLastDecision(t time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if t.After(l.lastDecision) {
		l.lastDecision = t
	}
}
