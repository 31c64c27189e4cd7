package worker

import (
	"context"
	"sync"
	"time"

	"playsync/atomiccell"
	"playsync/errs"
	"playsync/logging"
	"playsync/waitevent"
)

// Infinite marks a Cycle that never auto-reschedules: the next cycle
// only runs after an explicit Resume/Start request, or when a custom
// Delay (see Config) decides to return early.
const Infinite time.Duration = 1<<63 - 1

// Cycle is the user-supplied unit of work run once per iteration while
// the worker is Waiting. It must poll ctx and return promptly once
// cancellation is requested.
type Cycle func(ctx context.Context) error

// DelayFunc replaces the fixed-period sleep between cycles with
// caller-defined pacing (spec.md §4.9's packet-reading worker waits on
// its own buffer-changed event instead of a fixed interval). It must
// return once ctx is cancelled.
type DelayFunc func(ctx context.Context, period time.Duration)

// Config describes one worker's identity and behavior.
type Config struct {
	Name   string
	Period time.Duration // spacing between cycles; Infinite disables auto-reschedule
	Cycle  Cycle
	// Delay, if set, replaces the default time.Sleep(period) pacing.
	Delay DelayFunc
	// OnCycleException is invoked (outside any lock) whenever Cycle
	// returns an error or panics. Defaults to logging via logging.Default().
	OnCycleException func(err error)
	Logger           logging.Logger
}

// StateMachine is the scheduler-agnostic cooperative lifecycle engine
// from spec.md §4.6: one pending-request slot, a reissued cancellation
// token per cycle, and state-changed/cycle-completed notifications.
// ThreadWorker and TimerWorker each drive it via RunOnce from their own
// substrate loop.
type StateMachine struct {
	cfg Config

	state *atomiccell.Enum[State]

	pendingMu sync.Mutex
	pending   *pendingRequest

	token *waitevent.TokenOwner

	stateChanged   *waitevent.Event
	cycleCompleted *waitevent.Event

	disposed atomiccell.Bool
}

type pendingRequest struct {
	req    Request
	handle *Handle
}

// New builds a StateMachine in the Created state. It does not start any
// goroutine or timer on its own — pair it with a ThreadWorker or
// TimerWorker to actually drive cycles.
func New(cfg Config) *StateMachine {
	if cfg.Period <= 0 {
		cfg.Period = Infinite
	}
	sm := &StateMachine{
		cfg:            cfg,
		state:          atomiccell.NewEnum(Created),
		token:          waitevent.NewTokenOwner(),
		stateChanged:   waitevent.NewEvent(),
		cycleCompleted: waitevent.NewEvent(),
	}
	if sm.cfg.OnCycleException == nil {
		sm.cfg.OnCycleException = func(err error) {
			sm.logger().Errorf("worker %q cycle error: %v", sm.cfg.Name, err)
		}
	}
	return sm
}

func (sm *StateMachine) logger() logging.Logger {
	if sm.cfg.Logger != nil {
		return sm.cfg.Logger
	}
	return logging.Default()
}

// State returns the current lifecycle state.
func (sm *StateMachine) State() State { return sm.state.Load() }

// StateChanged is signalled every time a request commits a new state.
func (sm *StateMachine) StateChanged() *waitevent.Event { return sm.stateChanged }

// CycleCompleted is signalled at the end of every RunOnce invocation,
// whether or not it actually ran the user Cycle.
func (sm *StateMachine) CycleCompleted() *waitevent.Event { return sm.cycleCompleted }

// Name returns the worker's configured name, used in logs and errors.
func (sm *StateMachine) Name() string { return sm.cfg.Name }

func (sm *StateMachine) enqueue(req Request) *Handle {
	if sm.disposed.Load() {
		h := newHandle()
		h.resolve(sm.state.Load(), &errs.DisposedError{Op: "worker." + req.String()})
		return h
	}
	if sm.state.Load() == Stopped {
		// terminal: every request is a no-op resolved at Stopped.
		h := newHandle()
		h.resolve(Stopped, nil)
		return h
	}

	sm.pendingMu.Lock()
	if sm.pending != nil {
		// one request already in flight: return its handle rather than
		// replacing it, per the size-1 pending queue's reentrancy rule.
		h := sm.pending.handle
		sm.pendingMu.Unlock()
		return h
	}
	h := newHandle()
	sm.pending = &pendingRequest{req: req, handle: h}
	sm.pendingMu.Unlock()

	// wake a Running cycle (or a sleeping substrate) promptly.
	sm.token.Cancel()
	return h
}

func (sm *StateMachine) popPending() *pendingRequest {
	sm.pendingMu.Lock()
	defer sm.pendingMu.Unlock()
	p := sm.pending
	sm.pending = nil
	return p
}

// StartAsync requests a transition from Created (or Paused/Stopped, as
// a no-op/invalid per the transition table) into Waiting.
func (sm *StateMachine) StartAsync() *Handle { return sm.enqueue(RequestStart) }

// PauseAsync requests a transition into Paused.
func (sm *StateMachine) PauseAsync() *Handle { return sm.enqueue(RequestPause) }

// ResumeAsync requests a transition back into Waiting from Paused (or
// starts a Created worker, matching the table's "Resume acts like
// Start" cell).
func (sm *StateMachine) ResumeAsync() *Handle { return sm.enqueue(RequestResume) }

// StopAsync requests the terminal transition into Stopped.
func (sm *StateMachine) StopAsync() *Handle { return sm.enqueue(RequestStop) }

// Dispose marks the machine permanently stopped and rejects further
// requests with errs.DisposedError.
func (sm *StateMachine) Dispose() {
	sm.disposed.Store(true)
	sm.state.Store(Stopped)
	sm.token.Cancel()
	sm.stateChanged.Complete()
	sm.cycleCompleted.Complete()
}

// RunOnce executes exactly one iteration of the cooperative cycle
// described in spec.md §4.6:
//  1. snapshot the current state and reopen cycle-completed for this run
//  2. drain the one-slot pending request, if any, committing its
//     transition and returning early without running Cycle
//  3. otherwise, if the snapshot was Waiting and the cycle token has not
//     been cancelled, move to Running and invoke Cycle
//  4. settle back to Waiting (or stay Paused), signal cycle-completed,
//     and report how long the driving substrate should wait before the
//     next call
func (sm *StateMachine) RunOnce() (nextDelay time.Duration, terminal bool) {
	initial := sm.state.Load()
	if initial == Stopped {
		return Infinite, true
	}
	sm.cycleCompleted.Begin()

	if pend := sm.popPending(); pend != nil {
		next, ok := transition(initial, pend.req)
		if !ok && initial == Created {
			err := &errs.InvalidStateError{Op: "worker." + pend.req.String(), State: initial, Request: pend.req.String()}
			pend.handle.resolve(initial, err)
			sm.cycleCompleted.Complete()
			return sm.idleDelay(initial), initial == Stopped
		}

		sm.state.Store(next)
		sm.stateChanged.Begin()
		sm.stateChanged.Complete()
		pend.handle.resolve(next, nil)
		sm.cycleCompleted.Complete()

		if next == Stopped {
			sm.token.Cancel()
			return Infinite, true
		}
		if next == Waiting {
			// run the first cycle promptly instead of waiting a full period.
			return 0, false
		}
		return sm.idleDelay(next), false
	}

	// No pending request: Created and Paused are idle holds with nothing
	// to do this tick. Only Waiting actually drives a cycle.
	if initial != Waiting {
		sm.cycleCompleted.Complete()
		return sm.idleDelay(initial), false
	}

	ctx := sm.token.Token()
	if ctx.Err() == nil {
		sm.state.Store(Running)
		sm.runCycleSafely(ctx)
	}
	sm.state.Store(Waiting)
	sm.cycleCompleted.Complete()

	return sm.idleDelay(Waiting), false
}

func (sm *StateMachine) idleDelay(state State) time.Duration {
	if state == Paused {
		return Infinite
	}
	if state == Waiting {
		return sm.cfg.Period
	}
	return Infinite
}

func (sm *StateMachine) runCycleSafely(ctx context.Context) {
	if sm.cfg.Cycle == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			sm.cfg.OnCycleException(errs.NewCycleException(sm.cfg.Name, r))
		}
	}()
	if err := sm.cfg.Cycle(ctx); err != nil {
		sm.cfg.OnCycleException(errs.NewCycleException(sm.cfg.Name, err))
	}
}

// Delay sleeps for period (or runs the configured custom DelayFunc),
// returning early if ctx is cancelled. Substrates call this between
// RunOnce invocations instead of a bare time.Sleep so that a custom
// pacing strategy (e.g. "wake up early when a buffer-changed event
// fires") can override the default fixed interval.
func (sm *StateMachine) Delay(ctx context.Context, period time.Duration) {
	if sm.cfg.Delay != nil {
		sm.cfg.Delay(ctx, period)
		return
	}
	if period == Infinite {
		<-ctx.Done()
		return
	}
	timer := time.NewTimer(period)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// Token returns the cancellation context for the currently active (or
// about to start) cycle. Exposed so a substrate can select on it
// alongside its own shutdown signal.
func (sm *StateMachine) Token() context.Context { return sm.token.Token() }
