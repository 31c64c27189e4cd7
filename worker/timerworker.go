package worker

import (
	"context"
	"sync"
	"time"
)

// TimerWorker drives a StateMachine with a rearmed one-shot timer
// instead of a dedicated goroutine, for workers whose cycle is cheap
// and infrequent enough that parking a whole goroutine on it is
// wasteful (spec.md §4.7's lighter-weight substrate). Dispatch never
// overlaps: the next timer is armed only after RunOnce returns.
type TimerWorker struct {
	sm *StateMachine

	mu       sync.Mutex
	timer    *time.Timer
	stopped  bool
	shutdown context.CancelFunc
	ctx      context.Context
}

// NewTimerWorker wraps cfg in a StateMachine driven by a rearmed timer.
func NewTimerWorker(cfg Config) *TimerWorker {
	return &TimerWorker{sm: New(cfg)}
}

// Machine exposes the underlying StateMachine.
func (w *TimerWorker) Machine() *StateMachine { return w.sm }

// Run arms the first timer tick. Safe to call once.
func (w *TimerWorker) Run(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		return
	}
	w.ctx, w.shutdown = context.WithCancel(ctx)
	w.timer = time.AfterFunc(0, w.tick)
}

func (w *TimerWorker) tick() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	ctx := w.ctx
	w.mu.Unlock()

	select {
	case <-ctx.Done():
		return
	default:
	}

	delay, terminal := w.sm.RunOnce()
	if terminal {
		return
	}

	if delay == Infinite {
		// no fixed next tick: park an ephemeral goroutine on the current
		// cycle token instead of a dedicated thread, woken the instant a
		// Resume/Start request cancels it.
		go w.waitForWake(ctx, w.sm.Token())
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	w.timer = time.AfterFunc(delay, w.tick)
}

func (w *TimerWorker) waitForWake(runCtx, tokenCtx context.Context) {
	select {
	case <-runCtx.Done():
		return
	case <-tokenCtx.Done():
		w.tick()
	}
}

// Close requests Stop and prevents any further timer from firing.
func (w *TimerWorker) Close() {
	w.sm.StopAsync()
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
	}
	if w.shutdown != nil {
		w.shutdown()
	}
}
