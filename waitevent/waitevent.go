// Package waitevent implements the manual-reset wait event and the
// reusable cancellation token owner described in spec.md §4.2. Both are
// built on stdlib primitives (a once-closed channel, context.Context):
// that is the idiomatic Go shape for these concerns, not a stand-in for
// a missing library — reimplementing them on top of a third-party
// primitive would just add a layer over what context/sync already do
// natively.
package waitevent

import (
	"context"
	"sync"
	"time"
)

// Event is a manual-reset gate: InProgress blocks waiters, Completed
// lets them through. It is safe to call Wait/WaitTimeout after Dispose;
// Dispose implicitly completes the event.
type Event struct {
	mu       sync.Mutex
	ch       chan struct{}
	done     bool
	disposed bool
}

// NewEvent returns a new event in the InProgress state.
func NewEvent() *Event {
	return &Event{ch: make(chan struct{})}
}

// Begin resets the event to InProgress. A previously completed event
// gets a fresh channel so pending Wait callers from before the reset
// keep observing completion (they already returned), while new callers
// block again.
func (e *Event) Begin() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return
	}
	if e.done {
		e.ch = make(chan struct{})
		e.done = false
	}
}

// Complete transitions the event to Completed, releasing all current
// and future waiters until the next Begin.
func (e *Event) Complete() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.noLockComplete()
}

func (e *Event) noLockComplete() {
	if !e.done {
		close(e.ch)
		e.done = true
	}
}

// Dispose completes the event permanently; subsequent Wait calls always
// return immediately.
func (e *Event) Dispose() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.disposed = true
	e.noLockComplete()
}

// Wait blocks until the event is completed.
func (e *Event) Wait() {
	e.mu.Lock()
	ch := e.ch
	e.mu.Unlock()
	<-ch
}

// WaitTimeout blocks until the event is completed or timeout elapses,
// returning whether the event completed in time.
func (e *Event) WaitTimeout(timeout time.Duration) bool {
	e.mu.Lock()
	ch := e.ch
	e.mu.Unlock()

	if timeout <= 0 {
		select {
		case <-ch:
			return true
		default:
			return false
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ch:
		return true
	case <-timer.C:
		return false
	}
}

// TokenOwner wraps a cancellation source and reissues a fresh token on
// every Cancel, so each worker cycle gets its own cancellable context
// without callers having to remember to recreate one by hand.
type TokenOwner struct {
	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// NewTokenOwner returns an owner holding a fresh, uncancelled token.
func NewTokenOwner() *TokenOwner {
	t := &TokenOwner{}
	t.ctx, t.cancel = context.WithCancel(context.Background())
	return t
}

// Token returns the currently active context. It stays valid until the
// next Cancel.
func (t *TokenOwner) Token() context.Context {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ctx
}

// Cancel cancels the current token and installs a fresh, uncancelled
// one for the next cycle.
func (t *TokenOwner) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancel()
	t.ctx, t.cancel = context.WithCancel(context.Background())
}

// IsCancellationRequested reports whether the currently active token has
// been cancelled (useful for a quick poll without plumbing the context
// through every call site).
func (t *TokenOwner) IsCancellationRequested() bool {
	t.mu.Lock()
	ctx := t.ctx
	t.mu.Unlock()
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}
