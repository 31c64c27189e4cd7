package worker

import (
	"time"

	"playsync/waitevent"
)

// Handle is returned by every *Async request method. It resolves once
// the state machine has processed (not necessarily executed a cycle
// for) the request: Wait/WaitTimeout block until Resolved() is safe to
// read.
type Handle struct {
	event    *waitevent.Event
	resolved State
	err      error
}

func newHandle() *Handle {
	return &Handle{event: waitevent.NewEvent()}
}

func (h *Handle) resolve(state State, err error) {
	h.resolved = state
	h.err = err
	h.event.Complete()
}

// Wait blocks until the request has been processed.
func (h *Handle) Wait() { h.event.Wait() }

// WaitTimeout blocks until the request has been processed or the
// timeout elapses, reporting which happened.
func (h *Handle) WaitTimeout(d time.Duration) bool {
	return h.event.WaitTimeout(d)
}

// State returns the state the worker resolved to after processing the
// request that produced this handle. Only meaningful after Wait
// returns.
func (h *Handle) State() State { return h.resolved }

// Err returns the error (typically *errs.InvalidStateError) produced
// while processing the request, if any.
func (h *Handle) Err() error { return h.err }
