// Package errs defines the error kinds shared across the playback
// coordination core, following the Op/Err/Unwrap shape so callers can
// classify failures with errors.As/errors.Is instead of string matching.
package errs

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// marker is implemented by every error type in this package so IsCore
// can classify them without an exhaustive type switch.
type marker interface {
	error
	isCore()
}

// NoRoomError is returned by ringbuf.Buffer.Write when overwrite is
// disabled and the requested write would exceed the writable region.
type NoRoomError struct {
	Op       string
	Capacity int
	Writable int
	Requested int
}

func (e *NoRoomError) Error() string {
	return fmt.Sprintf("%s: no room (writable=%d, requested=%d, capacity=%d)", e.Op, e.Writable, e.Requested, e.Capacity)
}
func (e *NoRoomError) isCore() {}

// NotEnoughDataError is returned by ringbuf.Buffer.Read/Skip/Rewind when
// the requested amount exceeds what is available.
type NotEnoughDataError struct {
	Op        string
	Available int
	Requested int
}

func (e *NotEnoughDataError) Error() string {
	return fmt.Sprintf("%s: not enough data (available=%d, requested=%d)", e.Op, e.Available, e.Requested)
}
func (e *NotEnoughDataError) isCore() {}

// DisposedError is returned by any operation performed on a disposed
// worker or block buffer.
type DisposedError struct {
	Op string
}

func (e *DisposedError) Error() string { return fmt.Sprintf("%s: disposed", e.Op) }
func (e *DisposedError) isCore()       {}

// InvalidStateError is returned when a Created worker receives a request
// its transition table does not accept from Created (Pause). A request
// submitted while another is pending gets the pending handle instead.
type InvalidStateError struct {
	Op      string
	State   fmt.Stringer
	Request string
}

func (e *InvalidStateError) Error() string {
	if e.State == nil {
		return fmt.Sprintf("%s: invalid state for request %q", e.Op, e.Request)
	}
	return fmt.Sprintf("%s: invalid state %s for request %q", e.Op, e.State, e.Request)
}
func (e *InvalidStateError) isCore() {}

// ContainerError wraps a demuxer/container read failure. The packet
// reading worker swallows it; decoding may end naturally as a result.
type ContainerError struct {
	Op  string
	Err error
}

func (e *ContainerError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("container error: %s", e.Op)
	}
	return fmt.Sprintf("container error: %s: %v", e.Op, e.Err)
}
func (e *ContainerError) Unwrap() error { return e.Err }
func (e *ContainerError) isCore()       {}

// CycleException wraps any error (or recovered panic) surfacing from a
// worker's cycle body, captured with a stack trace via pkg/errors so the
// OnCycleException hook has something actionable to log.
type CycleException struct {
	Worker string
	Err    error
}

func (e *CycleException) Error() string {
	return fmt.Sprintf("cycle exception in %q: %v", e.Worker, e.Err)
}
func (e *CycleException) Unwrap() error { return e.Err }
func (e *CycleException) isCore()       {}

// NewCycleException wraps cause with a stack trace and attributes it to
// the named worker.
func NewCycleException(worker string, cause interface{}) *CycleException {
	var err error
	switch v := cause.(type) {
	case error:
		err = errors.WithStack(v)
	default:
		err = errors.Errorf("panic: %v", v)
	}
	return &CycleException{Worker: worker, Err: err}
}

// TimeoutError is returned by lock/wait operations that exceed their
// deadline; callers treat it as a soft failure.
type TimeoutError struct {
	Op       string
	Duration time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: timed out after %s", e.Op, e.Duration)
}
func (e *TimeoutError) isCore() {}

// --- classifiers ---

func IsCore(err error) bool {
	if err == nil {
		return false
	}
	var m marker
	return stderrors.As(err, &m)
}

func IsNoRoom(err error) bool {
	var e *NoRoomError
	return stderrors.As(err, &e)
}

func IsNotEnoughData(err error) bool {
	var e *NotEnoughDataError
	return stderrors.As(err, &e)
}

func IsDisposed(err error) bool {
	var e *DisposedError
	return stderrors.As(err, &e)
}

func IsInvalidState(err error) bool {
	var e *InvalidStateError
	return stderrors.As(err, &e)
}

func IsContainerError(err error) bool {
	var e *ContainerError
	return stderrors.As(err, &e)
}

func IsCycleException(err error) bool {
	var e *CycleException
	return stderrors.As(err, &e)
}

// IsTimeout reports whether err is (or wraps) a TimeoutError or a
// context deadline.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	var te *TimeoutError
	if stderrors.As(err, &te) {
		return true
	}
	return stderrors.Is(err, context.DeadlineExceeded)
}
