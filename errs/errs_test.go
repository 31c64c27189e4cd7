package errs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClassifiersMatchTheirOwnType(t *testing.T) {
	require.True(t, IsNoRoom(&NoRoomError{Op: "op"}))
	require.True(t, IsNotEnoughData(&NotEnoughDataError{Op: "op"}))
	require.True(t, IsDisposed(&DisposedError{Op: "op"}))
	require.True(t, IsInvalidState(&InvalidStateError{Op: "op"}))
	require.True(t, IsContainerError(&ContainerError{Op: "op"}))
	require.True(t, IsCycleException(NewCycleException("w", errors.New("boom"))))
	require.True(t, IsTimeout(&TimeoutError{Op: "op", Duration: time.Second}))
}

func TestClassifiersRejectOtherErrorTypes(t *testing.T) {
	other := errors.New("plain error")
	require.False(t, IsNoRoom(other))
	require.False(t, IsNotEnoughData(other))
	require.False(t, IsDisposed(other))
	require.False(t, IsInvalidState(other))
	require.False(t, IsContainerError(other))
	require.False(t, IsCycleException(other))
	require.False(t, IsTimeout(other))
}

func TestIsCoreMatchesEveryErrorKindInThisPackage(t *testing.T) {
	cores := []error{
		&NoRoomError{Op: "op"},
		&NotEnoughDataError{Op: "op"},
		&DisposedError{Op: "op"},
		&InvalidStateError{Op: "op"},
		&ContainerError{Op: "op"},
		NewCycleException("w", errors.New("boom")),
		&TimeoutError{Op: "op"},
	}
	for _, err := range cores {
		require.True(t, IsCore(err), "%T should be classified as core", err)
	}
	require.False(t, IsCore(errors.New("plain error")))
	require.False(t, IsCore(nil))
}

func TestContainerErrorWrapsUnderlyingError(t *testing.T) {
	cause := errors.New("ffmpeg blew up")
	err := &ContainerError{Op: "reisenmedia.Read", Err: cause}
	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "ffmpeg blew up")
}

func TestContainerErrorWithNilErr(t *testing.T) {
	err := &ContainerError{Op: "reisenmedia.Read"}
	require.Equal(t, "container error: reisenmedia.Read", err.Error())
}

func TestCycleExceptionWrapsErrorCauseWithStack(t *testing.T) {
	cause := errors.New("cycle body panicked")
	ce := NewCycleException("decoder", cause)
	require.Equal(t, "decoder", ce.Worker)
	require.ErrorIs(t, ce, cause)
	require.Contains(t, ce.Error(), "cycle body panicked")
}

func TestCycleExceptionWrapsNonErrorPanicValue(t *testing.T) {
	ce := NewCycleException("decoder", "index out of range")
	require.Contains(t, ce.Error(), "index out of range")
}

func TestInvalidStateErrorMessageWithAndWithoutState(t *testing.T) {
	withState := &InvalidStateError{Op: "worker.Start", State: fakeStringer("Paused"), Request: "Pause"}
	require.Contains(t, withState.Error(), "Paused")
	require.Contains(t, withState.Error(), "Pause")

	withoutState := &InvalidStateError{Op: "worker.Start", Request: "Pause"}
	require.NotContains(t, withoutState.Error(), "<nil>")
}

func TestIsTimeoutMatchesContextDeadlineExceeded(t *testing.T) {
	require.True(t, IsTimeout(context.DeadlineExceeded))
	require.True(t, IsTimeout(&wrapped{err: context.DeadlineExceeded}))
}

type wrapped struct{ err error }

func (w *wrapped) Error() string { return "wrapped: " + w.err.Error() }
func (w *wrapped) Unwrap() error { return w.err }

type fakeStringer string

func (s fakeStringer) String() string { return string(s) }
