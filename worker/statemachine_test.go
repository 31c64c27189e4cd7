package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		from State
		req  Request
		want State
		ok   bool
	}{
		{Created, RequestStart, Waiting, true},
		{Created, RequestResume, Waiting, true},
		{Created, RequestStop, Stopped, true},
		{Created, RequestPause, Created, false},
		{Waiting, RequestPause, Paused, true},
		{Waiting, RequestResume, Waiting, true},
		{Waiting, RequestStart, Waiting, false},
		{Running, RequestPause, Paused, true},
		{Running, RequestResume, Waiting, true},
		{Paused, RequestResume, Waiting, true},
		{Paused, RequestPause, Paused, false},
		{Paused, RequestStart, Paused, false},
		{Stopped, RequestResume, Stopped, false},
		{Stopped, RequestStop, Stopped, false},
	}
	for _, c := range cases {
		got, ok := transition(c.from, c.req)
		require.Equal(t, c.ok, ok, "from=%s req=%s", c.from, c.req)
		require.Equal(t, c.want, got, "from=%s req=%s", c.from, c.req)
	}
}

func TestStateMachineCreatedRejectsPause(t *testing.T) {
	sm := New(Config{Name: "test"})
	h := sm.PauseAsync()
	_, terminal := sm.RunOnce()
	require.False(t, terminal)
	h.Wait()
	require.Error(t, h.Err())
	require.Equal(t, Created, h.State())
}

func TestStateMachineStartRunsCycleThenStops(t *testing.T) {
	ran := make(chan struct{}, 1)
	sm := New(Config{
		Name:   "test",
		Period: time.Millisecond,
		Cycle: func(ctx context.Context) error {
			select {
			case ran <- struct{}{}:
			default:
			}
			return nil
		},
	})

	startHandle := sm.StartAsync()
	delay, terminal := sm.RunOnce() // processes the Start request
	require.False(t, terminal)
	require.Equal(t, time.Duration(0), delay)
	startHandle.Wait()
	require.Equal(t, Waiting, startHandle.State())

	_, terminal = sm.RunOnce() // actually runs the cycle
	require.False(t, terminal)
	select {
	case <-ran:
	default:
		t.Fatal("expected cycle to have run")
	}
	require.Equal(t, Waiting, sm.State())

	stopHandle := sm.StopAsync()
	_, terminal = sm.RunOnce()
	require.True(t, terminal)
	stopHandle.Wait()
	require.Equal(t, Stopped, stopHandle.State())
	require.Equal(t, Stopped, sm.State())
}

func TestStateMachinePauseSkipsCycle(t *testing.T) {
	calls := 0
	sm := New(Config{
		Name:   "test",
		Period: time.Millisecond,
		Cycle: func(ctx context.Context) error {
			calls++
			return nil
		},
	})
	sm.StartAsync()
	sm.RunOnce()

	sm.PauseAsync()
	delay, _ := sm.RunOnce()
	require.Equal(t, Infinite, delay)
	require.Equal(t, Paused, sm.State())
	require.Equal(t, 0, calls)

	sm.ResumeAsync()
	sm.RunOnce()
	sm.RunOnce()
	require.Equal(t, 1, calls)
}

func TestThreadWorkerLifecycle(t *testing.T) {
	cycles := make(chan struct{}, 8)
	tw := NewThreadWorker(Config{
		Name:   "thread-test",
		Period: time.Millisecond,
		Cycle: func(ctx context.Context) error {
			select {
			case cycles <- struct{}{}:
			default:
			}
			return nil
		},
	})
	tw.Run(context.Background())
	tw.Machine().StartAsync().Wait()

	select {
	case <-cycles:
	case <-time.After(time.Second):
		t.Fatal("expected at least one cycle to run")
	}

	tw.Close()
	require.Equal(t, Stopped, tw.Machine().State())
}
