package worker

import (
	"context"
	"sync"

	"playsync/atomiccell"
)

// ThreadWorker drives a StateMachine from one dedicated goroutine, the
// substrate grounded on the decodeLoop/scheduleLoop goroutine pair in
// the teacher's controller_stream.go: a single long-lived goroutine
// that alternates between running a cycle and sleeping, woken early by
// state-change requests via the state machine's cancellation token.
type ThreadWorker struct {
	sm *StateMachine

	runOnce  sync.Once
	stopOnce sync.Once
	started  atomiccell.Bool
	done     chan struct{}
	shutdown context.CancelFunc
}

// NewThreadWorker wraps cfg in a StateMachine driven by its own
// goroutine. The goroutine is not spawned until Run is called.
func NewThreadWorker(cfg Config) *ThreadWorker {
	return &ThreadWorker{sm: New(cfg), done: make(chan struct{})}
}

// Machine exposes the underlying StateMachine for StartAsync/PauseAsync/
// ResumeAsync/StopAsync and the state/event accessors.
func (w *ThreadWorker) Machine() *StateMachine { return w.sm }

// Run spawns the worker goroutine. Safe to call once; subsequent calls
// are no-ops. The goroutine exits once the state machine reaches
// Stopped and Close is observed, or the supplied context is done.
func (w *ThreadWorker) Run(ctx context.Context) {
	w.runOnce.Do(func() {
		loopCtx, cancel := context.WithCancel(ctx)
		w.shutdown = cancel
		w.started.Store(true)
		go w.loop(loopCtx)
	})
}

func (w *ThreadWorker) loop(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		delay, terminal := w.sm.RunOnce()
		if terminal {
			return
		}

		cycleCtx := w.sm.Token()
		select {
		case <-ctx.Done():
			return
		case <-cycleCtx.Done():
			// a request arrived; loop immediately to process it.
			continue
		default:
		}

		w.sm.Delay(mergeDone(ctx, cycleCtx), delay)
	}
}

// Close requests Stop and blocks until the goroutine has exited.
func (w *ThreadWorker) Close() {
	w.stopOnce.Do(func() {
		w.sm.StopAsync()
		if w.shutdown != nil {
			w.shutdown()
		}
		if w.started.Load() {
			<-w.done
		}
		// The loop can observe shutdown before it drains the Stop request;
		// with the goroutine gone, commit whatever is still pending here.
		w.sm.pendingMu.Lock()
		pending := w.sm.pending != nil
		w.sm.pendingMu.Unlock()
		if pending {
			w.sm.RunOnce()
		}
	})
	if w.started.Load() {
		<-w.done
	}
}

// mergeDone returns a context that is Done as soon as either input is.
func mergeDone(a, b context.Context) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		defer cancel()
		select {
		case <-a.Done():
		case <-b.Done():
		case <-ctx.Done():
		}
	}()
	return ctx
}
