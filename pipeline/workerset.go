package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"playsync/worker"
)

// WorkerSet owns the reader, decoder, and rendering workers and fans
// lifecycle requests out to all three via errgroup, matching spec.md
// §4.12's orchestrator.
type WorkerSet struct {
	Reader   *worker.ThreadWorker
	Decoder  *worker.ThreadWorker
	Renderer *worker.ThreadWorker
}

// NewWorkerSet builds the three workers over a shared Coordinator.
func NewWorkerSet(c *Coordinator, opts *Options) *WorkerSet {
	return &WorkerSet{
		Reader:   NewReaderWorker(c),
		Decoder:  NewDecoderWorker(c, opts),
		Renderer: NewRendererWorker(c, opts),
	}
}

func (ws *WorkerSet) all() []*worker.ThreadWorker {
	return []*worker.ThreadWorker{ws.Reader, ws.Decoder, ws.Renderer}
}

// Start spawns every worker's goroutine and requests Start on each,
// awaiting all three handles.
func (ws *WorkerSet) Start(ctx context.Context) error {
	for _, w := range ws.all() {
		w.Run(ctx)
	}
	return ws.fanRequest(func(w *worker.ThreadWorker) *worker.Handle {
		return w.Machine().StartAsync()
	})
}

// PauseAll requests Pause on every worker.
func (ws *WorkerSet) PauseAll() error {
	return ws.fanRequest(func(w *worker.ThreadWorker) *worker.Handle {
		return w.Machine().PauseAsync()
	})
}

// ResumeAll requests Resume on every worker.
func (ws *WorkerSet) ResumeAll() error {
	return ws.fanRequest(func(w *worker.ThreadWorker) *worker.Handle {
		return w.Machine().ResumeAsync()
	})
}

// PauseReadDecode pauses only the reader and decoder, leaving the
// rendering worker running (used when draining remaining decoded
// blocks during a stop-at-end sequence).
func (ws *WorkerSet) PauseReadDecode() error {
	return ws.fanRequestOver([]*worker.ThreadWorker{ws.Reader, ws.Decoder}, func(w *worker.ThreadWorker) *worker.Handle {
		return w.Machine().PauseAsync()
	})
}

// ResumePaused resumes the reader and decoder after PauseReadDecode.
func (ws *WorkerSet) ResumePaused() error {
	return ws.fanRequestOver([]*worker.ThreadWorker{ws.Reader, ws.Decoder}, func(w *worker.ThreadWorker) *worker.Handle {
		return w.Machine().ResumeAsync()
	})
}

// Dispose pauses, disposes, and closes every worker's goroutine.
func (ws *WorkerSet) Dispose() {
	for _, w := range ws.all() {
		w.Machine().PauseAsync().Wait()
		w.Machine().Dispose()
		w.Close()
	}
}

func (ws *WorkerSet) fanRequest(submit func(*worker.ThreadWorker) *worker.Handle) error {
	return ws.fanRequestOver(ws.all(), submit)
}

func (ws *WorkerSet) fanRequestOver(workers []*worker.ThreadWorker, submit func(*worker.ThreadWorker) *worker.Handle) error {
	var g errgroup.Group
	for _, w := range workers {
		w := w
		g.Go(func() error {
			h := submit(w)
			h.Wait()
			return h.Err()
		})
	}
	return g.Wait()
}
