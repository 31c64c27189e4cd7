package pipeline

import (
	"context"
	"time"

	"playsync/block"
	"playsync/errs"
	"playsync/media"
	"playsync/worker"
)

// NewReaderWorker builds the packet reading worker from spec.md §4.9:
// infinite period by default, woken by the demuxer's packet-queue
// callback via Coordinator.SignalBufferChanged, with a custom delay
// loop that exits early on a buffer change, on sync-buffering, or once
// more packets need to be read.
func NewReaderWorker(c *Coordinator) *worker.ThreadWorker {
	c.Demuxer.OnPacketQueueChanged(func(_ media.QueueChangeOp, _ block.Kind, _ media.QueueStats) {
		c.SignalBufferChanged()
	})

	return worker.NewThreadWorker(worker.Config{
		Name:   "reader",
		Period: worker.Infinite,
		Logger: c.Logger,
		Cycle:  readerCycle(c),
		Delay:  readerDelay(c),
	})
}

func readerCycle(c *Coordinator) worker.Cycle {
	return func(ctx context.Context) error {
		for c.shouldReadMorePackets() && ctx.Err() == nil {
			if err := c.Demuxer.Read(ctx); err != nil {
				if errs.IsContainerError(err) {
					continue
				}
				return err
			}
			if c.Demuxer.Components().HasEnoughPackets() {
				break
			}
		}
		if c.canExitSyncBufferingForReader() {
			c.setSyncBuffering(false)
		}
		return nil
	}
}

// canExitSyncBufferingForReader mirrors the "on cycle end" clause of
// spec.md §4.9: the reader only clears sync-buffering on its own exit
// path when the rendering worker isn't actively managing it; in this
// implementation the rendering worker owns sync-buffering exit (§4.11's
// exitSyncBuffering), so this is a conservative no-op hook kept for
// parity with the spec's described cycle shape.
func (c *Coordinator) canExitSyncBufferingForReader() bool { return false }

func readerDelay(c *Coordinator) worker.DelayFunc {
	return func(ctx context.Context, _ time.Duration) {
		// drain any stale wakeup so this loop waits for a *new* one.
		select {
		case <-c.bufferChanged:
		default:
		}
		ticker := time.NewTicker(BufferChangedPollInterval)
		defer ticker.Stop()
		for {
			if c.shouldReadMorePackets() || c.IsSyncBuffering() {
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-c.bufferChanged:
				return
			case <-ticker.C:
				// re-check exit conditions on the next loop iteration.
			}
		}
	}
}
