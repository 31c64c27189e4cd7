package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"playsync/block"
	"playsync/media"
	"playsync/worker"
)

// Options carries the media.Options parallel-dispatch switches the
// decoding/rendering cycles consult every tick, avoiding a Demuxer
// round-trip per check. reportAndResumePlayback reads the minimum
// playback buffer percent from Demuxer().Options(), not from this struct.
type Options struct {
	UseParallelDecoding      bool
	UseParallelRendering     bool
	MinPlaybackBufferPercent float64
}

// NewDecoderWorker builds the frame decoding worker from spec.md §4.10:
// a small fixed period, iterating every configured kind either serially
// or (when opts.UseParallelDecoding or the timing controller reports
// disconnected clocks) concurrently via errgroup.
func NewDecoderWorker(c *Coordinator, opts *Options) *worker.ThreadWorker {
	return worker.NewThreadWorker(worker.Config{
		Name:   "decoder",
		Period: ThreadWorkerPeriod,
		Logger: c.Logger,
		Cycle:  decoderCycle(c, opts),
	})
}

func decoderCycle(c *Coordinator, opts *Options) worker.Cycle {
	return func(ctx context.Context) error {
		if c.HasDecodingEnded() || ctx.Err() != nil {
			return nil
		}

		kinds := c.Kinds()
		added := make(map[block.Kind]int, len(kinds))

		parallel := opts.UseParallelDecoding || c.Controller.HasDisconnectedClocks()
		if parallel {
			g, gctx := errgroup.WithContext(ctx)
			results := make([]int, len(kinds))
			for i, kind := range kinds {
				i, kind := i, kind
				g.Go(func() error {
					results[i] = c.decodeComponentBlocks(gctx, kind)
					return nil
				})
			}
			_ = g.Wait()
			for i, kind := range kinds {
				added[kind] = results[i]
			}
		} else {
			for _, kind := range kinds {
				added[kind] = c.decodeComponentBlocks(ctx, kind)
			}
		}

		var bitrate float64
		total := 0
		for kind, n := range added {
			total += n
			if buf := c.Buffer(kind); buf != nil {
				bitrate += buf.RangeBitrate()
			}
		}
		c.setDecodingBitrate(bitrate)
		c.Reporter.UpdateDecodingBitrate(bitrate)

		c.setHasDecodingEnded(total == 0 && !c.canReadMoreFramesOf(c.MainKind))
		return nil
	}
}

// decodeComponentBlocks implements spec.md §4.10's
// decode_component_blocks: pull frames into kind's block buffer until
// it's full and the timing position hasn't reached the buffer's
// midpoint, or until no more frames are available.
func (c *Coordinator) decodeComponentBlocks(ctx context.Context, kind block.Kind) int {
	buf := c.Buffer(kind)
	if buf == nil {
		return 0
	}
	limit := buf.Capacity()
	added := 0
	for {
		position := c.Controller.Position(kind)
		mid := buf.RangeMid()
		if buf.IsFull() && position < mid {
			break
		}
		if ctx.Err() != nil {
			break
		}
		if _, ok := c.addNextBlock(kind); !ok {
			break
		}
		added++
		if added >= limit {
			break
		}
	}
	return added
}

// addNextBlock implements spec.md §4.10's add_next_block: pull the next
// decoded frame for kind and hand it to the kind's block buffer.
func (c *Coordinator) addNextBlock(kind block.Kind) (*block.Block[any], bool) {
	comps := c.Demuxer.Components()
	comp, ok := comps.Get(kind)
	if !ok {
		return nil, false
	}
	frame, ok := comp.ReceiveNextFrame()
	if !ok {
		return nil, false
	}
	buf := c.Buffer(kind)
	if buf == nil {
		return nil, false
	}
	converter, ok := c.Converters[kind]
	if !ok {
		return nil, false
	}
	return buf.Add(frame, converter)
}

// canReadMoreFramesOf implements spec.md §4.10's
// can_read_more_frames_of: true while the component still has buffered
// data, packets waiting in the codec, or the reader hasn't caught up.
func (c *Coordinator) canReadMoreFramesOf(kind block.Kind) bool {
	comps := c.Demuxer.Components()
	comp, ok := comps.Get(kind)
	if !ok {
		return c.shouldReadMorePackets()
	}
	return comp.BufferLength() > 0 || comp.HasPacketsInCodec() || c.shouldReadMorePackets()
}
