package pipeline

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"playsync/block"
	"playsync/media"
	"playsync/worker"
)

// NewRendererWorker builds the block rendering coordinator from
// spec.md §4.11: per-cycle clock alignment, sync-buffering entry/exit,
// per-kind render dispatch, end-of-media detection, and playback
// resume, all against ThreadWorkerPeriod for dedicated-thread jitter
// isolation (spec.md §5's "the rendering worker MUST have dedicated-
// thread isolation").
func NewRendererWorker(c *Coordinator, opts *Options) *worker.ThreadWorker {
	return worker.NewThreadWorker(worker.Config{
		Name:   "renderer",
		Period: ThreadWorkerPeriod,
		Logger: c.Logger,
		Cycle:  rendererCycle(c, opts),
	})
}

func rendererCycle(c *Coordinator, opts *Options) worker.Cycle {
	return func(ctx context.Context) error {
		main := c.MainKind
		mainBuf := c.Buffer(main)

		if !c.HasInitialized() {
			for _, kind := range c.Kinds() {
				r := c.renderer(kind)
				if r == nil {
					continue
				}
				if err := r.WaitForReadyState(ctx); err != nil {
					return err
				}
			}
			c.setHasInitialized(true)
			if mainBuf == nil || mainBuf.Count() == 0 {
				return nil
			}
		}
		if mainBuf == nil {
			return nil
		}

		if c.Commands.IsActivelySeeking() {
			for mainBuf.IndexOf(c.Controller.Position(main)) < 0 && c.Commands.ActiveSeekMode() == media.SeekNormal {
				if !c.Commands.WaitForSeekBlocks(ctx, ThreadWorkerPeriod) {
					break
				}
			}
		}

		c.alignClocks(mainBuf)

		if !c.IsSyncBuffering() && !c.Commands.HasPendingCommands() &&
			c.Reporter.MediaState() == media.MediaPlay && !c.Controller.HasDisconnectedClocks() {
			if c.enterSyncBufferingIfStarved(mainBuf) {
				return nil
			}
		}

		c.renderKinds(ctx, opts)

		c.detectPlaybackEnded(main, mainBuf)
		c.exitSyncBuffering(ctx, main, mainBuf)
		c.reportAndResumePlayback(main, mainBuf)
		return nil
	}
}

// alignClocks implements spec.md §4.11 step 3.
func (c *Coordinator) alignClocks(mainBuf *block.Buffer[any]) {
	if c.Controller.HasDisconnectedClocks() {
		for _, kind := range []block.Kind{block.Audio, block.Video} {
			buf := c.Buffer(kind)
			if buf == nil {
				continue
			}
			if buf.Count() == 0 {
				c.Controller.Pause(kind)
				continue
			}
			pos := c.Controller.Position(kind)
			switch {
			case pos < buf.RangeStart():
				c.Controller.Update(buf.RangeStart(), kind)
			case pos > buf.RangeEnd():
				if kind != block.Audio {
					c.Controller.Pause(kind)
				}
				c.Controller.Update(buf.RangeEnd(), kind)
			}
		}
		return
	}

	position := c.Controller.Position(c.MainKind)
	rng := mainBuf.GetRangePercent(position)
	switch {
	case rng < 0:
		c.Controller.Update(mainBuf.RangeStart(), c.MainKind)
	case rng > 1:
		c.Controller.Pause(c.MainKind)
		c.Controller.Update(mainBuf.RangeEnd(), c.MainKind)
	case rng == 0 && mainBuf.Count() == 0 && c.Controller.IsRunning():
		c.Controller.Pause(c.MainKind)
	}
}

// enterSyncBufferingIfStarved implements spec.md §4.11 step 4: pause
// the reference clock and mark sync-buffering if any non-main,
// non-subtitle, non-attached-picture stream has fallen entirely behind
// the main stream's range.
func (c *Coordinator) enterSyncBufferingIfStarved(mainBuf *block.Buffer[any]) bool {
	for _, kind := range c.Kinds() {
		if kind == c.MainKind || kind == block.Subtitle {
			continue
		}
		if c.isAttachedPicture(kind) {
			continue
		}
		buf := c.Buffer(kind)
		if buf == nil || buf.Count() == 0 {
			continue
		}
		if buf.RangeEnd() < mainBuf.RangeStart() {
			c.setSyncBuffering(true)
			c.Controller.Pause(block.None)
			return true
		}
	}
	return false
}

func (c *Coordinator) isAttachedPicture(kind block.Kind) bool {
	comp, ok := c.Demuxer.Components().Get(kind)
	if !ok {
		return false
	}
	return comp.IsAttachedPictureDisposition()
}

// renderKinds implements spec.md §4.11 step 5, per-kind, serially or in
// parallel per opts.UseParallelRendering.
func (c *Coordinator) renderKinds(ctx context.Context, opts *Options) {
	kinds := c.Kinds()
	if opts.UseParallelRendering {
		g, _ := errgroup.WithContext(ctx)
		for _, kind := range kinds {
			kind := kind
			g.Go(func() error { c.renderBlock(kind); return nil })
		}
		_ = g.Wait()
		return
	}
	for _, kind := range kinds {
		c.renderBlock(kind)
	}
}

func (c *Coordinator) renderBlock(kind block.Kind) {
	if c.Commands.HasPendingCommands() && kind != block.Video {
		return
	}
	t := c.Controller.Position(kind)
	buf := c.Buffer(kind)
	if buf == nil {
		return
	}
	current := buf.AtTime(t)
	c.sendBlockToRenderer(kind, current, t)
	if r := c.renderer(kind); r != nil {
		r.Update(t)
	}
}

// sendBlockToRenderer implements spec.md §4.11's send_block_to_renderer.
func (c *Coordinator) sendBlockToRenderer(kind block.Kind, blk *block.Block[any], t time.Duration) int {
	if blk == nil || blk.Disposed() {
		return 0
	}
	last, ok := c.lastRender(kind)
	requiresRepeat := kind == block.Audio || (kind == block.Video && c.isAttachedPicture(kind))
	if ok && last == blk.Start() && !requiresRepeat {
		return 0
	}
	c.Reporter.UpdateDynamicBlockProperties(blk, kind)
	c.setLastRender(kind, blk.Start())
	if r := c.renderer(kind); r != nil {
		r.Render(blk, t)
	}
	return 1
}

// exitSyncBuffering implements spec.md §4.11's exit_sync_buffering.
func (c *Coordinator) exitSyncBuffering(ctx context.Context, main block.Kind, mainBuf *block.Buffer[any]) {
	if !c.IsSyncBuffering() {
		return
	}
	mustExit := ctx.Err() != nil || c.HasDecodingEnded() || c.Commands.HasPendingCommands() || c.Controller.HasDisconnectedClocks()
	canExit := mainBuf.Count() > 0
	if canExit {
		for _, kind := range c.Kinds() {
			if kind == main || kind == block.Subtitle || c.isAttachedPicture(kind) {
				continue
			}
			buf := c.Buffer(kind)
			if buf == nil {
				continue
			}
			if buf.RangeEnd() < mainBuf.RangeMid() {
				canExit = false
				break
			}
		}
	}
	if mustExit || canExit {
		c.alignClocks(mainBuf)
		c.setSyncBuffering(false)
	}
}

// detectPlaybackEnded implements spec.md §4.11's detect_playback_ended.
func (c *Coordinator) detectPlaybackEnded(main block.Kind, mainBuf *block.Buffer[any]) {
	endClock := time.Duration(1<<63 - 1)
	if mainBuf.Count() > 0 {
		endClock = mainBuf.RangeEnd()
	} else if t, ok := c.Demuxer.Components().PlaybackEndTime(); ok {
		endClock = t
	}

	position := c.Controller.Position(main)
	atEnd := position >= endClock || c.Controller.HasDisconnectedClocks()

	if !c.Commands.HasPendingCommands() && c.HasDecodingEnded() && atEnd {
		if !c.HasMediaEnded() {
			c.Controller.Pause(block.None)
			c.Controller.Update(endClock, main)
			c.setMediaEnded(true)
			c.Reporter.UpdateMediaEnded(true, endClock)
			c.Reporter.UpdateMediaState(media.MediaStop)
			for _, kind := range c.Kinds() {
				if r := c.renderer(kind); r != nil {
					r.Stop()
				}
			}
		}
		return
	}
	c.setMediaEnded(false)
}

// reportAndResumePlayback implements spec.md §4.11's
// report_and_resume_playback.
func (c *Coordinator) reportAndResumePlayback(main block.Kind, mainBuf *block.Buffer[any]) {
	if !c.Commands.HasPendingCommands() && !c.IsSyncBuffering() {
		c.Reporter.ReportPlaybackPosition(c.Controller.Position(main))
	}

	if c.Reporter.MediaState() != media.MediaPlay || c.IsSyncBuffering() ||
		c.Commands.HasPendingCommands() || mainBuf.Count() == 0 {
		return
	}

	opts := c.Demuxer.Options()
	if opts.MinPlaybackBufferPercent > 0 && c.shouldReadMorePackets() &&
		!c.Demuxer.Components().HasEnoughPackets() &&
		c.Reporter.BufferingProgress() < opts.MinPlaybackBufferPercent {
		return
	}

	c.Controller.Play(block.None)
}
