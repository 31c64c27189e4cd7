package timing

import (
	"sync"
	"time"

	"playsync/block"
)

// MaxOffset is the maximum permissible start-time gap between audio and
// video before Setup forces disconnected clocks (spec.md §4.8 /
// §7 TIME_SYNC_MAX_OFFSET; 500ms is the spec's own example value).
const MaxOffset = 500 * time.Millisecond

// SetupInput carries everything Setup needs to decide connected vs.
// disconnected mode and to compute each kind's offset.
type SetupInput struct {
	TimeSyncDisabled bool
	IsLiveStream     bool
	HasAudio         bool
	HasVideo         bool
	AudioStartOffset time.Duration
	VideoStartOffset time.Duration
	// MainKind is the component whose start time anchors "None" in
	// connected mode, and the non-live disconnected case.
	MainKind block.Kind
}

// Controller is the kind -> (clock, offset) mapping from spec.md §4.8.
// A single mutex guards all clock and offset access, matching the
// spec's "one exclusive lock guards all clock and offset access" —
// there is no meaningful reader/writer split since every accessor also
// potentially mutates a clock's internal anchor.
type Controller struct {
	mu sync.Mutex

	disconnected bool
	mainKind     block.Kind
	isLive       bool

	clocks  map[block.Kind]*Clock
	offsets map[block.Kind]time.Duration
}

// New returns a controller with no clocks allocated; Setup must be
// called once media has been opened before Position/Update/Play are
// meaningful.
func New() *Controller {
	return &Controller{}
}

// Setup implements spec.md §4.8 steps 1-6: decide connected vs.
// disconnected mode, allocate clocks, compute offsets, and re-apply any
// prior speed/position so behavior survives a re-setup (e.g. after a
// seek that reopens the container).
func (c *Controller) Setup(in SetupInput) {
	c.mu.Lock()
	defer c.mu.Unlock()

	priorSpeed := 1.0
	var priorPositions map[block.Kind]time.Duration
	if len(c.clocks) > 0 {
		priorPositions = make(map[block.Kind]time.Duration, len(c.clocks))
		for kind, clk := range c.clocks {
			priorPositions[kind] = clk.Position() + c.offsets[kind]
		}
		if ref, ok := c.clocks[block.None]; ok {
			priorSpeed = ref.Speed()
		}
	}

	disconnected := in.TimeSyncDisabled
	if in.HasAudio && in.HasVideo {
		if absDuration(in.AudioStartOffset-in.VideoStartOffset) > MaxOffset {
			disconnected = true
		}
	}

	c.disconnected = disconnected
	c.mainKind = in.MainKind
	c.isLive = in.IsLiveStream
	c.clocks = make(map[block.Kind]*Clock)
	c.offsets = make(map[block.Kind]time.Duration)

	if !disconnected {
		shared := NewClock()
		c.clocks[block.Audio] = shared
		c.clocks[block.Video] = shared
		c.clocks[block.Subtitle] = shared
		c.clocks[block.None] = shared

		mainOffset := in.AudioStartOffset
		if in.MainKind == block.Video {
			mainOffset = in.VideoStartOffset
		}
		c.offsets[block.Audio] = mainOffset
		c.offsets[block.Video] = mainOffset
		c.offsets[block.Subtitle] = mainOffset
		c.offsets[block.None] = mainOffset
	} else {
		audioClock := NewClock()
		videoClock := NewClock()
		c.clocks[block.Audio] = audioClock
		c.clocks[block.Video] = videoClock
		c.clocks[block.Subtitle] = videoClock
		if in.IsLiveStream {
			c.clocks[block.None] = audioClock
		} else if in.MainKind == block.Video {
			c.clocks[block.None] = videoClock
		} else {
			c.clocks[block.None] = audioClock
		}

		c.offsets[block.Audio] = in.AudioStartOffset
		c.offsets[block.Video] = in.VideoStartOffset
		c.offsets[block.Subtitle] = in.VideoStartOffset
		c.offsets[block.None] = c.offsets[refKindOffset(in)]
	}

	c.reapply(priorSpeed, priorPositions)
}

func refKindOffset(in SetupInput) block.Kind {
	if in.IsLiveStream {
		return block.Audio
	}
	if in.MainKind == block.Video {
		return block.Video
	}
	return block.Audio
}

func (c *Controller) reapply(speed float64, positions map[block.Kind]time.Duration) {
	seen := make(map[*Clock]bool)
	for kind, clk := range c.clocks {
		if seen[clk] {
			continue
		}
		seen[clk] = true
		clk.SetSpeed(speed)
		if pos, ok := positions[kind]; ok {
			clk.Update(pos - c.offsets[kind])
		}
	}
}

// HasDisconnectedClocks reports whether Setup allocated separate
// audio/video clocks.
func (c *Controller) HasDisconnectedClocks() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disconnected
}

// IsRunning reports whether the reference (None) clock is running.
func (c *Controller) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	clk := c.clocks[block.None]
	if clk == nil {
		return false
	}
	return clk.IsRunning()
}

// Position returns kind's reported position: clock[kind].Position() +
// offset[kind], substituting None's reference clock and offset when
// kind is None.
func (c *Controller) Position(kind block.Kind) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	clk := c.clocks[kind]
	if clk == nil {
		return 0
	}
	return clk.Position() + c.offsets[kind]
}

// Update sets kind's clock so that Position(kind) reports position.
// kind == block.None updates every distinct clock.
func (c *Controller) Update(position time.Duration, kind block.Kind) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if kind == block.None {
		c.forEachDistinctClock(func(k block.Kind, clk *Clock) {
			clk.Update(position - c.offsets[k])
		})
		return
	}
	if clk := c.clocks[kind]; clk != nil {
		clk.Update(position - c.offsets[kind])
	}
}

// Play starts kind's clock (or every clock, when kind == block.None).
func (c *Controller) Play(kind block.Kind) { c.perClock(kind, (*Clock).Play) }

// Pause freezes kind's clock (or every clock, when kind == block.None).
func (c *Controller) Pause(kind block.Kind) { c.perClock(kind, (*Clock).Pause) }

// ResetClock stops and zeroes kind's clock (or every clock, when kind
// == block.None).
func (c *Controller) ResetClock(kind block.Kind) { c.perClock(kind, (*Clock).Reset) }

func (c *Controller) perClock(kind block.Kind, op func(*Clock)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if kind == block.None {
		c.forEachDistinctClock(func(_ block.Kind, clk *Clock) { op(clk) })
		return
	}
	if clk := c.clocks[kind]; clk != nil {
		op(clk)
	}
}

// SpeedRatio returns the reference clock's current speed.
func (c *Controller) SpeedRatio() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if clk := c.clocks[block.None]; clk != nil {
		return clk.Speed()
	}
	return 1.0
}

// SetSpeedRatio applies ratio to the audio and video clocks (subtitle
// aliases video, so it moves too).
func (c *Controller) SetSpeedRatio(ratio float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.forEachDistinctClock(func(_ block.Kind, clk *Clock) { clk.SetSpeed(ratio) })
}

func (c *Controller) forEachDistinctClock(fn func(kind block.Kind, clk *Clock)) {
	seen := make(map[*Clock]bool, len(c.clocks))
	for _, kind := range []block.Kind{block.Audio, block.Video, block.Subtitle, block.None} {
		clk := c.clocks[kind]
		if clk == nil || seen[clk] {
			continue
		}
		seen[clk] = true
		fn(kind, clk)
	}
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
