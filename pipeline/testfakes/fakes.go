// Package testfakes provides in-memory fakes for media.Demuxer,
// media.Renderer, media.CommandManager, and media.StateReporter so the
// pipeline package's coordination logic can be unit tested without
// linking a real demuxer or renderer.
package testfakes

import (
	"context"
	"sync"
	"time"

	"playsync/block"
	"playsync/media"
)

// Frame is a minimal media.Frame implementation for tests.
type Frame struct {
	Start    time.Duration
	Duration time.Duration
	Payload  any
}

func (f Frame) StartTime() time.Duration { return f.Start }

// Component is an in-memory media.Component backed by a queue of
// pending frames.
type Component struct {
	mu             sync.Mutex
	pending        []Frame
	bufferLength   int
	hasInCodec     bool
	startTime      time.Duration
	attachedImage  bool
}

func NewComponent(startTime time.Duration) *Component {
	return &Component{startTime: startTime}
}

func (c *Component) Push(f Frame) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = append(c.pending, f)
	c.bufferLength = len(c.pending)
}

func (c *Component) SetHasPacketsInCodec(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hasInCodec = v
}

func (c *Component) SetAttachedPicture(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attachedImage = v
}

func (c *Component) BufferLength() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bufferLength
}

func (c *Component) HasPacketsInCodec() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasInCodec
}

func (c *Component) StartTime() time.Duration { return c.startTime }

func (c *Component) IsAttachedPictureDisposition() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attachedImage
}

func (c *Component) ReceiveNextFrame() (media.Frame, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.pending) == 0 {
		return nil, false
	}
	f := c.pending[0]
	c.pending = c.pending[1:]
	c.bufferLength = len(c.pending)
	return f, true
}

// Components is an in-memory media.Components over a fixed set of
// per-kind Component fakes.
type Components struct {
	mu              sync.Mutex
	byKind          map[block.Kind]*Component
	main            block.Kind
	hasEnough       bool
	playbackEnd     time.Duration
	hasPlaybackEnd  bool
}

func NewComponents(main block.Kind, byKind map[block.Kind]*Component) *Components {
	return &Components{byKind: byKind, main: main}
}

func (c *Components) Get(kind block.Kind) (media.Component, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	comp, ok := c.byKind[kind]
	return comp, ok
}

func (c *Components) MainMediaType() block.Kind { return c.main }

func (c *Components) MediaTypes() []block.Kind {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]block.Kind, 0, len(c.byKind))
	for k := range c.byKind {
		out = append(out, k)
	}
	return out
}

func (c *Components) SetHasEnoughPackets(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hasEnough = v
}

func (c *Components) HasEnoughPackets() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasEnough
}

func (c *Components) BufferLength() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for _, comp := range c.byKind {
		total += comp.BufferLength()
	}
	return total
}

func (c *Components) SetPlaybackEndTime(t time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playbackEnd = t
	c.hasPlaybackEnd = true
}

func (c *Components) PlaybackEndTime() (time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playbackEnd, c.hasPlaybackEnd
}

// Demuxer is an in-memory media.Demuxer. ReadFunc, when set, is invoked
// by Read instead of the default no-op success.
type Demuxer struct {
	mu         sync.Mutex
	comps      *Components
	opts       *media.Options
	live       bool
	seekable   bool
	onChanged  func(media.QueueChangeOp, block.Kind, media.QueueStats)
	ReadFunc   func(ctx context.Context) error
	ReadCalls  int
}

func NewDemuxer(comps *Components, opts *media.Options) *Demuxer {
	return &Demuxer{comps: comps, opts: opts, seekable: true}
}

func (d *Demuxer) Read(ctx context.Context) error {
	d.mu.Lock()
	d.ReadCalls++
	fn := d.ReadFunc
	d.mu.Unlock()
	if fn != nil {
		return fn(ctx)
	}
	return nil
}

func (d *Demuxer) Components() media.Components { return d.comps }
func (d *Demuxer) Options() *media.Options       { return d.opts }
func (d *Demuxer) IsLiveStream() bool            { return d.live }
func (d *Demuxer) IsStreamSeekable() bool        { return d.seekable }

func (d *Demuxer) OnPacketQueueChanged(fn func(media.QueueChangeOp, block.Kind, media.QueueStats)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onChanged = fn
}

// NotifyQueueChanged lets a test simulate the demuxer signaling a
// packet-queue change to whatever the reader worker registered.
func (d *Demuxer) NotifyQueueChanged(op media.QueueChangeOp, kind block.Kind, stats media.QueueStats) {
	d.mu.Lock()
	fn := d.onChanged
	d.mu.Unlock()
	if fn != nil {
		fn(op, kind, stats)
	}
}

// Renderer is an in-memory media.Renderer recording every Render and
// Update call it receives, for assertions in tests.
type Renderer struct {
	mu       sync.Mutex
	Rendered []struct {
		Block    any
		Position time.Duration
	}
	Updated []time.Duration
	Ready   bool
}

func (r *Renderer) WaitForReadyState(ctx context.Context) error { return nil }
func (r *Renderer) Play() error                                  { return nil }
func (r *Renderer) Pause() error                                 { return nil }
func (r *Renderer) Stop() error                                  { return nil }
func (r *Renderer) Seek(time.Duration) error                      { return nil }
func (r *Renderer) Close() error                                  { return nil }

func (r *Renderer) Render(blk any, position time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Rendered = append(r.Rendered, struct {
		Block    any
		Position time.Duration
	}{blk, position})
	return nil
}

func (r *Renderer) Update(position time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Updated = append(r.Updated, position)
	return nil
}

// CommandManager is an in-memory media.CommandManager with no pending
// commands by default.
type CommandManager struct {
	mu      sync.Mutex
	pending bool
	seeking bool
	mode    media.SeekMode
}

func (c *CommandManager) SetPending(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = v
}

func (c *CommandManager) HasPendingCommands() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

func (c *CommandManager) IsSeeking() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seeking
}

func (c *CommandManager) IsActivelySeeking() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seeking
}

func (c *CommandManager) ActiveSeekMode() media.SeekMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

func (c *CommandManager) WaitForSeekBlocks(ctx context.Context, timeout time.Duration) bool {
	return false
}

// StateReporter is an in-memory media.StateReporter recording the
// latest reported values.
type StateReporter struct {
	mu                sync.Mutex
	state             media.MediaState
	bufferingProgress float64
	ended             bool
	endedPosition     time.Duration
	bitrate           float64
	lastPosition      time.Duration
	startTime         time.Duration
}

func NewStateReporter() *StateReporter {
	return &StateReporter{state: media.MediaPlay, bufferingProgress: 1}
}

func (s *StateReporter) UpdateBufferingStats(length, count, countThreshold int) {}

func (s *StateReporter) UpdateDecodingBitrate(bitsPerSecond float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bitrate = bitsPerSecond
}

func (s *StateReporter) UpdateDynamicBlockProperties(blk any, bufferKind block.Kind) {}

func (s *StateReporter) UpdateMediaEnded(ended bool, position time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ended = ended
	s.endedPosition = position
}

func (s *StateReporter) UpdateMediaState(state media.MediaState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

func (s *StateReporter) UpdatePlaybackStartTime(t time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startTime = t
}

func (s *StateReporter) ReportPlaybackPosition(position time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastPosition = position
}

func (s *StateReporter) BufferingProgress() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bufferingProgress
}

func (s *StateReporter) SetBufferingProgress(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bufferingProgress = v
}

func (s *StateReporter) MediaState() media.MediaState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *StateReporter) SetMediaState(state media.MediaState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

func (s *StateReporter) HasMediaEnded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}

func (s *StateReporter) LastPosition() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastPosition
}
