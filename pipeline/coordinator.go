// Package pipeline wires the three cooperative workers from spec.md
// §4.9-§4.11 (packet reading, frame decoding, block rendering) plus the
// orchestrator from §4.12 on top of worker.ThreadWorker and the media
// collaborator contracts. None of it depends on a concrete demuxer or
// renderer implementation.
package pipeline

import (
	"sync"
	"time"

	"playsync/block"
	"playsync/logging"
	"playsync/media"
	"playsync/timing"
)

// ThreadWorkerPeriod is the default cycle spacing for the decoding and
// rendering workers (spec.md §4.10/§4.11's "5-16ms, high priority").
const ThreadWorkerPeriod = 8 * time.Millisecond

// BufferChangedPollInterval bounds how long the reader worker's custom
// cycle-delay waits for a buffer-changed wakeup before re-checking its
// own exit conditions (spec.md §4.9's "15 ms").
const BufferChangedPollInterval = 15 * time.Millisecond

// Coordinator is the shared state the three workers read and mutate:
// one block buffer per kind, the timing controller, the demuxer/
// renderer/command/state collaborators, and the cross-worker flags
// spec.md's cycle bodies reference (sync-buffering, decoding-ended,
// initialized).
type Coordinator struct {
	Demuxer    media.Demuxer
	Commands   media.CommandManager
	Reporter   media.StateReporter
	Converters map[block.Kind]media.Converter[any]
	Controller *timing.Controller
	Logger     logging.Logger

	MainKind block.Kind

	buffersMu sync.RWMutex
	buffers   map[block.Kind]*block.Buffer[any]
	renderers map[block.Kind]media.Renderer

	bufferChanged chan struct{}

	flagMu            sync.Mutex
	syncBuffering     bool
	hasInitialized    bool
	hasDecodingEnded  bool
	mediaEnded        bool
	decodingBitrate   float64
	lastRenderTime    map[block.Kind]time.Duration
}

// NewCoordinator builds a Coordinator over one block buffer per kind
// present in buffers, plus one renderer per kind in renderers.
func NewCoordinator(
	demuxer media.Demuxer,
	commands media.CommandManager,
	reporter media.StateReporter,
	converters map[block.Kind]media.Converter[any],
	buffers map[block.Kind]*block.Buffer[any],
	renderers map[block.Kind]media.Renderer,
	controller *timing.Controller,
	mainKind block.Kind,
	logger logging.Logger,
) *Coordinator {
	if logger == nil {
		logger = logging.Default()
	}
	return &Coordinator{
		Demuxer:        demuxer,
		Commands:       commands,
		Reporter:       reporter,
		Converters:     converters,
		Controller:     controller,
		Logger:         logger,
		MainKind:       mainKind,
		buffers:        buffers,
		renderers:      renderers,
		bufferChanged:  make(chan struct{}, 1),
		lastRenderTime: make(map[block.Kind]time.Duration),
	}
}

// Buffer returns the block buffer for kind, or nil if none was
// configured.
func (c *Coordinator) Buffer(kind block.Kind) *block.Buffer[any] {
	c.buffersMu.RLock()
	defer c.buffersMu.RUnlock()
	return c.buffers[kind]
}

// Kinds returns every kind with a configured block buffer.
func (c *Coordinator) Kinds() []block.Kind {
	c.buffersMu.RLock()
	defer c.buffersMu.RUnlock()
	out := make([]block.Kind, 0, len(c.buffers))
	for k := range c.buffers {
		out = append(out, k)
	}
	return out
}

func (c *Coordinator) renderer(kind block.Kind) media.Renderer {
	c.buffersMu.RLock()
	defer c.buffersMu.RUnlock()
	return c.renderers[kind]
}

// SignalBufferChanged wakes a reader worker parked in its cycle-delay
// loop. Non-blocking: a pending signal is coalesced if one is already
// queued.
func (c *Coordinator) SignalBufferChanged() {
	select {
	case c.bufferChanged <- struct{}{}:
	default:
	}
}

func (c *Coordinator) setSyncBuffering(v bool) {
	c.flagMu.Lock()
	defer c.flagMu.Unlock()
	c.syncBuffering = v
}

// IsSyncBuffering reports whether the rendering worker has paused
// playback to let decoding catch up.
func (c *Coordinator) IsSyncBuffering() bool {
	c.flagMu.Lock()
	defer c.flagMu.Unlock()
	return c.syncBuffering
}

func (c *Coordinator) setHasInitialized(v bool) {
	c.flagMu.Lock()
	defer c.flagMu.Unlock()
	c.hasInitialized = v
}

// HasInitialized reports whether the rendering worker has completed
// its one-time wait for every renderer to become ready.
func (c *Coordinator) HasInitialized() bool {
	c.flagMu.Lock()
	defer c.flagMu.Unlock()
	return c.hasInitialized
}

func (c *Coordinator) setHasDecodingEnded(v bool) {
	c.flagMu.Lock()
	defer c.flagMu.Unlock()
	c.hasDecodingEnded = v
}

// HasDecodingEnded reports whether the decoding worker's last cycle
// added no block for any kind while the main kind could read no more
// frames.
func (c *Coordinator) HasDecodingEnded() bool {
	c.flagMu.Lock()
	defer c.flagMu.Unlock()
	return c.hasDecodingEnded
}

func (c *Coordinator) setDecodingBitrate(v float64) {
	c.flagMu.Lock()
	defer c.flagMu.Unlock()
	c.decodingBitrate = v
}

func (c *Coordinator) setMediaEnded(v bool) {
	c.flagMu.Lock()
	defer c.flagMu.Unlock()
	c.mediaEnded = v
}

// HasMediaEnded reports whether the rendering worker has marked
// playback as ended.
func (c *Coordinator) HasMediaEnded() bool {
	c.flagMu.Lock()
	defer c.flagMu.Unlock()
	return c.mediaEnded
}

func (c *Coordinator) lastRender(kind block.Kind) (time.Duration, bool) {
	c.flagMu.Lock()
	defer c.flagMu.Unlock()
	t, ok := c.lastRenderTime[kind]
	return t, ok
}

func (c *Coordinator) setLastRender(kind block.Kind, t time.Duration) {
	c.flagMu.Lock()
	defer c.flagMu.Unlock()
	c.lastRenderTime[kind] = t
}

// shouldReadMorePackets is the negation of the demuxer's own
// backpressure signal (spec.md §4.9/§5's "the reader stops when
// has_enough_packets").
func (c *Coordinator) shouldReadMorePackets() bool {
	return !c.Demuxer.Components().HasEnoughPackets()
}
