// Package media defines the collaborator contracts the playback
// coordination core runs against: a demuxer/container, a frame
// converter, per-kind renderers, a command manager, and a state
// reporter. Nothing in this package or in `pipeline` imports a
// concrete decoder or rendering library — those live behind
// `adapters/reisenmedia` and `adapters/ebitenrender`, which implement
// these interfaces.
package media

import (
	"context"
	"time"

	"playsync/block"
)

// Frame is an alias for block.Frame: one demuxed/decoded unit handed to
// a Converter, carrying just enough for the block buffer to place it.
// Kept as a type alias (not a redeclared interface) so a
// media.Converter can be passed directly to block.Buffer.Add without a
// conversion shim.
type Frame = block.Frame

// Converter is an alias for block.Converter[T]: fills a pool block
// from a Frame. apply is always true in this core (kept as a parameter
// because Converter implementations are free to run a dry validation
// pass before touching the Writer).
type Converter[T any] = block.Converter[T]

// Component reports per-kind metadata a Demuxer exposes about one
// elementary stream.
type Component interface {
	BufferLength() int
	HasPacketsInCodec() bool
	StartTime() time.Duration
	IsAttachedPictureDisposition() bool
	ReceiveNextFrame() (Frame, bool)
}

// QueueChangeOp identifies which side of a packet queue changed, passed
// to the callback registered with Demuxer.OnPacketQueueChanged.
type QueueChangeOp int

const (
	QueueEnqueued QueueChangeOp = iota
	QueueDequeued
)

// QueueStats accompanies a packet-queue-changed notification.
type QueueStats struct {
	Length         int
	Count          int
	CountThreshold int
}

// Components is the demuxer-wide view across all kinds it carries.
type Components interface {
	Get(kind block.Kind) (Component, bool)
	MainMediaType() block.Kind
	MediaTypes() []block.Kind
	HasEnoughPackets() bool
	BufferLength() int
	PlaybackEndTime() (time.Duration, bool)
}

// Demuxer is the external container/packet-source collaborator.
type Demuxer interface {
	// Read pulls one packet unit, routing it to the appropriate
	// Component's internal queue. Returns a *errs.ContainerError (wrapped)
	// on a recoverable container fault.
	Read(ctx context.Context) error

	Components() Components

	Options() *Options

	IsLiveStream() bool
	IsStreamSeekable() bool

	// OnPacketQueueChanged registers fn to be invoked whenever any
	// component's packet queue changes; used by the reader worker's
	// buffer-changed wakeup.
	OnPacketQueueChanged(fn func(op QueueChangeOp, kind block.Kind, stats QueueStats))
}

// Renderer is the external, per-kind rendering collaborator. The
// rendering worker is the sole caller of Render/Update for a given
// kind (spec.md §5's single-owner rule).
type Renderer interface {
	WaitForReadyState(ctx context.Context) error
	Play() error
	Pause() error
	Stop() error
	Seek(position time.Duration) error
	Close() error

	Render(blk any, position time.Duration) error
	Update(position time.Duration) error
}

// SeekMode mirrors the active seek strategy reported by a
// CommandManager.
type SeekMode int

const (
	SeekNormal SeekMode = iota
	SeekPrecise
)

// CommandManager reports pending user-facing commands (seeks, state
// changes) that the rendering cycle must defer to.
type CommandManager interface {
	HasPendingCommands() bool
	IsSeeking() bool
	IsActivelySeeking() bool
	ActiveSeekMode() SeekMode
	WaitForSeekBlocks(ctx context.Context, timeout time.Duration) bool
}

// MediaState is the simplified playback state a host UI binds to,
// reported via StateReporter — distinct from worker.State, which is
// the internal five-state cooperative machine.
type MediaState int

const (
	MediaStop MediaState = iota
	MediaPlay
	MediaPause
	MediaManual
	MediaClose
)

func (s MediaState) String() string {
	switch s {
	case MediaStop:
		return "Stop"
	case MediaPlay:
		return "Play"
	case MediaPause:
		return "Pause"
	case MediaManual:
		return "Manual"
	case MediaClose:
		return "Close"
	default:
		return "Unknown"
	}
}

// StateReporter receives observable playback state from the rendering
// worker: buffering stats, bitrate, dynamic block properties, end-of-
// media notifications, and the reported media state.
type StateReporter interface {
	UpdateBufferingStats(length, count, countThreshold int)
	UpdateDecodingBitrate(bitsPerSecond float64)
	UpdateDynamicBlockProperties(blk any, bufferKind block.Kind)
	UpdateMediaEnded(ended bool, position time.Duration)
	UpdateMediaState(state MediaState)
	UpdatePlaybackStartTime(t time.Duration)
	ReportPlaybackPosition(position time.Duration)

	BufferingProgress() float64
	MediaState() MediaState
	HasMediaEnded() bool
}

// Options mirrors spec.md §6's media_options, a plain struct in the
// teacher's own configuration style (no framework).
type Options struct {
	IsTimeSyncDisabled       bool
	UseParallelDecoding      bool
	UseParallelRendering     bool
	MinPlaybackBufferPercent float64
}
