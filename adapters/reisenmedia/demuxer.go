// Package reisenmedia implements media.Demuxer over github.com/erparts/reisen,
// unifying the per-stream read loops the teacher duplicated across
// videoOnlyController.internalReadVideoFrame and
// videoWithAudioController.internalReadAudioFrame into a single
// packet-dispatch loop feeding per-kind pending-frame queues.
package reisenmedia

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/erparts/reisen"

	"playsync/block"
	"playsync/errs"
	"playsync/logging"
	"playsync/media"
)

// Frame is the reisen-backed media.Frame: a decoded sample (one video
// frame or one audio frame) with its presentation offset, an estimated
// duration, and the raw payload bytes the converter hands to a block.
type Frame struct {
	Start    time.Duration
	Duration time.Duration
	Size     int64 // approximate compressed size, used for bitrate reporting
	Payload  []byte
}

func (f Frame) StartTime() time.Duration { return f.Start }

// PassthroughConverter is the block.Converter every reisenmedia.Frame
// uses: it carries the decoded bytes straight into the block without
// any reencoding, since decoding already happened in reisen/ffmpeg.
func PassthroughConverter(frame block.Frame, w block.Writer[any], _ []*block.Block[any], _ bool) bool {
	f, ok := frame.(Frame)
	if !ok {
		return false
	}
	w.SetStart(f.Start)
	w.SetDuration(f.Duration)
	w.SetCompressedSize(f.Size)
	w.SetPayload(any(f.Payload))
	return true
}

// component is the per-stream media.Component: a FIFO of decoded frames
// awaiting pickup by the decoding worker.
type component struct {
	mu          sync.Mutex
	pending     []Frame
	inCodec     bool
	attachedPic bool
	startTime   time.Duration
}

func (c *component) push(f Frame) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = append(c.pending, f)
	return len(c.pending)
}

func (c *component) BufferLength() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

func (c *component) HasPacketsInCodec() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inCodec
}

func (c *component) StartTime() time.Duration { return c.startTime }

func (c *component) IsAttachedPictureDisposition() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attachedPic
}

func (c *component) ReceiveNextFrame() (media.Frame, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.pending) == 0 {
		return nil, false
	}
	f := c.pending[0]
	c.pending = c.pending[1:]
	return f, true
}

// Components is the media.Components view over the streams a Demuxer
// opened.
type Components struct {
	mu             sync.Mutex
	main           block.Kind
	byKind         map[block.Kind]*component
	hasEnough      bool
	playbackEnd    time.Duration
	hasPlaybackEnd bool
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

func (c *Components) PlaybackEndTime() (time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playbackEnd, c.hasPlaybackEnd
}

// Demuxer adapts a *reisen.Media plus its video and (optional) audio
// streams to media.Demuxer. One Read call corresponds to one ReadPacket
// off the container, matching reisen's own packet-at-a-time model
// rather than reading a whole frame's worth at once.
type Demuxer struct {
	mu sync.Mutex

	container *reisen.Media
	video     *reisen.VideoStream
	audio     *reisen.AudioStream

	frameDuration      time.Duration
	audioBytesPerFrame int // bytes per decoded audio sample group, used to estimate per-frame duration

	comps          *Components
	opts           *media.Options
	queueThreshold int
	onChanged      func(media.QueueChangeOp, block.Kind, media.QueueStats)

	logger logging.Logger
}

// Config controls how a Demuxer is constructed from an already-opened
// reisen.Media.
type Config struct {
	Options        *media.Options
	QueueThreshold int
	Logger         logging.Logger
}

// Open opens the video (and, if present, first audio) stream of path
// and returns a ready-to-read Demuxer. Playback starts paused; call
// Read repeatedly (as the reader worker does) to fill the component
// queues.
func Open(path string, cfg Config) (*Demuxer, error) {
	container, err := reisen.NewMedia(path)
	if err != nil {
		return nil, err
	}

	videoStreams := container.VideoStreams()
	if len(videoStreams) == 0 {
		return nil, fmt.Errorf("reisenmedia: %q has no video stream", path)
	}
	video := videoStreams[0]

	frNum, frDenom := video.FrameRate()
	frameDuration := (time.Second * time.Duration(frDenom)) / time.Duration(frNum)

	byKind := map[block.Kind]*component{block.Video: {}}

	var audioStream *reisen.AudioStream
	audioStreams := container.AudioStreams()
	if len(audioStreams) > 0 {
		audioStream = audioStreams[0]
		byKind[block.Audio] = &component{}
	}

	if err := container.OpenDecode(); err != nil {
		return nil, err
	}
	if err := video.Open(); err != nil {
		return nil, err
	}
	if audioStream != nil {
		if err := audioStream.Open(); err != nil {
			return nil, err
		}
	}

	opts := cfg.Options
	if opts == nil {
		opts = &media.Options{}
	}
	threshold := cfg.QueueThreshold
	if threshold <= 0 {
		threshold = 32
	}

	d := &Demuxer{
		container: container,
		video:     video,
		audio:     audioStream,

		frameDuration:      frameDuration,
		audioBytesPerFrame: 4, // 16-bit stereo PCM, matching the teacher's L16 audio.Player contract

		comps: &Components{
			main:   block.Video,
			byKind: byKind,
		},
		opts:           opts,
		queueThreshold: threshold,
		logger:         cfg.Logger,
	}
	return d, nil
}

func (d *Demuxer) Components() media.Components { return d.comps }
func (d *Demuxer) Options() *media.Options       { return d.opts }
func (d *Demuxer) IsLiveStream() bool            { return false }
func (d *Demuxer) IsStreamSeekable() bool        { return true }

func (d *Demuxer) OnPacketQueueChanged(fn func(media.QueueChangeOp, block.Kind, media.QueueStats)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onChanged = fn
}

// Read pulls one packet from the container and, if it belongs to the
// video or audio stream, decodes the corresponding frame and appends it
// to that stream's component queue. Unrecognized packet types and
// packets for streams we didn't open are silently skipped, mirroring
// the teacher's internalReadVideoFrame/internalReadAudioFrame loops.
func (d *Demuxer) Read(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	packet, found, err := d.container.ReadPacket()
	if err != nil {
		return &errs.ContainerError{Op: "reisenmedia.Read", Err: err}
	}
	if !found {
		d.mu.Lock()
		d.comps.hasEnough = true
		d.mu.Unlock()
		return nil
	}

	switch packet.Type() {
	case reisen.StreamVideo:
		if d.video == nil || packet.StreamIndex() != d.video.Index() {
			return nil
		}
		frame, frameFound, err := d.video.ReadVideoFrame()
		if err != nil {
			return &errs.ContainerError{Op: "reisenmedia.Read(video)", Err: err}
		}
		if !frameFound || frame == nil {
			return nil
		}
		offset, err := frame.PresentationOffset()
		if err != nil {
			return err
		}
		d.enqueue(block.Video, Frame{
			Start:    offset,
			Duration: d.frameDuration,
			Size:     int64(len(frame.Data())),
			Payload:  frame.Data(),
		})

	case reisen.StreamAudio:
		if d.audio == nil || packet.StreamIndex() != d.audio.Index() {
			return nil
		}
		frame, frameFound, err := d.audio.ReadAudioFrame()
		if err != nil {
			return &errs.ContainerError{Op: "reisenmedia.Read(audio)", Err: err}
		}
		if !frameFound || frame == nil {
			return nil
		}
		offset, err := frame.PresentationOffset()
		if err != nil {
			return err
		}
		data := frame.Data()
		sampleRate := d.audio.SampleRate()
		var dur time.Duration
		if sampleRate > 0 && d.audioBytesPerFrame > 0 {
			samples := len(data) / d.audioBytesPerFrame
			dur = time.Duration(samples) * time.Second / time.Duration(sampleRate)
		}
		d.enqueue(block.Audio, Frame{
			Start:    offset,
			Duration: dur,
			Size:     int64(len(data)),
			Payload:  data,
		})

	default:
		// subtitle and unrecognized packet types aren't decoded by this
		// adapter; the Subtitle kind stays reserved for callers that wire
		// their own component into Components.
	}
	return nil
}

func (d *Demuxer) enqueue(kind block.Kind, f Frame) {
	d.mu.Lock()
	comp := d.comps.byKind[kind]
	onChanged := d.onChanged
	threshold := d.queueThreshold
	d.mu.Unlock()
	if comp == nil {
		return
	}
	n := comp.push(f)
	if onChanged != nil {
		onChanged(media.QueueEnqueued, kind, media.QueueStats{Length: n, Count: n, CountThreshold: threshold})
	}
}

// Close rewinds and closes every opened stream, then the container
// itself, mirroring videoWithAudioController.Close's teardown order.
func (d *Demuxer) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.audio != nil {
		if err := d.audio.Rewind(0); err != nil {
			return err
		}
		if err := d.audio.Close(); err != nil {
			return err
		}
	}
	if err := d.video.Rewind(0); err != nil {
		return err
	}
	if err := d.video.Close(); err != nil {
		return err
	}
	if err := d.container.CloseDecode(); err != nil {
		return err
	}
	d.container.Close()
	return nil
}
