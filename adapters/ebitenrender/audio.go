package ebitenrender

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2/audio"

	"playsync/block"
	"playsync/ringbuf"
)

// ErrNoAudioContext mirrors the teacher's ErrNilAudioContext: Ebitengine
// requires a process-wide audio.Context before any player can exist.
var ErrNoAudioContext = errors.New("ebitenrender: audio.CurrentContext is nil")

// playerBufferSize matches the teacher's playerBufferSize constant: 40ms
// is fine on desktop, 70ms on web, tune per platform if needed.
const playerBufferSize time.Duration = 200 * time.Millisecond

// AudioRenderer renders decoded PCM payloads by writing them into a
// ring buffer that an *audio.Player pulls from, replacing the teacher's
// per-call leftoverAudio slice (videoWithAudioController.Read) with
// ringbuf.Buffer's wrap-safe storage.
type AudioRenderer struct {
	mu     sync.Mutex
	ring   *ringbuf.Buffer
	player *audio.Player
}

// NewAudioRenderer creates a player against the current audio context
// backed by a ring buffer of bufferCapacity bytes.
func NewAudioRenderer(bufferCapacity int) (*AudioRenderer, error) {
	ctx := audio.CurrentContext()
	if ctx == nil {
		return nil, ErrNoAudioContext
	}
	r := &AudioRenderer{ring: ringbuf.New(bufferCapacity)}
	player, err := ctx.NewPlayer(&struct{ io.Reader }{r})
	if err != nil {
		return nil, err
	}
	player.SetBufferSize(playerBufferSize)
	r.player = player
	return r, nil
}

// Read implements io.Reader for the underlying audio.Player. Unlike the
// teacher's Read (which signals io.EOF on natural end-of-stream to let
// ebitengine recreate the player), this renderer has no end-of-stream
// concept of its own: detectPlaybackEnded and Stop() own that, so an
// empty ring just serves silence to keep the stream open.
func (r *AudioRenderer) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	available := r.ring.ReadableCount()
	n := len(p)
	if available < n {
		n = available
	}
	if n > 0 {
		if err := r.ring.Read(n, p, 0); err != nil {
			return 0, err
		}
	}
	for i := n; i < len(p); i++ {
		p[i] = 0
	}
	return len(p), nil
}

func (r *AudioRenderer) WaitForReadyState(ctx context.Context) error { return nil }

func (r *AudioRenderer) Play() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.player.Play()
	return nil
}

func (r *AudioRenderer) Pause() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.player.Pause()
	return nil
}

func (r *AudioRenderer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.player.Pause()
	r.ring.Clear()
	return nil
}

// Seek discards buffered audio, since it no longer matches the position
// the controller is about to jump to.
func (r *AudioRenderer) Seek(time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ring.Clear()
	return nil
}

func (r *AudioRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.player.Close()
}

// Render writes the block's raw PCM payload into the ring buffer,
// overwriting the oldest unread bytes if the decoder has outpaced
// playback.
func (r *AudioRenderer) Render(blk any, position time.Duration) error {
	b, ok := blk.(*block.Block[any])
	if !ok || b == nil || b.Disposed() {
		return nil
	}
	payload, ok := b.Payload().([]byte)
	if !ok || len(payload) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ring.Write(payload, len(payload), time.Now(), true)
}

func (r *AudioRenderer) Update(position time.Duration) error { return nil }

// SetVolume forwards to the underlying audio.Player, mirroring
// videoWithAudioController.SetVolume.
func (r *AudioRenderer) SetVolume(volume float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.player.SetVolume(volume)
}
