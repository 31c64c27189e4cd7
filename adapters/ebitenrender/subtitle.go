package ebitenrender

import (
	"context"
	"sync"
	"time"

	"playsync/block"
)

// SubtitleRenderer holds the latest subtitle text for the demo's Draw
// loop to overlay; the teacher has no subtitle handling of its own, so
// this is built from scratch in the same narrow-interface style as
// VideoRenderer/AudioRenderer.
type SubtitleRenderer struct {
	mu   sync.Mutex
	text string
}

func NewSubtitleRenderer() *SubtitleRenderer { return &SubtitleRenderer{} }

// Text returns the currently displayed subtitle line, empty if none.
func (r *SubtitleRenderer) Text() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.text
}

func (r *SubtitleRenderer) WaitForReadyState(ctx context.Context) error { return nil }
func (r *SubtitleRenderer) Play() error                                  { return nil }
func (r *SubtitleRenderer) Pause() error                                 { return nil }

func (r *SubtitleRenderer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.text = ""
	return nil
}

func (r *SubtitleRenderer) Seek(time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.text = ""
	return nil
}

func (r *SubtitleRenderer) Close() error { return nil }

func (r *SubtitleRenderer) Render(blk any, position time.Duration) error {
	b, ok := blk.(*block.Block[any])
	if !ok || b == nil || b.Disposed() {
		return nil
	}
	text, _ := b.Payload().(string)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.text = text
	return nil
}

func (r *SubtitleRenderer) Update(position time.Duration) error { return nil }
