// Package ebitenrender implements media.Renderer for video, audio, and
// subtitle kinds on top of Ebitengine, grounded on the teacher's
// Player.copyFrame (video pixel blit) and
// videoWithAudioController.Read/noLockCreateAudioPlayer (audio player
// fed from a byte reader).
package ebitenrender

import (
	"context"
	"image/color"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"playsync/block"
)

// VideoRenderer renders decoded video payloads into a reused
// *ebiten.Image, the same reuse contract Player.CurrentFrame documents
// ("the returned image is reused ... you should not store it for later
// use").
type VideoRenderer struct {
	mu    sync.Mutex
	image *ebiten.Image
}

// NewVideoRenderer allocates a width x height black canvas, matching
// newPlayer's img.Fill(color.Black) initialization.
func NewVideoRenderer(width, height int) *VideoRenderer {
	img := ebiten.NewImage(width, height)
	img.Fill(color.Black)
	return &VideoRenderer{image: img}
}

// Image returns the renderer's backing image for drawing via Draw.
func (r *VideoRenderer) Image() *ebiten.Image {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.image
}

func (r *VideoRenderer) WaitForReadyState(ctx context.Context) error { return nil }
func (r *VideoRenderer) Play() error                                  { return nil }
func (r *VideoRenderer) Pause() error                                 { return nil }

func (r *VideoRenderer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.image.Fill(color.Black)
	return nil
}

func (r *VideoRenderer) Seek(time.Duration) error { return nil }
func (r *VideoRenderer) Close() error              { return nil }

// Render copies the block's raw RGBA payload into the backing image,
// the same operation as Player.copyFrame's frame.WritePixels call.
func (r *VideoRenderer) Render(blk any, position time.Duration) error {
	b, ok := blk.(*block.Block[any])
	if !ok || b == nil || b.Disposed() {
		return nil
	}
	payload, ok := b.Payload().([]byte)
	if !ok {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.image.WritePixels(payload)
	return nil
}

func (r *VideoRenderer) Update(position time.Duration) error { return nil }

// Draw projects the renderer's current frame into viewport, preserving
// aspect ratio, reusing CalcProjection unchanged from the teacher.
func Draw(viewport *ebiten.Image, r *VideoRenderer) {
	frame := r.Image()
	geom, filter := CalcProjection(viewport, frame)
	var opts ebiten.DrawImageOptions
	opts.GeoM = geom
	opts.Filter = filter
	viewport.DrawImage(frame, &opts)
}

// CalcProjection returns the GeoM and recommended ebiten.Filter to
// project frame into viewport, letterboxing without drawing explicit
// bars. Unchanged from the teacher's avebi.CalcProjection.
func CalcProjection(viewport, frame *ebiten.Image) (ebiten.GeoM, ebiten.Filter) {
	frameBounds := frame.Bounds()
	viewBounds := viewport.Bounds()
	vwWidth, vwHeight := viewBounds.Dx(), viewBounds.Dy()
	frWidth, frHeight := frameBounds.Dx(), frameBounds.Dy()

	tx, ty := float64(viewBounds.Min.X), float64(viewBounds.Min.Y)

	var geom ebiten.GeoM
	var filter ebiten.Filter = ebiten.FilterLinear
	wf, hf := float64(vwWidth)/float64(frWidth), float64(vwHeight)/float64(frHeight)
	sf := wf
	if hf < wf {
		sf = hf
	}
	if sf == 1.0 {
		offx := (float64(vwWidth) - float64(frWidth)) / 2
		offy := (float64(vwHeight) - float64(frHeight)) / 2
		geom.Translate(tx+offx, ty+offy)
	} else {
		sfrWidth := float64(frWidth) * sf
		sfrHeight := float64(frHeight) * sf
		geom.Scale(sf, sf)
		geom.Translate(tx+(float64(vwWidth)-sfrWidth)/2, ty+(float64(vwHeight)-sfrHeight)/2)
		filter = ebiten.FilterLinear
	}
	return geom, filter
}
