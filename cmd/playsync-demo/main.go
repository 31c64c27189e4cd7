// Command playsync-demo plays a video file through the pipeline
// package, driving reisenmedia.Demuxer and ebitenrender's renderers
// from a pipeline.WorkerSet, in the same spirit as the teacher's
// examples/mediaplayer demo but against the coordinated multi-worker
// pipeline instead of a single Player.
package main

import (
	"context"
	"fmt"
	"image/color"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/urfave/cli"

	"playsync/adapters/ebitenrender"
	"playsync/adapters/reisenmedia"
	"playsync/block"
	"playsync/logging"
	"playsync/media"
	"playsync/pipeline"
	"playsync/timing"
)

func main() {
	app := cli.NewApp()
	app.Name = "playsync-demo"
	app.Usage = "play a video file through the playsync pipeline"
	app.Flags = []cli.Flag{
		cli.IntFlag{Name: "width", Value: 1280, Usage: "window width"},
		cli.IntFlag{Name: "height", Value: 720, Usage: "window height"},
		cli.IntFlag{Name: "buffer", Value: 16, Usage: "per-kind block buffer capacity"},
		cli.BoolFlag{Name: "parallel-decode", Usage: "decode every stream kind concurrently"},
		cli.BoolFlag{Name: "parallel-render", Usage: "render every stream kind concurrently"},
	}
	app.Action = func(c *cli.Context) error {
		if c.NArg() != 1 {
			return fmt.Errorf("usage: playsync-demo [options] path/to/video")
		}
		return run(c.Args().Get(0), c)
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(path string, c *cli.Context) error {
	logger := logging.Default()

	sampleRate, err := reisenmedia.ProbeAudioSampleRate(path)
	if err == nil {
		_ = audio.NewContext(sampleRate)
	}

	demuxer, err := reisenmedia.Open(path, reisenmedia.Config{
		Options: &media.Options{MinPlaybackBufferPercent: 0.2},
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	capacity := c.Int("buffer")
	if capacity <= 0 {
		capacity = 16
	}
	buffers := map[block.Kind]*block.Buffer[any]{
		block.Video: block.New[any](capacity, block.Video),
	}
	converters := map[block.Kind]media.Converter[any]{
		block.Video: reisenmedia.PassthroughConverter,
	}

	videoRenderer := ebitenrender.NewVideoRenderer(c.Int("width"), c.Int("height"))
	renderers := map[block.Kind]media.Renderer{
		block.Video: videoRenderer,
	}

	hasAudio := audio.CurrentContext() != nil
	var audioRenderer *ebitenrender.AudioRenderer
	if hasAudio {
		if _, ok := demuxer.Components().Get(block.Audio); ok {
			audioRenderer, err = ebitenrender.NewAudioRenderer(1 << 20)
			if err != nil {
				return err
			}
			buffers[block.Audio] = block.New[any](capacity, block.Audio)
			converters[block.Audio] = reisenmedia.PassthroughConverter
			renderers[block.Audio] = audioRenderer
		}
	}

	controller := timing.New()
	controller.Setup(timing.SetupInput{
		HasAudio:         audioRenderer != nil,
		HasVideo:         true,
		AudioStartOffset: 0,
		VideoStartOffset: 0,
		MainKind:         block.Video,
	})

	rep := newReporter(logger)
	coord := pipeline.NewCoordinator(
		demuxer,
		commands{},
		rep,
		converters,
		buffers,
		renderers,
		controller,
		block.Video,
		logger,
	)

	opts := &pipeline.Options{
		UseParallelDecoding:      c.Bool("parallel-decode"),
		UseParallelRendering:     c.Bool("parallel-render"),
		MinPlaybackBufferPercent: 0.2,
	}
	workers := pipeline.NewWorkerSet(coord, opts)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := workers.Start(ctx); err != nil {
		return err
	}
	defer workers.Dispose()

	rep.UpdateMediaState(media.MediaPlay)

	ebiten.SetWindowTitle("playsync-demo")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(c.Int("width"), c.Int("height"))

	game := &demoGame{
		controller: controller,
		reporter:   rep,
		video:      videoRenderer,
		workers:    workers,
	}
	return ebiten.RunGame(game)
}

type demoGame struct {
	controller *timing.Controller
	reporter   *reporter
	video      *ebitenrender.VideoRenderer
	workers    *pipeline.WorkerSet
	paused     bool
}

func (g *demoGame) Layout(_, _ int) (int, int) {
	panic("Layout() should not be called when LayoutF() exists")
}

func (g *demoGame) LayoutF(w, h float64) (float64, float64) {
	scaleFactor := ebiten.Monitor().DeviceScaleFactor()
	return w * scaleFactor, h * scaleFactor
}

func (g *demoGame) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) || inpututil.IsKeyJustPressed(ebiten.KeyP) {
		g.paused = !g.paused
		if g.paused {
			return g.workers.PauseAll()
		}
		return g.workers.ResumeAll()
	}
	return nil
}

func (g *demoGame) Draw(screen *ebiten.Image) {
	ebitenrender.Draw(screen, g.video)
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("position: %s", g.reporter.Position()), 8, 8)
	if g.paused {
		screen.Fill(withAlpha(color.Black, 0))
	}
}

func withAlpha(c color.Color, a uint8) color.Color {
	r, gg, b, _ := c.RGBA()
	return color.NRGBA{R: uint8(r >> 8), G: uint8(gg >> 8), B: uint8(b >> 8), A: a}
}
