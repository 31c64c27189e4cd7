package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"playsync/block"
	"playsync/media"
	"playsync/pipeline/testfakes"
	"playsync/timing"
)

func passthroughConverter(frame block.Frame, w block.Writer[any], _ []*block.Block[any], _ bool) bool {
	f := frame.(testfakes.Frame)
	w.SetStart(f.Start)
	w.SetDuration(f.Duration)
	w.SetPayload(f.Payload)
	return true
}

func newTestCoordinator(t *testing.T) (*Coordinator, *testfakes.Demuxer, *testfakes.Components, *testfakes.StateReporter, *testfakes.CommandManager) {
	t.Helper()
	videoComp := testfakes.NewComponent(0)
	comps := testfakes.NewComponents(block.Video, map[block.Kind]*testfakes.Component{block.Video: videoComp})
	opts := &media.Options{MinPlaybackBufferPercent: 0}
	demuxer := testfakes.NewDemuxer(comps, opts)

	videoBuf := block.New[any](4, block.Video)
	reporter := testfakes.NewStateReporter()
	commands := &testfakes.CommandManager{}
	videoRenderer := &testfakes.Renderer{}

	controller := timing.New()
	controller.Setup(timing.SetupInput{HasVideo: true, MainKind: block.Video})

	c := NewCoordinator(
		demuxer,
		commands,
		reporter,
		map[block.Kind]media.Converter[any]{block.Video: passthroughConverter},
		map[block.Kind]*block.Buffer[any]{block.Video: videoBuf},
		map[block.Kind]media.Renderer{block.Video: videoRenderer},
		controller,
		block.Video,
		nil,
	)
	return c, demuxer, comps, reporter, commands
}

func TestDecodeComponentBlocksFillsBuffer(t *testing.T) {
	c, _, comps, _, _ := newTestCoordinator(t)
	videoComp, _ := comps.Get(block.Video)
	vc := videoComp.(*testfakes.Component)
	for i := 0; i < 3; i++ {
		vc.Push(testfakes.Frame{Start: time.Duration(i) * 100 * time.Millisecond, Duration: 100 * time.Millisecond})
	}

	added := c.decodeComponentBlocks(context.Background(), block.Video)
	require.Equal(t, 3, added)
	require.Equal(t, 3, c.Buffer(block.Video).Count())
}

func TestAddNextBlockReturnsFalseWhenNoFrame(t *testing.T) {
	c, _, _, _, _ := newTestCoordinator(t)
	_, ok := c.addNextBlock(block.Video)
	require.False(t, ok)
}

func TestDecoderCycleMarksEndedWhenNothingLeft(t *testing.T) {
	c, demuxer, comps, reporter, _ := newTestCoordinator(t)
	comps.SetHasEnoughPackets(true)
	cycle := decoderCycle(c, &Options{})
	require.NoError(t, cycle(context.Background()))
	require.True(t, c.HasDecodingEnded())
	_ = reporter
	_ = demuxer
}

func TestRendererCycleRendersAvailableBlock(t *testing.T) {
	c, _, comps, reporter, _ := newTestCoordinator(t)
	videoComp, _ := comps.Get(block.Video)
	vc := videoComp.(*testfakes.Component)
	vc.Push(testfakes.Frame{Start: 0, Duration: 100 * time.Millisecond, Payload: "frame0"})
	added := c.decodeComponentBlocks(context.Background(), block.Video)
	require.Equal(t, 1, added)

	reporter.SetMediaState(media.MediaPlay)
	cycle := rendererCycle(c, &Options{})
	require.NoError(t, cycle(context.Background()))

	renderer := c.renderer(block.Video).(*testfakes.Renderer)
	require.NotEmpty(t, renderer.Rendered)
	require.Equal(t, "frame0", renderer.Rendered[0].Block.(*block.Block[any]).Payload())
}

func TestWorkerSetLifecycle(t *testing.T) {
	c, _, _, _, _ := newTestCoordinator(t)
	ws := NewWorkerSet(c, &Options{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, ws.Start(ctx))
	require.NoError(t, ws.PauseAll())
	ws.Dispose()
}
