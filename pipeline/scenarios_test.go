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

func newAudioVideoCoordinator(t *testing.T) (*Coordinator, *testfakes.Renderer, *testfakes.Renderer) {
	t.Helper()
	videoComp := testfakes.NewComponent(0)
	audioComp := testfakes.NewComponent(0)
	comps := testfakes.NewComponents(block.Video, map[block.Kind]*testfakes.Component{
		block.Video: videoComp,
		block.Audio: audioComp,
	})
	demuxer := testfakes.NewDemuxer(comps, &media.Options{})

	videoBuf := block.New[any](4, block.Video)
	audioBuf := block.New[any](4, block.Audio)
	videoRenderer := &testfakes.Renderer{}
	audioRenderer := &testfakes.Renderer{}
	reporter := testfakes.NewStateReporter()
	commands := &testfakes.CommandManager{}

	controller := timing.New()
	controller.Setup(timing.SetupInput{HasAudio: true, HasVideo: true, MainKind: block.Video})

	c := NewCoordinator(
		demuxer,
		commands,
		reporter,
		map[block.Kind]media.Converter[any]{block.Video: passthroughConverter, block.Audio: passthroughConverter},
		map[block.Kind]*block.Buffer[any]{block.Video: videoBuf, block.Audio: audioBuf},
		map[block.Kind]media.Renderer{block.Video: videoRenderer, block.Audio: audioRenderer},
		controller,
		block.Video,
		nil,
	)
	return c, videoRenderer, audioRenderer
}

// Scenario F — audio requires repeated delivery on every cycle the
// playback position stays inside the block, video is delivered once.
func TestSendBlockToRendererRepeatsAudioButNotVideo(t *testing.T) {
	c, videoRenderer, audioRenderer := newAudioVideoCoordinator(t)

	videoBuf := c.Buffer(block.Video)
	videoBlk, ok := videoBuf.Add(testfakes.Frame{Start: 0, Duration: 33333 * time.Microsecond}, passthroughConverter)
	require.True(t, ok)

	audioBuf := c.Buffer(block.Audio)
	audioBlk, ok := audioBuf.Add(testfakes.Frame{Start: time.Second, Duration: 23 * time.Millisecond}, passthroughConverter)
	require.True(t, ok)

	// three consecutive rendering cycles at t=1.000s, t=1.005s, t=1.010s:
	// all fall inside the 23ms audio block. The video block is offered at
	// t=0 on every cycle, but its start repeats after the first delivery,
	// so only the first reaches the renderer.
	for i := 0; i < 3; i++ {
		c.sendBlockToRenderer(block.Audio, audioBlk, time.Second+time.Duration(i)*5*time.Millisecond)
		c.sendBlockToRenderer(block.Video, videoBlk, 0)
	}

	require.Len(t, audioRenderer.Rendered, 3, "audio render must be called every cycle the position stays in the block")
	require.Len(t, videoRenderer.Rendered, 1, "video render must be called exactly once per block")
}

// Scenario A (partial) — end-of-media detection pauses the clock,
// reports ended at the buffered range end, and flips the reported
// media state to Stop exactly once.
func TestDetectPlaybackEndedFiresExactlyOnce(t *testing.T) {
	c, _, _ := newAudioVideoCoordinator(t)
	reporter := c.Reporter.(*testfakes.StateReporter)

	videoBuf := c.Buffer(block.Video)
	_, ok := videoBuf.Add(testfakes.Frame{Start: 0, Duration: 100 * time.Millisecond}, passthroughConverter)
	require.True(t, ok)

	c.setHasDecodingEnded(true)
	c.Controller.Update(videoBuf.RangeEnd(), block.Video)

	c.detectPlaybackEnded(block.Video, videoBuf)
	require.True(t, c.HasMediaEnded())
	require.True(t, reporter.HasMediaEnded())
	require.Equal(t, media.MediaStop, reporter.MediaState())
	require.Equal(t, videoBuf.RangeEnd(), c.Controller.Position(block.Video))

	// a second call with the same state must not re-fire the transition:
	// the reporter's media state is left untouched this time.
	reporter.UpdateMediaState(media.MediaPlay)
	c.detectPlaybackEnded(block.Video, videoBuf)
	require.Equal(t, media.MediaPlay, reporter.MediaState(), "already-ended state must not be re-reported")
}

// Scenario B — sync-buffering entry when a non-main stream has fallen
// entirely behind the main stream's buffered range, and exit once it
// catches up to the main stream's range midpoint.
func TestEnterAndExitSyncBuffering(t *testing.T) {
	c, _, _ := newAudioVideoCoordinator(t)

	videoBuf := c.Buffer(block.Video)
	_, ok := videoBuf.Add(testfakes.Frame{Start: 500 * time.Millisecond, Duration: 10 * time.Millisecond}, passthroughConverter)
	require.True(t, ok)

	audioBuf := c.Buffer(block.Audio)
	_, ok = audioBuf.Add(testfakes.Frame{Start: 0, Duration: 50 * time.Millisecond}, passthroughConverter)
	require.True(t, ok)

	require.True(t, c.enterSyncBufferingIfStarved(videoBuf), "audio range [0,50ms] ends before video's range start (500ms)")
	require.True(t, c.IsSyncBuffering())

	// audio catches up to video's range mid (505ms): sync-buffering exits.
	audioBuf.Clear()
	_, ok = audioBuf.Add(testfakes.Frame{Start: 0, Duration: 510 * time.Millisecond}, passthroughConverter)
	require.True(t, ok)

	c.exitSyncBuffering(context.Background(), block.Video, videoBuf)
	require.False(t, c.IsSyncBuffering())
}
