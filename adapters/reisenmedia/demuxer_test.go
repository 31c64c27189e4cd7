package reisenmedia

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"playsync/block"
)

func TestFrameStartTime(t *testing.T) {
	f := Frame{Start: 250 * time.Millisecond}
	require.Equal(t, 250*time.Millisecond, f.StartTime())
}

func TestPassthroughConverterFillsBlock(t *testing.T) {
	buf := block.New[any](1, block.Video)
	blk, ok := buf.Add(Frame{
		Start:    10 * time.Millisecond,
		Duration: 33 * time.Millisecond,
		Size:     1024,
		Payload:  []byte{1, 2, 3},
	}, PassthroughConverter)
	require.True(t, ok)
	require.Equal(t, 10*time.Millisecond, blk.Start())
	require.Equal(t, 33*time.Millisecond, blk.Duration())
	require.Equal(t, int64(1024), blk.CompressedSize())
	require.Equal(t, []byte{1, 2, 3}, blk.Payload())
}

func TestPassthroughConverterRejectsWrongFrameType(t *testing.T) {
	buf := block.New[any](1, block.Video)
	_, ok := buf.Add(fakeFrame{}, PassthroughConverter)
	require.False(t, ok)
}

type fakeFrame struct{}

func (fakeFrame) StartTime() time.Duration { return 0 }

func TestComponentPushAndReceiveIsFIFO(t *testing.T) {
	c := &component{}
	require.Equal(t, 0, c.BufferLength())

	n := c.push(Frame{Start: 0})
	require.Equal(t, 1, n)
	n = c.push(Frame{Start: time.Millisecond})
	require.Equal(t, 2, n)
	require.Equal(t, 2, c.BufferLength())

	f, ok := c.ReceiveNextFrame()
	require.True(t, ok)
	require.Equal(t, time.Duration(0), f.(Frame).Start)

	f, ok = c.ReceiveNextFrame()
	require.True(t, ok)
	require.Equal(t, time.Millisecond, f.(Frame).Start)

	_, ok = c.ReceiveNextFrame()
	require.False(t, ok)
}

func TestComponentsGetAndAggregateBufferLength(t *testing.T) {
	video := &component{}
	audio := &component{}
	video.push(Frame{})
	video.push(Frame{})
	audio.push(Frame{})

	comps := &Components{
		main:        block.Video,
		byKind:      map[block.Kind]*component{block.Video: video, block.Audio: audio},
		hasEnough:   true,
		playbackEnd: 5 * time.Second,
		hasPlaybackEnd: true,
	}

	got, ok := comps.Get(block.Video)
	require.True(t, ok)
	require.Equal(t, video, got)

	_, ok = comps.Get(block.Subtitle)
	require.False(t, ok)

	require.Equal(t, block.Video, comps.MainMediaType())
	require.ElementsMatch(t, []block.Kind{block.Video, block.Audio}, comps.MediaTypes())
	require.True(t, comps.HasEnoughPackets())
	require.Equal(t, 3, comps.BufferLength())

	end, ok := comps.PlaybackEndTime()
	require.True(t, ok)
	require.Equal(t, 5*time.Second, end)
}
