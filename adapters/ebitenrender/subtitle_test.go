package ebitenrender

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"playsync/block"
)

func TestSubtitleRendererRenderSetsText(t *testing.T) {
	r := NewSubtitleRenderer()
	require.Equal(t, "", r.Text())

	buf := block.New[any](1, block.Subtitle)
	blk, ok := buf.Add(testAudioFrame{}, subtitleConverter("hello"))
	require.True(t, ok)

	require.NoError(t, r.Render(blk, 0))
	require.Equal(t, "hello", r.Text())
}

func TestSubtitleRendererStopAndSeekClearText(t *testing.T) {
	r := NewSubtitleRenderer()
	buf := block.New[any](1, block.Subtitle)
	blk, ok := buf.Add(testAudioFrame{}, subtitleConverter("line"))
	require.True(t, ok)
	require.NoError(t, r.Render(blk, 0))
	require.Equal(t, "line", r.Text())

	require.NoError(t, r.Stop())
	require.Equal(t, "", r.Text())

	require.NoError(t, r.Render(blk, 0))
	require.Equal(t, "line", r.Text())
	require.NoError(t, r.Seek(time.Second))
	require.Equal(t, "", r.Text())
}

func TestSubtitleRendererRenderIgnoresDisposedBlock(t *testing.T) {
	r := NewSubtitleRenderer()
	buf := block.New[any](1, block.Subtitle)
	blk, ok := buf.Add(testAudioFrame{}, subtitleConverter("visible"))
	require.True(t, ok)
	buf.Dispose()

	require.NoError(t, r.Render(blk, 0))
	require.Equal(t, "", r.Text())
}

func subtitleConverter(text string) block.Converter[any] {
	return func(frame block.Frame, w block.Writer[any], _ []*block.Block[any], _ bool) bool {
		w.SetPayload(any(text))
		return true
	}
}
