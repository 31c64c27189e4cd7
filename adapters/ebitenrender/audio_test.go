package ebitenrender

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"playsync/block"
	"playsync/ringbuf"
)

// newTestAudioRenderer builds an AudioRenderer around a bare ring buffer,
// bypassing NewAudioRenderer's audio.CurrentContext requirement: Read and
// Render only ever touch r.ring, never r.player.
func newTestAudioRenderer(capacity int) *AudioRenderer {
	return &AudioRenderer{ring: ringbuf.New(capacity)}
}

func TestAudioRendererReadServesBufferedBytes(t *testing.T) {
	r := newTestAudioRenderer(8)
	require.NoError(t, r.ring.Write([]byte{1, 2, 3, 4}, 4, time.Now(), true))

	out := make([]byte, 4)
	n, err := r.Read(out)
	require.NoError(t, err)
	require.Equal(t, 4, n)
	require.Equal(t, []byte{1, 2, 3, 4}, out)
}

func TestAudioRendererReadPadsUnderrunWithSilence(t *testing.T) {
	r := newTestAudioRenderer(8)
	require.NoError(t, r.ring.Write([]byte{9, 9}, 2, time.Now(), true))

	out := make([]byte, 6)
	n, err := r.Read(out)
	require.NoError(t, err)
	require.Equal(t, 6, n, "Read must always fill the whole buffer, even on underrun")
	require.Equal(t, []byte{9, 9, 0, 0, 0, 0}, out)
}

func TestAudioRendererReadNeverReturnsEOF(t *testing.T) {
	r := newTestAudioRenderer(4)
	out := make([]byte, 4)
	n, err := r.Read(out)
	require.NoError(t, err)
	require.Equal(t, 4, n)
	require.Equal(t, []byte{0, 0, 0, 0}, out)
}

func TestAudioRendererRenderWritesPayloadIntoRing(t *testing.T) {
	r := newTestAudioRenderer(16)
	buf := block.New[any](1, block.Audio)
	blk, ok := buf.Add(testAudioFrame{payload: []byte{5, 6, 7}}, testAudioConverter)
	require.True(t, ok)

	require.NoError(t, r.Render(blk, 0))
	require.Equal(t, 3, r.ring.ReadableCount())

	out := make([]byte, 3)
	n, err := r.Read(out)
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Equal(t, []byte{5, 6, 7}, out)
}

func TestAudioRendererRenderIgnoresWrongBlockType(t *testing.T) {
	r := newTestAudioRenderer(16)
	require.NoError(t, r.Render("not a block", 0))
	require.Equal(t, 0, r.ring.ReadableCount())
}

type testAudioFrame struct{ payload []byte }

func (f testAudioFrame) StartTime() time.Duration { return 0 }

func testAudioConverter(frame block.Frame, w block.Writer[any], _ []*block.Block[any], _ bool) bool {
	f := frame.(testAudioFrame)
	w.SetPayload(any(f.payload))
	return true
}
