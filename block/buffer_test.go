package block

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type testFrame struct {
	start    time.Duration
	duration time.Duration
	size     int64
	payload  int
}

func (f testFrame) StartTime() time.Duration { return f.start }

func passthrough(frame Frame, w Writer[int], playback []*Block[int], apply bool) bool {
	f := frame.(testFrame)
	w.SetStart(f.start)
	w.SetDuration(f.duration)
	w.SetCompressedSize(f.size)
	w.SetPayload(f.payload)
	return true
}

func rejectAll(frame Frame, w Writer[int], playback []*Block[int], apply bool) bool {
	return false
}

func TestNewPanicsOnNonPositiveCapacity(t *testing.T) {
	require.Panics(t, func() { New[int](0, Video) })
	require.Panics(t, func() { New[int](-1, Video) })
}

func TestNewPreallocatesPoolNotFull(t *testing.T) {
	b := New[int](3, Video)
	require.Equal(t, 3, b.Capacity())
	require.Equal(t, 0, b.Count())
	require.False(t, b.IsFull())
	require.Equal(t, Video, b.Kind())
}

func TestAddInsertsInSortedOrder(t *testing.T) {
	b := New[int](4, Video)
	_, ok := b.Add(testFrame{start: 20 * time.Millisecond, duration: 10 * time.Millisecond, payload: 2}, passthrough)
	require.True(t, ok)
	_, ok = b.Add(testFrame{start: 0, duration: 10 * time.Millisecond, payload: 0}, passthrough)
	require.True(t, ok)
	_, ok = b.Add(testFrame{start: 10 * time.Millisecond, duration: 10 * time.Millisecond, payload: 1}, passthrough)
	require.True(t, ok)

	require.Equal(t, 3, b.Count())
	require.Equal(t, 0, b.At(0).Payload())
	require.Equal(t, 1, b.At(1).Payload())
	require.Equal(t, 2, b.At(2).Payload())

	require.Equal(t, b.At(1), b.At(0).Next())
	require.Equal(t, b.At(0), b.At(1).Prev())
	require.Nil(t, b.At(2).Next())
	require.Nil(t, b.At(0).Prev())
}

func TestAddEvictsOldestWhenPoolExhausted(t *testing.T) {
	b := New[int](2, Video)
	_, ok := b.Add(testFrame{start: 0, duration: 10 * time.Millisecond, payload: 0}, passthrough)
	require.True(t, ok)
	_, ok = b.Add(testFrame{start: 10 * time.Millisecond, duration: 10 * time.Millisecond, payload: 1}, passthrough)
	require.True(t, ok)
	require.True(t, b.IsFull())

	_, ok = b.Add(testFrame{start: 30 * time.Millisecond, duration: 10 * time.Millisecond, payload: 2}, passthrough)
	require.True(t, ok)

	require.Equal(t, 2, b.Count())
	require.Equal(t, 1, b.At(0).Payload(), "oldest block (start=0) must have been evicted")
	require.Equal(t, 2, b.At(1).Payload())
}

func TestAddEvictsBlockAtIdenticalStartTime(t *testing.T) {
	b := New[int](4, Video)
	_, ok := b.Add(testFrame{start: 10 * time.Millisecond, duration: 10 * time.Millisecond, payload: 1}, passthrough)
	require.True(t, ok)

	_, ok = b.Add(testFrame{start: 10 * time.Millisecond, duration: 5 * time.Millisecond, payload: 99}, passthrough)
	require.True(t, ok)

	require.Equal(t, 1, b.Count(), "same start time must replace, not add")
	require.Equal(t, 99, b.At(0).Payload())
}

func TestAddConverterFailureReturnsBlockToPool(t *testing.T) {
	b := New[int](2, Video)
	blk, ok := b.Add(testFrame{start: 0}, rejectAll)
	require.False(t, ok)
	require.Nil(t, blk)
	require.Equal(t, 0, b.Count())

	// the pool block must still be usable afterwards.
	_, ok = b.Add(testFrame{start: 0, duration: time.Millisecond}, passthrough)
	require.True(t, ok)
	require.Equal(t, 1, b.Count())
}

func TestAddOnDisposedBufferFails(t *testing.T) {
	b := New[int](2, Video)
	b.Dispose()
	blk, ok := b.Add(testFrame{start: 0}, passthrough)
	require.False(t, ok)
	require.Nil(t, blk)
	require.True(t, b.Disposed())
}

func TestIndexOfAndAtTime(t *testing.T) {
	b := New[int](4, Video)
	for i, start := range []time.Duration{0, 10 * time.Millisecond, 20 * time.Millisecond} {
		_, ok := b.Add(testFrame{start: start, duration: 10 * time.Millisecond, payload: i}, passthrough)
		require.True(t, ok)
	}

	require.Equal(t, 0, b.IndexOf(-5*time.Millisecond), "before range clamps to first")
	require.Equal(t, 2, b.IndexOf(100*time.Millisecond), "after range clamps to last")
	require.Equal(t, 1, b.IndexOf(15*time.Millisecond))
	require.Equal(t, 1, b.AtTime(15*time.Millisecond).Payload())
}

func TestContinuousNextRespectsTolerance(t *testing.T) {
	b := New[int](3, Video)
	_, ok := b.Add(testFrame{start: 0, duration: 10 * time.Millisecond, payload: 0}, passthrough)
	require.True(t, ok)
	_, ok = b.Add(testFrame{start: 10 * time.Millisecond, duration: 10 * time.Millisecond, payload: 1}, passthrough)
	require.True(t, ok)
	_, ok = b.Add(testFrame{start: 50 * time.Millisecond, duration: 10 * time.Millisecond, payload: 2}, passthrough)
	require.True(t, ok)

	require.True(t, b.IsMonotonic())
	first := b.At(0)
	second := b.ContinuousNext(first)
	require.NotNil(t, second)
	require.Equal(t, 1, second.Payload())

	third := b.ContinuousNext(second)
	require.Nil(t, third, "30ms gap exceeds the monotonic half-duration tolerance")
}

func TestClearReturnsBlocksToPoolAndResetsDerived(t *testing.T) {
	b := New[int](2, Video)
	_, ok := b.Add(testFrame{start: 0, duration: 10 * time.Millisecond, payload: 0}, passthrough)
	require.True(t, ok)
	require.Equal(t, 1, b.Count())

	b.Clear()
	require.Equal(t, 0, b.Count())
	require.False(t, b.IsFull())
	require.Equal(t, time.Duration(0), b.RangeDuration())

	_, ok = b.Add(testFrame{start: 0, duration: time.Millisecond}, passthrough)
	require.True(t, ok, "pool must be reusable after Clear")
}

func TestDisposeMarksBlocksDisposed(t *testing.T) {
	b := New[int](2, Video)
	blk, ok := b.Add(testFrame{start: 0, duration: time.Millisecond}, passthrough)
	require.True(t, ok)
	require.False(t, blk.Disposed())

	b.Dispose()
	require.True(t, blk.Disposed())
}

func TestDerivedStatsRangeAndBitrate(t *testing.T) {
	b := New[int](3, Video)
	_, ok := b.Add(testFrame{start: 0, duration: 10 * time.Millisecond, size: 100, payload: 0}, passthrough)
	require.True(t, ok)
	_, ok = b.Add(testFrame{start: 10 * time.Millisecond, duration: 10 * time.Millisecond, size: 100, payload: 1}, passthrough)
	require.True(t, ok)

	require.Equal(t, time.Duration(0), b.RangeStart())
	require.Equal(t, 20*time.Millisecond, b.RangeEnd())
	require.Equal(t, 10*time.Millisecond, b.RangeMid())
	require.Equal(t, 20*time.Millisecond, b.RangeDuration())
	require.Equal(t, 10*time.Millisecond, b.AverageBlockDuration())
	require.InDelta(t, 8*200/0.02, b.RangeBitrate(), 1e-6)
}

func TestDerivedStatsEmptyBuffer(t *testing.T) {
	b := New[int](2, Video)
	require.Equal(t, float64(0), b.RangeBitrate())
	require.Equal(t, time.Duration(0), b.AverageBlockDuration())
	require.True(t, b.IsMonotonic())
	require.Equal(t, float64(0), b.CapacityPercent())
}

func TestGetRangePercentAndSnapPosition(t *testing.T) {
	b := New[int](2, Video)
	_, ok := b.Add(testFrame{start: 0, duration: 10 * time.Millisecond}, passthrough)
	require.True(t, ok)
	_, ok = b.Add(testFrame{start: 10 * time.Millisecond, duration: 10 * time.Millisecond}, passthrough)
	require.True(t, ok)

	require.InDelta(t, 0.5, b.GetRangePercent(10*time.Millisecond), 1e-9)
	require.Equal(t, b.RangeStart(), b.GetSnapPosition(-time.Second))
	require.Equal(t, b.RangeEnd(), b.GetSnapPosition(time.Hour))
}
