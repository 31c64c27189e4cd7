// Package block implements the pooled, sorted, time-indexed media
// block buffer from spec.md §4.5, grounded on the pool/reuse and
// ownership-transfer idiom in the pack's gcsfuse block.Block (Reuse(),
// pool<->in-use handoff), generalized into a playback-ordered sequence
// with cached derived statistics.
package block

import (
	"sort"
	"time"

	"playsync/rwlock"
)

// Frame is the minimal surface Buffer.Add needs from whatever a
// decoder produced: its presentation start time, used to decide where
// (and whether) it lands in the playback sequence.
type Frame interface {
	StartTime() time.Duration
}

// Converter fills a pool block from frame using the Writer handle,
// optionally consulting the current playback sequence (e.g. to decide
// relinking), and reports whether the fill succeeded. apply mirrors the
// collaborator contract in spec.md §6 (Converter.convert(frame, &block,
// playback_blocks, apply)); apply is always true for the path Buffer.Add
// drives, but is threaded through so callers doing a dry-run probe
// elsewhere can reuse the same function type.
type Converter[T any] func(frame Frame, w Writer[T], playback []*Block[T], apply bool) bool

// Buffer is a per-kind pool + sorted playback sequence of blocks, with
// capacity capped at rest (pool+playback == capacity, except transiently
// while a block is mid-fill).
type Buffer[T any] struct {
	kind     Kind
	capacity int

	lock     rwlock.RWLock
	pool     []*Block[T]
	playback []*Block[T]
	disposed bool
	nextSeq  int64

	// cached derived values, recomputed by updateDerived under the
	// writer lock after every mutation.
	rangeStart        time.Duration
	rangeEnd          time.Duration
	rangeMid          time.Duration
	rangeDuration     time.Duration
	rangeBitrate      float64
	averageBlockDur   time.Duration
	monotonic         bool
	monotonicDuration time.Duration
	capacityPercent   float64
	isFull            bool
}

// New pre-allocates capacity empty blocks into the pool, per spec.md
// §4.5 ("new(capacity, kind) pre-allocates capacity empty blocks in the
// pool").
func New[T any](capacity int, kind Kind) *Buffer[T] {
	if capacity <= 0 {
		panic("block: capacity must be positive")
	}
	b := &Buffer[T]{kind: kind, capacity: capacity}
	b.pool = make([]*Block[T], 0, capacity)
	for i := 0; i < capacity; i++ {
		b.pool = append(b.pool, &Block[T]{kind: kind})
	}
	b.playback = make([]*Block[T], 0, capacity)
	return b
}

// Kind returns the media kind this buffer holds blocks for.
func (b *Buffer[T]) Kind() Kind { return b.kind }

// Capacity returns the fixed pool+playback ceiling.
func (b *Buffer[T]) Capacity() int { return b.capacity }

// Count returns the number of filled (playback) blocks.
func (b *Buffer[T]) Count() int {
	g := b.lock.AcquireReader()
	defer g.Release()
	return len(b.playback)
}

// RangeStart returns the first playback block's start time.
func (b *Buffer[T]) RangeStart() time.Duration {
	g := b.lock.AcquireReader()
	defer g.Release()
	return b.rangeStart
}

// RangeEnd returns the last playback block's end time.
func (b *Buffer[T]) RangeEnd() time.Duration {
	g := b.lock.AcquireReader()
	defer g.Release()
	return b.rangeEnd
}

// RangeMid returns the midpoint of [RangeStart, RangeEnd].
func (b *Buffer[T]) RangeMid() time.Duration {
	g := b.lock.AcquireReader()
	defer g.Release()
	return b.rangeMid
}

// RangeDuration returns RangeEnd-RangeStart.
func (b *Buffer[T]) RangeDuration() time.Duration {
	g := b.lock.AcquireReader()
	defer g.Release()
	return b.rangeDuration
}

// RangeBitrate returns 8*sum(compressed sizes)/range duration in
// seconds, or 0 if the range duration is non-positive or fewer than two
// blocks are buffered.
func (b *Buffer[T]) RangeBitrate() float64 {
	g := b.lock.AcquireReader()
	defer g.Release()
	return b.rangeBitrate
}

// AverageBlockDuration returns the mean duration across playback
// blocks.
func (b *Buffer[T]) AverageBlockDuration() time.Duration {
	g := b.lock.AcquireReader()
	defer g.Release()
	return b.averageBlockDur
}

// IsMonotonic reports whether every playback block has the same
// duration.
func (b *Buffer[T]) IsMonotonic() bool {
	g := b.lock.AcquireReader()
	defer g.Release()
	return b.monotonic
}

// MonotonicDuration returns the shared duration when IsMonotonic is
// true (undefined otherwise).
func (b *Buffer[T]) MonotonicDuration() time.Duration {
	g := b.lock.AcquireReader()
	defer g.Release()
	return b.monotonicDuration
}

// CapacityPercent returns Count()/Capacity() as a fraction in [0,1].
func (b *Buffer[T]) CapacityPercent() float64 {
	g := b.lock.AcquireReader()
	defer g.Release()
	return b.capacityPercent
}

// IsFull reports whether pool is empty (Count() == Capacity()).
func (b *Buffer[T]) IsFull() bool {
	g := b.lock.AcquireReader()
	defer g.Release()
	return b.isFull
}

// Disposed reports whether Dispose has been called.
func (b *Buffer[T]) Disposed() bool {
	g := b.lock.AcquireReader()
	defer g.Release()
	return b.disposed
}

// At returns the playback block at index, or nil if out of range.
func (b *Buffer[T]) At(index int) *Block[T] {
	g := b.lock.AcquireReader()
	defer g.Release()
	if index < 0 || index >= len(b.playback) {
		return nil
	}
	return b.playback[index]
}

// AtTime returns the block covering (or nearest to) t, equivalent to
// At(IndexOf(t)).
func (b *Buffer[T]) AtTime(t time.Duration) *Block[T] {
	g := b.lock.AcquireReader()
	defer g.Release()
	idx := b.noLockIndexOf(t)
	if idx < 0 {
		return nil
	}
	return b.playback[idx]
}

// IndexOf returns the index of the playback block at or nearest to t:
// the first block if t <= RangeStart, the last if t >= RangeEnd, -1 if
// the buffer is empty, otherwise the result of a binary search by
// start time.
func (b *Buffer[T]) IndexOf(t time.Duration) int {
	g := b.lock.AcquireReader()
	defer g.Release()
	return b.noLockIndexOf(t)
}

func (b *Buffer[T]) noLockIndexOf(t time.Duration) int {
	n := len(b.playback)
	if n == 0 {
		return -1
	}
	if t <= b.rangeStart {
		return 0
	}
	if t >= b.rangeEnd {
		return n - 1
	}
	// last block whose start is <= t
	i := sort.Search(n, func(i int) bool { return b.playback[i].start > t })
	if i == 0 {
		return 0
	}
	return i - 1
}

// Next returns the playback block immediately after blk, or nil if blk
// is the last one (or not found).
func (b *Buffer[T]) Next(blk *Block[T]) *Block[T] {
	g := b.lock.AcquireReader()
	defer g.Release()
	if blk == nil {
		return nil
	}
	return blk.next
}

// Previous returns the playback block immediately before blk, or nil if
// blk is the first one (or not found).
func (b *Buffer[T]) Previous(blk *Block[T]) *Block[T] {
	g := b.lock.AcquireReader()
	defer g.Release()
	if blk == nil {
		return nil
	}
	return blk.prev
}

// ContinuousNext returns Next(blk) only if the gap between blk's end
// and the next block's start is within tolerance: duration/2 when the
// buffer is monotonic, 1ms otherwise (spec.md §4.5).
func (b *Buffer[T]) ContinuousNext(blk *Block[T]) *Block[T] {
	g := b.lock.AcquireReader()
	defer g.Release()
	if blk == nil || blk.next == nil {
		return nil
	}
	tolerance := time.Millisecond
	if b.monotonic {
		tolerance = b.monotonicDuration / 2
	}
	gap := blk.next.start - blk.End()
	if gap <= tolerance {
		return blk.next
	}
	return nil
}

// Neighbors returns (Previous(blk), Next(blk)).
func (b *Buffer[T]) Neighbors(blk *Block[T]) (*Block[T], *Block[T]) {
	g := b.lock.AcquireReader()
	defer g.Release()
	if blk == nil {
		return nil, nil
	}
	return blk.prev, blk.next
}

// IsInRange reports whether t falls within [RangeStart, RangeEnd].
func (b *Buffer[T]) IsInRange(t time.Duration) bool {
	g := b.lock.AcquireReader()
	defer g.Release()
	if len(b.playback) == 0 {
		return false
	}
	return t >= b.rangeStart && t <= b.rangeEnd
}

// GetRangePercent returns (t-RangeStart)/RangeDuration. Values outside
// [0,1] indicate t has drifted outside the buffered window.
func (b *Buffer[T]) GetRangePercent(t time.Duration) float64 {
	g := b.lock.AcquireReader()
	defer g.Release()
	if b.rangeDuration <= 0 {
		return 0
	}
	return float64(t-b.rangeStart) / float64(b.rangeDuration)
}

// GetSnapPosition clamps t into [RangeStart, RangeEnd].
func (b *Buffer[T]) GetSnapPosition(t time.Duration) time.Duration {
	g := b.lock.AcquireReader()
	defer g.Release()
	if len(b.playback) == 0 {
		return t
	}
	if t < b.rangeStart {
		return b.rangeStart
	}
	if t > b.rangeEnd {
		return b.rangeEnd
	}
	return t
}

// Add converts frame into a block and inserts it into the playback
// sequence, following spec.md §4.5 step by step:
//  1. evict a same-start-time block back to the pool, if one exists
//     within the current range;
//  2. if the pool is empty, evict the oldest playback block (index 0);
//  3. take a pool block and hand it to converter; on failure, return
//     the block to the pool and report ok=false;
//  4. insert into the sorted playback sequence, reindexing and
//     relinking prev/next;
//  5. recompute derived values.
func (b *Buffer[T]) Add(frame Frame, converter Converter[T]) (*Block[T], bool) {
	guard := b.lock.AcquireWriter()
	defer guard.Release()

	if b.disposed {
		return nil, false
	}

	start := frame.StartTime()

	// step 1: evict an existing block at the identical start time.
	if len(b.playback) > 0 && start >= b.rangeStart && start <= b.rangeEnd {
		if idx := b.noLockIndexOf(start); idx >= 0 && b.playback[idx].start == start {
			b.noLockEvictPlaybackAt(idx)
		}
	}

	// step 2: evict the oldest block if the pool ran dry.
	if len(b.pool) == 0 {
		if len(b.playback) == 0 {
			return nil, false
		}
		b.noLockEvictPlaybackAt(0)
	}

	// step 3: take a pool block and fill it.
	blk := b.pool[len(b.pool)-1]
	b.pool = b.pool[:len(b.pool)-1]
	blk.reuse(b.kind)

	ok := converter(frame, Writer[T]{block: blk}, b.playback, true)
	if !ok {
		b.pool = append(b.pool, blk)
		return nil, false
	}
	blk.index = int(b.nextSeq)
	b.nextSeq++

	// step 4: insert in sorted order, relink, reindex.
	pos := sort.Search(len(b.playback), func(i int) bool { return b.playback[i].start > blk.start })
	b.playback = append(b.playback, nil)
	copy(b.playback[pos+1:], b.playback[pos:])
	b.playback[pos] = blk
	b.noLockRelink()

	// step 5.
	b.noLockUpdateDerived()
	return blk, true
}

// noLockEvictPlaybackAt removes the playback block at idx and returns
// it to the pool. Must be called with the writer lock held.
func (b *Buffer[T]) noLockEvictPlaybackAt(idx int) {
	blk := b.playback[idx]
	b.playback = append(b.playback[:idx], b.playback[idx+1:]...)
	blk.reuse(b.kind)
	b.pool = append(b.pool, blk)
	b.noLockRelink()
}

// noLockRelink reassigns indices 0..n-1 and prev/next references across
// the full playback slice. Must be called with the writer lock held.
func (b *Buffer[T]) noLockRelink() {
	var prev *Block[T]
	for i, blk := range b.playback {
		blk.index = i
		blk.prev = prev
		if prev != nil {
			prev.next = blk
		}
		prev = blk
	}
	if prev != nil {
		prev.next = nil
	}
}

// Clear moves every playback block back to the pool and recomputes
// derived values.
func (b *Buffer[T]) Clear() {
	guard := b.lock.AcquireWriter()
	defer guard.Release()
	b.noLockClear()
}

func (b *Buffer[T]) noLockClear() {
	for _, blk := range b.playback {
		blk.reuse(b.kind)
		b.pool = append(b.pool, blk)
	}
	b.playback = b.playback[:0]
	b.noLockUpdateDerived()
}

// Dispose disposes every block in both pool and playback, and marks the
// buffer disposed. Further Add calls return (nil, false).
func (b *Buffer[T]) Dispose() {
	guard := b.lock.AcquireWriter()
	defer guard.Release()
	for _, blk := range b.pool {
		blk.dispose()
	}
	for _, blk := range b.playback {
		blk.dispose()
	}
	b.disposed = true
}

// noLockUpdateDerived recomputes every cached derived field from the
// current playback sequence. Must be called with the writer lock held.
func (b *Buffer[T]) noLockUpdateDerived() {
	n := len(b.playback)
	if n == 0 {
		b.rangeStart, b.rangeEnd, b.rangeMid, b.rangeDuration = 0, 0, 0, 0
		b.rangeBitrate = 0
		b.averageBlockDur = 0
		b.monotonic = true
		b.monotonicDuration = 0
		b.capacityPercent = 0
		b.isFull = len(b.pool) == 0
		return
	}

	b.rangeStart = b.playback[0].start
	b.rangeEnd = b.playback[n-1].End()
	b.rangeDuration = b.rangeEnd - b.rangeStart
	b.rangeMid = b.rangeStart + b.rangeDuration/2

	var totalDuration time.Duration
	var totalCompressed int64
	monotonic := true
	for i, blk := range b.playback {
		totalDuration += blk.duration
		totalCompressed += blk.compressedSize
		if i > 0 && blk.duration != b.playback[0].duration {
			monotonic = false
		}
	}
	b.averageBlockDur = totalDuration / time.Duration(n)
	b.monotonic = monotonic
	if monotonic {
		b.monotonicDuration = b.playback[0].duration
	} else {
		b.monotonicDuration = 0
	}

	if b.rangeDuration <= 0 || n <= 1 {
		b.rangeBitrate = 0
	} else {
		b.rangeBitrate = 8 * float64(totalCompressed) / b.rangeDuration.Seconds()
	}

	b.capacityPercent = float64(n) / float64(b.capacity)
	b.isFull = len(b.pool) == 0
}
