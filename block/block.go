package block

import "time"

// Block is an immutable-after-fill unit of decoded media: one video
// frame, one audio frame, or one subtitle cue, with timing, ordering,
// and a kind-specific payload. Prev/Next are views into the owning
// Buffer's playback sequence (array indices, not owned references), so
// the chain never creates a reference cycle a garbage collector would
// need to untangle — adapted from the pool/ownership-transfer idiom in
// the pack's gcsfuse block.Block, generalized to carry ordering state.
type Block[T any] struct {
	kind Kind

	start    time.Duration
	duration time.Duration

	index int // position within the owning Buffer's playback sequence, 0..n-1
	prev  *Block[T]
	next  *Block[T]

	compressedSize int64
	payload        T

	disposed bool
}

// Kind returns the media kind this block belongs to.
func (b *Block[T]) Kind() Kind { return b.kind }

// Start returns the block's presentation start time.
func (b *Block[T]) Start() time.Duration { return b.start }

// Duration returns the block's duration.
func (b *Block[T]) Duration() time.Duration { return b.duration }

// End returns Start()+Duration().
func (b *Block[T]) End() time.Duration { return b.start + b.duration }

// Index returns the block's position within the owning buffer's
// playback sequence (0..count-1).
func (b *Block[T]) Index() int { return b.index }

// Prev returns the preceding block in the playback sequence, or nil if
// this is the first one.
func (b *Block[T]) Prev() *Block[T] { return b.prev }

// Next returns the following block in the playback sequence, or nil if
// this is the last one.
func (b *Block[T]) Next() *Block[T] { return b.next }

// CompressedSize returns the compressed (encoded) byte size of the
// source packet(s) this block was decoded from, used for bitrate
// estimation.
func (b *Block[T]) CompressedSize() int64 { return b.compressedSize }

// Payload returns the kind-specific decoded payload (pixel buffer, PCM
// samples, or text).
func (b *Block[T]) Payload() T { return b.payload }

// Disposed reports whether Dispose has been called on this block.
func (b *Block[T]) Disposed() bool { return b.disposed }

// reuse resets a block to its zero-filled state so it can be handed out
// from the pool again. Only called while the owning buffer's writer
// lock is held.
func (b *Block[T]) reuse(kind Kind) {
	var zero T
	b.kind = kind
	b.start = 0
	b.duration = 0
	b.index = 0
	b.prev = nil
	b.next = nil
	b.compressedSize = 0
	b.payload = zero
	b.disposed = false
}

// dispose marks the block as released. The owning buffer's Dispose calls
// it under the writer lock.
func (b *Block[T]) dispose() { b.disposed = true }

// Writer is the handle a Converter uses to populate a pool block taken
// from the buffer. It exists so callers can't mutate a block's ordering
// fields (index/prev/next), which are exclusively owned by the Buffer.
type Writer[T any] struct{ block *Block[T] }

// SetStart sets the block's presentation start time.
func (w Writer[T]) SetStart(start time.Duration) { w.block.start = start }

// SetDuration sets the block's duration.
func (w Writer[T]) SetDuration(d time.Duration) { w.block.duration = d }

// SetCompressedSize sets the compressed source byte size, used for
// bitrate estimation.
func (w Writer[T]) SetCompressedSize(n int64) { w.block.compressedSize = n }

// SetPayload sets the kind-specific decoded payload.
func (w Writer[T]) SetPayload(payload T) { w.block.payload = payload }

// Block returns the underlying block being populated, useful for
// converters that need to read back fields they've already set.
func (w Writer[T]) Block() *Block[T] { return w.block }
