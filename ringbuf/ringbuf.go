// Package ringbuf implements the fixed-capacity circular byte buffer
// from spec.md §4.4, adapted from the wrap-safe write/read loop in the
// pack's audiocore CircularBuffer (birdnet-go), generalized from a
// time-range buffer into the generic read/write/skip/rewind contract
// the spec requires.
package ringbuf

import (
	"sync"
	"time"

	"playsync/errs"
)

// Buffer is a fixed-capacity circular buffer of raw bytes. All
// operations are serialized by an internal mutex (spec.md §4.4: "All
// operations are serialized with an exclusive lock" — there is no
// meaningful reader/writer split here since every op touches the shared
// indices, so a plain sync.Mutex is used instead of rwlock.RWLock).
type Buffer struct {
	mu sync.Mutex

	data      []byte
	readIdx   int
	writeIdx  int
	readable  int
	writeTag  time.Time
}

// MinTag is the write-tag value Clear() resets WriteTag() to.
var MinTag = time.Time{}

// New allocates a buffer with the given capacity in bytes.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		panic("ringbuf: capacity must be positive")
	}
	return &Buffer{data: make([]byte, capacity), writeTag: MinTag}
}

// Length returns the total capacity in bytes.
func (b *Buffer) Length() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}

// ReadIndex returns the current read index.
func (b *Buffer) ReadIndex() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.readIdx
}

// WriteIndex returns the current write index.
func (b *Buffer) WriteIndex() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writeIdx
}

// ReadableCount returns how many bytes are currently available to Read.
func (b *Buffer) ReadableCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.readable
}

// WritableCount returns how many bytes can be Written before running out
// of room (capacity - readable).
func (b *Buffer) WritableCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.noLockWritable()
}

func (b *Buffer) noLockWritable() int { return len(b.data) - b.readable }

// RewindableCount returns how many bytes Rewind can currently reverse:
// (writeIdx < readIdx) ? readIdx-writeIdx : readIdx, per spec.md §4.4.
func (b *Buffer) RewindableCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.noLockRewindable()
}

func (b *Buffer) noLockRewindable() int {
	if b.writeIdx < b.readIdx {
		return b.readIdx - b.writeIdx
	}
	return b.readIdx
}

// WriteTag returns the tag attached to the most recent successful Write.
func (b *Buffer) WriteTag() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writeTag
}

// CapacityPercent returns ReadableCount/Length as a fraction in [0,1].
func (b *Buffer) CapacityPercent() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.data) == 0 {
		return 0
	}
	return float64(b.readable) / float64(len(b.data))
}

// Write copies n bytes from src into the buffer in wrap-safe chunks,
// tagging the write with tag. If overwrite is false and n exceeds the
// writable region, it fails with errs.NoRoomError and writes nothing.
// If overwrite is true and n exceeds capacity, only the last
// len(b.data) bytes of src are retained.
func (b *Buffer) Write(src []byte, n int, tag time.Time, overwrite bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if n > len(src) {
		n = len(src)
	}
	if n <= 0 {
		return nil
	}

	if !overwrite && n > b.noLockWritable() {
		return &errs.NoRoomError{
			Op:        "ringbuf.Write",
			Capacity:  len(b.data),
			Writable:  b.noLockWritable(),
			Requested: n,
		}
	}

	if overwrite && n > len(b.data) {
		// only the tail fits; advance the logical read position past
		// what's being discarded.
		src = src[n-len(b.data):]
		n = len(b.data)
	}

	written := 0
	for written < n {
		chunk := min(n-written, len(b.data)-b.writeIdx)
		copy(b.data[b.writeIdx:b.writeIdx+chunk], src[written:written+chunk])
		b.writeIdx = (b.writeIdx + chunk) % len(b.data)
		written += chunk
	}

	b.readable += n
	if b.readable > len(b.data) {
		// overwrote unread data: drop the oldest bytes by advancing
		// readIdx and clamping readable to capacity.
		overflow := b.readable - len(b.data)
		b.readIdx = (b.readIdx + overflow) % len(b.data)
		b.readable = len(b.data)
	}

	b.writeTag = tag
	return nil
}

// Read copies n bytes into dst starting at offset, advancing the read
// index. Fails with errs.NotEnoughDataError if n exceeds ReadableCount.
func (b *Buffer) Read(n int, dst []byte, offset int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if n > b.readable {
		return &errs.NotEnoughDataError{Op: "ringbuf.Read", Available: b.readable, Requested: n}
	}
	if offset+n > len(dst) {
		return &errs.NotEnoughDataError{Op: "ringbuf.Read", Available: len(dst) - offset, Requested: n}
	}

	read := 0
	idx := b.readIdx
	for read < n {
		chunk := min(n-read, len(b.data)-idx)
		copy(dst[offset+read:offset+read+chunk], b.data[idx:idx+chunk])
		idx = (idx + chunk) % len(b.data)
		read += chunk
	}

	b.readIdx = idx
	b.readable -= n
	return nil
}

// Skip advances the read index by n bytes without copying them out.
// Fails with errs.NotEnoughDataError if n exceeds ReadableCount.
func (b *Buffer) Skip(n int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n > b.readable {
		return &errs.NotEnoughDataError{Op: "ringbuf.Skip", Available: b.readable, Requested: n}
	}
	b.readIdx = (b.readIdx + n) % len(b.data)
	b.readable -= n
	return nil
}

// Rewind reverses the read index by n bytes, making previously-read
// bytes readable again. Fails with errs.NotEnoughDataError if n exceeds
// RewindableCount.
func (b *Buffer) Rewind(n int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n > b.noLockRewindable() {
		return &errs.NotEnoughDataError{Op: "ringbuf.Rewind", Available: b.noLockRewindable(), Requested: n}
	}
	b.readIdx = (b.readIdx - n + len(b.data)) % len(b.data)
	b.readable += n
	return nil
}

// Clear resets both indices to 0, drops all readable data, and resets
// WriteTag to MinTag.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.readIdx = 0
	b.writeIdx = 0
	b.readable = 0
	b.writeTag = MinTag
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
