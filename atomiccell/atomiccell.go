// Package atomiccell provides small typed, lock-free holders used for
// scalar state shared across the worker goroutines: dispose and started
// flags, counters, and enum-backed state. Reads are acquire, writes are release/exchange, matching
// go.uber.org/atomic's semantics directly rather than re-deriving them
// from sync/atomic by hand.
package atomiccell

import (
	"time"

	"go.uber.org/atomic"
)

// Bool is a sequentially-consistent boolean cell. Used for the worker
// state machine's disposed flag and the thread worker's started flag.
type Bool struct{ v atomic.Bool }

func NewBool(initial bool) *Bool { b := &Bool{}; b.v.Store(initial); return b }
func (b *Bool) Load() bool       { return b.v.Load() }
func (b *Bool) Store(val bool)   { b.v.Store(val) }

// CompareAndSwap atomically sets the cell to new if it currently holds
// old, returning whether the swap happened. Used for dispose-once and
// similar single-transition flags.
func (b *Bool) CompareAndSwap(old, new bool) bool { return b.v.CompareAndSwap(old, new) }

// Int64 is a sequentially-consistent 64-bit counter cell.
type Int64 struct{ v atomic.Int64 }

func NewInt64(initial int64) *Int64 { i := &Int64{}; i.v.Store(initial); return i }
func (i *Int64) Load() int64        { return i.v.Load() }
func (i *Int64) Store(val int64)    { i.v.Store(val) }
func (i *Int64) Inc() int64         { return i.v.Inc() }
func (i *Int64) Dec() int64         { return i.v.Dec() }
func (i *Int64) Add(delta int64) int64 { return i.v.Add(delta) }

// Duration is a sequentially-consistent time.Duration cell. The block
// buffer does not use it: its derived timing values (range duration,
// average block duration) are read under the buffer's own lock.
type Duration struct{ v atomic.Int64 }

func NewDuration(initial time.Duration) *Duration {
	d := &Duration{}
	d.v.Store(int64(initial))
	return d
}
func (d *Duration) Load() time.Duration     { return time.Duration(d.v.Load()) }
func (d *Duration) Store(val time.Duration) { d.v.Store(int64(val)) }

// Enum is a generic atomic cell for small enum-backed types (worker
// State, ...) whose underlying representation is an
// integer. Compare (==, <, >) on the backing word gives a fast path for
// "did the state change" checks without allocating.
type Enum[T ~int32] struct{ v atomic.Int32 }

func NewEnum[T ~int32](initial T) *Enum[T] {
	e := &Enum[T]{}
	e.v.Store(int32(initial))
	return e
}
func (e *Enum[T]) Load() T     { return T(e.v.Load()) }
func (e *Enum[T]) Store(val T) { e.v.Store(int32(val)) }
func (e *Enum[T]) Swap(val T) T { return T(e.v.Swap(int32(val))) }
func (e *Enum[T]) CompareAndSwap(old, new T) bool {
	return e.v.CompareAndSwap(int32(old), int32(new))
}
