// Package ringbuf implements a bounded lock-free FIFO queue for one reader
// and any number of writers, including writers that re-enter each other on
// the same goroutine.
//
// All coordination goes through a single 32-bit status word holding both
// positions and a full flag, advanced with compare-and-swap. Writers never
// block and never spin on each other beyond CAS retries; a failed write on a
// full buffer leaves the buffer untouched. Write also reports whether the
// buffer was empty immediately before the element went in; exactly one
// writer observes each empty-to-nonempty edge, however many race.
//
// Read is single-consumer: at most one goroutine may read, and that
// goroutine must not re-enter Read from itself. Reentering panics.
package ringbuf

import (
	"runtime"
	"sync/atomic"
)

const (
	posBits = 15
	posMask = 1<<posBits - 1
	fullBit = 1 << (2 * posBits)

	// MaxCapacity is the largest element count for which two positions
	// and the full flag still pack into one 32-bit status word.
	MaxCapacity = 1 << posBits
)

// status packs {readPos, writePos, full} into the value CAS operates on.
// The full flag disambiguates readPos == writePos, which otherwise means
// both a full and an empty buffer.
type status uint32

func makeStatus(readPos, writePos uint32, full bool) status {
	s := status(readPos&posMask) | status(writePos&posMask)<<posBits
	if full {
		s |= fullBit
	}
	return s
}

func (s status) readPos() uint32  { return uint32(s) & posMask }
func (s status) writePos() uint32 { return uint32(s>>posBits) & posMask }
func (s status) full() bool       { return s&fullBit != 0 }
func (s status) empty() bool      { return !s.full() && s.readPos() == s.writePos() }

func (s status) count(capacity uint32) int {
	if s.full() {
		return int(capacity)
	}
	return int((capacity + s.writePos() - s.readPos()) % capacity)
}

// RingBuf is a fixed-capacity FIFO of T values, copied in and out.
// The zero value is not usable; construct with New.
type RingBuf[T any] struct {
	stat    atomic.Uint32
	writers atomic.Int32
	readers atomic.Int32
	elems   []T
}

// New returns a buffer holding up to capacity elements.
func New[T any](capacity int) (*RingBuf[T], error) {
	if capacity < 1 || capacity > MaxCapacity {
		return nil, ErrInvalidCapacity
	}
	return &RingBuf[T]{elems: make([]T, capacity)}, nil
}

// Cap returns the buffer capacity.
func (r *RingBuf[T]) Cap() int { return len(r.elems) }

// Len returns the number of buffered elements at the moment of the call.
func (r *RingBuf[T]) Len() int {
	return status(r.stat.Load()).count(uint32(len(r.elems)))
}

// Empty reports whether the buffer held no elements at the moment of the call.
func (r *RingBuf[T]) Empty() bool { return status(r.stat.Load()).empty() }

// Full reports whether the buffer was full at the moment of the call.
func (r *RingBuf[T]) Full() bool { return status(r.stat.Load()).full() }

// Write appends elem to the buffer. It returns ok=false, with the buffer
// unchanged, if the buffer is full. wasEmpty reports whether the buffer was
// empty immediately before this write: exactly one writer observes the
// empty-to-nonempty edge, no matter how many race.
//
// Write may be called from any goroutine and may be re-entered on the same
// goroutine while an outer Write is between its reservation and its element
// copy.
func (r *RingBuf[T]) Write(elem T) (ok, wasEmpty bool) {
	capacity := uint32(len(r.elems))

	r.writers.Add(1)
	defer r.writers.Add(-1)

	var cur status
	for {
		cur = status(r.stat.Load())
		if cur.full() {
			return false, false
		}
		writePos := (cur.writePos() + 1) % capacity
		next := makeStatus(cur.readPos(), writePos, writePos == cur.readPos())
		if r.stat.CompareAndSwap(uint32(cur), uint32(next)) {
			break
		}
	}

	// The slot became visible to the reader at the CAS above; the reader
	// holds off on it until the writer count drains.
	r.elems[cur.writePos()] = elem
	return true, cur.empty()
}

// Read removes and returns the oldest element. It returns ok=false on an
// empty buffer. Only one goroutine may read, and it must not re-enter Read
// from a nested call; doing so panics.
func (r *RingBuf[T]) Read() (elem T, ok bool) {
	capacity := uint32(len(r.elems))

	if r.readers.Add(1) != 1 {
		panic("ringbuf: Read re-entered while a read is in progress")
	}
	defer r.readers.Add(-1)

	for {
		cur := status(r.stat.Load())
		if cur.empty() {
			var zero T
			return zero, false
		}
		r.settleWriters()
		elem = r.elems[cur.readPos()]
		next := makeStatus((cur.readPos()+1)%capacity, cur.writePos(), false)
		if r.stat.CompareAndSwap(uint32(cur), uint32(next)) {
			return elem, true
		}
	}
}

// settleWriters waits until every writer that reserved a slot before the
// caller's status load has finished its element copy. Reservation publishes
// the slot before the element lands in it; reading sooner could observe a
// stale value.
func (r *RingBuf[T]) settleWriters() {
	for spins := 0; r.writers.Load() != 0; spins++ {
		if spins%64 == 63 {
			runtime.Gosched()
		}
	}
}

// Reset empties the buffer and zeroes the stored elements so references in
// dead slots are released. Not safe to call concurrently with Write or Read;
// quiesce producers first.
func (r *RingBuf[T]) Reset() {
	r.stat.Store(0)
	clear(r.elems)
}
