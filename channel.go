package spsc

import (
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// ring is the storage shared by a Sender and a Receiver.
//
// It holds size = capacity+1 slots so that "full" and "empty" can be told
// apart from the two cursors alone: write == read means empty, and the
// producer never advances write onto read.
type ring[T any] struct {
	_       cpu.CacheLinePad
	slots   []T
	size    uint64
	dispose func(T)
	refs    refcount
	_       cpu.CacheLinePad
	write   atomic.Uint64 // next slot to fill, advanced by the producer only
	_       cpu.CacheLinePad
	read    atomic.Uint64 // next slot to drain, advanced by the consumer only
	_       cpu.CacheLinePad
}

func occupied(write, read, size uint64) uint64 {
	if write >= read {
		return write - read
	}
	return write + size - read
}

func vacant(write, read, size uint64) uint64 {
	return size - 1 - occupied(write, read, size)
}

func (r *ring[T]) discard(v T) {
	if r.dispose != nil {
		r.dispose(v)
	}
}

// push stores v at the write cursor and publishes it. The cursor store is
// what makes the slot visible to the consumer.
func (r *ring[T]) push(v T) bool {
	w := r.write.Load()
	if vacant(w, r.read.Load(), r.size) == 0 {
		return false
	}

	r.slots[w] = v

	if w++; w == r.size {
		w = 0
	}
	r.write.Store(w)

	return true
}

func (r *ring[T]) pop() (T, bool) {
	var zero T

	rd := r.read.Load()
	if occupied(r.write.Load(), rd, r.size) == 0 {
		return zero, false
	}

	v := r.slots[rd]
	// the slot no longer owns the value
	r.slots[rd] = zero

	if rd++; rd == r.size {
		rd = 0
	}
	r.read.Store(rd)

	return v, true
}

// releaseRef drops one handle's reference. The last one out disposes every
// element that was sent but never received.
func (r *ring[T]) releaseRef() {
	if !r.refs.release() {
		return
	}
	for {
		v, ok := r.pop()
		if !ok {
			break
		}
		r.discard(v)
	}
	r.slots = nil
}

// Sender is the producer end of a bounded SPSC channel.
// Its methods must be called from a single goroutine at a time.
type Sender[T any] struct {
	ring *ring[T]
	h    handle
	role roleGuard

	sent     counter
	rejected counter
}

// Receiver is the consumer end of a bounded SPSC channel.
// Its methods must be called from a single goroutine at a time.
type Receiver[T any] struct {
	ring *ring[T]
	h    handle
	role roleGuard

	received counter
	empty    counter
}

// SenderStats is a snapshot of a Sender's counters.
type SenderStats struct {
	Sent     uint64
	Rejected uint64
}

// ReceiverStats is a snapshot of a Receiver's counters.
type ReceiverStats struct {
	Received uint64
	Empty    uint64
}

// NewChannel creates a bounded SPSC channel holding at most capacity values.
// It panics if capacity is zero.
func NewChannel[T any](capacity uint64, opts ...Option[T]) (*Sender[T], *Receiver[T]) {
	if capacity == 0 {
		panic("spsc: channel capacity must be > 0")
	}

	o := buildOptions(opts)
	r := &ring[T]{
		slots:   make([]T, capacity+1),
		size:    capacity + 1,
		dispose: o.dispose,
	}
	r.refs.init()

	s := &Sender[T]{ring: r}
	track(&s.h, s, r)
	rx := &Receiver[T]{ring: r}
	track(&rx.h, rx, r)

	return s, rx
}

func (s *Sender[T]) mustRing() *ring[T] {
	if s.h.closed.Load() {
		panic("spsc: use of closed Sender")
	}
	return s.ring
}

// TrySend appends v to the channel.
// If the channel is full it returns false and v is handed to the disposer:
// the caller cannot get it back.
func (s *Sender[T]) TrySend(v T) bool {
	r := s.mustRing()
	s.role.enter("Sender")
	defer s.role.exit()

	if !r.push(v) {
		s.rejected.inc()
		r.discard(v)
		return false
	}
	s.sent.inc()
	return true
}

// Size returns the number of values that can currently be sent, or zero
// once the sender is closed.
func (s *Sender[T]) Size() uint64 {
	if s.h.closed.Load() {
		return 0
	}
	r := s.ring
	return vacant(r.write.Load(), r.read.Load(), r.size)
}

// Capacity returns the fixed channel capacity.
func (s *Sender[T]) Capacity() uint64 {
	return s.ring.size - 1
}

// Clear resets both cursors to zero, logically emptying the channel.
//
// Values still in the channel are not passed to the disposer. They are
// forgotten and their slots get overwritten by later sends. Clear is only
// meaningful while the receiver is not in the middle of TryRecv.
func (s *Sender[T]) Clear() {
	r := s.mustRing()
	r.write.Store(0)
	r.read.Store(0)
}

// IsReceiverActive reports whether the Receiver has not been closed yet.
// The answer is a snapshot and is not ordered with TrySend.
func (s *Sender[T]) IsReceiverActive() bool {
	return s.ring.refs.paired()
}

// Stats returns the sender counters. It may be called from any goroutine.
func (s *Sender[T]) Stats() SenderStats {
	return SenderStats{
		Sent:     s.sent.load(),
		Rejected: s.rejected.load(),
	}
}

// Closed reports whether Close has been called.
func (s *Sender[T]) Closed() bool {
	return s.h.closed.Load()
}

// Close releases the sender's reference to the channel. When both ends are
// closed, values that were never received are disposed. Closing twice is a
// no-op. TrySend and Clear panic after Close.
func (s *Sender[T]) Close() {
	s.h.close(s.ring)
}

func (rx *Receiver[T]) mustRing() *ring[T] {
	if rx.h.closed.Load() {
		panic("spsc: use of closed Receiver")
	}
	return rx.ring
}

// TryRecv removes the oldest value from the channel.
// It returns false if the channel is empty.
func (rx *Receiver[T]) TryRecv() (T, bool) {
	r := rx.mustRing()
	rx.role.enter("Receiver")
	defer rx.role.exit()

	v, ok := r.pop()
	if !ok {
		rx.empty.inc()
		return v, false
	}
	rx.received.inc()
	return v, true
}

// Size returns the number of values waiting to be received, or zero once
// the receiver is closed.
func (rx *Receiver[T]) Size() uint64 {
	if rx.h.closed.Load() {
		return 0
	}
	r := rx.ring
	return occupied(r.write.Load(), r.read.Load(), r.size)
}

// Capacity returns the fixed channel capacity.
func (rx *Receiver[T]) Capacity() uint64 {
	return rx.ring.size - 1
}

// IsSenderActive reports whether the Sender has not been closed yet.
// The answer is a snapshot and is not ordered with TryRecv.
func (rx *Receiver[T]) IsSenderActive() bool {
	return rx.ring.refs.paired()
}

// Stats returns the receiver counters. It may be called from any goroutine.
func (rx *Receiver[T]) Stats() ReceiverStats {
	return ReceiverStats{
		Received: rx.received.load(),
		Empty:    rx.empty.load(),
	}
}

// Closed reports whether Close has been called.
func (rx *Receiver[T]) Closed() bool {
	return rx.h.closed.Load()
}

// Close releases the receiver's reference to the channel. When both ends
// are closed, values that were never received are disposed. Closing twice is
// a no-op. TryRecv panics after Close.
func (rx *Receiver[T]) Close() {
	rx.h.close(rx.ring)
}
