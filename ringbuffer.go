package spsc

import (
	"runtime"
	"sync/atomic"
)

// Option configures a channel or a triple buffer at construction.
type Option[T any] func(*options[T])

type options[T any] struct {
	dispose func(T)
	clone   func(T) T
}

// WithDispose registers fn as the finalizer for values the primitive
// abandons on its own: a value rejected by TrySend, unread elements left in a
// channel when its last handle is closed, the value overwritten in the
// writer's slot by Write, and the three slots of a triple buffer on teardown.
// Values handed to the caller (TryRecv, Read) are never passed to fn.
func WithDispose[T any](fn func(T)) Option[T] {
	return func(o *options[T]) {
		o.dispose = fn
	}
}

// WithClone sets the function NewTripleBuffer uses to duplicate the initial
// value into the slots. It is needed for values holding slices, maps or
// pointers that do not implement Cloner. Channels ignore it.
func WithClone[T any](fn func(T) T) Option[T] {
	return func(o *options[T]) {
		o.clone = fn
	}
}

func buildOptions[T any](opts []Option[T]) options[T] {
	var o options[T]
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// refcount tracks how many of the two handles still own the shared storage.
type refcount struct {
	n atomic.Int32
}

func (r *refcount) init() {
	r.n.Store(2)
}

// release drops one reference and reports whether it was the last one.
func (r *refcount) release() bool {
	return r.n.Add(-1) == 0
}

// paired reports whether both handles are still alive. The answer is a
// snapshot and may be stale by the time the caller looks at it.
func (r *refcount) paired() bool {
	return r.n.Load() == 2
}

// owned is implemented by the storage shared between a pair of handles.
type owned interface {
	releaseRef()
}

// handle is the bookkeeping common to every endpoint: the cleanup that
// releases the shared reference if the endpoint is garbage collected without
// Close, and the closed flag.
type handle struct {
	cleanup runtime.Cleanup
	closed  atomic.Bool
}

// track arranges for s to lose one reference when owner becomes unreachable.
// s must not reference owner.
func track[H any, S owned](h *handle, owner *H, s S) {
	h.cleanup = runtime.AddCleanup(owner, func(s S) { s.releaseRef() }, s)
}

// close releases the reference held by the handle. It reports false if the
// handle was already closed.
func (h *handle) close(s owned) bool {
	if !h.closed.CompareAndSwap(false, true) {
		return false
	}
	h.cleanup.Stop()
	s.releaseRef()
	return true
}

// counter is a statistics word written by a single goroutine and readable by
// any. The writer uses load+store instead of an atomic add: there is never a
// second writer to race with.
type counter struct {
	v atomic.Uint64
}

func (c *counter) inc() {
	c.v.Store(c.v.Load() + 1)
}

func (c *counter) load() uint64 {
	return c.v.Load()
}
