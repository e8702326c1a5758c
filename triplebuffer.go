package spsc

import (
	"fmt"
	"reflect"
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// The shared state word packs the index of the last committed slot with a
// flag telling whether the reader has claimed it yet.
const (
	indexMask  uint32 = 0b011
	unreadFlag uint32 = 0b100
)

// At any moment the three slot indices are split between three roles:
// the writer's private slot, the committed slot named by the state word and
// the reader's private slot. Every transition is a single swap on the state
// word that trades the caller's private index for the committed one, so no
// two roles ever name the same slot.
type tripleSlot[T any] struct {
	v T
	_ cpu.CacheLinePad
}

type triple[T any] struct {
	slots   [3]tripleSlot[T]
	dispose func(T)
	refs    refcount
	_       cpu.CacheLinePad
	state   atomic.Uint32
	_       cpu.CacheLinePad
}

func (t *triple[T]) discard(v T) {
	if t.dispose != nil {
		t.dispose(v)
	}
}

// releaseRef drops one handle's reference; the last one disposes the
// contents of all three slots, whatever role they were in.
func (t *triple[T]) releaseRef() {
	if !t.refs.release() {
		return
	}
	var zero T
	for i := range t.slots {
		v := t.slots[i].v
		t.slots[i].v = zero
		t.discard(v)
	}
}

// Writer publishes values to a Reader through a triple buffer.
// Its methods must be called from a single goroutine at a time.
type Writer[T any] struct {
	t    *triple[T]
	idx  uint32
	h    handle
	role roleGuard

	// guard bookkeeping: gen identifies the most recent GetMut, pending is
	// set until that guard commits.
	gen     uint64
	pending bool

	commits     counter
	overwritten counter
}

// Reader observes the latest value published by a Writer.
// Its methods must be called from a single goroutine at a time.
type Reader[T any] struct {
	t    *triple[T]
	idx  uint32
	h    handle
	role roleGuard

	reads   counter
	claimed counter
}

// WriterStats is a snapshot of a Writer's counters. Overwritten counts
// commits that replaced a value the reader never claimed.
type WriterStats struct {
	Commits     uint64
	Overwritten uint64
}

// ReaderStats is a snapshot of a Reader's counters. Claimed counts reads that
// picked up a new commit.
type ReaderStats struct {
	Reads   uint64
	Claimed uint64
}

// Cloner is implemented by values that know how to deep copy themselves.
// NewTripleBuffer uses it to fill the three slots.
type Cloner[T any] interface {
	Clone() T
}

// NewTripleBuffer creates a triple buffer with all three slots holding a
// copy of initial. The copies are made by the WithClone function if one is
// given, else by Clone when T is a Cloner, else by assignment. Assignment is
// only accepted for types that share no memory when copied (numbers, strings
// and arrays or structs of them); for anything else NewTripleBuffer panics
// and the caller has to pick one of the other ways, or use
// NewTripleBufferExplicit.
func NewTripleBuffer[T any](initial T, opts ...Option[T]) (*Writer[T], *Reader[T]) {
	clone := buildOptions(opts).clone
	if clone == nil {
		if c, ok := any(initial).(Cloner[T]); ok {
			clone = func(T) T { return c.Clone() }
		} else if typ := reflect.TypeFor[T](); !copyable(typ) {
			panic(fmt.Sprintf("spsc: copies of %v share memory, use WithClone or NewTripleBufferExplicit", typ))
		}
	}
	if clone == nil {
		return NewTripleBufferExplicit(initial, initial, initial, opts...)
	}
	return NewTripleBufferExplicit(clone(initial), clone(initial), initial, opts...)
}

// copyable reports whether a value of type t can be duplicated by
// assignment without the copies sharing mutable memory.
func copyable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	case reflect.Array:
		return t.Len() == 0 || copyable(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if !copyable(t.Field(i).Type) {
				return false
			}
		}
		return true
	}
	return false
}

// NewTripleBufferExplicit creates a triple buffer from three independent
// initial values. The reader starts on a, the writer fills c first.
func NewTripleBufferExplicit[T any](a, b, c T, opts ...Option[T]) (*Writer[T], *Reader[T]) {
	o := buildOptions(opts)
	t := &triple[T]{dispose: o.dispose}
	t.slots[0].v = a
	t.slots[1].v = b
	t.slots[2].v = c
	// slot 1 is committed and already seen
	t.state.Store(1)
	t.refs.init()

	w := &Writer[T]{t: t, idx: 2}
	track(&w.h, w, t)
	r := &Reader[T]{t: t, idx: 0}
	track(&r.h, r, t)

	return w, r
}

func (w *Writer[T]) mustShared() *triple[T] {
	if w.h.closed.Load() {
		panic("spsc: use of closed Writer")
	}
	return w.t
}

// commit publishes the writer's slot and takes over the slot that was
// committed before; the reader cannot be holding it.
func (w *Writer[T]) commit() {
	prev := w.t.state.Swap(w.idx | unreadFlag)
	w.idx = prev & indexMask

	w.commits.inc()
	if prev&unreadFlag != 0 {
		w.overwritten.inc()
	}
}

// Write replaces the contents of the writer's slot with v and publishes it.
// The previous contents of that slot are handed to the disposer. Write never
// waits for the reader.
func (w *Writer[T]) Write(v T) {
	t := w.mustShared()
	w.role.enter("Writer")
	defer w.role.exit()

	if w.pending {
		panic("spsc: Write while a WriteGuard is outstanding")
	}

	s := &t.slots[w.idx].v
	old := *s
	*s = v
	w.commit()
	// the commit is already visible if the disposer panics
	t.discard(old)
}

// GetMut gives in-place access to the writer's slot. The slot is published
// when the guard's Commit is called, which should be deferred right away:
//
//	g := w.GetMut()
//	defer g.Commit()
//	g.Value().X++
//
// The slot still holds whatever the writer left in it two commits ago, not
// the latest value.
func (w *Writer[T]) GetMut() WriteGuard[T] {
	t := w.mustShared()
	w.role.enter("Writer")
	defer w.role.exit()

	if w.pending {
		panic("spsc: GetMut while a WriteGuard is outstanding")
	}

	w.gen++
	w.pending = true

	return WriteGuard[T]{
		w:   w,
		v:   &t.slots[w.idx].v,
		gen: w.gen,
	}
}

// Update calls fn with the writer's slot and publishes it once fn returns,
// also when fn panics.
func (w *Writer[T]) Update(fn func(v *T)) {
	g := w.GetMut()
	defer g.Commit()
	fn(g.Value())
}

// Stats returns the writer counters. It may be called from any goroutine.
func (w *Writer[T]) Stats() WriterStats {
	return WriterStats{
		Commits:     w.commits.load(),
		Overwritten: w.overwritten.load(),
	}
}

// IsReaderActive reports whether the Reader has not been closed yet.
func (w *Writer[T]) IsReaderActive() bool {
	return w.t.refs.paired()
}

// Closed reports whether Close has been called.
func (w *Writer[T]) Closed() bool {
	return w.h.closed.Load()
}

// Close releases the writer's reference. Once both ends are closed the three
// slots are disposed. Closing twice is a no-op.
func (w *Writer[T]) Close() {
	if w.pending {
		panic("spsc: Close while a WriteGuard is outstanding")
	}
	w.h.close(w.t)
}

// WriteGuard is an uncommitted in-place write obtained from GetMut.
type WriteGuard[T any] struct {
	w   *Writer[T]
	v   *T
	gen uint64
}

// Value returns the slot being written. It panics once the guard is
// committed.
func (g *WriteGuard[T]) Value() *T {
	w := g.w
	if w == nil {
		panic("spsc: WriteGuard used after Commit")
	}
	w.role.enter("Writer")
	defer w.role.exit()

	if !g.live() {
		panic("spsc: WriteGuard used after Commit")
	}
	return g.v
}

func (g *WriteGuard[T]) live() bool {
	return g.w != nil && g.w.pending && g.w.gen == g.gen
}

// Commit publishes the slot. Only the first call on a guard (or any copy of
// it) has an effect.
func (g *WriteGuard[T]) Commit() {
	if !g.live() {
		return
	}
	w := g.w
	w.role.enter("Writer")
	defer w.role.exit()

	w.pending = false
	w.commit()
}

func (r *Reader[T]) mustShared() *triple[T] {
	if r.h.closed.Load() {
		panic("spsc: use of closed Reader")
	}
	return r.t
}

// Read returns the most recently committed value. If nothing was committed
// since the previous call it returns the same slot again.
//
// The pointer is only valid until the next Read: after that the slot may be
// handed back to the writer.
func (r *Reader[T]) Read() *T {
	t := r.mustShared()
	r.role.enter("Reader")
	defer r.role.exit()

	r.reads.inc()
	// only the writer sets the flag, only the reader clears it
	if t.state.Load()&unreadFlag != 0 {
		prev := t.state.Swap(r.idx)
		r.idx = prev & indexMask
		r.claimed.inc()
	}

	return &t.slots[r.idx].v
}

// Updated reports whether a commit is waiting to be picked up by Read.
func (r *Reader[T]) Updated() bool {
	return r.mustShared().state.Load()&unreadFlag != 0
}

// Stats returns the reader counters. It may be called from any goroutine.
func (r *Reader[T]) Stats() ReaderStats {
	return ReaderStats{
		Reads:   r.reads.load(),
		Claimed: r.claimed.load(),
	}
}

// IsWriterActive reports whether the Writer has not been closed yet.
func (r *Reader[T]) IsWriterActive() bool {
	return r.t.refs.paired()
}

// Closed reports whether Close has been called.
func (r *Reader[T]) Closed() bool {
	return r.h.closed.Load()
}

// Close releases the reader's reference. Once both ends are closed the three
// slots are disposed. Closing twice is a no-op.
func (r *Reader[T]) Close() {
	r.h.close(r.t)
}
