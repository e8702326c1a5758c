// Package spsc provides two wait-free primitives for handing data from
// exactly one producer goroutine to exactly one consumer goroutine.
//
// NewChannel builds a bounded FIFO ring. TrySend and TryRecv never block:
// they report false when the ring is full or empty and leave the retry,
// drop or queue decision to the caller.
//
// NewTripleBuffer builds a "latest value" cell. The writer always has a free
// slot to fill and the reader always has a stable slot to look at; writes the
// reader did not get to in time are superseded.
//
// Both primitives share their storage between a pair of handles. Each handle
// must stay on its side: calling producer methods from two goroutines at once,
// or mixing roles, is not supported. Building with the spscdebug tag turns
// overlapping use of a handle into a panic.
//
// Hand-off ordering relies on sync/atomic, which is sequentially consistent:
// a value stored before a cursor or state word is published is visible to the
// side that observes the new cursor or state.
package spsc
