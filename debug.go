package spsc

import "sync/atomic"

// roleGuard detects overlapping use of a single handle, which means either
// two goroutines are sharing a role or a callback re-entered the handle.
// The check is compiled in only with the spscdebug build tag.
type roleGuard struct {
	busy atomic.Bool
}

func (g *roleGuard) enter(role string) {
	if debugChecks && !g.busy.CompareAndSwap(false, true) {
		panic("spsc: overlapping use of " + role)
	}
}

func (g *roleGuard) exit() {
	if debugChecks {
		g.busy.Store(false)
	}
}
