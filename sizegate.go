package pq

import (
	"sync"

	"go.uber.org/zap"
)

// sizeGate is the heap's size register: a mutex-guarded occupancy count
// with two condition variables attached to that same mutex, one for each
// direction a waiter can block in.
//
// The shape is "lock, loop while incompatible, cond.Wait", trimmed down
// to the two predicates this domain actually has (full and empty)
// instead of a packed multi-state word: a bounded array's size register
// isn't a hierarchical reader/writer lock, it's a single integer with
// two thresholds (see DESIGN.md).
type sizeGate struct {
	mu       sync.Mutex
	notFull  *sync.Cond
	notEmpty *sync.Cond
	n        int
	cap      int
	log      *zap.Logger
}

func newSizeGate(cap int, log *zap.Logger) *sizeGate {
	g := &sizeGate{cap: cap, log: log}
	g.notFull = sync.NewCond(&g.mu)
	g.notEmpty = sync.NewCond(&g.mu)
	return g
}

// lockWaitNotFull blocks the caller until n < cap, leaving the gate
// locked on return so the caller can reserve the slot at the current n
// under the same critical section.
func (g *sizeGate) lockWaitNotFull() {
	g.mu.Lock()
	if g.n == g.cap {
		g.log.Debug("push parked: heap at capacity", zap.Int("cap", g.cap))
	}
	for g.n == g.cap {
		g.notFull.Wait()
	}
}

// lockWaitNotEmpty blocks the caller until n > 0, leaving the gate
// locked on return.
func (g *sizeGate) lockWaitNotEmpty() {
	g.mu.Lock()
	if g.n == 0 {
		g.log.Debug("pop parked: heap empty")
	}
	for g.n == 0 {
		g.notEmpty.Wait()
	}
}

// unlock releases the gate's mutex. Must be paired with whichever
// lockWait* call preceded it.
func (g *sizeGate) unlock() {
	g.mu.Unlock()
}

// signalNotFull wakes one blocked pusher, if any. It deliberately does
// not take g.mu: n is already mutated under g.mu by whoever calls this,
// and sync.Cond.Signal needs no lock held by the caller. Callers in Pop
// rely on this to be safe to call while still holding a slot lock —
// taking g.mu here would invert the gate-then-slot lock order that
// reservation establishes and deadlock against a concurrent reservation
// that holds g.mu and is waiting on that same slot.
func (g *sizeGate) signalNotFull() {
	g.notFull.Signal()
}

// signalNotEmpty wakes one blocked popper, if any. See signalNotFull for
// why this does not take g.mu.
func (g *sizeGate) signalNotEmpty() {
	g.notEmpty.Signal()
}

func (g *sizeGate) len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.n
}
