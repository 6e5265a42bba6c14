package pq

import (
	"cmp"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Heap is a bounded, concurrent, max-ordered binary heap over values of
// type T, ordered by the less function supplied at construction. It is
// safe for any number of goroutines to call Push and Pop concurrently.
//
// A Heap's zero value is not usable; construct one with New or
// NewOrdered.
type Heap[T any] struct {
	data []slot[T]
	cap  int
	gate *sizeGate
	less func(a, b T) bool
	log  *zap.Logger
}

// New constructs a Heap of the given capacity ordered by less, which
// must report whether a sorts strictly before b. The heap is max-ordered:
// the element for which no other occupant reports less(that element,
// this one) ends up at the root. A nil log is replaced with a no-op
// logger. cap == 0 is a programming error and panics immediately.
func New[T any](cap int, less func(a, b T) bool, log *zap.Logger) *Heap[T] {
	if cap == 0 {
		panic(errors.AssertionFailedf("pq: New called with cap == 0"))
	}
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("pq")
	return &Heap[T]{
		data: make([]slot[T], cap),
		cap:  cap,
		gate: newSizeGate(cap, log),
		less: less,
		log:  log,
	}
}

// NewOrdered is New for element types with a natural order.
func NewOrdered[T cmp.Ordered](cap int, log *zap.Logger) *Heap[T] {
	return New[T](cap, func(a, b T) bool { return a < b }, log)
}

func (h *Heap[T]) greater(a, b T) bool {
	return h.less(b, a)
}

// parentOf returns the index of i's parent; parentOf(0) is 0 by
// convention (the root has no parent, and is never consulted for it).
func parentOf(i int) int {
	if i == 0 {
		return 0
	}
	if i%2 == 0 {
		return i/2 - 1
	}
	return i / 2
}

// Push inserts v into the heap, blocking while the heap is at capacity.
// It returns once v is Available in its final position, or once a
// concurrent Pop has consumed it off the path it was sifting along.
func (h *Heap[T]) Push(v T) {
	defer h.gate.signalNotEmpty()

	owner := uuid.New()

	h.gate.lockWaitNotFull()
	pos := h.gate.n
	h.data[pos].mu.Lock()
	h.gate.n++
	h.gate.unlock()

	if !h.data[pos].it.isEmpty() {
		h.data[pos].mu.Unlock()
		panic(errors.AssertionFailedf("pq: push reserved non-empty slot %d", pos))
	}

	if pos == 0 {
		h.data[pos].it = availableItem[T](v)
		h.data[pos].mu.Unlock()
		return
	}

	h.data[pos].it = inProgressItem[T](v, owner)
	h.data[pos].mu.Unlock()

	h.siftUp(pos, owner)
}

// siftUp walks from pos toward the root, swapping the owner's
// in-progress element upward past any smaller ancestor until it either
// settles below a greater-or-equal ancestor, reaches the root, or is
// discovered to have already been relocated by a concurrent Pop.
func (h *Heap[T]) siftUp(pos int, owner uuid.UUID) {
	for {
		parentPos := parentOf(pos)
		h.data[parentPos].mu.Lock()
		h.data[pos].mu.Lock()

		if h.data[parentPos].it.isEmpty() {
			// A concurrent pop hollowed out the path under us: our
			// element has already been consumed or relocated.
			h.data[pos].mu.Unlock()
			h.data[parentPos].mu.Unlock()
			return
		}

		switch {
		case h.data[pos].it.ownedBy(owner) && h.data[parentPos].it.isAvailable():
			v, _ := h.data[pos].it.value()
			pv, _ := h.data[parentPos].it.value()
			if h.greater(v, pv) {
				h.data[pos].it, h.data[parentPos].it = h.data[parentPos].it, h.data[pos].it
			} else {
				h.data[pos].it.makeAvailable()
				h.data[pos].mu.Unlock()
				h.data[parentPos].mu.Unlock()
				return
			}

		case h.data[pos].it.ownedBy(owner) && h.data[parentPos].it.isInProgress():
			// The parent is itself mid-sift. Release both locks and
			// retry this same step rather than nesting a wait; this is
			// a bounded spin, not a lock acquired out of order.
			h.data[pos].mu.Unlock()
			h.data[parentPos].mu.Unlock()
			continue

		default:
			// Our element is no longer at pos; some concurrent mutator
			// moved it. Keep walking upward looking for it.
		}

		// Either we swapped upward or we're just following our element;
		// either way pos's old slot is done with for this iteration, and
		// the slot at parentPos becomes the new pos.
		oldPos := pos
		pos = parentPos

		if pos > 0 {
			h.data[oldPos].mu.Unlock()
			h.data[pos].mu.Unlock()
			continue
		}

		// pos == 0: the root. If it's our own in-progress element, this
		// is where it comes to rest.
		if h.data[pos].it.ownedBy(owner) {
			h.data[pos].it.makeAvailable()
		}
		h.data[oldPos].mu.Unlock()
		h.data[pos].mu.Unlock()
		return
	}
}

// Pop removes and returns the largest element in the heap, blocking
// while the heap is empty.
func (h *Heap[T]) Pop() T {
	h.gate.lockWaitNotEmpty()
	h.gate.n--
	bottom := h.gate.n
	h.data[0].mu.Lock()
	if bottom > 0 {
		h.data[bottom].mu.Lock()
	}
	h.gate.unlock()

	popped := h.data[0].it.takeVal()

	if bottom == 0 {
		h.data[0].mu.Unlock()
		h.gate.signalNotFull()
		return popped
	}

	h.data[0].it, h.data[bottom].it = h.data[bottom].it, h.data[0].it
	h.data[bottom].mu.Unlock()
	h.gate.signalNotFull()

	h.siftDown()
	return popped
}

// siftDown repairs the heap property starting at the root, which must
// already be locked by the caller. It walks toward the larger of the two
// children at each step until neither child exceeds the current node, or
// until it runs out of children, releasing every lock it acquires along
// the way (including the caller's root lock) before returning.
func (h *Heap[T]) siftDown() {
	currPos := 0
	for 2*currPos+1 < h.cap {
		left := 2*currPos + 1
		right := left + 1
		childPos := left

		h.data[left].mu.Lock()

		if right < h.cap {
			h.data[right].mu.Lock()
			lv, lok := h.data[left].it.value()
			rv, rok := h.data[right].it.value()
			if !lok {
				h.data[right].mu.Unlock()
				h.data[left].mu.Unlock()
				h.data[currPos].mu.Unlock()
				return
			}
			if rok && h.greater(rv, lv) {
				childPos = right
				h.data[left].mu.Unlock()
			} else {
				h.data[right].mu.Unlock()
			}
		}

		cv, cok := h.data[childPos].it.value()
		if !cok {
			h.data[childPos].mu.Unlock()
			h.data[currPos].mu.Unlock()
			return
		}
		pv, _ := h.data[currPos].it.value()
		if !h.greater(cv, pv) {
			h.data[childPos].mu.Unlock()
			h.data[currPos].mu.Unlock()
			return
		}

		h.data[currPos].it, h.data[childPos].it = h.data[childPos].it, h.data[currPos].it
		h.data[currPos].mu.Unlock()
		currPos = childPos
	}
	h.data[currPos].mu.Unlock()
}

// Len returns the current occupancy. It is advisory: by the time the
// caller observes it, a concurrent Push or Pop may have changed it.
func (h *Heap[T]) Len() int {
	return h.gate.len()
}
