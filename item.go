package pq

import (
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

// itemState tags what a slot currently holds.
type itemState int

const (
	empty itemState = iota
	available
	inProgress
)

// item is the contents of one slot: a tagged value, never copied or
// aliased outside the slot that owns it. Ownership moves slot-to-slot by
// swapping the whole struct under the joint locks of the two slots
// involved.
type item[T any] struct {
	state itemState
	val   T
	owner uuid.UUID
}

func emptyItem[T any]() item[T] {
	return item[T]{state: empty}
}

func availableItem[T any](v T) item[T] {
	return item[T]{state: available, val: v}
}

func inProgressItem[T any](v T, owner uuid.UUID) item[T] {
	return item[T]{state: inProgress, val: v, owner: owner}
}

func (it *item[T]) isEmpty() bool      { return it.state == empty }
func (it *item[T]) isAvailable() bool  { return it.state == available }
func (it *item[T]) isInProgress() bool { return it.state == inProgress }

// ownedBy reports whether the slot is inProgress under the given owner.
func (it *item[T]) ownedBy(owner uuid.UUID) bool {
	return it.state == inProgress && it.owner == owner
}

// value returns the contained value and whether the slot held one at all
// (available or inProgress). Never returns ok=true for an empty slot.
func (it *item[T]) value() (T, bool) {
	var zero T
	if it.state == empty {
		return zero, false
	}
	return it.val, true
}

// takeVal transitions a slot from available or inProgress to empty,
// yielding the element it held. Calling this on an empty slot is a
// programming error: it means a caller believed a slot was occupied when
// the size register said otherwise.
func (it *item[T]) takeVal() T {
	if it.state == empty {
		panic(errors.AssertionFailedf("pq: takeVal on an empty slot"))
	}
	v := it.val
	*it = emptyItem[T]()
	return v
}

// makeAvailable transitions an inProgress slot to available in place.
// Calling this on anything but an inProgress slot is a programming error.
func (it *item[T]) makeAvailable() {
	if it.state != inProgress {
		panic(errors.AssertionFailedf("pq: makeAvailable on a slot that is not inProgress (state=%v)", it.state))
	}
	it.state = available
}
