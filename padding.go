package pq

import "sync"

// cacheLineSize is the padding target used throughout the corpus's
// hand-rolled lock-free and sharded structures (there is no third-party
// cache-line-padding package in play here; see DESIGN.md). 64 bytes covers
// every mainstream x86/arm64 target.
const cacheLineSize = 64

// slot is one cache-line-padded, independently lockable cell of the heap
// array. Padding goes after the fields actually touched under contention
// (the mutex and the item) so that two adjacent slots never share a cache
// line and fight over it under concurrent push/pop traffic.
type slot[T any] struct {
	mu  sync.Mutex
	it  item[T]
	_   [cacheLineSize]byte
}
