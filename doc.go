// Copyright 2020 Nathan Taylor (nbtaylor@gmail.com)
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies
// of the Software, and to permit persons to whom the Software is furnished to do
// so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package pq implements a bounded, concurrent, max-ordered binary heap.
//
// The design follows Hunt, Michael, Parthasarathy, and Scott, "An Efficient
// Algorithm for Concurrent Priority Queue Heaps" (1996): a single global size
// counter paired with one lock per array slot. Multiple goroutines may push
// and pop at once; each holds at most three slot locks at a time (a parent
// and a child during sift-up, a node and both of its children while
// sift-down compares them) and never holds a slot lock while blocked on the
// size counter's condition variables.
//
// ## Slot states
//
// Each slot is one of three states:
//
//   - empty: the slot holds no element.
//   - available: the slot holds a settled element, participating in the
//     heap's ordering invariant.
//   - inProgress: the slot holds an element that some goroutine is actively
//     sifting. Other goroutines may observe and even relocate it, but must
//     not treat its position as final.
//
// The inProgress tag is what lets a sift-up or sift-down release its locks
// on the way up or down the tree without losing track of which element
// isn't yet settled: a concurrent mutator that runs into an inProgress slot
// belonging to someone else can still pass through it correctly.
//
// ## Lock ordering
//
// The deadlock-free rule is: take the size lock first if you need it at
// all, then take slot locks in strictly increasing index order. Sift-up
// therefore always locks parent before child; sift-down always locks the
// current node before its chosen child. Reservation (the size-lock-held
// prelude to both Push and Pop) takes its target slot lock(s) while still
// holding the size lock, which is consistent with "size lock, then slots".
//
// ## Notification
//
// Push signals notEmpty at the end of the call, on every return path: once
// its element has settled, or once it finds the element already consumed
// by a concurrent Pop. A woken popper may still find the root inProgress
// under another pusher's sift-up, so takeVal accepts an inProgress root as
// well as an available one. Pop signals notFull as soon as it has decremented the size and
// swapped the bottom element into the root's place — well before sift-down
// finishes — because capacity is freed at that instant regardless of how
// long the repair walk takes.
package pq
