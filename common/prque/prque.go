// Package prque implements a priority queue data structure supporting
// insertion, peek/pop of the highest-priority element, and in-place priority
// update given a tracked index. Pop always returns the item with the
// greatest priority value first. The scheduler package builds ward's
// callout queue (a monotonic queue keyed on deadline) directly on top of
// this generic container by pushing negated deadlines as priorities, so the
// earliest deadline is the numerically greatest priority; the SetIndex
// callback lets it Remove a callout by index in O(log n).
package prque

import (
	"cmp"
	"container/heap"
)

// SetIndexCallback is called to notify a pushed item of its current index,
// so that its owner can later call Prque.Remove.
type SetIndexCallback[V any] func(data V, index int)

// Prque is a priority queue data structure, supporting the insertion of
// arbitrary values with a priority, and popping out the highest-priority
// element each time. Lower numerical priority values are less urgent: Pop
// always returns the item with the greatest priority.
type Prque[P cmp.Ordered, V any] struct {
	cont *sstack[P, V]
}

// New creates a new priority queue.
func New[P cmp.Ordered, V any](setIndex SetIndexCallback[V]) *Prque[P, V] {
	return &Prque[P, V]{cont: newSstack[P, V](setIndex)}
}

// Push inserts a new value into the queue, expanding if necessary.
func (p *Prque[P, V]) Push(data V, priority P) {
	heap.Push(p.cont, &item[P, V]{data, priority})
}

// Peek returns the value with the greatest priority but does not pop it off.
func (p *Prque[P, V]) Peek() (V, P) {
	it := p.cont.blocks[0][0]
	return it.value, it.priority
}

// Pop removes the highest-priority item and returns it along with its
// priority.
func (p *Prque[P, V]) Pop() (V, P) {
	it := heap.Pop(p.cont).(*item[P, V])
	return it.value, it.priority
}

// Remove deletes the item at the given index (as reported via SetIndexCallback)
// and returns its value.
func (p *Prque[P, V]) Remove(i int) V {
	it := heap.Remove(p.cont, i).(*item[P, V])
	return it.value
}

// Size returns the number of elements in the priority queue.
func (p *Prque[P, V]) Size() int {
	return p.cont.Len()
}

// Empty checks whether the priority queue is empty.
func (p *Prque[P, V]) Empty() bool {
	return p.cont.Len() == 0
}

// Reset clears the contents of the priority queue.
func (p *Prque[P, V]) Reset() {
	*p = *New[P, V](p.cont.setIndex)
}
