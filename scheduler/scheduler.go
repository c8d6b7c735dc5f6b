// Package scheduler implements a callout queue: a monotonic min-heap keyed
// on deadline that drives its owner's asynchronous actions (each ban.Engine
// owns one for its records' decay/unban callouts; dhttoken.RotatingSecret
// arms its rotation on one handed to it) off one armed timer
// instead of one timer per record. Rescheduling a callout removes it from
// the heap and pushes the same handle back with its new deadline, two
// O(log n) heap operations; the deadline is not updated in place.
package scheduler

import (
	"github.com/gtknet/ward/common/mclock"
	"github.com/gtknet/ward/common/prque"
)

// Callout is a handle to a single pending action. Each tracked record holds
// at most one live Callout; replacing it via Reschedule cancels the
// previous deadline, and Cancel guarantees the action never fires.
type Callout struct {
	deadline mclock.AbsTime
	fn       func()
	index    int
}

// Queue is a callout queue driven by a mclock.Clock. It is not safe for
// concurrent use from multiple goroutines without external synchronization,
// matching the single-threaded cooperative event loop the core packages
// assume.
type Queue struct {
	clock mclock.Clock
	pq    *prque.Prque[int64, *Callout]
	timer mclock.Timer
}

// New creates an empty Queue driven by clock.
func New(clock mclock.Clock) *Queue {
	q := &Queue{clock: clock}
	q.pq = prque.New[int64, *Callout](func(c *Callout, i int) { c.index = i })
	return q
}

// Schedule arms a new Callout at deadline, invoking fn once the queue is
// advanced past it.
func (q *Queue) Schedule(deadline mclock.AbsTime, fn func()) *Callout {
	c := &Callout{deadline: deadline, fn: fn, index: -1}
	q.pq.Push(c, -int64(deadline))
	q.rearm()
	return c
}

// Reschedule moves c to a new deadline: it removes c from the heap (if it is
// still queued) and pushes the same handle back with the new deadline. No
// other entry is touched, and no new Callout is allocated.
func (q *Queue) Reschedule(c *Callout, deadline mclock.AbsTime) {
	if c.index >= 0 {
		q.pq.Remove(c.index)
	}
	c.deadline = deadline
	q.pq.Push(c, -int64(deadline))
	q.rearm()
}

// Cancel removes c from the queue. A cancelled callout is guaranteed never
// to fire.
func (q *Queue) Cancel(c *Callout) {
	if c.index >= 0 {
		q.pq.Remove(c.index)
		c.index = -1
	}
}

// Deadline returns the time c is armed to fire.
func (c *Callout) Deadline() mclock.AbsTime {
	return c.deadline
}

// Len reports the number of callouts currently armed.
func (q *Queue) Len() int {
	return q.pq.Size()
}

func (q *Queue) rearm() {
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
	if q.pq.Empty() {
		return
	}
	_, negPrio := q.pq.Peek()
	deadline := mclock.AbsTime(-negPrio)
	d := deadline.Sub(q.clock.Now())
	if d < 0 {
		d = 0
	}
	q.timer = q.clock.AfterFunc(d, q.fire)
}

// fire runs every callout whose deadline has passed, then rearms the timer
// for the next one.
func (q *Queue) fire() {
	now := q.clock.Now()
	for !q.pq.Empty() {
		c, negPrio := q.pq.Peek()
		if mclock.AbsTime(-negPrio) > now {
			break
		}
		q.pq.Pop()
		c.index = -1
		c.fn()
	}
	q.rearm()
}
