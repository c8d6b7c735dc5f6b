package mclock

import (
	"container/heap"
	"sync"
	"time"
)

// Simulated implements Clock and purely simulates time passing. The current
// time is only advanced by calling Run. This is the clock every core package
// test drives instead of sleeping on the wall clock.
type Simulated struct {
	mu      sync.Mutex
	cond    *sync.Cond
	now     AbsTime
	timers  simTimerHeap
	nextSeq uint64
}

func (s *Simulated) init() {
	if s.cond == nil {
		s.cond = sync.NewCond(&s.mu)
	}
}

// Run advances the clock by d. Timers scheduled to fire at or before the new
// time are fired in deadline order.
func (s *Simulated) Run(d time.Duration) {
	s.mu.Lock()
	s.init()
	end := s.now + AbsTime(d)
	for len(s.timers) > 0 && s.timers[0].at <= end {
		t := heap.Pop(&s.timers).(*simTimer)
		s.now = t.at
		if t.fn != nil {
			fn := t.fn
			s.mu.Unlock()
			fn()
			s.mu.Lock()
		} else if t.ch != nil {
			select {
			case t.ch <- t.at:
			default:
			}
		}
	}
	s.now = end
	s.cond.Broadcast()
	s.mu.Unlock()
}

// Now returns the current simulated time.
func (s *Simulated) Now() AbsTime {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()
	return s.now
}

// ActiveTimers returns the number of timers that haven't fired yet.
func (s *Simulated) ActiveTimers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// WaitForTimers blocks until at least n timers are scheduled.
func (s *Simulated) WaitForTimers(n int) {
	s.mu.Lock()
	s.init()
	for len(s.timers) < n {
		s.cond.Wait()
	}
	s.mu.Unlock()
}

func (s *Simulated) schedule(d time.Duration, fn func(), ch chan AbsTime) *simTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()
	t := &simTimer{s: s, at: s.now + AbsTime(d), fn: fn, ch: ch, seq: s.nextSeq}
	s.nextSeq++
	heap.Push(&s.timers, t)
	s.cond.Broadcast()
	return t
}

// NewTimer creates a timer that sends the firing time on its channel.
func (s *Simulated) NewTimer(d time.Duration) Timer {
	return s.schedule(d, nil, make(chan AbsTime, 1))
}

// After returns a channel which fires after d of simulated time.
func (s *Simulated) After(d time.Duration) <-chan AbsTime {
	return s.NewTimer(d).C()
}

// AfterFunc schedules f to run after d of simulated time, synchronously
// during the Run call that crosses the deadline.
func (s *Simulated) AfterFunc(d time.Duration, f func()) Timer {
	return s.schedule(d, f, nil)
}

// Sleep blocks the calling goroutine until d of simulated time has passed.
func (s *Simulated) Sleep(d time.Duration) {
	<-s.After(d)
}

type simTimer struct {
	s      *Simulated
	at     AbsTime
	fn     func()
	ch     chan AbsTime
	seq    uint64
	index  int
	popped bool
}

func (t *simTimer) C() <-chan AbsTime {
	return t.ch
}

func (t *simTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.index < 0 || t.index >= len(t.s.timers) || t.s.timers[t.index] != t {
		return false
	}
	heap.Remove(&t.s.timers, t.index)
	return true
}

func (t *simTimer) Reset(d time.Duration) {
	t.s.mu.Lock()
	t.at = t.s.now + AbsTime(d)
	if t.index >= 0 && t.index < len(t.s.timers) && t.s.timers[t.index] == t {
		heap.Fix(&t.s.timers, t.index)
	} else {
		heap.Push(&t.s.timers, t)
	}
	t.s.cond.Broadcast()
	t.s.mu.Unlock()
}

type simTimerHeap []*simTimer

func (h simTimerHeap) Len() int { return len(h) }
func (h simTimerHeap) Less(i, j int) bool {
	if h[i].at == h[j].at {
		return h[i].seq < h[j].seq
	}
	return h[i].at < h[j].at
}
func (h simTimerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *simTimerHeap) Push(x any) {
	t := x.(*simTimer)
	t.index = len(*h)
	*h = append(*h, t)
}
func (h *simTimerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}
