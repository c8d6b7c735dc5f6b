package ban

import (
	"os"
	"sync"
	"time"

	"github.com/gtknet/ward/common/mclock"
)

// quiescence is how long the fd_shortage/fd_runout flags stay raised after
// the last reclaim attempt that needed them.
const quiescence = 10 * time.Minute

// QuarantineFifo is a bounded FIFO of quarantined, half-closed sockets:
// Engine.Force transfers fd ownership here instead of closing them
// outright, so a starved remote gets no FIN and cannot immediately retry
// on a fresh connection. At capacity, the oldest fd is closed to make room
// for the newest.
type QuarantineFifo struct {
	mu       sync.Mutex
	capacity int
	fds      []*os.File

	clock        mclock.Clock
	fdShortage   bool
	fdRunout     bool
	lastPressure mclock.AbsTime
}

// NewQuarantineFifo creates a QuarantineFifo holding at most capacity fds.
func NewQuarantineFifo(capacity int, clock mclock.Clock) *QuarantineFifo {
	if capacity < 1 {
		capacity = 1
	}
	return &QuarantineFifo{capacity: capacity, clock: clock}
}

// Push takes ownership of f, closing the oldest quarantined fd first if
// the FIFO is already at capacity.
func (q *QuarantineFifo) Push(f *os.File) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.fds) >= q.capacity {
		victim := q.fds[0]
		q.fds = q.fds[1:]
		victim.Close()
	}
	q.fds = append(q.fds, f)
}

// Reclaim closes and drops the single oldest quarantined fd, for use by an
// external fd-exhaustion handler. It is always safe to call, including on
// an empty FIFO, and reports whether a fd was actually recycled.
func (q *QuarantineFifo) Reclaim() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	now := q.clock.Now()
	q.lastPressure = now
	if len(q.fds) == 0 {
		q.fdRunout = true
		return false
	}
	f := q.fds[0]
	q.fds = q.fds[1:]
	f.Close()
	q.fdShortage = true
	return true
}

// Len returns the number of fds currently quarantined.
func (q *QuarantineFifo) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.fds)
}

// FdShortage reports whether reclaim pressure has been observed within the
// last 10-minute quiescence window.
func (q *QuarantineFifo) FdShortage() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.clearStaleLocked()
	return q.fdShortage
}

// FdRunout reports whether a reclaim attempt has found the FIFO empty
// within the last 10-minute quiescence window.
func (q *QuarantineFifo) FdRunout() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.clearStaleLocked()
	return q.fdRunout
}

func (q *QuarantineFifo) clearStaleLocked() {
	if !q.fdShortage && !q.fdRunout {
		return
	}
	if q.clock.Now().Sub(q.lastPressure) > quiescence {
		q.fdShortage = false
		q.fdRunout = false
	}
}

// Close releases every quarantined fd.
func (q *QuarantineFifo) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, f := range q.fds {
		f.Close()
	}
	q.fds = nil
}
