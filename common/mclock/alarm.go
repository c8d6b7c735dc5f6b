package mclock

// Alarm sends a value on its channel whenever the deadline set by Schedule
// is reached. It serves a component that needs one pending wakeup at a time:
// calling Schedule again before the previous deadline fires reschedules it,
// exactly like the
// callout discipline in spec §5 where replacing a callout cancels the
// previous one.
type Alarm struct {
	clock   Clock
	timer   Timer
	deadline AbsTime
	armed   bool
	ch      chan struct{}
}

// NewAlarm creates an Alarm backed by clock.
func NewAlarm(clock Clock) *Alarm {
	return &Alarm{clock: clock, ch: make(chan struct{}, 1)}
}

// C returns the channel on which the alarm fires.
func (e *Alarm) C() <-chan struct{} {
	return e.ch
}

// Schedule sets the alarm to fire at the given absolute time, replacing any
// previously scheduled deadline.
func (e *Alarm) Schedule(time AbsTime) {
	now := e.clock.Now()
	dur := time.Sub(now)
	if e.armed {
		e.timer.Stop()
		e.armed = false
	}
	e.deadline = time
	e.timer = e.clock.AfterFunc(dur, e.fire)
	e.armed = true
}

func (e *Alarm) fire() {
	select {
	case e.ch <- struct{}{}:
	default:
	}
}
