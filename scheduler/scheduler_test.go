package scheduler

import (
	"testing"
	"time"

	"github.com/gtknet/ward/common/mclock"
	"github.com/stretchr/testify/require"
)

func TestQueueFiresInDeadlineOrder(t *testing.T) {
	clock := new(mclock.Simulated)
	q := New(clock)

	var fired []string
	q.Schedule(clock.Now().Add(3*time.Second), func() { fired = append(fired, "c") })
	q.Schedule(clock.Now().Add(1*time.Second), func() { fired = append(fired, "a") })
	q.Schedule(clock.Now().Add(2*time.Second), func() { fired = append(fired, "b") })

	clock.Run(5 * time.Second)
	require.Equal(t, []string{"a", "b", "c"}, fired)
	require.Equal(t, 0, q.Len())
}

func TestQueueReschedule(t *testing.T) {
	clock := new(mclock.Simulated)
	q := New(clock)

	var fired bool
	c := q.Schedule(clock.Now().Add(1*time.Second), func() { fired = true })
	q.Reschedule(c, clock.Now().Add(5*time.Second))

	clock.Run(2 * time.Second)
	require.False(t, fired, "rescheduled callout must not fire at its original deadline")

	clock.Run(4 * time.Second)
	require.True(t, fired)
}

func TestQueueCancel(t *testing.T) {
	clock := new(mclock.Simulated)
	q := New(clock)

	var fired bool
	c := q.Schedule(clock.Now().Add(1*time.Second), func() { fired = true })
	q.Cancel(c)

	clock.Run(10 * time.Second)
	require.False(t, fired, "cancelled callout must never fire")
	require.Equal(t, 0, q.Len())
}

func TestQueueCancelIsIdempotent(t *testing.T) {
	clock := new(mclock.Simulated)
	q := New(clock)

	c := q.Schedule(clock.Now().Add(time.Second), func() {})
	q.Cancel(c)
	require.NotPanics(t, func() { q.Cancel(c) })
}
