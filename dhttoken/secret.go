// Package dhttoken implements the DHT security token: a short, anti-spoof
// proof that this node issued a value to a remote endpoint, anchored to a
// secret that rotates every token lifetime.
package dhttoken

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/gtknet/ward/common/backoff"
	"github.com/gtknet/ward/common/mclock"
	"github.com/gtknet/ward/log"
	"github.com/gtknet/ward/scheduler"
)

// secretSize is the width of current/previous: 128 bits.
const secretSize = 16

// RotatingSecret holds the two 128-bit secrets Issue/Validate key off of.
// A periodic task moves current into previous and draws a fresh current
// every lifetime; previous is kept so tokens issued just before a
// rotation still validate during the following rotation window.
type RotatingSecret struct {
	mu                sync.RWMutex
	current, previous [secretSize]byte
	lifetime          time.Duration
	queue             *scheduler.Queue
	clock             mclock.Clock
	retry             *backoff.Exponential
}

// NewRotatingSecret draws an initial secret and arms the periodic rotation
// callout on queue.
func NewRotatingSecret(lifetime time.Duration, clock mclock.Clock, queue *scheduler.Queue) (*RotatingSecret, error) {
	s := &RotatingSecret{lifetime: lifetime, clock: clock, queue: queue}
	if _, err := rand.Read(s.current[:]); err != nil {
		return nil, err
	}
	if _, err := rand.Read(s.previous[:]); err != nil {
		return nil, err
	}
	s.arm(s.lifetime)
	return s, nil
}

func (s *RotatingSecret) arm(d time.Duration) {
	s.queue.Schedule(s.clock.Now().Add(d), s.rotate)
}

// rotate draws a fresh secret and shifts current into previous. A failed
// entropy read does not wait out a full lifetime before trying again: it
// retries on an exponential backoff capped at lifetime, since an idle CSPRNG
// source is typically transient and the rotation window must not silently
// stall.
func (s *RotatingSecret) rotate() {
	var fresh [secretSize]byte
	if _, err := rand.Read(fresh[:]); err != nil {
		if s.retry == nil {
			s.retry = backoff.NewExponential(100*time.Millisecond, s.lifetime, 0)
		}
		log.Error("dhttoken: failed to draw rotation secret, retrying", "err", err)
		s.arm(s.retry.NextDuration())
		return
	}
	s.retry = nil
	s.mu.Lock()
	s.previous = s.current
	s.current = fresh
	s.mu.Unlock()
	log.Debug("dhttoken: secret rotated")
	s.arm(s.lifetime)
}

// Lifetime returns the rotation period, so callers never cache issued
// tokens across a rotation boundary.
func (s *RotatingSecret) Lifetime() time.Duration {
	return s.lifetime
}

func (s *RotatingSecret) slots() (current, previous [secretSize]byte) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.previous
}
