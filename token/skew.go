package token

import (
	"sync"
	"time"
)

// skewEstimator tracks a smoothed estimate of the remote clock's drift
// against ours, fed by every stamp TokenVerify observes (the clock_update
// collaborator callback from spec §6, folded in directly rather than left
// as a caller-supplied hook, since verify is the only place it is fed).
type skewEstimator struct {
	mu      sync.Mutex
	meanSec float64
	seen    bool
}

const skewSmoothing = 0.1

func (s *skewEstimator) update(stamp, now time.Time) {
	drift := stamp.Sub(now).Seconds()
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.seen {
		s.meanSec = drift
		s.seen = true
		return
	}
	s.meanSec = s.meanSec*(1-skewSmoothing) + drift*skewSmoothing
}

// Estimate returns the current smoothed skew estimate.
func (s *skewEstimator) Estimate() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Duration(s.meanSec * float64(time.Second))
}
