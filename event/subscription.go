package event

import "sync"

// NewSubscription runs a producer function as a goroutine to feed a
// subscription. The quit channel is closed when Unsubscribe is called and
// the producer should stop and return. The producer's return value is sent
// to Err.
func NewSubscription(producer func(<-chan struct{}) error) Subscription {
	s := &funcSub{
		quit: make(chan struct{}),
		err:  make(chan error, 1),
	}
	go func() {
		defer close(s.err)
		err := producer(s.quit)
		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.unsubscribed {
			if err != nil {
				s.err <- err
			}
			s.unsubscribed = true
		}
	}()
	return s
}

type funcSub struct {
	mu           sync.Mutex
	unsubscribed bool
	quit         chan struct{}
	err          chan error
}

func (s *funcSub) Unsubscribe() {
	s.mu.Lock()
	if s.unsubscribed {
		s.mu.Unlock()
		return
	}
	s.unsubscribed = true
	close(s.quit)
	s.mu.Unlock()
	<-s.err
}

func (s *funcSub) Err() <-chan error {
	return s.err
}
