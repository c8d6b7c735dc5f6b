// Package event implements the one-to-many pub/sub primitive ward's core
// packages use to notify observers of state transitions without coupling
// them to a concrete listener: ban.Engine publishes ban.Event on every ban,
// unban and force-ban (Record), and a supervising process subscribes to
// drive metrics or external alerting off of it.
package event

import (
	"context"
	"errors"
	"sync"
)

// Subscription represents a stream of events. The carrier of the events is
// typically a channel, but isn't part of the interface.
//
// Subscriptions can fail while establishing or delivering events. The
// failure is signaled through an error channel. It is closed when the
// subscription has ended and there is not necessarily an error.
type Subscription interface {
	Err() <-chan error // returns the error channel
	Unsubscribe()       // cancels sending of events, closing the error channel
}

// FeedOf implements one-to-many subscriptions where the carrier of events is
// a channel. Values sent to a FeedOf are delivered to all subscribed
// channels simultaneously.
//
// The zero value is ready to use.
type FeedOf[T any] struct {
	mu   sync.Mutex
	subs map[*feedOfSub[T]]struct{}
}

type feedOfSub[T any] struct {
	feed *FeedOf[T]
	ch   chan<- T
	err  chan error
	once sync.Once
}

// Subscribe adds a channel to the feed. Future sends will be delivered on
// the channel until the subscription is canceled. All channels added must
// have the same element type.
//
// The channel should have ample buffer space to avoid blocking other
// subscribers. Slow subscribers are not dropped.
func (f *FeedOf[T]) Subscribe(channel chan<- T) Subscription {
	sub := &feedOfSub[T]{feed: f, ch: channel, err: make(chan error, 1)}
	f.mu.Lock()
	if f.subs == nil {
		f.subs = make(map[*feedOfSub[T]]struct{})
	}
	f.subs[sub] = struct{}{}
	f.mu.Unlock()
	return sub
}

func (s *feedOfSub[T]) Unsubscribe() {
	s.once.Do(func() {
		s.feed.mu.Lock()
		delete(s.feed.subs, s)
		s.feed.mu.Unlock()
		close(s.err)
	})
}

func (s *feedOfSub[T]) Err() <-chan error {
	return s.err
}

// Send delivers value to all subscribed channels. It returns the number of
// subscribers that the value was sent to.
func (f *FeedOf[T]) Send(value T) (nsent int) {
	nsent, _ = f.SendWithCtx(context.Background(), false, value)
	return nsent
}

// errDropped is a sentinel used internally to mark a subscriber that was
// dropped rather than served; it never escapes SendWithCtx.
var errDropped = errors.New("event: subscriber dropped")

// SendWithCtx delivers value to all subscribed channels. If
// dropOnCancel is true, subscribers still pending when ctx is done are
// skipped entirely (their channel is left empty for this Send); otherwise
// the send to them still completes after ctx fires. It returns the number
// of subscribers sent to and the number dropped.
func (f *FeedOf[T]) SendWithCtx(ctx context.Context, dropOnCancel bool, value T) (nsent, ndropped int) {
	f.mu.Lock()
	subs := make([]*feedOfSub[T], 0, len(f.subs))
	for s := range f.subs {
		subs = append(subs, s)
	}
	f.mu.Unlock()
	if len(subs) == 0 {
		return 0, 0
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results = make(map[*feedOfSub[T]]error, len(subs))
	)
	wg.Add(len(subs))
	for _, s := range subs {
		go func(s *feedOfSub[T]) {
			defer wg.Done()
			err := deliverOne(ctx, dropOnCancel, s, value)
			mu.Lock()
			results[s] = err
			mu.Unlock()
		}(s)
	}
	wg.Wait()

	for _, err := range results {
		if err == nil {
			nsent++
		} else {
			ndropped++
		}
	}
	return nsent, ndropped
}

func deliverOne[T any](ctx context.Context, dropOnCancel bool, s *feedOfSub[T], value T) error {
	select {
	case s.ch <- value:
		return nil
	case <-s.err:
		return errDropped
	case <-ctx.Done():
		if dropOnCancel {
			return errDropped
		}
	}
	select {
	case s.ch <- value:
		return nil
	case <-s.err:
		return errDropped
	}
}
