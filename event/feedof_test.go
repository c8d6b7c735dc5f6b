package event

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestFeedOf(t *testing.T) {
	var feed FeedOf[int]
	var done, subscribed sync.WaitGroup
	subscriber := func(i int) {
		defer done.Done()

		subchan := make(chan int)
		sub := feed.Subscribe(subchan)
		timeout := time.NewTimer(2 * time.Second)
		defer timeout.Stop()
		subscribed.Done()

		select {
		case v := <-subchan:
			if v != 1 {
				t.Errorf("%d: received value %d, want 1", i, v)
			}
		case <-timeout.C:
			t.Errorf("%d: receive timeout", i)
		}

		sub.Unsubscribe()
		select {
		case _, ok := <-sub.Err():
			if ok {
				t.Errorf("%d: error channel not closed after unsubscribe", i)
			}
		case <-timeout.C:
			t.Errorf("%d: unsubscribe timeout", i)
		}
	}

	const n = 1000
	done.Add(n)
	subscribed.Add(n)
	for i := 0; i < n; i++ {
		go subscriber(i)
	}
	subscribed.Wait()
	if nsent := feed.Send(1); nsent != n {
		t.Errorf("first send delivered %d times, want %d", nsent, n)
	}
	if nsent := feed.Send(2); nsent != 0 {
		t.Errorf("second send delivered %d times, want 0", nsent)
	}
	done.Wait()
}

func TestFeedOfSubscribeSameChannel(t *testing.T) {
	var (
		feed FeedOf[int]
		done sync.WaitGroup
		ch   = make(chan int)
		sub1 = feed.Subscribe(ch)
		sub2 = feed.Subscribe(ch)
		_    = feed.Subscribe(ch)
	)
	expectSends := func(value, n int) {
		if nsent := feed.Send(value); nsent != n {
			t.Errorf("send delivered %d times, want %d", nsent, n)
		}
		done.Done()
	}
	expectRecv := func(wantValue, n int) {
		for i := 0; i < n; i++ {
			if v := <-ch; v != wantValue {
				t.Errorf("received %d, want %d", v, wantValue)
			}
		}
	}

	done.Add(1)
	go expectSends(1, 3)
	expectRecv(1, 3)
	done.Wait()

	sub1.Unsubscribe()

	done.Add(1)
	go expectSends(2, 2)
	expectRecv(2, 2)
	done.Wait()

	sub2.Unsubscribe()

	done.Add(1)
	go expectSends(3, 1)
	expectRecv(3, 1)
	done.Wait()
}

// TestFeedOfUnsubscribeSentChan checks that unsubscribing a channel during
// Send works even if that channel has already been sent on.
func TestFeedOfUnsubscribeSentChan(t *testing.T) {
	var (
		feed FeedOf[int]
		ch1  = make(chan int)
		ch2  = make(chan int)
		sub1 = feed.Subscribe(ch1)
		sub2 = feed.Subscribe(ch2)
		wg   sync.WaitGroup
	)
	defer sub2.Unsubscribe()

	wg.Add(1)
	go func() {
		feed.Send(0)
		wg.Done()
	}()

	<-ch1
	sub1.Unsubscribe()

	<-ch2
	wg.Wait()

	wg.Add(1)
	go func() {
		feed.Send(0)
		wg.Done()
	}()
	<-ch2
	wg.Wait()
}

// TestFeedOfSendWithCtxNoCancel checks that SendWithCtx with a context that
// never fires behaves just like Send.
func TestFeedOfSendWithCtxNoCancel(t *testing.T) {
	var (
		feed FeedOf[int]
		ch1  = make(chan int, 1)
		ch2  = make(chan int, 1)
	)
	feed.Subscribe(ch1)
	feed.Subscribe(ch2)

	nsent, ndropped := feed.SendWithCtx(context.Background(), false, 7)
	if nsent != 2 || ndropped != 0 {
		t.Fatalf("got nsent=%d ndropped=%d, want 2/0", nsent, ndropped)
	}
	if v := <-ch1; v != 7 {
		t.Errorf("ch1 received %d, want 7", v)
	}
	if v := <-ch2; v != 7 {
		t.Errorf("ch2 received %d, want 7", v)
	}
}

func BenchmarkFeedOfSend1000(b *testing.B) {
	var (
		done  sync.WaitGroup
		feed  FeedOf[int]
		nsubs = 1000
	)
	subscriber := func(ch <-chan int) {
		for i := 0; i < b.N; i++ {
			<-ch
		}
		done.Done()
	}
	done.Add(nsubs)
	for i := 0; i < nsubs; i++ {
		ch := make(chan int, 200)
		feed.Subscribe(ch)
		go subscriber(ch)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if feed.Send(i) != nsubs {
			panic("wrong number of sends")
		}
	}

	b.StopTimer()
	done.Wait()
}
