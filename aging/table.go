// Package aging implements a generic TTL map: entries expire after a fixed
// lifetime, reclaimed by a periodic collector rather than on every lookup.
// ban.Engine's per-address records, and any other throttle that needs
// "forget this key after N seconds of silence", are built on one Table each.
package aging

import (
	"sync"
	"time"

	"github.com/gtknet/ward/common"
	"github.com/gtknet/ward/common/mclock"
	"github.com/gtknet/ward/log"
	"github.com/gtknet/ward/metrics"
)

// entry is one slot of the table: present in both the index (by key) and a
// doubly linked list ordered by last_insert, oldest at the head. The list
// gives the periodic GC a linear walk instead of a full index scan.
type entry[K comparable, V any] struct {
	key        K
	value      V
	lastInsert mclock.AbsTime
	prev, next *entry[K, V]
}

// Table is a generic map[K]V whose entries are dropped once they have gone
// untouched for longer than ttl. Insert and TouchGet move an entry to the
// tail of the insertion-order list; GC ages the table by walking from the
// head, which is therefore always the oldest surviving entry, and removes
// expired entries without moving any other.
type Table[K comparable, V any] struct {
	mu   sync.Mutex
	safe bool

	name string
	ttl  time.Duration
	tick time.Duration

	clock mclock.Clock
	timer mclock.Timer

	index      *common.ShrinkingMap[K, *entry[K, V]]
	head, tail *entry[K, V]

	kvDrop func(K, V)

	evictions metrics.Counter
	size      metrics.Gauge
}

// New constructs a Table with the given name (used only for metrics and
// log lines), ttl and GC tick. When threadSafe is true every public
// operation, including the GC sweep, acquires the table's lock; callers
// that never share a Table across goroutines can pass false to skip the
// locking overhead. kvDrop, if non-nil, is invoked for every key/value the
// table ever releases, whether by GC, explicit Remove or Close.
func New[K comparable, V any](name string, ttl, tick time.Duration, clock mclock.Clock, threadSafe bool, kvDrop func(K, V)) *Table[K, V] {
	t := &Table[K, V]{
		safe:      threadSafe,
		name:      name,
		ttl:       ttl,
		tick:      tick,
		clock:     clock,
		index:     common.NewShrinkingMap[K, *entry[K, V]](4096),
		kvDrop:    kvDrop,
		evictions: metrics.GetOrRegisterCounter("aging/"+name+"/gc_evictions", nil),
		size:      metrics.GetOrRegisterGauge("aging/"+name+"/size", nil),
	}
	t.armGC()
	return t
}

func (t *Table[K, V]) lock() {
	if t.safe {
		t.mu.Lock()
	}
}

func (t *Table[K, V]) unlock() {
	if t.safe {
		t.mu.Unlock()
	}
}

// Insert records v under k, moving the entry to the tail and refreshing its
// last_insert time. An existing value under k is replaced and dropped
// through kvDrop if configured.
func (t *Table[K, V]) Insert(k K, v V) {
	t.lock()
	defer t.unlock()
	t.insertLocked(k, v)
}

func (t *Table[K, V]) insertLocked(k K, v V) {
	now := t.clock.Now()
	if e, ok := t.index.Get(k); ok {
		if t.kvDrop != nil {
			t.kvDrop(e.key, e.value)
		}
		e.value = v
		t.unlinkLocked(e)
		e.lastInsert = now
		t.appendTailLocked(e)
		return
	}
	e := &entry[K, V]{key: k, value: v, lastInsert: now}
	t.index.Set(k, e)
	t.appendTailLocked(e)
	t.size.Update(int64(t.index.Size()))
}

// Get returns the value stored under k without refreshing its age.
func (t *Table[K, V]) Get(k K) (V, bool) {
	t.lock()
	defer t.unlock()
	if e, ok := t.index.Get(k); ok {
		return e.value, true
	}
	var zero V
	return zero, false
}

// TouchGet returns the value stored under k and refreshes its age, moving
// it to the tail as if it had just been inserted.
func (t *Table[K, V]) TouchGet(k K) (V, bool) {
	t.lock()
	defer t.unlock()
	e, ok := t.index.Get(k)
	if !ok {
		var zero V
		return zero, false
	}
	t.unlinkLocked(e)
	e.lastInsert = t.clock.Now()
	t.appendTailLocked(e)
	return e.value, true
}

// Age returns how long ago k was last inserted or touched.
func (t *Table[K, V]) Age(k K) (time.Duration, bool) {
	t.lock()
	defer t.unlock()
	e, ok := t.index.Get(k)
	if !ok {
		return 0, false
	}
	return t.clock.Now().Sub(e.lastInsert), true
}

// Remove deletes k, returning whether it was present. If kvDrop is
// configured it is invoked with the removed key and value.
func (t *Table[K, V]) Remove(k K) bool {
	t.lock()
	defer t.unlock()
	e, ok := t.index.Get(k)
	if !ok {
		return false
	}
	t.removeEntryLocked(e)
	return true
}

// Len returns the number of entries currently resident.
func (t *Table[K, V]) Len() int {
	t.lock()
	defer t.unlock()
	return t.index.Size()
}

// Close cancels the GC timer and drops every resident entry through
// kvDrop, in list order.
func (t *Table[K, V]) Close() {
	t.lock()
	defer t.unlock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	for e := t.head; e != nil; {
		next := e.next
		if t.kvDrop != nil {
			t.kvDrop(e.key, e.value)
		}
		e = next
	}
	t.head, t.tail = nil, nil
	t.index = common.NewShrinkingMap[K, *entry[K, V]](4096)
	t.size.Update(0)
}

func (t *Table[K, V]) removeEntryLocked(e *entry[K, V]) {
	t.unlinkLocked(e)
	t.index.Delete(e.key)
	if t.kvDrop != nil {
		t.kvDrop(e.key, e.value)
	}
	t.size.Update(int64(t.index.Size()))
}

func (t *Table[K, V]) unlinkLocked(e *entry[K, V]) {
	if e.prev != nil {
		e.prev.next = e.next
	} else if t.head == e {
		t.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else if t.tail == e {
		t.tail = e.prev
	}
	e.prev, e.next = nil, nil
}

func (t *Table[K, V]) appendTailLocked(e *entry[K, V]) {
	if t.tail == nil {
		t.head, t.tail = e, e
		return
	}
	e.prev = t.tail
	t.tail.next = e
	t.tail = e
}

func (t *Table[K, V]) armGC() {
	t.timer = t.clock.AfterFunc(t.tick, t.gcSweep)
}

// gcSweep walks from the head, the oldest surviving entry, evicting while
// the head has gone untouched for longer than ttl. Because the list is
// tail-insertion ordered, the walk terminates at the first survivor.
func (t *Table[K, V]) gcSweep() {
	t.lock()
	now := t.clock.Now()
	n := 0
	for t.head != nil && now.Sub(t.head.lastInsert) > t.ttl {
		e := t.head
		t.removeEntryLocked(e)
		n++
	}
	if t.timer != nil {
		t.timer = t.clock.AfterFunc(t.tick, t.gcSweep)
	}
	t.unlock()
	if n > 0 {
		t.evictions.Inc(int64(n))
		log.Trace("aging GC sweep", "table", t.name, "evicted", n)
	}
}
