// Package metrics provides rcrowley/go-metrics-shaped counters, gauges, and
// meters so ward's core packages can report what the abuse-control layer is
// doing — bans issued, tokens verified/rejected, aging-table size and
// evictions —
// without depending on any particular collection backend. A Registry just
// holds named metrics; wiring them to Prometheus, StatsD, or a log line is
// left to the embedding application.
package metrics

import "sync"

// DefaultRegistry is the registry used by the package-level Register,
// Unregister and GetOrRegisterX helpers.
var DefaultRegistry Registry = NewRegistry()

// Register adds a metric to the DefaultRegistry under name.
func Register(name string, metric interface{}) error {
	return DefaultRegistry.Register(name, metric)
}

// Unregister removes a metric from the DefaultRegistry.
func Unregister(name string) {
	DefaultRegistry.Unregister(name)
}

var arbiter = struct {
	mu     sync.Mutex
	meters map[tickable]struct{}
}{meters: make(map[tickable]struct{})}

// tickable is implemented by meters and timers. Nothing calls tick; the
// arbiter only tracks how many are live so tooling can report on it, and
// Registry.Unregister keeps the bookkeeping accurate.
type tickable interface {
	tick()
}

func trackTickable(m interface{}) {
	if t, ok := m.(tickable); ok {
		arbiter.mu.Lock()
		arbiter.meters[t] = struct{}{}
		arbiter.mu.Unlock()
	}
}

func untrackTickable(m interface{}) {
	if t, ok := m.(tickable); ok {
		arbiter.mu.Lock()
		delete(arbiter.meters, t)
		arbiter.mu.Unlock()
	}
}
