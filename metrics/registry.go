package metrics

import (
	"fmt"
	"sync"
)

// Registry holds a named set of metrics. The DefaultRegistry is used
// unless the caller supplies its own.
type Registry interface {
	// Each calls f for every metric currently registered, in no particular
	// order.
	Each(f func(string, interface{}))
	// Get returns the metric registered under name, or nil.
	Get(name string) interface{}
	// GetOrRegister returns the metric registered under name, registering
	// i (or the value returned by calling i, if it is a zero-arg function)
	// if nothing is registered yet.
	GetOrRegister(name string, i interface{}) interface{}
	// Register registers a metric under name; it errors if name is
	// already taken.
	Register(name string, i interface{}) error
	// Unregister removes a metric.
	Unregister(name string)
}

// StandardRegistry is the standard implementation of a Registry: a flat
// map protected by a mutex.
type StandardRegistry struct {
	mu sync.Mutex
	m  map[string]interface{}
}

// NewRegistry constructs a new StandardRegistry.
func NewRegistry() Registry {
	return &StandardRegistry{m: make(map[string]interface{})}
}

func (r *StandardRegistry) Each(f func(string, interface{})) {
	r.mu.Lock()
	snapshot := make(map[string]interface{}, len(r.m))
	for k, v := range r.m {
		snapshot[k] = v
	}
	r.mu.Unlock()
	for name, metric := range snapshot {
		f(name, metric)
	}
}

func (r *StandardRegistry) Get(name string) interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.m[name]
}

func (r *StandardRegistry) GetOrRegister(name string, i interface{}) interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.m[name]; ok {
		return existing
	}
	metric := resolve(i)
	r.m[name] = metric
	return metric
}

func (r *StandardRegistry) Register(name string, i interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.m[name]; ok {
		return fmt.Errorf("metrics: %q already registered", name)
	}
	r.m[name] = resolve(i)
	return nil
}

func (r *StandardRegistry) Unregister(name string) {
	r.mu.Lock()
	metric, ok := r.m[name]
	delete(r.m, name)
	r.mu.Unlock()
	if ok {
		untrackTickable(metric)
	}
}

// resolve calls i if it is a zero-argument constructor function, returning
// its result; otherwise it returns i unchanged. This lets GetOrRegister be
// called with either a ready-made metric or a lazy constructor, avoiding
// the allocation of a throwaway metric on the common path where the name
// is already registered.
func resolve(i interface{}) interface{} {
	switch fn := i.(type) {
	case func() Counter:
		return fn()
	case func() Gauge:
		return fn()
	case func() Meter:
		return fn()
	case func() Timer:
		return fn()
	default:
		return i
	}
}
