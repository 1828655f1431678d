// ABOUTME: Observable state container with subscribe/update semantics.
// ABOUTME: Owned by the composition root and injected into consumers; no global state.
package observe

import "sync"

// Value holds a piece of state and notifies subscribers on every change.
// Safe for concurrent use. Subscribers are invoked synchronously, outside
// the container's lock, and immediately once on subscribe with the current
// value.
type Value[T any] struct {
	mu   sync.Mutex
	v    T
	subs map[int]func(T)
	next int
}

// New creates a container with an initial value.
func New[T any](initial T) *Value[T] {
	return &Value[T]{v: initial, subs: make(map[int]func(T))}
}

// Get returns the current value.
func (o *Value[T]) Get() T {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.v
}

// Set replaces the value and notifies subscribers.
func (o *Value[T]) Set(v T) {
	o.mu.Lock()
	o.v = v
	subs := o.snapshot()
	o.mu.Unlock()
	for _, fn := range subs {
		fn(v)
	}
}

// Update applies fn to the current value and notifies subscribers.
func (o *Value[T]) Update(fn func(T) T) {
	o.mu.Lock()
	o.v = fn(o.v)
	v := o.v
	subs := o.snapshot()
	o.mu.Unlock()
	for _, s := range subs {
		s(v)
	}
}

// Subscribe registers fn for change notifications and invokes it once with
// the current value. The returned function unsubscribes.
func (o *Value[T]) Subscribe(fn func(T)) func() {
	o.mu.Lock()
	id := o.next
	o.next++
	o.subs[id] = fn
	v := o.v
	o.mu.Unlock()

	fn(v)

	return func() {
		o.mu.Lock()
		delete(o.subs, id)
		o.mu.Unlock()
	}
}

// snapshot copies the subscriber list; callers must hold the lock.
func (o *Value[T]) snapshot() []func(T) {
	subs := make([]func(T), 0, len(o.subs))
	for _, fn := range o.subs {
		subs = append(subs, fn)
	}
	return subs
}
