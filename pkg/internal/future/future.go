// Package future provides a minimal completable future.
package future

import "sync"

// Future completes once with a value of type T and then
// runs all registered callbacks, in registration order.
type Future[T any] struct {
	mu        sync.Mutex
	value     T
	completed bool
	callbacks []func(T)
}

// New returns a new incomplete Future.
func New[T any]() *Future[T] {
	return &Future[T]{}
}

// ThenAccept registers a callback run when the Future completes.
// If the Future already completed, the callback runs immediately.
func (f *Future[T]) ThenAccept(callback func(T)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.completed {
		callback(f.value)
		return
	}
	f.callbacks = append(f.callbacks, callback)
}

// Complete completes the Future with value.
// Calls after the first are no-ops.
func (f *Future[T]) Complete(value T) *Future[T] {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.completed {
		return f
	}
	f.value = value
	f.completed = true
	for _, fn := range f.callbacks {
		fn(value)
	}
	return f
}
