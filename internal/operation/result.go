package operation

import (
	"context"
	"sync"
)

// Result is a write-once outcome shared by every observer of an operation.
//
// The first resolution wins; later attempts are ignored. Observers that arrive
// after resolution see the same value and error.
type Result[T any] struct {
	mu       sync.Mutex
	done     chan struct{}
	resolved bool
	value    T
	err      error
}

func newResult[T any]() *Result[T] {
	return &Result[T]{done: make(chan struct{})}
}

// resolve stores the outcome if none has been stored yet and reports whether it did.
func (r *Result[T]) resolve(value T, err error) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.resolved {
		return false
	}
	r.resolved = true
	r.value = value
	r.err = err
	close(r.done)
	return true
}

// Done returns a channel closed once the result is resolved.
func (r *Result[T]) Done() <-chan struct{} {
	return r.done
}

// Resolved reports whether the result has been set.
func (r *Result[T]) Resolved() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// Err returns the failure, or nil if the result succeeded or is still pending.
func (r *Result[T]) Err() error {
	if !r.Resolved() {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Wait blocks until the result is resolved or ctx is done.
// A ctx error is returned without affecting the result.
func (r *Result[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-r.done:
		r.mu.Lock()
		defer r.mu.Unlock()
		return r.value, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
