package toncenter

import (
	"context"
)

// Future is the pending result of a single asynchronous call. It resolves
// exactly once, either with a value or with an error.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Go runs fn on its own goroutine and returns a handle to its result.
// Cancelling ctx is visible to fn; it does not resolve the future by itself.
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.value, f.err = fn(ctx)
	}()
	return f
}

// Done is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the future resolves or ctx is done. Giving up on the wait
// does not cancel the underlying call; cancel the context passed to Go for that.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Get waits without a deadline.
func (f *Future[T]) Get() (T, error) {
	<-f.done
	return f.value, f.err
}
