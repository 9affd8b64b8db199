package future

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTimeout is returned by AwaitWithTimeout when the deadline elapses
// before the future settles.
var ErrTimeout = errors.New("future: timed out waiting for result")

// Future represents the result of an asynchronous computation that
// produces a value of type T or an error.
type Future[T any] struct {
	val  T
	err  error
	once sync.Once
	done chan struct{}
}

// Exec runs fn in a new goroutine and returns a Future that settles with
// its result. If ctx is already done, fn is never called.
func Exec[T any](ctx context.Context, fn func(context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}

	go func() {
		defer close(f.done)

		select {
		case <-ctx.Done():
			f.once.Do(func() { f.err = ctx.Err() })
			return
		default:
		}

		val, err := fn(ctx)
		f.once.Do(func() {
			f.val = val
			f.err = err
		})
	}()

	return f
}

// Resolved returns a Future that has already settled with val and err.
func Resolved[T any](val T, err error) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	f.val, f.err = val, err
	close(f.done)
	return f
}

// Await blocks until the future settles and returns its result.
func (f *Future[T]) Await() (T, error) {
	<-f.done
	return f.val, f.err
}

// AwaitContext blocks until the future settles or ctx is cancelled,
// whichever comes first.
func (f *Future[T]) AwaitContext(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// AwaitWithTimeout blocks until the future settles or timeout elapses.
func (f *Future[T]) AwaitWithTimeout(timeout time.Duration) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-time.After(timeout):
		var zero T
		return zero, ErrTimeout
	}
}

// IsComplete reports whether the future has settled, without blocking.
func (f *Future[T]) IsComplete() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Done returns a channel closed once the future settles, for use in select
// statements alongside other events.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Then chains a continuation onto f, returning a new Future that settles
// once both f and the continuation have completed.
func Then[T, U any](f *Future[T], fn func(context.Context, T, error) (U, error)) *Future[U] {
	return Exec(context.Background(), func(ctx context.Context) (U, error) {
		val, err := f.Await()
		return fn(ctx, val, err)
	})
}
