package async

import (
	"context"
	"sync"
)

// Promise is a value that is settled exactly once, from any goroutine,
// and awaited from any number of others.
type Promise[T any] struct {
	val  T
	err  error
	once sync.Once
	done chan struct{}
}

// NewPromise creates an unsettled promise.
func NewPromise[T any]() *Promise[T] {
	return &Promise[T]{done: make(chan struct{})}
}

// Complete settles the promise with a value.
// Returns false if the promise was already settled.
func (p *Promise[T]) Complete(v T) bool {
	return p.settle(v, nil)
}

// Fail settles the promise with an error.
// Returns false if the promise was already settled.
func (p *Promise[T]) Fail(err error) bool {
	var zero T
	return p.settle(zero, err)
}

func (p *Promise[T]) settle(v T, err error) bool {
	settled := false
	p.once.Do(func() {
		p.val, p.err = v, err
		close(p.done)
		settled = true
	})
	return settled
}

// Await blocks until the promise is settled or ctx is done.
func (p *Promise[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-p.done:
		return p.val, p.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done returns a channel closed once the promise is settled.
func (p *Promise[T]) Done() <-chan struct{} {
	return p.done
}
