package dataset

import (
	"context"
	"sync"
)

// Future holds the outcome of one asynchronous load. It completes exactly
// once; every waiter observes the same result.
type Future struct {
	done chan struct{}
	once sync.Once
	ds   *Dataset
	err  error
}

// Go runs fn in its own goroutine and returns the Future for its result.
func Go(ctx context.Context, fn func(context.Context) (*Dataset, error)) *Future {
	f := &Future{done: make(chan struct{})}
	go func() {
		ds, err := fn(ctx)
		f.complete(ds, err)
	}()
	return f
}

func (f *Future) complete(ds *Dataset, err error) {
	f.once.Do(func() {
		f.ds, f.err = ds, err
		close(f.done)
	})
}

// Done is closed once the load has finished.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the load finishes or ctx ends.
func (f *Future) Wait(ctx context.Context) (*Dataset, error) {
	select {
	case <-f.done:
		return f.ds, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Result reports the outcome without blocking; done is false while the load
// is still pending.
func (f *Future) Result() (ds *Dataset, done bool, err error) {
	select {
	case <-f.done:
		return f.ds, true, f.err
	default:
		return nil, false, nil
	}
}
