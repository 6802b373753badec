package workerpool

import "context"

type outcome[R any] struct {
	val R
	err error
}

// Future is the pending result of a submitted task.
type Future[R any] struct {
	done chan struct{}
	val  R
	err  error
}

func newFuture[R any]() *Future[R] {
	return &Future[R]{done: make(chan struct{})}
}

func (f *Future[R]) resolve(v R, err error) {
	f.val = v
	f.err = err
	close(f.done)
}

// Done is closed once the task has settled.
func (f *Future[R]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the task settles or ctx is done. Giving up on a future
// does not stop the task.
func (f *Future[R]) Wait(ctx context.Context) (R, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero R
		return zero, ctx.Err()
	}
}
