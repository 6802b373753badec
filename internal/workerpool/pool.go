// Package workerpool runs tasks on a fixed set of reusable workers.
//
// A Pool never queues: Submit blocks until one of its workers is free, claims
// it and starts the task. Each worker runs at most one task at a time and goes
// back to the free set once the task settles, whether it succeeded, failed or
// panicked. Workers that report termination are never handed out again and
// fail the task they were running. Once every worker has terminated, Submit
// fails with ErrNoWorkers.
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
)

var (
	ErrPoolClosed       = errors.New("workerpool: pool closed")
	ErrWorkerTerminated = errors.New("workerpool: worker terminated")
	ErrTaskPanicked     = errors.New("workerpool: task panicked")
	ErrNoWorkers        = errors.New("workerpool: every worker terminated")
)

// Worker is an executor owned by a Pool. Terminated is closed once the worker
// can no longer run tasks.
type Worker interface {
	Terminated() <-chan struct{}
}

type Pool[W Worker] struct {
	workers []W
	free    chan W

	closed    chan struct{}
	closeOnce sync.Once

	// live counts workers not yet seen terminated; exhausted closes when it
	// reaches zero.
	live      atomic.Int64
	exhausted chan struct{}

	busy atomic.Int64
}

// New builds workerCount workers with factory. If the factory fails, the
// workers built so far are closed and the error is returned.
func New[W Worker](workerCount int, factory func(id int) (W, error)) (*Pool[W], error) {
	if workerCount <= 0 {
		return nil, fmt.Errorf("workerpool: worker count must be positive, got %d", workerCount)
	}

	p := &Pool[W]{
		workers:   make([]W, 0, workerCount),
		free:      make(chan W, workerCount),
		closed:    make(chan struct{}),
		exhausted: make(chan struct{}),
	}

	for i := range workerCount {
		w, err := factory(i)
		if err != nil {
			p.closeWorkers()
			return nil, fmt.Errorf("workerpool: create worker %d: %w", i, err)
		}
		p.workers = append(p.workers, w)
		p.free <- w
	}
	p.live.Store(int64(workerCount))

	return p, nil
}

// Size is the number of workers the pool was built with.
func (p *Pool[W]) Size() int {
	return len(p.workers)
}

// Live is the number of workers not yet seen terminated.
func (p *Pool[W]) Live() int {
	return int(p.live.Load())
}

// Busy is the number of workers currently running a task.
func (p *Pool[W]) Busy() int {
	return int(p.busy.Load())
}

// Close stops handing out workers and closes every worker implementing
// io.Closer. Tasks running on a closed worker fail with ErrWorkerTerminated.
func (p *Pool[W]) Close() {
	p.closeOnce.Do(func() {
		close(p.closed)
		p.closeWorkers()
	})
}

func (p *Pool[W]) closeWorkers() {
	for _, w := range p.workers {
		if c, ok := any(w).(io.Closer); ok {
			_ = c.Close()
		}
	}
}

// acquire waits for the first free worker that is still alive.
func (p *Pool[W]) acquire(ctx context.Context) (W, error) {
	var zero W
	for {
		if err := p.unavailable(); err != nil {
			return zero, err
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-p.closed:
		case <-p.exhausted:
		case w := <-p.free:
			select {
			case <-w.Terminated():
				// dead workers leave the free set for good
				p.lose()
			default:
				return w, nil
			}
		}
	}
}

// unavailable reports why no worker can be handed out any more. A closed
// pool takes precedence over one whose workers all terminated.
func (p *Pool[W]) unavailable() error {
	select {
	case <-p.closed:
		return ErrPoolClosed
	default:
	}
	select {
	case <-p.exhausted:
		return ErrNoWorkers
	default:
	}
	return nil
}

func (p *Pool[W]) release(w W) {
	select {
	case <-w.Terminated():
		p.lose()
		return
	default:
	}
	p.free <- w
}

// lose records that a worker terminated. Each worker is lost at most once:
// it is either in the free set or held by a single task when it is dropped.
func (p *Pool[W]) lose() {
	if p.live.Add(-1) == 0 {
		close(p.exhausted)
	}
}

// Submit waits for a free worker, claims it and runs task on it. It returns
// once the task has started; the result arrives through the Future.
//
// The task's context carries ctx's values but is never cancelled: a task that
// has started always runs to completion and its caller decides whether the
// result is still wanted.
func Submit[W Worker, R any](ctx context.Context, p *Pool[W], task func(context.Context, W) (R, error)) (*Future[R], error) {
	w, err := p.acquire(ctx)
	if err != nil {
		return nil, err
	}

	f := newFuture[R]()
	taskCtx := context.WithoutCancel(ctx)
	p.busy.Add(1)

	go func() {
		settled := make(chan outcome[R], 1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					settled <- outcome[R]{err: fmt.Errorf("%w: %v", ErrTaskPanicked, r)}
				}
			}()
			v, err := task(taskCtx, w)
			settled <- outcome[R]{val: v, err: err}
		}()

		o, ok := await(settled, w.Terminated())
		p.busy.Add(-1)
		if !ok {
			p.lose()
			var zero R
			f.resolve(zero, ErrWorkerTerminated)
			return
		}
		p.release(w)
		f.resolve(o.val, o.err)
	}()

	return f, nil
}

// await waits for the task outcome or the worker's termination. An outcome
// that is already available wins over termination.
func await[R any](settled <-chan outcome[R], terminated <-chan struct{}) (outcome[R], bool) {
	select {
	case o := <-settled:
		return o, true
	case <-terminated:
		select {
		case o := <-settled:
			return o, true
		default:
			return outcome[R]{}, false
		}
	}
}
