package decode

import (
	"sync"
	"sync/atomic"
)

// Worker is a decode executor owned by a workerpool.Pool.
type Worker struct {
	id      int
	decoded atomic.Int64

	terminated chan struct{}
	closeOnce  sync.Once
}

func NewWorker(id int) (*Worker, error) {
	return &Worker{
		id:         id,
		terminated: make(chan struct{}),
	}, nil
}

func (w *Worker) ID() int {
	return w.id
}

// Decoded is the number of payloads this worker has produced.
func (w *Worker) Decoded() int64 {
	return w.decoded.Load()
}

func (w *Worker) Terminated() <-chan struct{} {
	return w.terminated
}

func (w *Worker) Close() error {
	w.closeOnce.Do(func() {
		close(w.terminated)
	})
	return nil
}
