package queue

import "context"

// StopID is the poison value a producer enqueues to request a clean stop of
// a serial consumer. It is never a valid job id.
const StopID int64 = -1

// Queue carries pending job ids from the enqueue path to the worker, FIFO.
type Queue interface {
	Enqueue(ctx context.Context, jobID int64) error
	// Dequeue blocks until an id is available or ctx is done.
	Dequeue(ctx context.Context) (int64, error)
}

// MemoryQueue is an in-process FIFO backed by a buffered channel.
type MemoryQueue struct {
	ch chan int64
}

func NewMemoryQueue(size int) *MemoryQueue {
	if size <= 0 {
		size = 128
	}
	return &MemoryQueue{ch: make(chan int64, size)}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, jobID int64) error {
	select {
	case q.ch <- jobID:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *MemoryQueue) Dequeue(ctx context.Context) (int64, error) {
	select {
	case id := <-q.ch:
		return id, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}
