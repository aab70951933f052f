package scheduler

import (
	"context"
	"sync"

	apperrors "whisper-api/internal/app/errors"
)

// Queue is a FIFO of pending jobs with a single consumer. A capacity of zero means
// unbounded; otherwise Enqueue rejects with ErrQueueFull once capacity jobs are pending.
type Queue struct {
	mu       sync.Mutex
	items    []*Job
	capacity int
	closed   bool
	notify   chan struct{}
}

// NewQueue creates an empty queue.
func NewQueue(capacity int) *Queue {
	if capacity < 0 {
		capacity = 0
	}
	return &Queue{
		capacity: capacity,
		notify:   make(chan struct{}, 1),
	}
}

// Enqueue appends job without blocking.
func (q *Queue) Enqueue(job *Job) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return apperrors.ErrSchedulerStopped
	}
	if q.capacity > 0 && len(q.items) >= q.capacity {
		q.mu.Unlock()
		return apperrors.ErrQueueFull
	}
	q.items = append(q.items, job)
	q.mu.Unlock()

	q.signal()
	return nil
}

// Dequeue removes and returns the oldest job, blocking until one is available,
// the queue is closed, or ctx is done. A done ctx wins over pending jobs.
func (q *Queue) Dequeue(ctx context.Context) (*Job, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		q.mu.Lock()
		if len(q.items) > 0 {
			job := q.items[0]
			q.items[0] = nil
			q.items = q.items[1:]
			more := len(q.items) > 0
			q.mu.Unlock()
			if more {
				q.signal()
			}
			return job, nil
		}
		if q.closed {
			q.mu.Unlock()
			return nil, apperrors.ErrSchedulerStopped
		}
		q.mu.Unlock()

		select {
		case <-q.notify:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Len returns the number of pending jobs.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close rejects further submissions and hands back every job still pending.
// Subsequent calls return nil.
func (q *Queue) Close() []*Job {
	q.mu.Lock()
	q.closed = true
	pending := q.items
	q.items = nil
	q.mu.Unlock()

	q.signal()
	return pending
}

func (q *Queue) signal() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}
