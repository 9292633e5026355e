// Package memory provides the bounded in-process delivery queue.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/webanalyzer/webanalyzer/internal/analyzer"
)

// ErrClosed is returned by Dequeue after Close once the queue drains.
var ErrClosed = errors.New("queue closed")

// ErrQueueFull is returned by Enqueue when no capacity is left. Callers
// surface it as backpressure instead of waiting for a worker.
var ErrQueueFull = errors.New("queue full")

// Queue is a bounded in-memory task queue with context-aware operations.
type Queue struct {
	ch      chan analyzer.DeliveryTask
	closeMu sync.Mutex
	closed  bool
}

var _ analyzer.Queue = (*Queue)(nil)

// NewQueue constructs a queue with the provided capacity.
func NewQueue(capacity int) *Queue {
	return &Queue{
		ch: make(chan analyzer.DeliveryTask, capacity),
	}
}

// Enqueue pushes a task without blocking. A full queue returns ErrQueueFull
// immediately so submission never waits on delivery throughput.
func (q *Queue) Enqueue(ctx context.Context, task analyzer.DeliveryTask) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("enqueue canceled: %w", err)
	}
	select {
	case q.ch <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// Dequeue pops the next task, respecting context cancellation.
func (q *Queue) Dequeue(ctx context.Context) (analyzer.DeliveryTask, error) {
	select {
	case <-ctx.Done():
		return analyzer.DeliveryTask{}, fmt.Errorf("dequeue canceled: %w", ctx.Err())
	case task, ok := <-q.ch:
		if !ok {
			return analyzer.DeliveryTask{}, ErrClosed
		}
		return task, nil
	}
}

// Close closes the underlying channel for shutdown. Queued tasks remain
// dequeueable until drained.
func (q *Queue) Close() {
	q.closeMu.Lock()
	defer q.closeMu.Unlock()
	if q.closed {
		return
	}
	close(q.ch)
	q.closed = true
}
