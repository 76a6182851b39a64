// Package queue holds faces waiting for the operator to enroll them.
//
// Capture produces requests without blocking; a single enrollment worker
// consumes them in order, one form at a time.
package queue

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/okian/kiosk/internal/domain/model"
	"github.com/okian/kiosk/pkg/metrics"
)

const defaultQueueCapacity = 32

// Request is the payload flowing through the queue.
type Request = model.EnrollmentRequest

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a request or returns ErrQueueFull, ErrQueueClosed or the
	// context error. It never blocks.
	Enqueue(ctx context.Context, r Request) error

	// Dequeue returns a channel receiving requests in FIFO order.
	// It is closed when the queue is closed and drained, or ctx ends.
	Dequeue(ctx context.Context) <-chan Request

	// Len returns the number of requests not yet handed to a consumer.
	Len(ctx context.Context) int

	// Close stops accepting requests.
	Close() error

	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	requests chan Request
	capacity int

	// waiting counts requests in the buffer plus the one a Dequeue
	// goroutine may hold while its consumer is busy.
	waiting atomic.Int64

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.requests = make(chan Request, q.capacity)
	metrics.UpdateEnrollmentQueueSize(0)
	return q
}

// Enqueue adds a request to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, r Request) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordErrorByComponent("queue", "closed")
		return ErrQueueClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return err
	}

	select {
	case q.requests <- r:
		metrics.UpdateEnrollmentQueueSize(int(q.waiting.Add(1)))
		return nil
	default:
		metrics.RecordErrorByComponent("queue", "queue_full")
		return ErrQueueFull
	}
}

// Dequeue returns a channel that will receive requests as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Request {
	out := make(chan Request)
	go func() {
		defer close(out)
		for {
			select {
			case r, ok := <-q.requests:
				if !ok {
					return
				}
				select {
				case out <- r:
					metrics.UpdateEnrollmentQueueSize(int(q.waiting.Add(-1)))
				case <-ctx.Done():
					// r is lost with the consumer
					metrics.UpdateEnrollmentQueueSize(int(q.waiting.Add(-1)))
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the number of requests still waiting for a consumer.
func (q *InMemoryQueue) Len(_ context.Context) int {
	return int(q.waiting.Load())
}

// Close stops the queue. Requests already queued can still be drained.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.requests)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
