package queue

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/okian/kiosk/internal/domain/model"
)

func request(id string) Request {
	return model.EnrollmentRequest{ID: id, RequestedAt: time.Now()}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	if err := q.Enqueue(ctx, request("r1")); err != nil {
		t.Errorf("expected enqueue to succeed, got %v", err)
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	r := <-q.Dequeue(ctx)
	if r.ID != "r1" {
		t.Errorf("expected r1, got %v", r.ID)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if q.Enqueue(ctx, request("r1")) != nil || q.Enqueue(ctx, request("r2")) != nil {
		t.Fatal("expected enqueue to succeed")
	}
	if err := q.Enqueue(ctx, request("r3")); !errors.Is(err, ErrQueueFull) {
		t.Errorf("expected ErrQueueFull, got %v", err)
	}
	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_FIFO(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for i := 0; i < 5; i++ {
		if err := q.Enqueue(ctx, request(fmt.Sprintf("r%d", i))); err != nil {
			t.Fatalf("enqueue %d failed: %v", i, err)
		}
	}
	_ = q.Close()

	i := 0
	for r := range q.Dequeue(ctx) {
		if want := fmt.Sprintf("r%d", i); r.ID != want {
			t.Errorf("position %d: expected %s, got %s", i, want, r.ID)
		}
		i++
	}
	if i != 5 {
		t.Errorf("expected 5 requests drained after close, got %d", i)
	}
}

func TestInMemoryQueue_GracefulShutdown(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()

	if q.IsClosed() {
		t.Error("expected queue to be open initially")
	}
	if err := q.Close(); err != nil {
		t.Errorf("expected close to succeed, got error: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed after Close()")
	}
	if err := q.Enqueue(ctx, request("late")); !errors.Is(err, ErrQueueClosed) {
		t.Errorf("expected ErrQueueClosed, got %v", err)
	}

	select {
	case _, ok := <-q.Dequeue(ctx):
		if ok {
			t.Error("expected no requests from a closed empty queue")
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("expected dequeue channel to be closed within timeout")
	}

	if err := q.Close(); err != nil {
		t.Errorf("expected second close to succeed, got error: %v", err)
	}
}

func TestInMemoryQueue_DequeueStopsOnCancel(t *testing.T) {
	q := NewInMemoryQueue()
	ctx, cancel := context.WithCancel(context.Background())
	ch := q.Dequeue(ctx)
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Error("dequeue did not stop after cancel")
	}
}

func TestInMemoryQueue_CancelledContext(t *testing.T) {
	q := NewInMemoryQueue()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := q.Enqueue(ctx, request("r1")); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected nothing queued, got %d", l)
	}
}

func TestInMemoryQueue_LenCountsHeldRequest(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(4))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for _, id := range []string{"r1", "r2"} {
		if err := q.Enqueue(ctx, request(id)); err != nil {
			t.Fatalf("enqueue %s: %v", id, err)
		}
	}
	ch := q.Dequeue(ctx)

	// r1 sits in the forwarding goroutine until received
	time.Sleep(20 * time.Millisecond)
	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected 2 waiting before any receive, got %d", l)
	}
	<-ch
	deadline := time.Now().Add(time.Second)
	for q.Len(ctx) != 1 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected 1 waiting after a receive, got %d", l)
	}
}
