package worker

import (
	"context"

	"github.com/okian/kiosk/internal/domain/model"
	"github.com/okian/kiosk/pkg/logger"
)

// Queue is where enrollment requests come from.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.EnrollmentRequest
	Len(ctx context.Context) int
}

// EnrollmentHandler runs the form for one request.
type EnrollmentHandler interface {
	Handle(ctx context.Context, req model.EnrollmentRequest) error
}

// EnrollmentWorker consumes queued faces one at a time.
type EnrollmentWorker struct {
	*lifecycle

	queue   Queue
	handler EnrollmentHandler
	logger  logger.Logger
}

// NewEnrollmentWorker creates an enrollment consumer.
func NewEnrollmentWorker(queue Queue, handler EnrollmentHandler, opts ...EnrollmentOption) *EnrollmentWorker {
	w := &EnrollmentWorker{
		lifecycle: newLifecycle(),
		queue:     queue,
		handler:   handler,
		logger:    logger.Get().Named("enrollment-worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run consumes requests until the queue closes, ctx ends or Shutdown.
// Handler errors are logged; they were already shown to the operator.
func (w *EnrollmentWorker) Run(ctx context.Context) error {
	w.markStarted()
	defer close(w.done)

	// canceling the dequeue context releases the queue's forwarding goroutine
	dqCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	requests := w.queue.Dequeue(dqCtx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.shutdown:
			return nil
		case req, ok := <-requests:
			if !ok {
				return nil
			}
			if err := w.handler.Handle(ctx, req); err != nil {
				w.logger.Warn(ctx, "enrollment request failed",
					logger.String("request", req.ID),
					logger.Error(err),
				)
			}
			if w.queue.Len(ctx) == 0 {
				w.logger.Info(ctx, "enrollment queue is empty")
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *EnrollmentWorker) Shutdown(ctx context.Context) error {
	return w.stop(ctx)
}
