// Package worker runs the kiosk's background loops: the camera capture loop
// that feeds the attendance machine, and the consumer that hands queued
// faces to the enrollment form.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Worker is a background loop.
type Worker interface {
	// Run blocks until ctx is canceled, Shutdown is called or the loop
	// ends on its own. It returns the error that ended the loop, if any.
	Run(ctx context.Context) error

	// Shutdown signals the loop to stop and waits for it.
	Shutdown(ctx context.Context) error
}

// lifecycle carries the shutdown and done channels shared by both workers.
type lifecycle struct {
	shutdown     chan struct{}
	done         chan struct{}
	shutdownOnce sync.Once
	startOnce    sync.Once
	started      chan struct{}
}

func newLifecycle() *lifecycle {
	return &lifecycle{
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		started:  make(chan struct{}),
	}
}

func (l *lifecycle) markStarted() {
	l.startOnce.Do(func() { close(l.started) })
}

// Done is closed when Run has returned.
func (l *lifecycle) Done() <-chan struct{} { return l.done }

func (l *lifecycle) stop(ctx context.Context) error {
	l.shutdownOnce.Do(func() { close(l.shutdown) })

	select {
	case <-l.started:
	default:
		// never ran; nothing to wait for
		return nil
	}

	select {
	case <-l.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// sleep waits d unless ctx or shutdown fire first. It returns false when
// the loop should exit.
func (l *lifecycle) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		select {
		case <-ctx.Done():
			return false
		case <-l.shutdown:
			return false
		default:
			return true
		}
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-l.shutdown:
		return false
	case <-t.C:
		return true
	}
}
