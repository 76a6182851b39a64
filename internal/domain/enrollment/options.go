package enrollment

import (
	"time"

	"github.com/okian/kiosk/internal/domain/dedupe"
	"github.com/okian/kiosk/pkg/logger"
)

// Option applies a configuration option to the Flow.
type Option func(*Flow)

// WithMinConfidence drops detections below c.
func WithMinConfidence(c float64) Option {
	return func(f *Flow) {
		if c >= 0 && c <= 1 {
			f.minConfidence = c
		}
	}
}

// WithPromptAttempts lets the operator retry after a validation error.
func WithPromptAttempts(n int) Option {
	return func(f *Flow) {
		if n > 0 {
			f.promptAttempts = n
		}
	}
}

// WithDeduper sets the pending-face tracker.
func WithDeduper(d dedupe.Deduper) Option {
	return func(f *Flow) {
		if d != nil {
			f.pending = d
		}
	}
}

// WithClock replaces time.Now for request timestamps.
func WithClock(now func() time.Time) Option {
	return func(f *Flow) {
		if now != nil {
			f.now = now
		}
	}
}

// WithLogger sets a custom logger for the flow.
func WithLogger(l logger.Logger) Option {
	return func(f *Flow) {
		if l != nil {
			f.logger = l
		}
	}
}
