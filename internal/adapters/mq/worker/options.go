package worker

import (
	"time"

	"github.com/okian/kiosk/pkg/logger"
)

// CaptureOption applies a configuration option to the CaptureWorker.
type CaptureOption func(*CaptureWorker)

// WithFrameInterval sets the pause between frames.
func WithFrameInterval(d time.Duration) CaptureOption {
	return func(w *CaptureWorker) {
		if d >= 0 {
			w.interval = d
		}
	}
}

// WithMinConfidence drops detections below c.
func WithMinConfidence(c float64) CaptureOption {
	return func(w *CaptureWorker) {
		if c >= 0 && c <= 1 {
			w.minConfidence = c
		}
	}
}

// WithCaptureLogger sets a custom logger for the capture loop.
func WithCaptureLogger(l logger.Logger) CaptureOption {
	return func(w *CaptureWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// EnrollmentOption applies a configuration option to the EnrollmentWorker.
type EnrollmentOption func(*EnrollmentWorker)

// WithEnrollmentLogger sets a custom logger for the enrollment worker.
func WithEnrollmentLogger(l logger.Logger) EnrollmentOption {
	return func(w *EnrollmentWorker) {
		if l != nil {
			w.logger = l
		}
	}
}
