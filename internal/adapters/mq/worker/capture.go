package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/okian/kiosk/internal/domain/attendance"
	"github.com/okian/kiosk/internal/domain/geometry"
	"github.com/okian/kiosk/internal/domain/model"
	"github.com/okian/kiosk/pkg/logger"
	"github.com/okian/kiosk/pkg/metrics"
)

const (
	defaultFrameInterval = 5 * time.Millisecond
	defaultMinConfidence = 0.5
)

// Source yields camera frames. Next returns io.EOF when the stream ends.
type Source interface {
	Next(ctx context.Context) (model.Frame, error)
	Close() error
}

// Detector finds faces in a frame.
type Detector interface {
	Detect(ctx context.Context, frame model.Frame) ([]model.Detection, error)
}

// DetectionHandler consumes detection events.
type DetectionHandler interface {
	HandleDetection(ctx context.Context, ev model.DetectionEvent) (attendance.Outcome, error)
}

// CaptureWorker pulls frames, detects faces and feeds the attendance machine.
// With a nil handler it only keeps the latest frame and runs no detection.
// It owns the source and closes it when the loop ends.
type CaptureWorker struct {
	*lifecycle

	source   Source
	detector Detector
	handler  DetectionHandler
	frames   *FrameBuffer

	interval      time.Duration
	minConfidence float64
	logger        logger.Logger
}

// NewCaptureWorker creates a capture loop.
func NewCaptureWorker(source Source, detector Detector, handler DetectionHandler, frames *FrameBuffer, opts ...CaptureOption) *CaptureWorker {
	w := &CaptureWorker{
		lifecycle:     newLifecycle(),
		source:        source,
		detector:      detector,
		handler:       handler,
		frames:        frames,
		interval:      defaultFrameInterval,
		minConfidence: defaultMinConfidence,
		logger:        logger.Get().Named("capture"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.frames == nil {
		w.frames = NewFrameBuffer()
	}
	return w
}

// Run drives the loop. A read failure ends it with an error wrapping
// model.ErrDetectionUnavailable; it is not retried. End of stream,
// cancellation and Shutdown end it with nil.
func (w *CaptureWorker) Run(ctx context.Context) error {
	w.markStarted()
	metrics.SetCaptureLoopActive(true)
	defer func() {
		if err := w.source.Close(); err != nil {
			w.logger.Warn(ctx, "closing camera source", logger.Error(err))
		}
		metrics.SetCaptureLoopActive(false)
		close(w.done)
	}()

	w.logger.Info(ctx, "capture loop started", logger.Duration("interval", w.interval))
	for {
		if !w.sleep(ctx, 0) {
			w.logger.Info(ctx, "capture loop stopped")
			return nil
		}

		frame, err := w.source.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				w.logger.Info(ctx, "camera stream ended")
				return nil
			}
			if ctx.Err() != nil {
				return nil
			}
			metrics.RecordErrorByComponent("capture", "read_failed")
			w.logger.Error(ctx, "cannot read frame from camera", logger.Error(err))
			return fmt.Errorf("%w: %v", model.ErrDetectionUnavailable, err)
		}

		w.frames.Store(frame)
		if w.handler != nil {
			w.process(ctx, frame)
		}

		if !w.sleep(ctx, w.interval) {
			w.logger.Info(ctx, "capture loop stopped")
			return nil
		}
	}
}

// Shutdown gracefully stops the loop.
func (w *CaptureWorker) Shutdown(ctx context.Context) error {
	return w.stop(ctx)
}

// process runs detection on frame and hands events to the machine until
// one of them decides a session.
func (w *CaptureWorker) process(ctx context.Context, frame model.Frame) {
	start := time.Now()
	defer func() {
		metrics.RecordFrameProcessed(float64(time.Since(start).Microseconds()) / 1000)
	}()

	detections, err := w.detector.Detect(ctx, frame)
	if err != nil {
		metrics.RecordErrorByComponent("capture", "detect_failed")
		w.logger.Warn(ctx, "detection failed", logger.Int("frame", frame.Index), logger.Error(err))
		return
	}

	n := 0
	for _, d := range detections {
		if d.Confidence < w.minConfidence {
			continue
		}
		n++

		ev := model.DetectionEvent{
			FrameIndex: frame.Index,
			Box:        d.Box,
			Confidence: d.Confidence,
			Face:       geometry.Crop(frame.Image, d.Box),
			Timestamp:  frame.CapturedAt,
		}
		out, err := w.handler.HandleDetection(ctx, ev)
		if err != nil {
			w.logger.Error(ctx, "detection handling failed", logger.Int("frame", frame.Index), logger.Error(err))
		}
		if out.Result.Decided() {
			break
		}
	}
	metrics.RecordDetections(n)
}
