// Package enrollment turns unknown faces into stored identities with the
// operator's help. Capture finds faces to enroll and queues them; Handle
// asks the operator for a name and age and stores the result.
package enrollment

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/google/uuid"

	"github.com/okian/kiosk/internal/domain/dedupe"
	"github.com/okian/kiosk/internal/domain/geometry"
	"github.com/okian/kiosk/internal/domain/model"
	"github.com/okian/kiosk/pkg/logger"
	"github.com/okian/kiosk/pkg/metrics"
)

const (
	defaultMinConfidence  = 0.5
	defaultPromptAttempts = 1
)

// Detector finds faces in a frame.
type Detector interface {
	Detect(ctx context.Context, frame model.Frame) ([]model.Detection, error)
}

// Store looks up and creates identities.
type Store interface {
	Lookup(ctx context.Context, box model.BoundingBox) (model.Identity, bool)
	Create(ctx context.Context, name, age string, box model.BoundingBox, face image.Image) (model.Identity, error)
}

// Form asks the operator who a face belongs to. It returns an error
// wrapping model.ErrCancelled when the operator dismisses it.
type Form interface {
	PromptForIdentity(ctx context.Context, face image.Image) (model.Answer, error)
}

// Enqueuer accepts enrollment requests without blocking. A refused
// request is reported through the error.
type Enqueuer interface {
	Enqueue(ctx context.Context, req model.EnrollmentRequest) error
}

// Notifier shows a message to the operator.
type Notifier interface {
	Notify(ctx context.Context, kind model.NoticeKind, message string) error
}

// Flow coordinates enrollment.
type Flow struct {
	detector Detector
	store    Store
	form     Form
	queue    Enqueuer
	notifier Notifier
	pending  dedupe.Deduper

	minConfidence  float64
	promptAttempts int
	now            func() time.Time
	logger         logger.Logger
}

// NewFlow creates an enrollment flow.
func NewFlow(detector Detector, store Store, form Form, queue Enqueuer, notifier Notifier, opts ...Option) *Flow {
	f := &Flow{
		detector:       detector,
		store:          store,
		form:           form,
		queue:          queue,
		notifier:       notifier,
		minConfidence:  defaultMinConfidence,
		promptAttempts: defaultPromptAttempts,
		now:            time.Now,
		logger:         logger.Get().Named("enrollment"),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.pending == nil {
		f.pending = dedupe.NewInMemoryDeduper()
	}
	return f
}

// Capture detects faces in frame and queues every unknown one that is not
// already pending. It returns how many requests were queued. A detector
// failure wraps model.ErrDetectionUnavailable.
func (f *Flow) Capture(ctx context.Context, frame model.Frame) (int, error) {
	if frame.Image == nil {
		return 0, fmt.Errorf("%w: no frame captured yet", model.ErrDetectionUnavailable)
	}

	detections, err := f.detector.Detect(ctx, frame)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", model.ErrDetectionUnavailable, err)
	}

	queued := 0
	for _, d := range detections {
		if d.Confidence < f.minConfidence {
			continue
		}
		if _, known := f.store.Lookup(ctx, d.Box); known {
			continue
		}

		if f.pending.SeenAndRecord(ctx, d.Box) {
			f.logger.Debug(ctx, "face already pending", logger.String("bbox", d.Box.String()))
			continue
		}

		face := geometry.Crop(frame.Image, d.Box)
		if face == nil {
			f.pending.Unrecord(ctx, d.Box)
			f.logger.Warn(ctx, "face box outside frame", logger.String("bbox", d.Box.String()))
			continue
		}

		req := model.EnrollmentRequest{
			ID:          uuid.NewString(),
			Box:         d.Box,
			Face:        face,
			RequestedAt: f.now(),
		}
		if err := f.queue.Enqueue(ctx, req); err != nil {
			f.pending.Unrecord(ctx, d.Box)
			metrics.RecordEnrollmentRequest("dropped")
			if ctxErr := ctx.Err(); ctxErr != nil {
				return queued, ctxErr
			}
			f.logger.Warn(ctx, "face dropped", logger.String("bbox", d.Box.String()), logger.Error(err))
			continue
		}

		queued++
		metrics.RecordEnrollmentRequest("queued")
		f.logger.Info(ctx, "face queued for enrollment",
			logger.String("request", req.ID),
			logger.String("bbox", d.Box.String()),
		)
	}

	if queued == 0 {
		f.logger.Info(ctx, "no new faces to enroll", logger.Int("detections", len(detections)))
	}
	return queued, nil
}

// Handle runs the form for one request and stores the answer.
//
// A cancelled form or a face that was enrolled in the meantime is skipped
// and returns nil. Validation and persistence failures are notified and
// returned; nothing is stored. The request is released from the pending set
// in every case.
func (f *Flow) Handle(ctx context.Context, req model.EnrollmentRequest) error {
	defer f.pending.Unrecord(ctx, req.Box)

	if existing, known := f.store.Lookup(ctx, req.Box); known {
		metrics.RecordEnrollmentRequest("skipped")
		f.logger.Info(ctx, "face already enrolled, skipping",
			logger.String("request", req.ID),
			logger.Int("id", existing.ID),
		)
		return nil
	}

	var lastErr error
	for attempt := 1; attempt <= f.promptAttempts; attempt++ {
		answer, err := f.form.PromptForIdentity(ctx, req.Face)
		if errors.Is(err, model.ErrCancelled) {
			metrics.RecordEnrollmentRequest("cancelled")
			f.logger.Info(ctx, "enrollment cancelled", logger.String("request", req.ID))
			return nil
		}
		if err != nil {
			return fmt.Errorf("prompt for identity: %w", err)
		}

		identity, err := f.store.Create(ctx, answer.Name, answer.Age, req.Box, req.Face)
		if err == nil {
			metrics.RecordEnrollmentRequest("enrolled")
			f.notify(ctx, model.KindEnrolled, fmt.Sprintf("Đã lưu thông tin: %s", identity.Label()))
			return nil
		}

		lastErr = err
		if errors.Is(err, model.ErrValidation) {
			metrics.RecordEnrollmentRequest("rejected")
			f.notify(ctx, model.KindError, "Vui lòng nhập đầy đủ tên và tuổi.")
			f.logger.Warn(ctx, "enrollment input rejected",
				logger.String("request", req.ID),
				logger.Int("attempt", attempt),
				logger.Error(err),
			)
			continue
		}

		metrics.RecordEnrollmentRequest("failed")
		f.notify(ctx, model.KindError, fmt.Sprintf("Không thể lưu thông tin: %v", err))
		f.logger.Error(ctx, "enrollment failed", logger.String("request", req.ID), logger.Error(err))
		return err
	}
	return lastErr
}

// Pending returns how many faces are queued or being handled.
func (f *Flow) Pending() int {
	return f.pending.Size()
}

func (f *Flow) notify(ctx context.Context, kind model.NoticeKind, message string) {
	if f.notifier == nil {
		return
	}
	if err := f.notifier.Notify(ctx, kind, message); err != nil {
		f.logger.Warn(ctx, "notification failed", logger.String("kind", string(kind)), logger.Error(err))
	}
}
