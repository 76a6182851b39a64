// Package service wires the kiosk together: identity store, working-hours
// policy, attendance machine, enrollment queue and the two background loops.
// It is the single owner of that state; the console, the ops HTTP API and
// the commands reach it only through *Service.
package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/kiosk/internal/adapters/mq/queue"
	"github.com/okian/kiosk/internal/adapters/mq/worker"
	"github.com/okian/kiosk/internal/adapters/notify"
	"github.com/okian/kiosk/internal/adapters/report"
	"github.com/okian/kiosk/internal/adapters/repository"
	"github.com/okian/kiosk/internal/domain/attendance"
	"github.com/okian/kiosk/internal/domain/enrollment"
	"github.com/okian/kiosk/internal/domain/model"
	"github.com/okian/kiosk/internal/domain/workhours"
	"github.com/okian/kiosk/pkg/logger"
	"github.com/okian/kiosk/pkg/metrics"
)

const shutdownTimeout = 5 * time.Second

// Notifier shows messages to the operator.
type Notifier interface {
	Notify(ctx context.Context, kind model.NoticeKind, message string) error
}

// Status is a snapshot of the kiosk.
type Status struct {
	Started          bool             `json:"started"`
	Capturing        bool             `json:"capturing"`
	State            string           `json:"state"`
	SessionID        string           `json:"sessionId,omitempty"`
	Window           string           `json:"window"`
	Identities       int              `json:"identities"`
	PendingEnrolment int              `json:"pendingEnrollments"`
	QueueLength      int              `json:"queueLength"`
	Stats            attendance.Stats `json:"stats"`
	LastCaptureError string           `json:"lastCaptureError,omitempty"`
}

// captureRun is one capture loop; done closes after its state is cleared.
type captureRun struct {
	worker *worker.CaptureWorker
	done   chan struct{}
}

// Service owns every piece of kiosk state.
type Service struct {
	mu sync.RWMutex

	// Core components
	store    *repository.JSONStore
	policy   *workhours.Policy
	overtime *report.OvertimeLog
	machine  *attendance.Machine
	queue    *queue.InMemoryQueue
	flow     *enrollment.Flow
	frames   *worker.FrameBuffer
	enroller *worker.EnrollmentWorker
	capture  *captureRun

	// Collaborators
	openSource SourceOpener
	detector   worker.Detector
	form       enrollment.Form
	notifier   Notifier

	// Configuration
	identityPath   string
	imageDir       string
	imageExt       string
	overtimePath   string
	window         model.Window
	frameInterval  time.Duration
	minConfidence  float64
	queueSize      int
	cooldown       time.Duration
	promptAttempts int
	now            func() time.Time

	// State
	started    bool
	runCtx     context.Context
	cancel     context.CancelFunc
	captureErr error
	wg         sync.WaitGroup

	logger logger.Logger
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		identityPath:   "face_info.json",
		imageDir:       "imgs",
		imageExt:       "jpg",
		overtimePath:   "overtime_log.txt",
		window:         model.Window{StartHour: 8, EndHour: 18},
		frameInterval:  5 * time.Millisecond,
		minConfidence:  0.5,
		queueSize:      32,
		promptAttempts: 3,
		now:            time.Now,
		frames:         worker.NewFrameBuffer(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start loads the identity sink and starts the enrollment worker. Capture
// is started separately with StartCapture.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.detector == nil || s.form == nil {
		return fmt.Errorf("%w: detector and form are required", ErrMissingDependency)
	}
	if s.notifier == nil {
		s.notifier = notify.NewConsoleNotifier(os.Stdout)
	}

	s.logger.Info(ctx, "starting kiosk service...")

	store := repository.NewJSONStore(s.identityPath,
		repository.WithImageDir(s.imageDir),
		repository.WithImageExt(s.imageExt),
	)
	if err := store.LoadAll(ctx); err != nil {
		return fmt.Errorf("load identities: %w", err)
	}
	s.store = store

	s.policy = workhours.NewPolicy(workhours.WithWindow(s.window))
	s.overtime = report.NewOvertimeLog(s.overtimePath)
	s.machine = attendance.NewMachine(s.store, s.policy, s.overtime, s.notifier,
		attendance.WithClock(s.now),
		attendance.WithCooldown(s.cooldown),
	)
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.flow = enrollment.NewFlow(s.detector, s.store, s.form, s.queue, s.notifier,
		enrollment.WithMinConfidence(s.minConfidence),
		enrollment.WithPromptAttempts(s.promptAttempts),
		enrollment.WithClock(s.now),
	)

	s.runCtx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	s.enroller = worker.NewEnrollmentWorker(s.queue, s.flow)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.enroller.Run(s.runCtx); err != nil {
			s.logger.Error(s.runCtx, "enrollment worker stopped", logger.Error(err))
		}
	}()

	s.started = true
	metrics.UpdateIdentitiesTotal(s.store.Count(ctx))
	s.logger.Info(ctx, "kiosk service started",
		logger.Int("identities", s.store.Count(ctx)),
		logger.String("window", s.window.String()),
		logger.Int("queueSize", s.queueSize),
	)
	return nil
}

// Stop stops capture and enrollment, then flushes the identity sink.
func (s *Service) Stop(ctx context.Context) error {
	if err := s.StopCapture(ctx); err != nil && !errors.Is(err, ErrCaptureStopped) {
		s.logger.Warn(ctx, "stopping capture", logger.Error(err))
	}

	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	s.mu.Unlock()

	s.logger.Info(ctx, "stopping kiosk service...")

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := s.enroller.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn(ctx, "enrollment worker did not stop in time", logger.Error(err))
	}
	s.cancel()
	_ = s.queue.Close()
	s.wg.Wait()

	if err := s.store.Close(); err != nil {
		return fmt.Errorf("flush identities: %w", err)
	}
	s.logger.Info(ctx, "kiosk service stopped")
	return nil
}

// StartCapture opens the camera and runs the capture loop in the
// background until StopCapture, Stop or the end of the stream. Every
// confident detection is checked in by the attendance machine.
func (s *Service) StartCapture(ctx context.Context) error {
	return s.startCapture(ctx, true)
}

// StartFrameCapture runs the camera like StartCapture but only keeps the
// latest frame for CaptureFaces. No attendance is recorded, so a one-shot
// enrollment never produces notices or overtime lines.
func (s *Service) StartFrameCapture(ctx context.Context) error {
	return s.startCapture(ctx, false)
}

func (s *Service) startCapture(ctx context.Context, checkIn bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return ErrNotStarted
	}
	if s.capture != nil {
		return ErrCaptureRunning
	}
	if s.openSource == nil {
		return fmt.Errorf("%w: no camera source", ErrMissingDependency)
	}

	src, err := s.openSource(ctx)
	if err != nil {
		metrics.RecordErrorByComponent("capture", "open_failed")
		return fmt.Errorf("%w: open camera: %v", model.ErrDetectionUnavailable, err)
	}

	var handler worker.DetectionHandler
	if checkIn {
		s.machine.Start(ctx)
		handler = s.machine
	}
	run := &captureRun{
		worker: worker.NewCaptureWorker(src, s.detector, handler, s.frames,
			worker.WithFrameInterval(s.frameInterval),
			worker.WithMinConfidence(s.minConfidence),
		),
		done: make(chan struct{}),
	}
	s.capture = run
	s.captureErr = nil

	runCtx := logger.WithFields(s.runCtx, logger.String("capture_run", uuid.NewString()))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(run.done)

		err := run.worker.Run(runCtx)
		if err != nil {
			s.logger.Error(runCtx, "capture loop failed", logger.Error(err))
			_ = s.notifier.Notify(runCtx, model.KindError, fmt.Sprintf("Không thể đọc từ camera: %v", err))
		}

		s.mu.Lock()
		if s.capture == run {
			s.capture = nil
		}
		s.captureErr = err
		s.mu.Unlock()
		if checkIn {
			s.machine.Stop(s.runCtx)
		}
	}()
	return nil
}

// StopCapture stops the capture loop and waits for the camera to be
// released.
func (s *Service) StopCapture(ctx context.Context) error {
	s.mu.RLock()
	run := s.capture
	s.mu.RUnlock()

	if run == nil {
		return ErrCaptureStopped
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := run.worker.Shutdown(shutdownCtx); err != nil {
		return err
	}
	select {
	case <-run.done:
		return nil
	case <-shutdownCtx.Done():
		return fmt.Errorf("capture did not stop: %w", shutdownCtx.Err())
	}
}

// CaptureRunning reports whether the capture loop is active.
func (s *Service) CaptureRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.capture != nil
}

// WaitCapture blocks until the running capture loop ends, or ctx does.
// It returns the error that ended the loop.
func (s *Service) WaitCapture(ctx context.Context) error {
	s.mu.RLock()
	run := s.capture
	s.mu.RUnlock()

	if run != nil {
		select {
		case <-run.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.captureErr
}

// CaptureFaces queues every unknown face in the latest frame for
// enrollment. It returns the number queued.
func (s *Service) CaptureFaces(ctx context.Context) (int, error) {
	if !s.isStarted() {
		return 0, ErrNotStarted
	}
	frame, ok := s.frames.Latest()
	if !ok {
		return 0, fmt.Errorf("%w: %w", model.ErrDetectionUnavailable, ErrNoFrame)
	}
	return s.flow.Capture(ctx, frame)
}

// SetHours replaces the working window. Minutes are validated; only hours
// take part in decisions.
func (s *Service) SetHours(ctx context.Context, startHour, startMinute, endHour, endMinute int) error {
	if !s.isStarted() {
		return ErrNotStarted
	}
	return s.policy.SetWindow(ctx, startHour, startMinute, endHour, endMinute)
}

// Hours returns the working window.
func (s *Service) Hours() model.Window {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.policy == nil {
		return s.window
	}
	return s.policy.Window()
}

// Identities returns every enrolled identity by id.
func (s *Service) Identities(ctx context.Context) ([]model.Identity, error) {
	if !s.isStarted() {
		return nil, ErrNotStarted
	}
	return s.store.List(ctx), nil
}

// Status returns a snapshot of the kiosk.
func (s *Service) Status(ctx context.Context) Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		Started:   s.started,
		Capturing: s.capture != nil,
		State:     attendance.Idle.String(),
		Window:    s.window.String(),
	}
	if s.captureErr != nil {
		st.LastCaptureError = s.captureErr.Error()
	}
	if !s.started {
		return st
	}

	st.State = s.machine.State().String()
	st.SessionID = s.machine.SessionID()
	st.Window = s.policy.Window().String()
	st.Identities = s.store.Count(ctx)
	st.PendingEnrolment = s.flow.Pending()
	st.QueueLength = s.queue.Len(ctx)
	st.Stats = s.machine.Stats()

	metrics.UpdateIdentitiesTotal(st.Identities)
	metrics.UpdateEnrollmentQueueSize(st.QueueLength)
	return st
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	st := s.Status(context.Background())
	stats := map[string]interface{}{
		"started":   st.Started,
		"capturing": st.Capturing,
		"state":     st.State,
		"window":    st.Window,
	}
	if st.Started {
		stats["identities"] = st.Identities
		stats["pendingEnrollments"] = st.PendingEnrolment
		stats["queueLength"] = st.QueueLength
		stats["sessions"] = st.Stats.Sessions
		stats["accepted"] = st.Stats.Accepted
		stats["rejected"] = st.Stats.Rejected
		stats["noMatch"] = st.Stats.NoMatch
		stats["suppressed"] = st.Stats.Suppressed
	}
	return stats
}

func (s *Service) isStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}
