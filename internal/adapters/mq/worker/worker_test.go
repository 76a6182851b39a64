package worker_test

import (
	"context"
	"errors"
	"image"
	"io"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/okian/kiosk/internal/adapters/mq/queue"
	"github.com/okian/kiosk/internal/adapters/mq/worker"
	"github.com/okian/kiosk/internal/domain/attendance"
	"github.com/okian/kiosk/internal/domain/model"
	"github.com/okian/kiosk/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	goleak.VerifyTestMain(m)
}

type sliceSource struct {
	mu      sync.Mutex
	frames  []model.Frame
	readErr error
	endless bool
	closed  bool
}

func (s *sliceSource) Next(ctx context.Context) (model.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.endless {
		return model.Frame{Index: 1, Image: image.NewRGBA(image.Rect(0, 0, 10, 10))}, nil
	}
	if len(s.frames) == 0 {
		if s.readErr != nil {
			return model.Frame{}, s.readErr
		}
		return model.Frame{}, io.EOF
	}
	f := s.frames[0]
	s.frames = s.frames[1:]
	return f, nil
}

func (s *sliceSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *sliceSource) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type fixedDetector struct {
	detections []model.Detection
}

func (d fixedDetector) Detect(context.Context, model.Frame) ([]model.Detection, error) {
	return d.detections, nil
}

type recordingHandler struct {
	mu     sync.Mutex
	events []model.DetectionEvent
	decide bool
}

func (h *recordingHandler) HandleDetection(_ context.Context, ev model.DetectionEvent) (attendance.Outcome, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, ev)
	if h.decide {
		return attendance.Outcome{Result: attendance.ResultAccepted}, nil
	}
	return attendance.Outcome{Result: attendance.ResultNoMatch}, nil
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.events)
}

func frames(n int) []model.Frame {
	out := make([]model.Frame, n)
	for i := range out {
		out[i] = model.Frame{Index: i + 1, Image: image.NewRGBA(image.Rect(0, 0, 100, 100))}
	}
	return out
}

var twoFaces = []model.Detection{
	{Box: model.BoundingBox{XMin: 0.1, YMin: 0.1, Width: 0.2, Height: 0.2}, Confidence: 0.9},
	{Box: model.BoundingBox{XMin: 0.6, YMin: 0.1, Width: 0.2, Height: 0.2}, Confidence: 0.8},
	{Box: model.BoundingBox{XMin: 0.4, YMin: 0.6, Width: 0.2, Height: 0.2}, Confidence: 0.3},
}

func TestCaptureWorkerProcessesUntilEndOfStream(t *testing.T) {
	src := &sliceSource{frames: frames(3)}
	h := &recordingHandler{}
	buf := worker.NewFrameBuffer()
	w := worker.NewCaptureWorker(src, fixedDetector{twoFaces}, h, buf, worker.WithFrameInterval(0))

	if err := w.Run(context.Background()); err != nil {
		t.Fatalf("expected clean end of stream, got %v", err)
	}

	// two confident faces per frame, the low-confidence one is dropped
	if got := h.count(); got != 6 {
		t.Errorf("expected 6 detection events, got %d", got)
	}
	if ev := h.events[0]; ev.Face == nil || ev.Face.Bounds().Dx() != 20 {
		t.Errorf("expected a cropped face on the event, got %v", ev.Face)
	}
	latest, ok := buf.Latest()
	if !ok || latest.Index != 3 {
		t.Errorf("expected frame 3 in the buffer, got %v %v", latest.Index, ok)
	}
	if !src.isClosed() {
		t.Error("expected source to be closed when the loop ends")
	}
}

type countingDetector struct {
	mu    sync.Mutex
	calls int
}

func (d *countingDetector) Detect(context.Context, model.Frame) ([]model.Detection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	return twoFaces, nil
}

func TestCaptureWorkerFramesOnly(t *testing.T) {
	src := &sliceSource{frames: frames(2)}
	det := &countingDetector{}
	buf := worker.NewFrameBuffer()
	w := worker.NewCaptureWorker(src, det, nil, buf, worker.WithFrameInterval(0))

	if err := w.Run(context.Background()); err != nil {
		t.Fatalf("expected clean end of stream, got %v", err)
	}
	if det.calls != 0 {
		t.Errorf("expected no detection without a handler, got %d calls", det.calls)
	}
	if latest, ok := buf.Latest(); !ok || latest.Index != 2 {
		t.Errorf("expected frame 2 in the buffer, got %v %v", latest.Index, ok)
	}
}

func TestCaptureWorkerStopsFrameAfterDecision(t *testing.T) {
	src := &sliceSource{frames: frames(2)}
	h := &recordingHandler{decide: true}
	w := worker.NewCaptureWorker(src, fixedDetector{twoFaces}, h, nil, worker.WithFrameInterval(0))

	if err := w.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := h.count(); got != 2 {
		t.Errorf("expected one event per frame after a decision, got %d", got)
	}
}

func TestCaptureWorkerReadFailure(t *testing.T) {
	src := &sliceSource{frames: frames(1), readErr: errors.New("device unplugged")}
	w := worker.NewCaptureWorker(src, fixedDetector{}, &recordingHandler{}, nil, worker.WithFrameInterval(0))

	err := w.Run(context.Background())
	if !errors.Is(err, model.ErrDetectionUnavailable) {
		t.Fatalf("expected ErrDetectionUnavailable, got %v", err)
	}
	if !src.isClosed() {
		t.Error("expected source to be released after a read failure")
	}
}

func TestCaptureWorkerCancellation(t *testing.T) {
	src := &sliceSource{endless: true}
	w := worker.NewCaptureWorker(src, fixedDetector{}, &recordingHandler{}, nil, worker.WithFrameInterval(time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("expected nil on cancellation, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("capture loop did not stop after cancel")
	}
	if !src.isClosed() {
		t.Error("expected source to be closed")
	}
}

func TestCaptureWorkerShutdown(t *testing.T) {
	src := &sliceSource{endless: true}
	w := worker.NewCaptureWorker(src, fixedDetector{}, &recordingHandler{}, nil, worker.WithFrameInterval(time.Millisecond))

	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(context.Background()) }()
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := w.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}
	if err := <-errCh; err != nil {
		t.Errorf("expected nil after shutdown, got %v", err)
	}
	// a second shutdown is a no-op
	if err := w.Shutdown(ctx); err != nil {
		t.Errorf("second shutdown failed: %v", err)
	}
}

type countingEnroller struct {
	mu   sync.Mutex
	ids  []string
	fail bool
}

func (e *countingEnroller) Handle(_ context.Context, req model.EnrollmentRequest) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ids = append(e.ids, req.ID)
	if e.fail {
		return model.ErrValidation
	}
	return nil
}

func TestEnrollmentWorkerDrainsQueueInOrder(t *testing.T) {
	q := queue.NewInMemoryQueue(queue.WithCapacity(4))
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		if err := q.Enqueue(ctx, model.EnrollmentRequest{ID: id}); err != nil {
			t.Fatalf("enqueue %s failed: %v", id, err)
		}
	}
	_ = q.Close()

	h := &countingEnroller{fail: true}
	w := worker.NewEnrollmentWorker(q, h)
	if err := w.Run(ctx); err != nil {
		t.Fatal(err)
	}

	if len(h.ids) != 3 || h.ids[0] != "a" || h.ids[2] != "c" {
		t.Errorf("expected a,b,c handled in order, got %v", h.ids)
	}
}

func TestEnrollmentWorkerShutdown(t *testing.T) {
	q := queue.NewInMemoryQueue()
	w := worker.NewEnrollmentWorker(q, &countingEnroller{})

	done := make(chan struct{})
	go func() {
		_ = w.Run(context.Background())
		close(done)
	}()
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := w.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}
	<-done
	_ = q.Close()
}

func TestFrameBuffer(t *testing.T) {
	b := worker.NewFrameBuffer()
	if _, ok := b.Latest(); ok {
		t.Error("expected empty buffer")
	}
	b.Store(model.Frame{Index: 7})
	if f, ok := b.Latest(); !ok || f.Index != 7 {
		t.Errorf("expected frame 7, got %v %v", f.Index, ok)
	}
}
