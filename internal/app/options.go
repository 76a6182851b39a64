package service

import (
	"context"
	"time"

	"github.com/okian/kiosk/internal/adapters/mq/worker"
	"github.com/okian/kiosk/internal/domain/enrollment"
	"github.com/okian/kiosk/internal/domain/model"
	"github.com/okian/kiosk/pkg/logger"
)

// SourceOpener opens the camera each time capture starts.
type SourceOpener func(ctx context.Context) (worker.Source, error)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithIdentityPath sets the JSON identity sink.
func WithIdentityPath(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.identityPath = path
		}
	}
}

// WithImageDir sets where enrolled faces are written.
func WithImageDir(dir string) Option {
	return func(s *Service) {
		if dir != "" {
			s.imageDir = dir
		}
	}
}

// WithImageExt sets the face image format.
func WithImageExt(ext string) Option {
	return func(s *Service) {
		if ext != "" {
			s.imageExt = ext
		}
	}
}

// WithOvertimePath sets the overtime report file.
func WithOvertimePath(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.overtimePath = path
		}
	}
}

// WithWindow sets the initial working window.
func WithWindow(w model.Window) Option {
	return func(s *Service) {
		s.window = w
	}
}

// WithFrameInterval sets the pause between camera frames.
func WithFrameInterval(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.frameInterval = d
		}
	}
}

// WithMinConfidence drops weaker detections.
func WithMinConfidence(c float64) Option {
	return func(s *Service) {
		if c >= 0 && c <= 1 {
			s.minConfidence = c
		}
	}
}

// WithQueueSize bounds the enrollment queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithCooldown suppresses repeat decisions for the same person.
func WithCooldown(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.cooldown = d
		}
	}
}

// WithPromptAttempts caps how often the operator is asked again after invalid input.
func WithPromptAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.promptAttempts = n
		}
	}
}

// WithSourceOpener sets how the camera is opened.
func WithSourceOpener(open SourceOpener) Option {
	return func(s *Service) {
		s.openSource = open
	}
}

// WithDetector sets the face detector.
func WithDetector(d worker.Detector) Option {
	return func(s *Service) {
		s.detector = d
	}
}

// WithForm sets the enrollment form.
func WithForm(f enrollment.Form) Option {
	return func(s *Service) {
		s.form = f
	}
}

// WithNotifier sets where operator messages go.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithClock overrides time.Now for attendance decisions.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
