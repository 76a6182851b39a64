package camera

import (
	"time"

	"github.com/okian/kiosk/pkg/logger"
)

type settings struct {
	loop   bool
	now    func() time.Time
	logger logger.Logger
}

func newSettings(opts []Option) settings {
	s := settings{now: time.Now}
	for _, opt := range opts {
		opt(&s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("camera")
	}
	return s
}

// Option applies a configuration option to a source.
type Option func(*settings)

// WithLoop makes a directory source start over instead of ending.
func WithLoop(loop bool) Option {
	return func(s *settings) {
		s.loop = loop
	}
}

// WithClock replaces time.Now for frame timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the source.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}
