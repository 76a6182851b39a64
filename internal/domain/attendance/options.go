package attendance

import (
	"time"

	"github.com/okian/kiosk/pkg/logger"
)

// Option applies a configuration option to the Machine.
type Option func(*Machine)

// WithClock replaces time.Now as the decision time source.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) {
		if now != nil {
			m.now = now
		}
	}
}

// WithCooldown suppresses a second decision for the same identity within d.
// Zero disables it.
func WithCooldown(d time.Duration) Option {
	return func(m *Machine) {
		if d >= 0 {
			m.cooldown = d
		}
	}
}

// WithLogger sets a custom logger for the machine.
func WithLogger(l logger.Logger) Option {
	return func(m *Machine) {
		if l != nil {
			m.logger = l
		}
	}
}
