package workhours

import (
	"github.com/okian/kiosk/internal/domain/model"
	"github.com/okian/kiosk/pkg/logger"
)

// Option applies a configuration option to the Policy.
type Option func(*Policy)

// WithWindow sets the initial window without validation; callers load it
// from already validated configuration.
func WithWindow(w model.Window) Option {
	return func(p *Policy) {
		p.window = w
	}
}

// WithLogger sets a custom logger for the policy.
func WithLogger(l logger.Logger) Option {
	return func(p *Policy) {
		if l != nil {
			p.logger = l
		}
	}
}
