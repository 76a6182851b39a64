package detector

import "github.com/okian/kiosk/pkg/logger"

// Option applies a configuration option to the Replay detector.
type Option func(*Replay)

// WithLogger sets a custom logger for the detector.
func WithLogger(l logger.Logger) Option {
	return func(r *Replay) {
		if l != nil {
			r.logger = l
		}
	}
}
