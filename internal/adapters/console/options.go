package console

import "github.com/okian/kiosk/pkg/logger"

// Option configures a Console.
type Option func(*Console)

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Console) {
		if l != nil {
			c.logger = l
		}
	}
}
