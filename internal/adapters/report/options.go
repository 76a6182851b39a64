package report

import "github.com/okian/kiosk/pkg/logger"

// Option applies a configuration option to the OvertimeLog.
type Option func(*OvertimeLog)

// WithLogger sets a custom logger for the report.
func WithLogger(l logger.Logger) Option {
	return func(o *OvertimeLog) {
		if l != nil {
			o.logger = l
		}
	}
}
