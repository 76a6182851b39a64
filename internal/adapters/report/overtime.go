// Package report appends overtime check-ins to a plain-text report.
package report

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/okian/kiosk/internal/domain/model"
	"github.com/okian/kiosk/pkg/logger"
	"github.com/okian/kiosk/pkg/metrics"
)

const reportFileMode = 0o644

// OvertimeLog is an append-only report, one line per rejected check-in.
type OvertimeLog struct {
	mu     sync.Mutex
	path   string
	logger logger.Logger
}

// NewOvertimeLog creates a report writing to path. The file is created on
// first append.
func NewOvertimeLog(path string, opts ...Option) *OvertimeLog {
	l := &OvertimeLog{
		path:   path,
		logger: logger.Get().Named("overtime"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Path returns the report location.
func (l *OvertimeLog) Path() string { return l.path }

// Append writes one line for e. Failures wrap model.ErrPersistence.
func (l *OvertimeLog) Append(ctx context.Context, e model.OvertimeEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, reportFileMode)
	if err != nil {
		metrics.RecordErrorByComponent("overtime", "open")
		return fmt.Errorf("%w: open %s: %v", model.ErrPersistence, l.path, err)
	}
	if _, err := fmt.Fprintln(f, e.Line()); err != nil {
		_ = f.Close()
		metrics.RecordErrorByComponent("overtime", "write")
		return fmt.Errorf("%w: append %s: %v", model.ErrPersistence, l.path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", model.ErrPersistence, l.path, err)
	}

	metrics.RecordOvertimeEntry()
	l.logger.Info(ctx, "overtime recorded",
		logger.String("name", e.Name),
		logger.String("age", e.Age),
		logger.String("at", e.At.Format("15:04:05")),
	)
	return nil
}
