// Package notify delivers kiosk messages: to the operator's terminal, to the
// log, and to external services through shoutrrr URLs.
package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/okian/kiosk/internal/domain/model"
	"github.com/okian/kiosk/pkg/logger"
)

// Notifier delivers a message.
type Notifier interface {
	Notify(ctx context.Context, kind model.NoticeKind, message string) error
}

// ConsoleNotifier prints messages for the operator and logs them.
type ConsoleNotifier struct {
	mu     sync.Mutex
	out    io.Writer
	logger logger.Logger
}

// NewConsoleNotifier prints to out, or stdout when out is nil.
func NewConsoleNotifier(out io.Writer) *ConsoleNotifier {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleNotifier{out: out, logger: logger.Get().Named("notify")}
}

// Notify prints "[kind] message".
func (n *ConsoleNotifier) Notify(ctx context.Context, kind model.NoticeKind, message string) error {
	n.mu.Lock()
	_, err := fmt.Fprintf(n.out, "[%s] %s\n", kind, message)
	n.mu.Unlock()

	if kind == model.KindError {
		n.logger.Warn(ctx, message, logger.String("kind", string(kind)))
	} else {
		n.logger.Debug(ctx, message, logger.String("kind", string(kind)))
	}
	if err != nil {
		return fmt.Errorf("print notice: %w", err)
	}
	return nil
}

// Multi sends to every notifier and joins their errors.
type Multi []Notifier

// Notify fans out to all notifiers.
func (m Multi) Notify(ctx context.Context, kind model.NoticeKind, message string) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, kind, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
