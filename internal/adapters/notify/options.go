package notify

import (
	"time"

	"github.com/okian/kiosk/internal/domain/model"
	"github.com/okian/kiosk/pkg/logger"
)

// ShoutrrrOption applies a configuration option to the ShoutrrrNotifier.
type ShoutrrrOption func(*ShoutrrrNotifier)

// WithKinds replaces the set of forwarded notice kinds.
func WithKinds(kinds ...model.NoticeKind) ShoutrrrOption {
	return func(n *ShoutrrrNotifier) {
		if len(kinds) == 0 {
			return
		}
		n.kinds = make(map[model.NoticeKind]bool, len(kinds))
		for _, k := range kinds {
			n.kinds[k] = true
		}
	}
}

// WithTimeout bounds each send.
func WithTimeout(d time.Duration) ShoutrrrOption {
	return func(n *ShoutrrrNotifier) {
		if d > 0 {
			n.timeout = d
		}
	}
}

// WithTitle sets the message title prefix.
func WithTitle(title string) ShoutrrrOption {
	return func(n *ShoutrrrNotifier) {
		if title != "" {
			n.title = title
		}
	}
}

// WithLogger sets a custom logger for the notifier.
func WithLogger(l logger.Logger) ShoutrrrOption {
	return func(n *ShoutrrrNotifier) {
		if l != nil {
			n.logger = l
		}
	}
}
