package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	shoutrrr "github.com/nicholas-fedor/shoutrrr"
	router "github.com/nicholas-fedor/shoutrrr/pkg/router"
	stypes "github.com/nicholas-fedor/shoutrrr/pkg/types"

	"github.com/okian/kiosk/internal/domain/model"
	"github.com/okian/kiosk/pkg/logger"
	"github.com/okian/kiosk/pkg/metrics"
)

const defaultSendTimeout = 10 * time.Second

// ErrNoURLs is returned when a shoutrrr notifier has nothing to send to.
var ErrNoURLs = errors.New("at least one notification URL is required")

// ShoutrrrNotifier forwards selected notices to chat or push services.
type ShoutrrrNotifier struct {
	sender  *router.ServiceRouter
	kinds   map[model.NoticeKind]bool
	timeout time.Duration
	title   string
	logger  logger.Logger
}

// NewShoutrrrNotifier validates urls and builds the sender. By default only
// rejected check-ins and errors are forwarded.
func NewShoutrrrNotifier(urls []string, opts ...ShoutrrrOption) (*ShoutrrrNotifier, error) {
	if len(urls) == 0 {
		return nil, ErrNoURLs
	}

	n := &ShoutrrrNotifier{
		kinds:   map[model.NoticeKind]bool{model.KindRejected: true, model.KindError: true},
		timeout: defaultSendTimeout,
		title:   "Kiosk",
		logger:  logger.Get().Named("shoutrrr"),
	}
	for _, opt := range opts {
		opt(n)
	}

	sender, err := shoutrrr.CreateSender(urls...)
	if err != nil {
		// the raw error may echo tokens embedded in the URL
		return nil, fmt.Errorf("invalid notification url: %s", redact(err))
	}
	sender.Timeout = n.timeout
	sender.SetLogger(log.New(io.Discard, "", 0))
	n.sender = sender
	return n, nil
}

// Notify sends message if kind is forwarded. Nothing is sent once ctx is
// done; the send itself is bounded by the sender timeout.
func (n *ShoutrrrNotifier) Notify(ctx context.Context, kind model.NoticeKind, message string) error {
	if !n.kinds[kind] {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	params := stypes.Params{}
	params.SetTitle(fmt.Sprintf("%s: %s", n.title, kind))

	for _, err := range n.sender.Send(message, &params) {
		if err != nil {
			metrics.RecordErrorByComponent("notify", "send_failed")
			n.logger.Warn(ctx, "notification not delivered", logger.String("kind", string(kind)))
			return fmt.Errorf("send notification: %s", redact(err))
		}
	}
	return nil
}

// redact keeps the error's type of failure but drops anything URL-shaped.
func redact(err error) string {
	msg := err.Error()
	for i := 0; i+3 <= len(msg); i++ {
		if msg[i:i+3] == "://" {
			return msg[:i] + "://[redacted]"
		}
	}
	return msg
}
