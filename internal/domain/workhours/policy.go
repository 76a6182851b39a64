// Package workhours holds the configured working-hours window and decides
// whether a check-in time falls inside it.
package workhours

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/okian/kiosk/internal/domain/model"
	"github.com/okian/kiosk/pkg/logger"
)

// Default window, 08:00 to 18:00.
const (
	DefaultStartHour = 8
	DefaultEndHour   = 18

	hoursPerDay    = 24
	minutesPerHour = 60
)

// Policy is a half-open [start, end) window at hour granularity.
// It is safe for concurrent use.
type Policy struct {
	mu     sync.RWMutex
	window model.Window
	logger logger.Logger
}

// NewPolicy creates a policy with the default window.
func NewPolicy(opts ...Option) *Policy {
	p := &Policy{
		window: model.Window{StartHour: DefaultStartHour, EndHour: DefaultEndHour},
		logger: logger.Get().Named("workhours"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// IsWithinWindow reports whether t's hour lies in [start, end).
// Minutes and seconds of t are ignored.
func (p *Policy) IsWithinWindow(t time.Time) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	h := t.Hour()
	return p.window.StartHour <= h && h < p.window.EndHour
}

// Window returns the current window.
func (p *Policy) Window() model.Window {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.window
}

// SetWindow replaces the window. Every field is range checked; on failure
// the previous window is kept and the error wraps model.ErrValidation.
//
// Minutes are validated and then dropped: the window only has hour
// resolution. A start after the end is stored as given and never matches.
func (p *Policy) SetWindow(ctx context.Context, startHour, startMinute, endHour, endMinute int) error {
	if err := validate(startHour, startMinute, endHour, endMinute); err != nil {
		return err
	}

	if startMinute != 0 || endMinute != 0 {
		p.logger.Debug(ctx, "minutes ignored, window has hour resolution",
			logger.Int("start_minute", startMinute),
			logger.Int("end_minute", endMinute),
		)
	}
	if startHour > endHour {
		p.logger.Warn(ctx, "window start is after end, no time will be inside it",
			logger.Int("start_hour", startHour),
			logger.Int("end_hour", endHour),
		)
	}

	p.mu.Lock()
	p.window = model.Window{StartHour: startHour, EndHour: endHour}
	p.mu.Unlock()

	p.logger.Info(ctx, "working hours updated", logger.String("window", p.Window().String()))
	return nil
}

func validate(startHour, startMinute, endHour, endMinute int) error {
	if startHour < 0 || startHour >= hoursPerDay {
		return fmt.Errorf("%w: start hour %d out of range [0,%d)", model.ErrValidation, startHour, hoursPerDay)
	}
	if endHour < 0 || endHour >= hoursPerDay {
		return fmt.Errorf("%w: end hour %d out of range [0,%d)", model.ErrValidation, endHour, hoursPerDay)
	}
	if startMinute < 0 || startMinute >= minutesPerHour {
		return fmt.Errorf("%w: start minute %d out of range [0,%d)", model.ErrValidation, startMinute, minutesPerHour)
	}
	if endMinute < 0 || endMinute >= minutesPerHour {
		return fmt.Errorf("%w: end minute %d out of range [0,%d)", model.ErrValidation, endMinute, minutesPerHour)
	}
	return nil
}

// ParseClock parses "HH:MM" into hour and minute without range checks.
// Both parts must be one or two digits; anything else, trailing text
// included, is rejected.
func ParseClock(s string) (hour, minute int, err error) {
	hh, mm, found := strings.Cut(strings.TrimSpace(s), ":")
	if !found || !clockPart(hh) || !clockPart(mm) {
		return 0, 0, fmt.Errorf("%w: %q is not HH:MM", model.ErrValidation, s)
	}
	hour, _ = strconv.Atoi(hh)
	minute, _ = strconv.Atoi(mm)
	return hour, minute, nil
}

func clockPart(p string) bool {
	if len(p) == 0 || len(p) > 2 {
		return false
	}
	for _, r := range p {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
