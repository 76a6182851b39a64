// Package attendance drives the check-in session: a detected face is looked
// up, judged against working hours, and the session restarts.
package attendance

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/kiosk/internal/domain/model"
	"github.com/okian/kiosk/pkg/logger"
	"github.com/okian/kiosk/pkg/metrics"
)

// IdentityLookup finds the stored identity for a box.
type IdentityLookup interface {
	Lookup(ctx context.Context, box model.BoundingBox) (model.Identity, bool)
}

// Policy decides whether a time is inside working hours.
type Policy interface {
	IsWithinWindow(t time.Time) bool
}

// OvertimeRecorder appends an overtime report line.
type OvertimeRecorder interface {
	Append(ctx context.Context, e model.OvertimeEntry) error
}

// Notifier shows a message to the person at the kiosk.
type Notifier interface {
	Notify(ctx context.Context, kind model.NoticeKind, message string) error
}

type notice struct {
	kind    model.NoticeKind
	message string
}

// Machine is the attendance session state machine. It is safe for
// concurrent use; detections are evaluated one at a time.
type Machine struct {
	mu        sync.Mutex
	state     State
	sessionID string
	stats     Stats
	decided   map[int]time.Time // identity id -> last decision

	store    IdentityLookup
	policy   Policy
	overtime OvertimeRecorder
	notifier Notifier

	now      func() time.Time
	cooldown time.Duration
	logger   logger.Logger
}

// NewMachine creates a machine in the Idle state.
func NewMachine(store IdentityLookup, policy Policy, overtime OvertimeRecorder, notifier Notifier, opts ...Option) *Machine {
	m := &Machine{
		state:    Idle,
		decided:  make(map[int]time.Time),
		store:    store,
		policy:   policy,
		overtime: overtime,
		notifier: notifier,
		now:      time.Now,
		logger:   logger.Get().Named("attendance"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start opens a session if the machine is idle.
func (m *Machine) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != Idle {
		return
	}
	m.beginSessionLocked(ctx)
}

// Stop abandons the current session.
func (m *Machine) Stop(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == Idle {
		return
	}
	m.logger.Info(ctx, "session stopped", logger.String("session", m.sessionID))
	m.state = Idle
	m.sessionID = ""
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// SessionID returns the open session's id, empty when idle.
func (m *Machine) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID
}

// Stats returns running totals.
func (m *Machine) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// HandleDetection evaluates one detection event.
//
// Outside AwaitingDetection the event is ignored. An unknown face leaves the
// session waiting, and so does a known face decided within the cooldown. A known face decides the session: Accepted inside working
// hours, Rejected outside them with one overtime line appended. Either way
// the session ends and a new one starts.
//
// A failed overtime append is notified as an error and returned wrapping
// model.ErrPersistence; the session still restarts.
func (m *Machine) HandleDetection(ctx context.Context, ev model.DetectionEvent) (Outcome, error) {
	m.mu.Lock()

	out := Outcome{Result: ResultIgnored, At: m.now(), SessionID: m.sessionID}
	if m.state != AwaitingDetection {
		m.mu.Unlock()
		return out, nil
	}

	m.state = Evaluating
	identity, ok := m.store.Lookup(ctx, ev.Box)
	if ok && m.coolingDownLocked(identity.ID, out.At) {
		m.state = AwaitingDetection
		m.stats.Suppressed++
		m.mu.Unlock()
		m.logger.Debug(ctx, "identity in cooldown", logger.Int("id", identity.ID))
		out.Result = ResultCooldown
		out.Identity = identity
		metrics.RecordAttendanceOutcome(out.Result.String())
		return out, nil
	}
	if !ok {
		m.state = AwaitingDetection
		m.stats.NoMatch++
		m.mu.Unlock()
		out.Result = ResultNoMatch
		metrics.RecordAttendanceOutcome(out.Result.String())
		return out, nil
	}

	m.logger.Debug(ctx, "face recognised",
		logger.String("label", identity.Label()),
		logger.Int("frame", ev.FrameIndex),
		logger.Float64("confidence", ev.Confidence),
	)

	out.Identity = identity
	var (
		notices []notice
		err     error
	)
	if m.policy.IsWithinWindow(out.At) {
		m.state = Accepted
		m.stats.Accepted++
		out.Result = ResultAccepted
		notices = append(notices, notice{model.KindAccepted, fmt.Sprintf("Chấm công thành công: %s", identity.Label())})
	} else {
		m.state = Rejected
		m.stats.Rejected++
		out.Result = ResultRejected
		notices = append(notices, notice{model.KindRejected,
			fmt.Sprintf("Ngoài giờ làm việc: %s lúc %s", identity.Label(), out.At.Format(time.TimeOnly))})

		entry := model.OvertimeEntry{Name: identity.Name, Age: identity.Age, At: out.At}
		if appendErr := m.overtime.Append(ctx, entry); appendErr != nil {
			err = fmt.Errorf("record overtime for %s: %w", identity.Name, appendErr)
			notices = append(notices, notice{model.KindError, fmt.Sprintf("Không thể ghi báo cáo ngoài giờ: %v", appendErr)})
			m.logger.Error(ctx, "overtime append failed", logger.String("name", identity.Name), logger.Error(appendErr))
			metrics.RecordErrorByComponent("attendance", "overtime_append")
		}
	}
	m.decided[identity.ID] = out.At

	m.logger.Info(ctx, "session decided",
		logger.String("session", m.sessionID),
		logger.String("state", m.state.String()),
		logger.Int("id", identity.ID),
		logger.String("name", identity.Name),
	)

	m.state = Idle
	m.beginSessionLocked(ctx)
	m.mu.Unlock()

	metrics.RecordAttendanceOutcome(out.Result.String())
	for _, n := range notices {
		m.notify(ctx, n)
	}
	if err != nil && !errors.Is(err, model.ErrPersistence) {
		err = fmt.Errorf("%w: %v", model.ErrPersistence, err)
	}
	return out, err
}

// beginSessionLocked must be called with m.mu held.
func (m *Machine) beginSessionLocked(ctx context.Context) {
	m.state = AwaitingDetection
	m.sessionID = uuid.NewString()
	m.stats.Sessions++
	metrics.RecordSessionStarted()
	m.logger.Debug(ctx, "session started", logger.String("session", m.sessionID))
}

func (m *Machine) coolingDownLocked(id int, now time.Time) bool {
	if m.cooldown <= 0 {
		return false
	}
	last, ok := m.decided[id]
	return ok && now.Sub(last) < m.cooldown
}

func (m *Machine) notify(ctx context.Context, n notice) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.Notify(ctx, n.kind, n.message); err != nil {
		m.logger.Warn(ctx, "notification failed", logger.String("kind", string(n.kind)), logger.Error(err))
	}
}
