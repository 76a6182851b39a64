package attendance

import (
	"time"

	"github.com/okian/kiosk/internal/domain/model"
)

// State is a step of an attendance session.
type State int

// Session states. Accepted and Rejected are terminal for a session; the
// machine moves through Idle into a fresh AwaitingDetection right after.
const (
	Idle State = iota
	AwaitingDetection
	Evaluating
	Accepted
	Rejected
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingDetection:
		return "awaiting_detection"
	case Evaluating:
		return "evaluating"
	case Accepted:
		return "accepted"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Result is what HandleDetection did with an event.
type Result int

// Detection results.
const (
	ResultIgnored Result = iota // machine was not waiting for a detection
	ResultNoMatch               // no stored identity matched
	ResultAccepted
	ResultRejected
	ResultCooldown // identity matched but was decided within the cooldown
)

func (r Result) String() string {
	switch r {
	case ResultIgnored:
		return "ignored"
	case ResultNoMatch:
		return "no_match"
	case ResultAccepted:
		return "accepted"
	case ResultRejected:
		return "rejected"
	case ResultCooldown:
		return "cooldown"
	default:
		return "unknown"
	}
}

// Decided reports whether the result ended a session.
func (r Result) Decided() bool {
	return r == ResultAccepted || r == ResultRejected
}

// Outcome describes one handled detection.
type Outcome struct {
	Result    Result
	Identity  model.Identity // set when Decided or in cooldown
	At        time.Time
	SessionID string // session the detection was evaluated in
}

// Stats are running totals since the machine was created.
type Stats struct {
	Sessions   int `json:"sessions"`
	Accepted   int `json:"accepted"`
	Rejected   int `json:"rejected"`
	NoMatch    int `json:"no_match"`
	Suppressed int `json:"suppressed"` // known faces held back by the cooldown
}
