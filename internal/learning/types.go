package learning

import (
	"time"

	"github.com/nerrad567/irbridge-core/internal/ircode"
)

// State is a learning session's lifecycle status. Sessions begin armed
// and advance monotonically to exactly one terminal state.
type State string

// State constants.
const (
	StateArmed     State = "armed"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
	StateTimedOut  State = "timed_out"
	StateCancelled State = "cancelled"
)

// Terminal reports whether the state is final.
func (s State) Terminal() bool {
	switch s {
	case StateSucceeded, StateFailed, StateTimedOut, StateCancelled:
		return true
	}
	return false
}

// Session is an ephemeral learning attempt scoped to one device. At most
// one non-terminal session exists per device at any time.
type Session struct {
	ID       string          `json:"id"`
	DeviceID string          `json:"device_id"`
	Category ircode.Category `json:"category"`
	Name     string          `json:"name"`
	Timeout  time.Duration   `json:"timeout"`
	State    State           `json:"state"`

	// Captured holds the learned code once the session succeeds.
	Captured *ircode.Code `json:"captured,omitempty"`

	// Error carries failure detail when the session fails.
	Error string `json:"error,omitempty"`

	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// DeepCopy returns an independent copy of the Session.
func (s *Session) DeepCopy() *Session {
	if s == nil {
		return nil
	}
	cpy := *s
	cpy.Captured = s.Captured.DeepCopy()
	if s.FinishedAt != nil {
		ts := *s.FinishedAt
		cpy.FinishedAt = &ts
	}
	return &cpy
}

// Event is a session-state change notification delivered to subscribers.
// The captured code rides only on the succeeded event.
type Event struct {
	SessionID string          `json:"session_id"`
	DeviceID  string          `json:"device_id"`
	State     State           `json:"state"`
	Category  ircode.Category `json:"category"`
	Name      string          `json:"name"`
	Captured  *ircode.Code    `json:"captured,omitempty"`
	Error     string          `json:"error,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}
