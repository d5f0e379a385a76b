package notification

import (
	"fmt"
	"time"
)

// Tracker follows the delivery of the latest change notification for one
// observable resource.
//
// State only moves on external signals: ValueChanged when the value is set
// and Apply for every status the Registration Service reports. Delivery is
// never inferred locally and nothing is retried; a failed attempt stays
// FAILED until the next value change starts a fresh one.
//
// Thread Safety:
//   - Not safe for concurrent use. Trackers live on the event dispatcher.
type Tracker struct {
	state      State
	reason     Reason
	subscribed bool

	attempts  uint64
	delivered uint64
	failed    uint64

	lastChange time.Time
	now        func() time.Time
}

// NewTracker creates a tracker in IDLE with no remote subscriber.
func NewTracker() *Tracker {
	return &Tracker{now: time.Now}
}

// State returns the current state.
func (t *Tracker) State() State { return t.state }

// Reason returns why the last attempt failed. ReasonNone unless FAILED.
func (t *Tracker) Reason() Reason { return t.reason }

// Subscribed reports whether a remote subscriber is observing.
func (t *Tracker) Subscribed() bool { return t.subscribed }

// Attempts returns the number of value changes recorded.
func (t *Tracker) Attempts() uint64 { return t.attempts }

// Delivered returns the number of acknowledged notifications.
func (t *Tracker) Delivered() uint64 { return t.delivered }

// Failed returns the number of attempts that ended in FAILED.
func (t *Tracker) Failed() uint64 { return t.failed }

// LastChange returns when the state last moved. Zero before the first move.
func (t *Tracker) LastChange() time.Time { return t.lastChange }

// ValueChanged records a new notification attempt.
//
// Every state moves straight to QUEUED, including DELIVERED and FAILED. A
// change while the previous attempt is still QUEUED or SENT supersedes it.
func (t *Tracker) ValueChanged() {
	t.attempts++
	t.move(StateQueued, ReasonNone)
}

// Apply feeds a delivery status into the state machine and returns the
// resulting state.
//
// Transitions:
//   - Sent:       QUEUED -> SENT
//   - Delivered:  SENT -> DELIVERED
//   - BuildError, ResendQueueFull, SendFailed: QUEUED|SENT -> FAILED(reason)
//     (reason is Unsubscribed while no subscriber is observing)
//   - Subscribed: any; UNSUBSCRIBED -> IDLE
//   - Unsubscribed: any -> UNSUBSCRIBED
//
// Anything else returns ErrInvalidTransition and changes nothing.
func (t *Tracker) Apply(s Status) (State, error) {
	switch s {
	case StatusSent:
		if t.state != StateQueued {
			return t.state, t.invalid(s)
		}
		t.move(StateSent, ReasonNone)

	case StatusDelivered:
		if t.state != StateSent {
			return t.state, t.invalid(s)
		}
		t.delivered++
		t.move(StateDelivered, ReasonNone)

	case StatusBuildError, StatusResendQueueFull, StatusSendFailed:
		if t.state != StateQueued && t.state != StateSent {
			return t.state, t.invalid(s)
		}
		reason, _ := failureReason(s)
		if !t.subscribed {
			reason = ReasonUnsubscribed
		}
		t.failed++
		t.move(StateFailed, reason)

	case StatusSubscribed:
		t.subscribed = true
		if t.state == StateUnsubscribed {
			t.move(StateIdle, ReasonNone)
		}

	case StatusUnsubscribed:
		t.subscribed = false
		t.move(StateUnsubscribed, ReasonNone)

	default:
		return t.state, t.invalid(s)
	}

	return t.state, nil
}

// ApplyAttempt is Apply for a status that belongs to a numbered attempt, as
// returned by Attempts right after the matching ValueChanged.
//
// Statuses for attempts older than the current one return ErrStaleStatus:
// a late outcome of a superseded notification must not overwrite the state
// of the latest one.
func (t *Tracker) ApplyAttempt(attempt uint64, s Status) (State, error) {
	if attempt < t.attempts {
		return t.state, fmt.Errorf("%w: %s for attempt %d, current %d", ErrStaleStatus, s, attempt, t.attempts)
	}
	return t.Apply(s)
}

func (t *Tracker) move(to State, reason Reason) {
	t.state = to
	t.reason = reason
	t.lastChange = t.now()
}

func (t *Tracker) invalid(s Status) error {
	return fmt.Errorf("%w: %s in state %s", ErrInvalidTransition, s, t.state)
}
