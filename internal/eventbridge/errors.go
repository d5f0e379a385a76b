package eventbridge

import "errors"

// Domain errors for the event bridge.
//
// Producers check these with errors.Is():
//
//	if _, err := bridge.Post(fn); errors.Is(err, eventbridge.ErrQueueFull) {
//	    // drop the event
//	}
var (
	// ErrClosed is returned when posting to a bridge that has been closed.
	ErrClosed = errors.New("eventbridge: closed")

	// ErrQueueFull is returned when a bounded bridge has no free slots.
	ErrQueueFull = errors.New("eventbridge: queue full")

	// ErrNilAction is returned when posting a nil action.
	ErrNilAction = errors.New("eventbridge: nil action")

	// ErrInvalidInterval is returned for a periodic action with a non-positive interval.
	ErrInvalidInterval = errors.New("eventbridge: interval must be positive")

	// ErrAlreadyRunning is returned when Run is called while another Run is active.
	ErrAlreadyRunning = errors.New("eventbridge: dispatcher already running")
)
