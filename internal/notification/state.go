package notification

// State is the delivery state of the most recent change notification.
type State uint8

const (
	// StateIdle means no notification has been attempted since start.
	StateIdle State = iota

	// StateQueued means a value change was handed to the Registration Service.
	StateQueued

	// StateSent means the message left the device.
	StateSent

	// StateDelivered means the remote side acknowledged the message.
	StateDelivered

	// StateFailed means the attempt ended without delivery. See Tracker.Reason.
	StateFailed

	// StateUnsubscribed means the remote subscriber cancelled observation.
	StateUnsubscribed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateQueued:
		return "QUEUED"
	case StateSent:
		return "SENT"
	case StateDelivered:
		return "DELIVERED"
	case StateFailed:
		return "FAILED"
	case StateUnsubscribed:
		return "UNSUBSCRIBED"
	default:
		return "UNKNOWN"
	}
}

// Reason explains a FAILED state.
type Reason uint8

const (
	ReasonNone Reason = iota
	ReasonBuildError
	ReasonResendQueueFull
	ReasonSendFailed
	ReasonUnsubscribed
)

// String returns a human-readable reason name.
func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "NONE"
	case ReasonBuildError:
		return "BUILD_ERROR"
	case ReasonResendQueueFull:
		return "RESEND_QUEUE_FULL"
	case ReasonSendFailed:
		return "SEND_FAILED"
	case ReasonUnsubscribed:
		return "UNSUBSCRIBED"
	default:
		return "UNKNOWN"
	}
}

// Status is a delivery signal reported by the Registration Service.
type Status uint8

const (
	// StatusBuildError means the notification message could not be encoded.
	StatusBuildError Status = iota + 1

	// StatusResendQueueFull means the outbound queue had no room.
	StatusResendQueueFull

	// StatusSent means the message was handed to the transport.
	StatusSent

	// StatusDelivered means the remote side acknowledged the message.
	StatusDelivered

	// StatusSendFailed means the transport reported an error or timed out.
	StatusSendFailed

	// StatusSubscribed means a remote subscriber started observing.
	StatusSubscribed

	// StatusUnsubscribed means the remote subscriber cancelled observation.
	StatusUnsubscribed
)

// String returns a human-readable status name.
func (s Status) String() string {
	switch s {
	case StatusBuildError:
		return "BUILD_ERROR"
	case StatusResendQueueFull:
		return "RESEND_QUEUE_FULL"
	case StatusSent:
		return "SENT"
	case StatusDelivered:
		return "DELIVERED"
	case StatusSendFailed:
		return "SEND_FAILED"
	case StatusSubscribed:
		return "SUBSCRIBED"
	case StatusUnsubscribed:
		return "UNSUBSCRIBED"
	default:
		return "UNKNOWN"
	}
}

// failureReason maps failure statuses to their Reason.
func failureReason(s Status) (Reason, bool) {
	switch s {
	case StatusBuildError:
		return ReasonBuildError, true
	case StatusResendQueueFull:
		return ReasonResendQueueFull, true
	case StatusSendFailed:
		return ReasonSendFailed, true
	default:
		return ReasonNone, false
	}
}
