package notification

import "errors"

// ErrInvalidTransition is returned when a delivery status arrives in a state
// that cannot accept it (for example Delivered before Sent). The tracker is
// left unchanged.
var ErrInvalidTransition = errors.New("notification: invalid state transition")

// ErrStaleStatus is returned when a delivery status belongs to an attempt
// that a later value change has superseded. The tracker is left unchanged.
var ErrStaleStatus = errors.New("notification: status for superseded attempt")
