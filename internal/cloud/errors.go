package cloud

import "errors"

// Domain errors for the device-management session.
var (
	// ErrNoCredentials is returned by Init when the storage cannot supply credentials.
	ErrNoCredentials = errors.New("cloud: storage does not provide credentials")

	// ErrBroker is returned when the broker session cannot be established.
	ErrBroker = errors.New("cloud: broker session failed")

	// ErrNotReady is returned when an operation is called in the wrong phase.
	ErrNotReady = errors.New("cloud: service not ready")

	// ErrRejected is reported when the server refuses a registration.
	ErrRejected = errors.New("cloud: registration rejected")

	// ErrRegistrationTimeout is reported when the server does not answer in time.
	ErrRegistrationTimeout = errors.New("cloud: registration timed out")

	// ErrUnreachable is returned by Network.Connect when the server cannot be reached.
	ErrUnreachable = errors.New("cloud: server unreachable")
)
