package registration

import "errors"

// Domain errors for the registration controller.
var (
	// ErrInvalidState is returned when an operation is not valid in the
	// controller's current state.
	ErrInvalidState = errors.New("registration: invalid state")

	// ErrResourceAfterRegistration is returned by CreateResource once the
	// device is registered. Late resources would never be advertised.
	ErrResourceAfterRegistration = errors.New("registration: resource created after registration")

	// ErrStorage wraps storage initialisation failures.
	ErrStorage = errors.New("registration: storage initialisation failed")

	// ErrNetwork wraps network connect failures after all attempts.
	ErrNetwork = errors.New("registration: network connect failed")

	// ErrClientInit wraps Registration Service initialisation failures.
	ErrClientInit = errors.New("registration: client initialisation failed")

	// ErrRegistrationFailed wraps the error reported by the service.
	ErrRegistrationFailed = errors.New("registration: registration failed")

	// ErrRegistrationTimeout is returned by WaitRegistered on timeout.
	ErrRegistrationTimeout = errors.New("registration: timed out waiting for registration")

	// ErrClosed is returned by WaitRegistered when the controller closed first.
	ErrClosed = errors.New("registration: closed")
)
