package provisioning

import "errors"

// Domain errors for the provisioning store.
var (
	// ErrNotOpen is returned when the store is used before Init or after Close.
	ErrNotOpen = errors.New("provisioning: store not open")

	// ErrNotProvisioned is returned when no credentials have been stored.
	ErrNotProvisioned = errors.New("provisioning: no credentials")

	// ErrUnreadable is returned when the storage could not be opened and
	// reformatting was disabled or did not help.
	ErrUnreadable = errors.New("provisioning: storage unreadable")

	// ErrInvalidCredentials is returned when saving credentials without an endpoint name.
	ErrInvalidCredentials = errors.New("provisioning: endpoint name is required")
)
