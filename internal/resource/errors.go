package resource

import "errors"

// Domain errors for the resource package.
var (
	// ErrInvalidPath is returned when a path is not three numeric segments.
	ErrInvalidPath = errors.New("resource: invalid path")

	// ErrDuplicatePath is returned when creating a resource whose path exists.
	ErrDuplicatePath = errors.New("resource: duplicate path")

	// ErrNotFound is returned when no resource exists at a path.
	ErrNotFound = errors.New("resource: not found")

	// ErrMethodNotAllowed is returned when an operation or handler binding
	// falls outside the resource's access mask.
	ErrMethodNotAllowed = errors.New("resource: method not allowed")

	// ErrHandlerBound is returned when a second handler is bound for the
	// same method.
	ErrHandlerBound = errors.New("resource: handler already bound")

	// ErrNotInteger is returned by Int when the value is not a decimal integer.
	ErrNotInteger = errors.New("resource: value is not an integer")
)
