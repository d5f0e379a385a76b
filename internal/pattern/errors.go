package pattern

import "errors"

// ErrInvalidPattern is returned when a pattern string contains a token that
// is not a non-negative integer. Nothing is played for such a pattern.
var ErrInvalidPattern = errors.New("pattern: invalid pattern")

// ErrUnknownMode is returned for a playback mode other than scheduled or blocking.
var ErrUnknownMode = errors.New("pattern: unknown playback mode")
