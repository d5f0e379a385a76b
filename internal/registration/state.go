package registration

// State is the controller lifecycle state.
type State uint8

const (
	StateUninitialized State = iota
	StateConnecting
	StateConnected
	StateClientInitialized
	StateRegistering
	StateRegistered
	StateUnregistering
	StateClosed
	StateError
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "UNINITIALIZED"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateClientInitialized:
		return "CLIENT_INITIALIZED"
	case StateRegistering:
		return "REGISTERING"
	case StateRegistered:
		return "REGISTERED"
	case StateUnregistering:
		return "UNREGISTERING"
	case StateClosed:
		return "CLOSED"
	case StateError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateClosed || s == StateError
}
