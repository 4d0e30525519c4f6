package driver

// State is the driver lifecycle state.
type State uint8

const (
	// StateUninitialized - driver created, no session.
	StateUninitialized State = iota

	// StateInitializing - session being established and groups composed.
	StateInitializing

	// StateReady - session live, attribute and operation calls allowed.
	StateReady

	// StateClosed - session released.
	StateClosed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}
