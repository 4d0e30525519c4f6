package driver

import "errors"

// Driver errors.
var (
	// ErrNotInitialized indicates an operation outside the Ready state.
	ErrNotInitialized = errors.New("driver not initialized")

	// ErrAlreadyInitialized indicates Initialize on a live or closed driver.
	ErrAlreadyInitialized = errors.New("driver already initialized")

	// ErrCapabilityNotSupported indicates the capability group exists for
	// the instrument class but not on this model variant. Distinct from an
	// unknown name so callers can tell "this instrument doesn't have this"
	// from "this name is wrong".
	ErrCapabilityNotSupported = errors.New("capability not supported")

	// ErrUnknownGroup indicates a group name the class never declares.
	ErrUnknownGroup = errors.New("unknown capability group")

	// ErrUnknownAttribute indicates an attribute name outside the composed
	// namespace.
	ErrUnknownAttribute = errors.New("unknown attribute")
)
