package scpi

import (
	"errors"
	"fmt"
)

// Channel errors.
var (
	// ErrTimeout indicates a query did not produce a complete response
	// frame within the configured timeout. Instrument state after a timed
	// out command is ambiguous, so the channel never retries on its own.
	ErrTimeout = errors.New("query timeout")

	// ErrBlockFormat indicates a binary response did not carry a valid
	// definite-length block header.
	ErrBlockFormat = errors.New("malformed binary block")
)

// InstrumentError is a fault reported by the instrument's own error queue,
// as opposed to a transport fault. Code is the SCPI error code (negative
// for standard errors, e.g. -222 "Data out of range").
type InstrumentError struct {
	Code    int
	Message string
}

// Error returns the formatted instrument error.
func (e InstrumentError) Error() string {
	return fmt.Sprintf("instrument error %d: %s", e.Code, e.Message)
}
