package log

import (
	"time"
)

// Event represents one session trace event.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID uniquely identifies the transport session (UUID).
	SessionID string `cbor:"2,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"3,keyasint"`

	// Resource is the resource string the session was opened with.
	Resource string `cbor:"4,keyasint,omitempty"`

	// Type-specific payload (exactly one is set).
	Command     *CommandEvent     `cbor:"10,keyasint,omitempty"` // Outbound command, no response
	Query       *QueryEvent       `cbor:"11,keyasint,omitempty"` // Command/response round trip
	Block       *BlockEvent       `cbor:"12,keyasint,omitempty"` // Binary block transfer
	StateChange *StateChangeEvent `cbor:"13,keyasint,omitempty"` // Driver lifecycle transition
	Error       *ErrorEventData   `cbor:"14,keyasint,omitempty"` // Transport or instrument fault
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryCommand indicates an outbound command without a response.
	CategoryCommand Category = 0
	// CategoryQuery indicates a command/response round trip.
	CategoryQuery Category = 1
	// CategoryBlock indicates a binary block transfer.
	CategoryBlock Category = 2
	// CategoryState indicates a driver lifecycle transition.
	CategoryState Category = 3
	// CategoryError indicates a transport or instrument fault.
	CategoryError Category = 4
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryCommand:
		return "COMMAND"
	case CategoryQuery:
		return "QUERY"
	case CategoryBlock:
		return "BLOCK"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// MaxTracePayload is the maximum response size included in trace events.
// Longer responses are truncated; the full length is still recorded.
const MaxTracePayload = 4096

// CommandEvent captures an outbound command that expects no response.
type CommandEvent struct {
	// Command is the SCPI command text, without terminator.
	Command string `cbor:"1,keyasint"`

	// ErrorPolled reports whether the error queue was polled afterwards.
	ErrorPolled bool `cbor:"2,keyasint,omitempty"`
}

// QueryEvent captures a command/response round trip.
type QueryEvent struct {
	// Command is the SCPI query text, without terminator.
	Command string `cbor:"1,keyasint"`

	// Response is the response text (may be truncated).
	Response string `cbor:"2,keyasint,omitempty"`

	// Truncated indicates Response was cut at MaxTracePayload.
	Truncated bool `cbor:"3,keyasint,omitempty"`

	// RoundTrip is the time from write to complete response.
	RoundTrip time.Duration `cbor:"4,keyasint"`
}

// BlockEvent captures a binary block transfer (waveforms, screenshots,
// setup blobs). Payload bytes are not traced, only their size.
type BlockEvent struct {
	// Command is the SCPI query that initiated the transfer.
	Command string `cbor:"1,keyasint"`

	// Size is the payload size in bytes.
	Size int `cbor:"2,keyasint"`

	// RoundTrip is the time from write to complete transfer.
	RoundTrip time.Duration `cbor:"3,keyasint"`
}

// StateChangeEvent captures driver lifecycle transitions.
type StateChangeEvent struct {
	// OldState is the previous lifecycle state.
	OldState string `cbor:"1,keyasint,omitempty"`

	// NewState is the new lifecycle state.
	NewState string `cbor:"2,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"3,keyasint,omitempty"`
}

// ErrorEventData captures transport faults and instrument-reported errors.
type ErrorEventData struct {
	// Message is the error message.
	Message string `cbor:"1,keyasint"`

	// Code is the instrument error-queue code, when the fault came from the
	// instrument rather than the transport.
	Code *int `cbor:"2,keyasint,omitempty"`

	// Context describes what operation was in flight.
	Context string `cbor:"3,keyasint,omitempty"`
}

// NewCommandEvent builds a command trace event.
func NewCommandEvent(sessionID, command string, errorPolled bool) Event {
	return Event{
		Timestamp: time.Now(),
		SessionID: sessionID,
		Category:  CategoryCommand,
		Command:   &CommandEvent{Command: command, ErrorPolled: errorPolled},
	}
}

// NewQueryEvent builds a query trace event, truncating long responses.
func NewQueryEvent(sessionID, command, response string, roundTrip time.Duration) Event {
	truncated := false
	if len(response) > MaxTracePayload {
		response = response[:MaxTracePayload]
		truncated = true
	}
	return Event{
		Timestamp: time.Now(),
		SessionID: sessionID,
		Category:  CategoryQuery,
		Query: &QueryEvent{
			Command:   command,
			Response:  response,
			Truncated: truncated,
			RoundTrip: roundTrip,
		},
	}
}

// NewBlockEvent builds a binary transfer trace event.
func NewBlockEvent(sessionID, command string, size int, roundTrip time.Duration) Event {
	return Event{
		Timestamp: time.Now(),
		SessionID: sessionID,
		Category:  CategoryBlock,
		Block:     &BlockEvent{Command: command, Size: size, RoundTrip: roundTrip},
	}
}

// NewStateChangeEvent builds a lifecycle trace event.
func NewStateChangeEvent(sessionID, oldState, newState, reason string) Event {
	return Event{
		Timestamp:   time.Now(),
		SessionID:   sessionID,
		Category:    CategoryState,
		StateChange: &StateChangeEvent{OldState: oldState, NewState: newState, Reason: reason},
	}
}

// NewErrorEvent builds an error trace event. code may be nil for transport
// faults.
func NewErrorEvent(sessionID, message, context string, code *int) Event {
	return Event{
		Timestamp: time.Now(),
		SessionID: sessionID,
		Category:  CategoryError,
		Error:     &ErrorEventData{Message: message, Code: code, Context: context},
	}
}
