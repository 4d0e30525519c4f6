package resource

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Resolution errors.
var (
	// ErrMalformedResource indicates the resource string has no usable
	// instrument address.
	ErrMalformedResource = errors.New("malformed resource string")
)

// Kind identifies the transport family a resource string addresses.
type Kind uint8

const (
	// KindGeneric routes through the generic VISA-compatible path.
	KindGeneric Kind = iota

	// KindLAN is a network instrument (VXI-11 / raw socket over TCP).
	KindLAN

	// KindUSB is a USBTMC instrument.
	KindUSB

	// KindGPIB is an IEEE 488 bus instrument.
	KindGPIB

	// KindSerial is an RS-232/USB-serial instrument.
	KindSerial
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindGeneric:
		return "generic"
	case KindLAN:
		return "lan"
	case KindUSB:
		return "usb"
	case KindGPIB:
		return "gpib"
	case KindSerial:
		return "serial"
	}
	return "unknown"
}

// Separator between resource string tokens.
const separator = "::"

// Resource classes. The trailing token of a resource string selects the
// session class; INSTR is assumed when absent.
const (
	ClassInstr  = "INSTR"
	ClassSocket = "SOCKET"
	ClassRaw    = "RAW"
)

// Descriptor is the parsed form of a resource string.
type Descriptor struct {
	// Raw is the original resource string, unmodified.
	Raw string

	// Kind is the transport family derived from the prefix.
	Kind Kind

	// Board is the interface index embedded in the prefix
	// (the 0 in "TCPIP0"). Zero when absent.
	Board int

	// Address holds the ordered address tokens between the prefix and the
	// class suffix. Bridged sub-addresses keep their position, so
	// "TCPIP0::host::gpib0,5::INSTR" yields ["host", "gpib0,5"].
	Address []string

	// Class is the session class token (INSTR, SOCKET, RAW). Defaults to
	// INSTR when the string carries none.
	Class string

	// Options holds name=value tokens found in the address part, such as
	// the port in "TCPIP0::host::port=5025::SOCKET".
	Options map[string]string
}

// InstrumentAddress returns the primary instrument address token.
func (d Descriptor) InstrumentAddress() string {
	if len(d.Address) == 0 {
		return ""
	}
	return d.Address[0]
}

// SubAddress returns the bridged sub-address token, if any.
func (d Descriptor) SubAddress() (string, bool) {
	if len(d.Address) < 2 {
		return "", false
	}
	return d.Address[1], true
}

// Option returns a named option value.
func (d Descriptor) Option(name string) (string, bool) {
	v, ok := d.Options[name]
	return v, ok
}

// Parse resolves a resource string into a Descriptor. It never performs I/O.
// The prefix is matched case-insensitively; anything outside the known
// prefixes resolves to KindGeneric. Parse fails with ErrMalformedResource
// when no instrument address token remains after the prefix.
func Parse(s string) (Descriptor, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Descriptor{}, fmt.Errorf("%w: empty string", ErrMalformedResource)
	}

	tokens := strings.Split(trimmed, separator)
	prefix := tokens[0]
	rest := tokens[1:]

	kind, board := classifyPrefix(prefix)

	desc := Descriptor{
		Raw:     s,
		Kind:    kind,
		Board:   board,
		Class:   ClassInstr,
		Options: make(map[string]string),
	}

	// Peel off the class suffix when present.
	if n := len(rest); n > 0 {
		switch strings.ToUpper(rest[n-1]) {
		case ClassInstr, ClassSocket, ClassRaw:
			desc.Class = strings.ToUpper(rest[n-1])
			rest = rest[:n-1]
		}
	}

	for _, tok := range rest {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if name, value, ok := strings.Cut(tok, "="); ok && !strings.ContainsAny(name, " ,/") {
			desc.Options[strings.ToLower(name)] = value
			continue
		}
		desc.Address = append(desc.Address, tok)
	}

	if len(desc.Address) == 0 {
		return Descriptor{}, fmt.Errorf("%w: %q has no instrument address", ErrMalformedResource, s)
	}

	return desc, nil
}

// classifyPrefix maps a prefix token to a transport kind plus board index.
// The board index is the decimal suffix on the prefix, if any.
func classifyPrefix(prefix string) (Kind, int) {
	upper := strings.ToUpper(strings.TrimSpace(prefix))

	base := strings.TrimRight(upper, "0123456789")
	board := 0
	if len(base) < len(upper) {
		if n, err := strconv.Atoi(upper[len(base):]); err == nil {
			board = n
		}
	}

	switch base {
	case "TCPIP":
		return KindLAN, board
	case "USB":
		return KindUSB, board
	case "GPIB":
		return KindGPIB, board
	case "ASRL":
		return KindSerial, board
	}
	return KindGeneric, board
}
