// Package resource parses VISA-style resource strings into transport
// descriptors.
//
// A resource string names an instrument and how to reach it, for example
// "TCPIP0::192.168.1.104::INSTR" or "GPIB0::5::INSTR". Parsing is pure: it
// performs no I/O and is deterministic over the input string. The transport
// kind is derived from a fixed prefix grammar; unrecognized prefixes resolve
// to KindGeneric so the generic VISA path can take over.
//
// Bridged addresses are preserved in order. A string such as
// "TCPIP0::192.168.1.50::gpib0,7::INSTR" keeps both the host and the
// embedded GPIB sub-address as separate tokens so a transport constructor
// can re-dial through the intermediate bridge.
package resource
