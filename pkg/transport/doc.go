// Package transport dispatches resolved resource descriptors to live
// instrument sessions.
//
// A Binding wraps exactly one session over one physical medium (VXI-11/LAN,
// USBTMC, GPIB, serial, or a generic VISA path) behind a narrow blocking
// contract: write bytes, read bytes, close. The byte-level protocols
// themselves live in external client libraries; this package only adapts
// them.
//
// The Registry maps a transport kind to an Opener. Opening applies a
// deterministic preference order: the kind-specific opener by default, or the
// generic opener first (with kind-specific fallback) when the caller prefers
// it. The registry distinguishes a missing transport backend
// (ErrTransportUnavailable, a configuration problem) from a present backend
// that cannot reach the device (ErrConnectionFailed, a network problem).
// There are no retries at this layer; retry policy belongs to the caller.
package transport
