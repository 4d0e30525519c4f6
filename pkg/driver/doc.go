// Package driver assembles the top-level instrument driver: one transport
// binding wrapped in a command channel, one attribute cache, and the
// composed set of capability groups for the target instrument class.
//
// A Driver follows a strict lifecycle: Uninitialized, Initializing, Ready,
// Closed. Initialize resolves the resource string, opens the transport,
// queries the instrument identity, and composes the capability groups; any
// failure along the way releases the transport and returns the driver to
// Uninitialized, so no partial Ready state is ever observable. Close is
// idempotent and releases the binding exactly once.
//
// Attribute access goes through the cache: reads return the last known
// value without touching the comparatively slow instrument link when it is
// fresh, and writes update the cache in place unless the attribute is
// declared clamp-prone, in which case the next read re-queries what the
// instrument actually applied.
//
// A Driver and its cache are not safe for concurrent use. The instrument
// is one stateful session; interleaved senders would corrupt it. Callers
// that need sharing must serialize externally.
package driver
