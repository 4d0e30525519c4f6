// Package model defines the static metadata that describes instrument
// capabilities: value domains, attribute descriptors with their SCPI command
// templates, and capability-group declarations.
//
// Everything in this package is declaration, not behavior. A capability group
// is an immutable bundle of attribute descriptors (trigger, acquisition,
// channel, output); an instrument class is an ordered list of group
// declarations. Drivers compose these declarations at construction time and
// never change them afterwards. The metadata is queried through typed
// lookups; there is no runtime reflection.
package model
