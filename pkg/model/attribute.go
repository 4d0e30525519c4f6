package model

import (
	"errors"
	"strconv"
	"strings"
)

// Attribute access errors.
var (
	ErrAttributeNotReadable = errors.New("attribute is not readable")
	ErrAttributeNotWritable = errors.New("attribute is not writable")
)

// Access flags for attributes.
type Access uint8

const (
	// AccessRead allows reading the attribute.
	AccessRead Access = 1 << iota

	// AccessWrite allows writing the attribute.
	AccessWrite

	// AccessReadWrite allows both.
	AccessReadWrite = AccessRead | AccessWrite
)

// CanRead returns true if reading is allowed.
func (a Access) CanRead() bool { return a&AccessRead != 0 }

// CanWrite returns true if writing is allowed.
func (a Access) CanWrite() bool { return a&AccessWrite != 0 }

// String returns the access flags as a string.
func (a Access) String() string {
	var s string
	if a.CanRead() {
		s += "R"
	}
	if a.CanWrite() {
		s += "W"
	}
	if s == "" {
		return "-"
	}
	return s
}

// IndexPlaceholder marks the spot in a command template where the 1-based
// instance number of an indexed group is substituted, as in
// ":channel{ch}:scale".
const IndexPlaceholder = "{ch}"

// AttributeDescriptor describes one logical instrument attribute: its value
// domain, how it may be accessed, and the SCPI commands that read and write
// it. Descriptors are immutable declarations shared across driver instances.
type AttributeDescriptor struct {
	// Name is the group-local attribute name, e.g. "level".
	Name string

	// Domain is the legal value domain.
	Domain Domain

	// Access defines the allowed operations.
	Access Access

	// GetCommand is the SCPI query template, e.g. ":trigger:edge:level?".
	// Empty for write-only attributes.
	GetCommand string

	// SetCommand is the SCPI command template with a single %s verb for the
	// formatted value, e.g. ":trigger:edge:level %s". Empty for read-only
	// attributes.
	SetCommand string

	// MayClamp marks attributes the instrument silently rounds or clamps to
	// a legal step (timebase scale, sample rate, output frequency). A write
	// to such an attribute leaves the cached value stale so the next read
	// queries the value the instrument actually applied.
	MayClamp bool

	// Invalidates lists qualified names of cached attributes a write to
	// this attribute makes stale, for coupled settings such as a range
	// change moving a dependent offset limit. Names containing {ch} are
	// expanded with the writing group's own index.
	Invalidates []string

	// Description is help text for the attribute.
	Description string
}

// GroupDecl declares one capability group: a cohesive, immutable bundle of
// attributes representing a single instrument facet.
type GroupDecl struct {
	// Name is the group name, e.g. "trigger" or "channel".
	Name string

	// Indexed groups are materialized once per physical channel or output.
	Indexed bool

	// Count is the number of instances of an indexed group. Zero with a
	// non-empty CountQuery defers the count to the instrument at
	// initialization time.
	Count int

	// CountQuery optionally names a query whose integer response overrides
	// Count, for families where the channel count varies by model.
	CountQuery string

	// Attributes are the group's attribute descriptors in declaration order.
	Attributes []AttributeDescriptor

	// Composites are multi-attribute commands the group exposes alongside
	// its attributes, such as a generator's apply shorthand.
	Composites []CompositeDecl

	// FetchQuery optionally names the binary-block query that delivers the
	// group's bulk data, such as a captured waveform record.
	FetchQuery string

	// Absent reports that the group does not exist on a given model variant.
	// A nil Absent means the group is always present. Accessing an absent
	// group is a capability error, not an unknown-name error.
	Absent func(modelName string) bool
}

// CompositeDecl declares a command that writes several attributes in one
// instrument operation. The cache cannot track the individual values the
// instrument derives from it, so the listed attributes go stale after
// execution.
type CompositeDecl struct {
	// Name is the composite's group-local name, e.g. "apply".
	Name string

	// Command is the command template. One %s receives the caller's
	// argument string verbatim; {ch} expands to the instance number.
	Command string

	// Invalidates lists the qualified attribute names the command leaves
	// stale, using the same {ch} templates as descriptor Invalidates.
	Invalidates []string
}

// Attribute returns the descriptor with the given group-local name.
func (g GroupDecl) Attribute(name string) (AttributeDescriptor, bool) {
	for _, attr := range g.Attributes {
		if attr.Name == name {
			return attr, true
		}
	}
	return AttributeDescriptor{}, false
}

// Composite returns the composite command with the given group-local name.
func (g GroupDecl) Composite(name string) (CompositeDecl, bool) {
	for _, comp := range g.Composites {
		if comp.Name == name {
			return comp, true
		}
	}
	return CompositeDecl{}, false
}

// ClassDecl is the ordered capability composition for one instrument class.
type ClassDecl struct {
	// Name is the class name, e.g. "scope" or "fgen".
	Name string

	// Groups are the capability groups in composition order.
	Groups []GroupDecl

	// SetupQuery and SetupCommand name the opaque setup-blob passthrough
	// for the class, e.g. ":system:setup?" and ":system:setup". The blob
	// is never interpreted. Empty falls back to *LRN?.
	SetupQuery   string
	SetupCommand string
}

// Group returns the declaration with the given name.
func (c ClassDecl) Group(name string) (GroupDecl, bool) {
	for _, g := range c.Groups {
		if g.Name == name {
			return g, true
		}
	}
	return GroupDecl{}, false
}

// QualifiedName builds the cache-namespace name for an attribute. Indexed
// groups qualify with their 1-based instance number: "channel[2].scale".
// Non-indexed groups use "trigger.level".
func QualifiedName(group string, index int, attribute string) string {
	if index > 0 {
		return group + "[" + strconv.Itoa(index) + "]." + attribute
	}
	return group + "." + attribute
}

// ExpandIndex substitutes the group instance number into a command or
// qualified-name template.
func ExpandIndex(template string, index int) string {
	if index <= 0 {
		return template
	}
	return strings.ReplaceAll(template, IndexPlaceholder, strconv.Itoa(index))
}
