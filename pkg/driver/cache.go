package driver

import (
	"fmt"

	"github.com/scpi-protocol/scpi-go/pkg/model"
)

// CommandChannel is the narrow dispatch contract the cache needs. It is
// satisfied by *scpi.Channel; tests substitute a scripted fake.
type CommandChannel interface {
	// Send writes one terminated command.
	Send(command string) error

	// Query writes one command and returns the delimited response.
	Query(command string) (string, error)
}

// cacheEntry is one attribute's last-known state.
type cacheEntry struct {
	desc model.AttributeDescriptor

	// getCommand and setCommand are the descriptor templates with the
	// group instance number already substituted.
	getCommand string
	setCommand string

	// invalidates lists qualified names made stale by a write, expanded
	// for the owning group instance.
	invalidates []string

	value any
	fresh bool
}

// AttributeCache stores the last-known values of all composed attributes,
// keyed by group-qualified name ("trigger.level", "channel[2].scale").
// Reads fall through to the command channel only when the cached value is
// stale; writes update the cache per the descriptor's clamp rule. The cache
// belongs to exactly one driver and shares its single-threaded discipline.
type AttributeCache struct {
	ch      CommandChannel
	entries map[string]*cacheEntry
}

// NewAttributeCache creates an empty cache over a command channel.
func NewAttributeCache(ch CommandChannel) *AttributeCache {
	return &AttributeCache{
		ch:      ch,
		entries: make(map[string]*cacheEntry),
	}
}

// Register adds one attribute under its qualified name. index is the
// owning group's instance number (0 for non-indexed groups); command
// templates and invalidation targets are expanded with it.
func (c *AttributeCache) Register(group string, index int, desc model.AttributeDescriptor) string {
	name := model.QualifiedName(group, index, desc.Name)

	invalidates := make([]string, 0, len(desc.Invalidates))
	for _, target := range desc.Invalidates {
		invalidates = append(invalidates, model.ExpandIndex(target, index))
	}

	c.entries[name] = &cacheEntry{
		desc:        desc,
		getCommand:  model.ExpandIndex(desc.GetCommand, index),
		setCommand:  model.ExpandIndex(desc.SetCommand, index),
		invalidates: invalidates,
	}
	return name
}

// Has reports whether a qualified name is registered.
func (c *AttributeCache) Has(name string) bool {
	_, ok := c.entries[name]
	return ok
}

// Names returns all registered qualified names.
func (c *AttributeCache) Names() []string {
	names := make([]string, 0, len(c.entries))
	for name := range c.entries {
		names = append(names, name)
	}
	return names
}

// Descriptor returns the registered descriptor for a qualified name.
func (c *AttributeCache) Descriptor(name string) (model.AttributeDescriptor, bool) {
	e, ok := c.entries[name]
	if !ok {
		return model.AttributeDescriptor{}, false
	}
	return e.desc, true
}

// Read returns the attribute value: the cached value when fresh, otherwise
// one get-command round trip whose parsed, domain-validated result becomes
// the new fresh value.
func (c *AttributeCache) Read(name string) (any, error) {
	e, ok := c.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAttribute, name)
	}
	if !e.desc.Access.CanRead() {
		return nil, fmt.Errorf("%w: %s", model.ErrAttributeNotReadable, name)
	}
	if e.fresh {
		return e.value, nil
	}

	response, err := c.ch.Query(e.getCommand)
	if err != nil {
		return nil, err
	}
	value, err := e.desc.Domain.Parse(response)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	e.value = value
	e.fresh = true
	return value, nil
}

// Write validates the value against the attribute's domain before any I/O,
// issues the set-command, and updates the cache. Attributes the instrument
// may clamp are left stale so the next Read queries the applied value;
// everything else becomes fresh with the written value. Declared coupled
// attributes are invalidated.
func (c *AttributeCache) Write(name string, value any) error {
	e, ok := c.entries[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAttribute, name)
	}
	if !e.desc.Access.CanWrite() {
		return fmt.Errorf("%w: %s", model.ErrAttributeNotWritable, name)
	}

	text, err := e.desc.Domain.Format(value)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	if err := c.ch.Send(fmt.Sprintf(e.setCommand, text)); err != nil {
		// The command may or may not have been applied; don't guess.
		e.fresh = false
		return err
	}

	e.value = value
	e.fresh = !e.desc.MayClamp

	for _, target := range e.invalidates {
		if t, ok := c.entries[target]; ok {
			t.fresh = false
		}
	}
	return nil
}

// Invalidate marks one attribute stale.
func (c *AttributeCache) Invalidate(name string) {
	if e, ok := c.entries[name]; ok {
		e.fresh = false
	}
}

// InvalidateAll marks every attribute stale, for wholesale state changes
// such as *RST or a setup restore.
func (c *AttributeCache) InvalidateAll() {
	for _, e := range c.entries {
		e.fresh = false
	}
}

// Fresh reports whether the attribute currently has a fresh cached value.
func (c *AttributeCache) Fresh(name string) bool {
	e, ok := c.entries[name]
	return ok && e.fresh
}
