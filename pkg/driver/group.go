package driver

import (
	"fmt"

	"github.com/scpi-protocol/scpi-go/pkg/model"
)

// Group is one composed capability-group instance. Indexed groups (channels,
// outputs) get one instance per physical channel with 1-based indices;
// non-indexed groups have index 0. Groups hold only a back-reference to the
// owning driver; the driver owns the channel and the cache.
type Group struct {
	decl  model.GroupDecl
	index int
	drv   *Driver
}

// Name returns the group name.
func (g *Group) Name() string { return g.decl.Name }

// Index returns the 1-based instance number, or 0 for non-indexed groups.
func (g *Group) Index() int { return g.index }

// Attributes returns the group's attribute descriptors.
func (g *Group) Attributes() []model.AttributeDescriptor {
	return g.decl.Attributes
}

// QualifiedName returns the cache-namespace name of a group-local attribute.
func (g *Group) QualifiedName(attribute string) string {
	return model.QualifiedName(g.decl.Name, g.index, attribute)
}

// Get reads a group-local attribute through the cache.
func (g *Group) Get(attribute string) (any, error) {
	if _, ok := g.decl.Attribute(attribute); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAttribute, g.QualifiedName(attribute))
	}
	return g.drv.Get(g.QualifiedName(attribute))
}

// Set writes a group-local attribute through the cache.
func (g *Group) Set(attribute string, value any) error {
	if _, ok := g.decl.Attribute(attribute); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAttribute, g.QualifiedName(attribute))
	}
	return g.drv.Set(g.QualifiedName(attribute), value)
}

// Invoke executes a composite command with the given argument string. The
// attributes the composite lists as invalidated go stale, so the next read
// of each re-queries the instrument.
func (g *Group) Invoke(name, args string) error {
	comp, ok := g.decl.Composite(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAttribute, g.QualifiedName(name))
	}
	if err := g.drv.requireReady(); err != nil {
		return err
	}
	command := fmt.Sprintf(model.ExpandIndex(comp.Command, g.index), args)
	if err := g.drv.channel.Send(command); err != nil {
		return err
	}
	for _, target := range comp.Invalidates {
		g.drv.cache.Invalidate(model.ExpandIndex(target, g.index))
	}
	return nil
}

// Fetch reads the group's bulk data as a definite-length binary block.
func (g *Group) Fetch() ([]byte, error) {
	if g.decl.FetchQuery == "" {
		return nil, fmt.Errorf("%w: %s has no bulk data", ErrCapabilityNotSupported, g.decl.Name)
	}
	if err := g.drv.requireReady(); err != nil {
		return nil, err
	}
	return g.drv.channel.QueryBinary(model.ExpandIndex(g.decl.FetchQuery, g.index))
}

// GetNumber reads a numeric attribute.
func (g *Group) GetNumber(attribute string) (float64, error) {
	v, err := g.Get(attribute)
	if err != nil {
		return 0, err
	}
	n, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("%w: %s is not numeric", model.ErrValueType, g.QualifiedName(attribute))
	}
	return n, nil
}

// GetString reads a string or enum attribute.
func (g *Group) GetString(attribute string) (string, error) {
	v, err := g.Get(attribute)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s is not a string", model.ErrValueType, g.QualifiedName(attribute))
	}
	return s, nil
}

// GetBool reads an on/off attribute.
func (g *Group) GetBool(attribute string) (bool, error) {
	v, err := g.Get(attribute)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%w: %s is not a bool", model.ErrValueType, g.QualifiedName(attribute))
	}
	return b, nil
}
