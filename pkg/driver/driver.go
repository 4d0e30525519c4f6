package driver

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/scpi-protocol/scpi-go/pkg/log"
	"github.com/scpi-protocol/scpi-go/pkg/model"
	"github.com/scpi-protocol/scpi-go/pkg/resource"
	"github.com/scpi-protocol/scpi-go/pkg/scpi"
	"github.com/scpi-protocol/scpi-go/pkg/transport"
)

// Driver is the top-level instrument object: one binding, one channel, one
// cache, and the capability groups composed for its instrument class.
type Driver struct {
	class    model.ClassDecl
	registry *transport.Registry

	state       State
	resourceStr string

	binding transport.Binding
	channel *scpi.Channel
	cache   *AttributeCache

	groups  map[string]*Group   // non-indexed instances
	indexed map[string][]*Group // indexed instances, 0-based slice of 1-based groups
	absent  map[string]bool     // groups declared absent for this model

	ident scpi.Identity
	trace log.Logger
}

// New creates an uninitialized driver for an instrument class using the
// default transport registry.
func New(class model.ClassDecl) *Driver {
	return NewWithRegistry(class, transport.DefaultRegistry())
}

// NewWithRegistry creates an uninitialized driver with an explicit transport
// registry, for custom openers or tests.
func NewWithRegistry(class model.ClassDecl, registry *transport.Registry) *Driver {
	return &Driver{
		class:    class,
		registry: registry,
		trace:    log.NoopLogger{},
	}
}

// State returns the lifecycle state.
func (d *Driver) State() State { return d.state }

// Resource returns the resource string the driver was initialized with.
func (d *Driver) Resource() string { return d.resourceStr }

// Identity returns the instrument identity queried during Initialize.
func (d *Driver) Identity() scpi.Identity { return d.ident }

// Channel returns the command channel for raw SCPI access alongside the
// composed attribute surface. Nil outside Ready.
func (d *Driver) Channel() *scpi.Channel { return d.channel }

// Initialize resolves the resource string, opens exactly one transport
// session, and composes the class's capability groups. On any failure the
// partially constructed session is released and the driver returns to
// Uninitialized with the underlying error; no partial Ready state is
// observable.
func (d *Driver) Initialize(resourceString string, cfg Config) error {
	if d.state != StateUninitialized {
		return fmt.Errorf("%w: state %s", ErrAlreadyInitialized, d.state)
	}

	d.trace = log.OrNoop(cfg.Trace)
	d.resourceStr = resourceString
	d.setState(StateInitializing, resourceString)

	desc, err := resource.Parse(resourceString)
	if err != nil {
		return d.initFailed(err)
	}

	binding, err := d.registry.Open(desc, cfg.Transport)
	if err != nil {
		return d.initFailed(err)
	}
	d.binding = binding

	chCfg := cfg.Channel
	if chCfg.Trace == nil {
		chCfg.Trace = cfg.Trace
	}
	d.channel = scpi.NewChannel(binding, chCfg)
	d.cache = NewAttributeCache(d.channel)

	if !cfg.SkipIdentity {
		ident, err := d.channel.Identity()
		if err != nil {
			return d.initFailed(fmt.Errorf("identify: %w", err))
		}
		d.ident = ident
	}

	if err := d.compose(); err != nil {
		return d.initFailed(err)
	}

	d.setState(StateReady, d.ident.Model)
	return nil
}

// initFailed releases whatever was constructed and reverts to
// Uninitialized, surfacing err unchanged.
func (d *Driver) initFailed(err error) error {
	if d.binding != nil {
		_ = d.binding.Close()
	}
	d.binding = nil
	d.channel = nil
	d.cache = nil
	d.groups = nil
	d.indexed = nil
	d.absent = nil
	d.ident = scpi.Identity{}
	d.setState(StateUninitialized, err.Error())
	return err
}

// compose materializes the class's capability groups and registers every
// attribute into the cache namespace.
func (d *Driver) compose() error {
	d.groups = make(map[string]*Group)
	d.indexed = make(map[string][]*Group)
	d.absent = make(map[string]bool)

	for _, decl := range d.class.Groups {
		if decl.Absent != nil && decl.Absent(d.ident.Model) {
			d.absent[decl.Name] = true
			continue
		}

		if !decl.Indexed {
			for _, attr := range decl.Attributes {
				d.cache.Register(decl.Name, 0, attr)
			}
			d.groups[decl.Name] = &Group{decl: decl, index: 0, drv: d}
			continue
		}

		count := decl.Count
		if decl.CountQuery != "" {
			response, err := d.channel.Query(decl.CountQuery)
			if err != nil {
				return fmt.Errorf("count %s groups: %w", decl.Name, err)
			}
			n, err := strconv.Atoi(strings.TrimSpace(response))
			if err != nil {
				return fmt.Errorf("count %s groups: unparseable response %q", decl.Name, response)
			}
			count = n
		}
		if count <= 0 {
			d.absent[decl.Name] = true
			continue
		}

		instances := make([]*Group, 0, count)
		for i := 1; i <= count; i++ {
			for _, attr := range decl.Attributes {
				d.cache.Register(decl.Name, i, attr)
			}
			instances = append(instances, &Group{decl: decl, index: i, drv: d})
		}
		d.indexed[decl.Name] = instances
	}
	return nil
}

// Close releases the transport binding. Close is idempotent: calling it
// twice never fails and never attempts a second teardown.
func (d *Driver) Close() error {
	if d.state == StateClosed {
		return nil
	}

	var err error
	if d.binding != nil {
		err = d.binding.Close()
	}
	d.setState(StateClosed, "")
	return err
}

// Group returns a non-indexed capability group by name.
func (d *Driver) Group(name string) (*Group, error) {
	if err := d.requireReady(); err != nil {
		return nil, err
	}
	if d.absent[name] {
		return nil, fmt.Errorf("%w: %s (model %s)", ErrCapabilityNotSupported, name, d.ident.Model)
	}
	if g, ok := d.groups[name]; ok {
		return g, nil
	}
	if _, ok := d.indexed[name]; ok {
		return nil, fmt.Errorf("group %s is indexed, use GroupAt", name)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownGroup, name)
}

// GroupAt returns instance n (1-based) of an indexed capability group. An
// index past the instrument's channel count is a capability error, not an
// unknown name.
func (d *Driver) GroupAt(name string, n int) (*Group, error) {
	if err := d.requireReady(); err != nil {
		return nil, err
	}
	if d.absent[name] {
		return nil, fmt.Errorf("%w: %s (model %s)", ErrCapabilityNotSupported, name, d.ident.Model)
	}
	instances, ok := d.indexed[name]
	if !ok {
		if _, single := d.groups[name]; single {
			return nil, fmt.Errorf("group %s is not indexed, use Group", name)
		}
		return nil, fmt.Errorf("%w: %s", ErrUnknownGroup, name)
	}
	if n < 1 || n > len(instances) {
		return nil, fmt.Errorf("%w: %s[%d] (have %d)", ErrCapabilityNotSupported, name, n, len(instances))
	}
	return instances[n-1], nil
}

// GroupCount returns the number of instances of an indexed group, or zero
// when the group is absent or unknown.
func (d *Driver) GroupCount(name string) int {
	return len(d.indexed[name])
}

// GroupNames returns the composed group names in class declaration order,
// excluding absent groups.
func (d *Driver) GroupNames() []string {
	names := make([]string, 0, len(d.class.Groups))
	for _, decl := range d.class.Groups {
		if d.absent[decl.Name] {
			continue
		}
		names = append(names, decl.Name)
	}
	return names
}

// AttributeNames returns all composed qualified attribute names, sorted.
func (d *Driver) AttributeNames() []string {
	if d.cache == nil {
		return nil
	}
	names := d.cache.Names()
	sort.Strings(names)
	return names
}

// Get reads an attribute by qualified name through the cache.
func (d *Driver) Get(name string) (any, error) {
	if err := d.requireReady(); err != nil {
		return nil, err
	}
	if err := d.checkAbsent(name); err != nil {
		return nil, err
	}
	return d.cache.Read(name)
}

// Set writes an attribute by qualified name through the cache.
func (d *Driver) Set(name string, value any) error {
	if err := d.requireReady(); err != nil {
		return err
	}
	if err := d.checkAbsent(name); err != nil {
		return err
	}
	return d.cache.Write(name, value)
}

// Invalidate marks one attribute stale, forcing the next read to query the
// instrument.
func (d *Driver) Invalidate(name string) {
	if d.cache != nil {
		d.cache.Invalidate(name)
	}
}

// Reset issues *RST and invalidates the whole cache.
func (d *Driver) Reset() error {
	if err := d.requireReady(); err != nil {
		return err
	}
	if err := d.channel.Reset(); err != nil {
		return err
	}
	d.cache.InvalidateAll()
	return nil
}

// SaveSetup fetches the instrument's setup blob. The payload is opaque;
// the driver never interprets it.
func (d *Driver) SaveSetup() ([]byte, error) {
	if err := d.requireReady(); err != nil {
		return nil, err
	}
	if d.class.SetupQuery != "" {
		return d.channel.QueryBinary(d.class.SetupQuery)
	}
	response, err := d.channel.Query("*LRN?")
	if err != nil {
		return nil, err
	}
	return []byte(response), nil
}

// RestoreSetup writes a setup blob captured by SaveSetup back to the
// instrument and invalidates the whole cache.
func (d *Driver) RestoreSetup(blob []byte) error {
	if err := d.requireReady(); err != nil {
		return err
	}
	if d.class.SetupCommand == "" {
		// No setup passthrough: the blob is a *LRN? learn string, which
		// replays as an ordinary chained program message.
		if err := d.channel.Send(string(blob)); err != nil {
			return err
		}
		d.cache.InvalidateAll()
		return nil
	}
	if err := d.channel.SendBlock(d.class.SetupCommand, blob); err != nil {
		return err
	}
	d.cache.InvalidateAll()
	return nil
}

func (d *Driver) requireReady() error {
	if d.state != StateReady {
		return fmt.Errorf("%w: state %s", ErrNotInitialized, d.state)
	}
	return nil
}

// checkAbsent distinguishes attributes of an absent group from unknown
// names.
func (d *Driver) checkAbsent(name string) error {
	group := name
	if i := strings.IndexAny(name, ".["); i >= 0 {
		group = name[:i]
	}
	if d.absent[group] {
		return fmt.Errorf("%w: %s (model %s)", ErrCapabilityNotSupported, group, d.ident.Model)
	}
	return nil
}

func (d *Driver) setState(next State, reason string) {
	old := d.state
	d.state = next

	sessionID := ""
	if d.binding != nil {
		sessionID = d.binding.ID()
	}
	event := log.NewStateChangeEvent(sessionID, old.String(), next.String(), reason)
	event.Resource = d.resourceStr
	d.trace.Log(event)
}
