package transport

import (
	"errors"
	"fmt"
	"sync"

	"github.com/scpi-protocol/scpi-go/pkg/resource"
)

// Session establishment errors.
var (
	// ErrTransportUnavailable indicates no backend is registered or usable
	// for the requested transport kind. This is a configuration problem.
	ErrTransportUnavailable = errors.New("transport unavailable")

	// ErrConnectionFailed indicates the backend is present but the device
	// could not be reached. This is a runtime/network problem.
	ErrConnectionFailed = errors.New("connection failed")
)

// Registry maps transport kinds to session openers.
type Registry struct {
	mu      sync.RWMutex
	openers map[resource.Kind]Opener
}

// NewRegistry returns an empty registry. Most callers want DefaultRegistry.
func NewRegistry() *Registry {
	return &Registry{openers: make(map[resource.Kind]Opener)}
}

// DefaultRegistry returns a registry with all built-in openers registered:
// LXI for LAN, USBTMC for USB, Prologix for GPIB, direct serial for ASRL,
// and the VISA resource path for generic.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(resource.KindLAN, openLXI)
	r.Register(resource.KindUSB, openUSBTMC)
	r.Register(resource.KindGPIB, openGPIB)
	r.Register(resource.KindSerial, openSerial)
	r.Register(resource.KindGeneric, openVISA)
	return r
}

// Register installs an opener for a transport kind, replacing any previous
// registration.
func (r *Registry) Register(kind resource.Kind, open Opener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.openers[kind] = open
}

// Open establishes exactly one session for the descriptor. With
// opts.PreferGeneric set, the generic opener is tried first regardless of the
// descriptor's kind, then the kind-specific opener as fallback. Open never
// retries; a failed constructor surfaces its error unchanged.
func (r *Registry) Open(desc resource.Descriptor, opts Options) (Binding, error) {
	if opts.PreferGeneric && desc.Kind != resource.KindGeneric {
		if generic, ok := r.opener(resource.KindGeneric); ok {
			b, err := generic(desc, opts)
			if err == nil {
				return b, nil
			}
			// Fall through to the kind-specific opener.
		}
	}

	open, ok := r.opener(desc.Kind)
	if !ok {
		return nil, fmt.Errorf("%w: no opener registered for %s", ErrTransportUnavailable, desc.Kind)
	}
	return open(desc, opts)
}

func (r *Registry) opener(kind resource.Kind) (Opener, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	open, ok := r.openers[kind]
	return open, ok
}
