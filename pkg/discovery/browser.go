package discovery

import (
	"context"
	"time"
)

// Browser finds instruments announced over mDNS.
type Browser interface {
	// Browse searches the given DNS-SD service types and streams
	// discovered instruments. The channel is closed when the context is
	// cancelled or browsing completes.
	Browse(ctx context.Context, services ...string) (<-chan *Instrument, error)

	// FindByModel searches until an instrument with the given model name
	// appears. Returns when found or when the context ends.
	FindByModel(ctx context.Context, model string) (*Instrument, error)

	// Stop stops all active browsing operations.
	Stop()
}

// BrowserConfig configures browser behavior.
type BrowserConfig struct {
	// BrowseTimeout is the default deadline for browse operations.
	BrowseTimeout time.Duration

	// Interface names the network interface to browse on. Empty means
	// all interfaces.
	Interface string
}

// DefaultBrowserConfig returns the default browser configuration.
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		BrowseTimeout: BrowseTimeout,
	}
}

// FilterFunc filters browse results.
type FilterFunc func(*Instrument) bool

// FilterByManufacturer matches instruments from any of the given makers.
func FilterByManufacturer(makers ...string) FilterFunc {
	set := make(map[string]struct{}, len(makers))
	for _, m := range makers {
		set[m] = struct{}{}
	}
	return func(inst *Instrument) bool {
		_, ok := set[inst.Manufacturer]
		return ok
	}
}

// FilterResults filters a channel of instruments.
func FilterResults(in <-chan *Instrument, filter FilterFunc) <-chan *Instrument {
	out := make(chan *Instrument)
	go func() {
		defer close(out)
		for inst := range in {
			if filter(inst) {
				out <- inst
			}
		}
	}()
	return out
}
