package discovery

import (
	"context"
	"net"
	"sync"

	"github.com/enbility/zeroconf/v3"
)

// MDNSBrowser implements the Browser interface using zeroconf.
type MDNSBrowser struct {
	config BrowserConfig

	mu      sync.Mutex
	stopped bool
	cancels []context.CancelFunc
}

// NewMDNSBrowser creates a new mDNS browser.
func NewMDNSBrowser(config BrowserConfig) *MDNSBrowser {
	return &MDNSBrowser{config: config}
}

// Browse searches the given service types, defaulting to every SCPI-capable
// type. Announcements are aggregated by instance name: addresses seen on
// multiple interfaces merge into a single entry, and an entry that loses
// all its addresses is dropped.
func (b *MDNSBrowser) Browse(ctx context.Context, services ...string) (<-chan *Instrument, error) {
	if len(services) == 0 {
		services = []string{ServiceLXI, ServiceSCPIRaw, ServiceVXI11}
	}

	ctx, cancel := context.WithCancel(ctx)
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		cancel()
		out := make(chan *Instrument)
		close(out)
		return out, nil
	}
	b.cancels = append(b.cancels, cancel)
	b.mu.Unlock()

	out := make(chan *Instrument)
	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)
	opts := b.browserOptions()

	go func() {
		defer close(out)

		known := make(map[string]*Instrument)

		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				inst := entryToInstrument(entry)

				existing, found := known[inst.InstanceName]
				if found {
					existing.Addresses = mergeAddresses(existing.Addresses, inst.Addresses)
					continue
				}
				known[inst.InstanceName] = inst
				select {
				case out <- inst:
				case <-ctx.Done():
					return
				}

			case entry, ok := <-removed:
				if !ok {
					continue
				}
				if existing, found := known[entry.Instance]; found {
					existing.Addresses = removeAddresses(existing.Addresses, entry)
					if len(existing.Addresses) == 0 {
						delete(known, entry.Instance)
					}
				}

			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		var wg sync.WaitGroup
		for _, service := range services {
			wg.Add(1)
			go func(service string) {
				defer wg.Done()
				_ = zeroconf.Browse(ctx, service, Domain, entries, removed, opts...)
			}(service)
		}
		wg.Wait()
	}()

	return out, nil
}

// FindByModel searches until an instrument with the given model appears.
func (b *MDNSBrowser) FindByModel(ctx context.Context, model string) (*Instrument, error) {
	results, err := b.Browse(ctx)
	if err != nil {
		return nil, err
	}

	for {
		select {
		case inst, ok := <-results:
			if !ok {
				return nil, ErrNotFound
			}
			if inst.Model == model {
				return inst, nil
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Stop stops all active browsing operations.
func (b *MDNSBrowser) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.stopped = true
	for _, cancel := range b.cancels {
		cancel()
	}
	b.cancels = nil
}

// browserOptions returns zeroconf client options based on config.
func (b *MDNSBrowser) browserOptions() []zeroconf.ClientOption {
	var opts []zeroconf.ClientOption

	if b.config.Interface != "" {
		iface, err := net.InterfaceByName(b.config.Interface)
		if err == nil {
			opts = append(opts, zeroconf.SelectIfaces([]net.Interface{*iface}))
		}
	}

	return opts
}

// entryToInstrument converts a zeroconf entry.
func entryToInstrument(entry *zeroconf.ServiceEntry) *Instrument {
	addrs := make([]string, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	for _, ip := range entry.AddrIPv4 {
		addrs = append(addrs, ip.String())
	}
	for _, ip := range entry.AddrIPv6 {
		addrs = append(addrs, ip.String())
	}

	inst := &Instrument{
		InstanceName: entry.Instance,
		Service:      entry.Service,
		Host:         entry.HostName,
		Port:         uint16(entry.Port),
		Addresses:    addrs,
	}
	inst.decodeTXT(entry.Text)
	return inst
}

// mergeAddresses appends addresses not already present, preserving order.
func mergeAddresses(existing, incoming []string) []string {
	seen := make(map[string]struct{}, len(existing))
	for _, a := range existing {
		seen[a] = struct{}{}
	}
	for _, a := range incoming {
		if _, ok := seen[a]; !ok {
			existing = append(existing, a)
		}
	}
	return existing
}

// removeAddresses drops the addresses announced by a disappearing entry.
func removeAddresses(addresses []string, entry *zeroconf.ServiceEntry) []string {
	gone := make(map[string]struct{}, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	for _, ip := range entry.AddrIPv4 {
		gone[ip.String()] = struct{}{}
	}
	for _, ip := range entry.AddrIPv6 {
		gone[ip.String()] = struct{}{}
	}

	kept := addresses[:0]
	for _, a := range addresses {
		if _, ok := gone[a]; !ok {
			kept = append(kept, a)
		}
	}
	return kept
}

// Ensure MDNSBrowser implements Browser interface.
var _ Browser = (*MDNSBrowser)(nil)
