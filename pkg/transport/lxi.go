package transport

import (
	"fmt"

	"github.com/gotmc/lxi"

	"github.com/scpi-protocol/scpi-go/pkg/resource"
)

// lxiBinding is a LAN session over the LXI/raw-socket client library.
type lxiBinding struct {
	session
	dev *lxi.Device
}

var _ Binding = (*lxiBinding)(nil)

// openLXI establishes a TCP session to a network instrument. The client
// library re-parses the raw resource string, so bridged sub-addresses pass
// through unmodified.
func openLXI(desc resource.Descriptor, opts Options) (Binding, error) {
	dev, err := lxi.NewDevice(desc.Raw)
	if err != nil {
		return nil, fmt.Errorf("%w: lxi %s: %v", ErrConnectionFailed, desc.InstrumentAddress(), err)
	}
	return &lxiBinding{
		session: newSession(resource.KindLAN, "\n"),
		dev:     dev,
	}, nil
}

func (b *lxiBinding) Write(p []byte) (int, error) {
	return b.dev.Write(p)
}

func (b *lxiBinding) Read(p []byte) (int, error) {
	return b.dev.Read(p)
}

func (b *lxiBinding) Close() error {
	return b.close(b.dev.Close)
}
