package transport

import (
	"fmt"

	"github.com/gotmc/usbtmc"
	_ "github.com/gotmc/usbtmc/driver/google" // gousb backend

	"github.com/scpi-protocol/scpi-go/pkg/resource"
)

// usbtmcBinding is a USBTMC session. The binding owns both the device and
// the USB context it was opened from.
type usbtmcBinding struct {
	session
	ctx *usbtmc.Context
	dev *usbtmc.Device
}

var _ Binding = (*usbtmcBinding)(nil)

// openUSBTMC establishes a USBTMC session. A context that cannot be created
// means the USB backend itself is missing (ErrTransportUnavailable); a
// context that cannot find the device means the instrument is not attached
// (ErrConnectionFailed).
func openUSBTMC(desc resource.Descriptor, opts Options) (Binding, error) {
	ctx, err := usbtmc.NewContext()
	if err != nil {
		return nil, fmt.Errorf("%w: usb backend: %v", ErrTransportUnavailable, err)
	}

	dev, err := ctx.NewDevice(desc.Raw)
	if err != nil {
		ctx.Close()
		return nil, fmt.Errorf("%w: usbtmc %s: %v", ErrConnectionFailed, desc.Raw, err)
	}

	return &usbtmcBinding{
		session: newSession(resource.KindUSB, "\n"),
		ctx:     ctx,
		dev:     dev,
	}, nil
}

func (b *usbtmcBinding) Write(p []byte) (int, error) {
	return b.dev.Write(p)
}

func (b *usbtmcBinding) Read(p []byte) (int, error) {
	return b.dev.Read(p)
}

func (b *usbtmcBinding) Close() error {
	return b.close(func() error {
		err := b.dev.Close()
		if cerr := b.ctx.Close(); err == nil {
			err = cerr
		}
		return err
	})
}
