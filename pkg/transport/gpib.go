package transport

import (
	"fmt"
	"io"
	"strconv"

	"github.com/gotmc/prologix"
	"github.com/gotmc/prologix/driver/vcp"

	"github.com/scpi-protocol/scpi-go/pkg/resource"
)

// gpibBinding is a GPIB session through a Prologix USB controller. The
// controller's own virtual COM port is not part of the GPIB resource string;
// it comes from the "port" resource option or GPIBControllerPort.
type gpibBinding struct {
	session
	port io.Closer
	ctrl *prologix.Controller
}

var _ Binding = (*gpibBinding)(nil)
var _ Clearer = (*gpibBinding)(nil)

// GPIBControllerPort is the fallback serial port of the Prologix GPIB-USB
// controller when the resource string carries no port option.
var GPIBControllerPort = "/dev/ttyUSB0"

// openGPIB establishes a session to a GPIB instrument behind a Prologix
// controller. The primary address is the first address token of the resource
// string ("GPIB0::5::INSTR" talks to address 5).
func openGPIB(desc resource.Descriptor, opts Options) (Binding, error) {
	addr, err := strconv.Atoi(desc.InstrumentAddress())
	if err != nil {
		return nil, fmt.Errorf("%w: gpib address %q is not numeric", ErrConnectionFailed, desc.InstrumentAddress())
	}

	portName := GPIBControllerPort
	if p, ok := desc.Option("port"); ok {
		portName = p
	}
	if portName == "" {
		return nil, fmt.Errorf("%w: no Prologix controller port configured", ErrTransportUnavailable)
	}

	port, err := vcp.NewVCP(portName)
	if err != nil {
		return nil, fmt.Errorf("%w: prologix controller %s: %v", ErrTransportUnavailable, portName, err)
	}

	ctrl, err := prologix.NewController(port, addr, false)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("%w: gpib %d: %v", ErrConnectionFailed, addr, err)
	}

	return &gpibBinding{
		session: newSession(resource.KindGPIB, "\n"),
		port:    port,
		ctrl:    ctrl,
	}, nil
}

func (b *gpibBinding) Write(p []byte) (int, error) {
	return b.ctrl.Write(p)
}

func (b *gpibBinding) Read(p []byte) (int, error) {
	return b.ctrl.Read(p)
}

// Clear issues a selected device clear through the controller.
func (b *gpibBinding) Clear() error {
	return b.ctrl.ClearDevice()
}

func (b *gpibBinding) Close() error {
	return b.close(b.port.Close)
}
