package transport

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.bug.st/serial"

	"github.com/scpi-protocol/scpi-go/pkg/resource"
)

// defaultBaudRate applies when the resource string carries no baud token.
const defaultBaudRate = 9600

// serialBinding is a direct RS-232/USB-serial session. Serial instruments
// conventionally terminate commands with CR LF.
type serialBinding struct {
	session
	port serial.Port
}

var (
	_ Binding       = (*serialBinding)(nil)
	_ TimeoutSetter = (*serialBinding)(nil)
)

// openSerial establishes a serial session. The address token carries the
// device path with an optional baud rate: "ASRL::/dev/ttyUSB0,9600::INSTR".
// A "baud" resource option overrides the token.
func openSerial(desc resource.Descriptor, opts Options) (Binding, error) {
	path, baud, err := splitSerialAddress(desc)
	if err != nil {
		return nil, err
	}

	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("%w: serial %s: %v", ErrConnectionFailed, path, err)
	}
	if err := port.SetReadTimeout(opts.timeout()); err != nil {
		port.Close()
		return nil, fmt.Errorf("%w: serial %s: %v", ErrConnectionFailed, path, err)
	}

	return &serialBinding{
		session: newSession(resource.KindSerial, "\r\n"),
		port:    port,
	}, nil
}

func splitSerialAddress(desc resource.Descriptor) (string, int, error) {
	path := desc.InstrumentAddress()
	baud := defaultBaudRate

	if name, rate, ok := strings.Cut(path, ","); ok {
		n, err := strconv.Atoi(strings.TrimSpace(rate))
		if err != nil {
			return "", 0, fmt.Errorf("%w: baud rate %q is not numeric", ErrConnectionFailed, rate)
		}
		path, baud = name, n
	}
	if b, ok := desc.Option("baud"); ok {
		n, err := strconv.Atoi(b)
		if err != nil {
			return "", 0, fmt.Errorf("%w: baud option %q is not numeric", ErrConnectionFailed, b)
		}
		baud = n
	}
	return path, baud, nil
}

func (b *serialBinding) Write(p []byte) (int, error) {
	return b.port.Write(p)
}

func (b *serialBinding) Read(p []byte) (int, error) {
	return b.port.Read(p)
}

// SetReadTimeout bounds subsequent reads.
func (b *serialBinding) SetReadTimeout(d time.Duration) error {
	return b.port.SetReadTimeout(d)
}

func (b *serialBinding) Close() error {
	return b.close(b.port.Close)
}
