package transport

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scpi-protocol/scpi-go/pkg/resource"
)

// fakeBinding records lifecycle calls for registry tests.
type fakeBinding struct {
	session
	closed int
}

func newFakeBinding(kind resource.Kind) *fakeBinding {
	return &fakeBinding{session: newSession(kind, "\n")}
}

func (b *fakeBinding) Write(p []byte) (int, error) { return len(p), nil }
func (b *fakeBinding) Read(p []byte) (int, error)  { return 0, nil }
func (b *fakeBinding) Close() error {
	return b.close(func() error {
		b.closed++
		return nil
	})
}

func mustParse(t *testing.T, s string) resource.Descriptor {
	t.Helper()
	desc, err := resource.Parse(s)
	require.NoError(t, err)
	return desc
}

func TestRegistryOpenKindSpecific(t *testing.T) {
	r := NewRegistry()
	r.Register(resource.KindLAN, func(desc resource.Descriptor, opts Options) (Binding, error) {
		return newFakeBinding(resource.KindLAN), nil
	})

	b, err := r.Open(mustParse(t, "TCPIP0::192.168.1.104::INSTR"), Options{})
	require.NoError(t, err)
	assert.Equal(t, resource.KindLAN, b.Kind())
	assert.NotEmpty(t, b.ID())
}

func TestRegistryOpenUnregisteredKind(t *testing.T) {
	r := NewRegistry()

	_, err := r.Open(mustParse(t, "GPIB0::5::INSTR"), Options{})
	assert.ErrorIs(t, err, ErrTransportUnavailable)
}

func TestRegistryPreferGeneric(t *testing.T) {
	t.Run("GenericWins", func(t *testing.T) {
		r := NewRegistry()
		var lanCalled bool
		r.Register(resource.KindLAN, func(desc resource.Descriptor, opts Options) (Binding, error) {
			lanCalled = true
			return newFakeBinding(resource.KindLAN), nil
		})
		r.Register(resource.KindGeneric, func(desc resource.Descriptor, opts Options) (Binding, error) {
			return newFakeBinding(resource.KindGeneric), nil
		})

		b, err := r.Open(mustParse(t, "TCPIP0::192.168.1.104::INSTR"), Options{PreferGeneric: true})
		require.NoError(t, err)
		assert.Equal(t, resource.KindGeneric, b.Kind())
		assert.False(t, lanCalled, "kind-specific opener must not run when generic succeeds")
	})

	t.Run("FallsBackToKindSpecific", func(t *testing.T) {
		r := NewRegistry()
		r.Register(resource.KindLAN, func(desc resource.Descriptor, opts Options) (Binding, error) {
			return newFakeBinding(resource.KindLAN), nil
		})
		r.Register(resource.KindGeneric, func(desc resource.Descriptor, opts Options) (Binding, error) {
			return nil, errors.New("no visa runtime")
		})

		b, err := r.Open(mustParse(t, "TCPIP0::192.168.1.104::INSTR"), Options{PreferGeneric: true})
		require.NoError(t, err)
		assert.Equal(t, resource.KindLAN, b.Kind())
	})

	t.Run("ResolutionUnaffected", func(t *testing.T) {
		// Preference changes the open order only; the descriptor's kind is
		// still whatever the prefix grammar says.
		desc := mustParse(t, "TCPIP0::192.168.1.104::INSTR")
		assert.Equal(t, resource.KindLAN, desc.Kind)
	})
}

func TestRegistryOpenerErrorPassthrough(t *testing.T) {
	r := NewRegistry()
	r.Register(resource.KindSerial, func(desc resource.Descriptor, opts Options) (Binding, error) {
		return nil, ErrConnectionFailed
	})

	_, err := r.Open(mustParse(t, "ASRL::/dev/ttyUSB0,9600::INSTR"), Options{})
	assert.ErrorIs(t, err, ErrConnectionFailed)
	assert.NotErrorIs(t, err, ErrTransportUnavailable)
}

func TestSessionCloseIdempotent(t *testing.T) {
	b := newFakeBinding(resource.KindLAN)

	require.NoError(t, b.Close())
	require.NoError(t, b.Close())
	assert.Equal(t, 1, b.closed, "teardown must run exactly once")
}

func TestSplitSerialAddress(t *testing.T) {
	t.Run("PathWithBaud", func(t *testing.T) {
		path, baud, err := splitSerialAddress(mustParse(t, "ASRL::/dev/ttyUSB0,115200::INSTR"))
		require.NoError(t, err)
		assert.Equal(t, "/dev/ttyUSB0", path)
		assert.Equal(t, 115200, baud)
	})

	t.Run("DefaultBaud", func(t *testing.T) {
		path, baud, err := splitSerialAddress(mustParse(t, "ASRL::/dev/ttyS0::INSTR"))
		require.NoError(t, err)
		assert.Equal(t, "/dev/ttyS0", path)
		assert.Equal(t, defaultBaudRate, baud)
	})

	t.Run("BaudOptionOverrides", func(t *testing.T) {
		_, baud, err := splitSerialAddress(mustParse(t, "ASRL::/dev/ttyS0,9600::baud=19200::INSTR"))
		require.NoError(t, err)
		assert.Equal(t, 19200, baud)
	})

	t.Run("BadBaud", func(t *testing.T) {
		_, _, err := splitSerialAddress(mustParse(t, "ASRL::/dev/ttyS0,fast::INSTR"))
		assert.ErrorIs(t, err, ErrConnectionFailed)
	})
}
