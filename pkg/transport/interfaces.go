package transport

import (
	"time"

	"github.com/scpi-protocol/scpi-go/pkg/resource"
)

// Binding is one live instrument session. A driver owns at most one binding
// at a time; every exit path from a session must release it through Close.
// Bindings are not safe for concurrent use.
type Binding interface {
	// ID is the unique session identifier, for trace correlation.
	ID() string

	// Kind reports the transport family of the session.
	Kind() resource.Kind

	// Write sends raw bytes to the instrument.
	Write(p []byte) (int, error)

	// Read fills p with response bytes, blocking until data arrives or the
	// configured read timeout elapses.
	Read(p []byte) (int, error)

	// Terminator is the command terminator convention for this transport.
	Terminator() string

	// Close releases the underlying session. Closing twice is safe.
	Close() error
}

// Clearer is implemented by bindings whose transport supports a device-clear
// operation (488.1 selected device clear, USBTMC initiate clear).
type Clearer interface {
	Clear() error
}

// TimeoutSetter is implemented by bindings whose reads can be bounded. The
// command channel uses it to apply per-query timeouts; bindings without it
// rely on the client library's own timeout configuration.
type TimeoutSetter interface {
	SetReadTimeout(d time.Duration) error
}

// Opener establishes one session for a resolved descriptor.
type Opener func(desc resource.Descriptor, opts Options) (Binding, error)

// Options configures session establishment.
type Options struct {
	// PreferGeneric tries the generic VISA opener before the kind-specific
	// one. Resolution is unaffected; only the open order changes.
	PreferGeneric bool `yaml:"prefer_generic"`

	// ReadTimeout is the initial read timeout applied to bindings that
	// support one. The command channel may adjust it per query.
	ReadTimeout time.Duration `yaml:"read_timeout"`
}

// DefaultReadTimeout bounds reads when the caller provides no timeout.
const DefaultReadTimeout = 5 * time.Second

// timeout returns the configured read timeout or the default.
func (o Options) timeout() time.Duration {
	if o.ReadTimeout > 0 {
		return o.ReadTimeout
	}
	return DefaultReadTimeout
}
