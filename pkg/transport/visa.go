package transport

import (
	"fmt"

	"github.com/gotmc/visa"

	"github.com/scpi-protocol/scpi-go/pkg/resource"
)

// visaBinding is the generic fallback path: the VISA resource layer picks
// its own backend from the raw resource string. Unrecognized prefixes and
// prefer-generic sessions land here.
type visaBinding struct {
	session
	res visa.Resource
}

var _ Binding = (*visaBinding)(nil)

func openVISA(desc resource.Descriptor, opts Options) (Binding, error) {
	res, err := visa.NewResource(desc.Raw)
	if err != nil {
		return nil, fmt.Errorf("%w: visa %s: %v", ErrConnectionFailed, desc.Raw, err)
	}
	return &visaBinding{
		session: newSession(desc.Kind, "\n"),
		res:     res,
	}, nil
}

func (b *visaBinding) Write(p []byte) (int, error) {
	return b.res.Write(p)
}

func (b *visaBinding) Read(p []byte) (int, error) {
	return b.res.Read(p)
}

func (b *visaBinding) Close() error {
	return b.close(b.res.Close)
}
