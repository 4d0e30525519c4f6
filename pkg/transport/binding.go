package transport

import (
	"sync"

	"github.com/google/uuid"

	"github.com/scpi-protocol/scpi-go/pkg/resource"
)

// session carries the state shared by every binding implementation: the
// trace identifier, the transport kind, the terminator convention, and
// idempotent close bookkeeping.
type session struct {
	id         string
	kind       resource.Kind
	terminator string

	closeOnce sync.Once
	closeErr  error
}

func newSession(kind resource.Kind, terminator string) session {
	return session{
		id:         uuid.NewString(),
		kind:       kind,
		terminator: terminator,
	}
}

// ID returns the unique session identifier.
func (s *session) ID() string { return s.id }

// Kind returns the transport family.
func (s *session) Kind() resource.Kind { return s.kind }

// Terminator returns the command terminator for this transport.
func (s *session) Terminator() string { return s.terminator }

// close runs teardown exactly once; later calls return the first result.
func (s *session) close(teardown func() error) error {
	s.closeOnce.Do(func() {
		s.closeErr = teardown()
	})
	return s.closeErr
}
