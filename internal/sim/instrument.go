package sim

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/scpi-protocol/scpi-go/pkg/resource"
	"github.com/scpi-protocol/scpi-go/pkg/scpi"
	"github.com/scpi-protocol/scpi-go/pkg/transport"
)

// Instrument is a simulated SCPI instrument behind the transport.Binding
// contract. Commands of the form ":path value" store state; ":path?"
// answers from it. IEEE 488.2 common commands (*IDN?, *RST, *CLS, *OPC?)
// and the SYST:ERR? error queue are modeled.
type Instrument struct {
	mu sync.Mutex

	id    string
	ident string

	defaults map[string]string
	state    map[string]string

	// clamp maps a command path to a function rewriting the written value
	// to what the "hardware" actually applies, emulating instruments that
	// round to legal steps.
	clamp map[string]func(string) string

	// raw maps a query to a canned raw response (already framed), for
	// binary block queries.
	raw map[string][]byte

	errQueue []string
	silent   bool // swallow the next responses, to provoke timeouts

	buf      []byte
	commands []string
	queries  map[string]int

	closed int
}

// Compile-time interface satisfaction checks.
var (
	_ transport.Binding       = (*Instrument)(nil)
	_ transport.TimeoutSetter = (*Instrument)(nil)
)

// New creates a simulated instrument with the given *IDN? response and
// default state (command path -> value text).
func New(ident string, defaults map[string]string) *Instrument {
	inst := &Instrument{
		id:       uuid.NewString(),
		ident:    ident,
		defaults: make(map[string]string, len(defaults)),
		state:    make(map[string]string, len(defaults)),
		clamp:    make(map[string]func(string) string),
		raw:      make(map[string][]byte),
		queries:  make(map[string]int),
	}
	for k, v := range defaults {
		key := normalize(k)
		inst.defaults[key] = v
		inst.state[key] = v
	}
	return inst
}

// Clamp installs a value rewriter for a command path.
func (s *Instrument) Clamp(path string, fn func(string) string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clamp[normalize(path)] = fn
}

// RawResponse scripts a pre-framed response for a query, e.g. a binary
// waveform block.
func (s *Instrument) RawResponse(query string, response []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw[normalize(query)] = response
}

// PushError queues an error-queue entry returned by the next SYST:ERR?.
func (s *Instrument) PushError(code int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errQueue = append(s.errQueue, fmt.Sprintf("%d,%q", code, message))
}

// GoSilent makes the instrument stop answering queries, to provoke
// timeouts. Writes are still accepted.
func (s *Instrument) GoSilent() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.silent = true
}

// Commands returns every command line received, in order.
func (s *Instrument) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commands...)
}

// QueryCount returns how often a query was issued, for cache round-trip
// assertions.
func (s *Instrument) QueryCount(query string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queries[normalize(query)]
}

// State returns the stored value for a command path.
func (s *Instrument) State(path string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.state[normalize(path)]
	return v, ok
}

// CloseCount returns how many times the binding was torn down.
func (s *Instrument) CloseCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// ID implements transport.Binding.
func (s *Instrument) ID() string { return s.id }

// Kind implements transport.Binding.
func (s *Instrument) Kind() resource.Kind { return resource.KindLAN }

// Terminator implements transport.Binding.
func (s *Instrument) Terminator() string { return "\n" }

// SetReadTimeout implements transport.TimeoutSetter. The simulator answers
// immediately or not at all, so the value is ignored.
func (s *Instrument) SetReadTimeout(time.Duration) error { return nil }

// Close implements transport.Binding.
func (s *Instrument) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}

// Write implements transport.Binding: it executes the command line and
// queues any response for Read.
func (s *Instrument) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Exactly one terminator is stripped; anything before it may be
	// binary block payload that legitimately ends in newline bytes.
	line := strings.TrimSuffix(string(p), "\n")
	line = strings.TrimSuffix(line, "\r")
	s.commands = append(s.commands, line)
	s.execute(line)
	return len(p), nil
}

// Read implements transport.Binding. A zero-byte result models a transport
// timeout tick.
func (s *Instrument) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.buf) == 0 {
		return 0, nil
	}
	n := copy(p, s.buf)
	s.buf = s.buf[n:]
	return n, nil
}

func (s *Instrument) respond(text string) {
	if s.silent {
		return
	}
	s.buf = append(s.buf, (text + "\n")...)
}

func (s *Instrument) respondRaw(data []byte) {
	if s.silent {
		return
	}
	s.buf = append(s.buf, data...)
	s.buf = append(s.buf, '\n')
}

func (s *Instrument) execute(line string) {
	norm := normalize(line)

	// Learn strings replay as one semicolon-chained program message.
	// Setup blocks are exempt: their binary payload is opaque.
	if strings.Contains(line, ";") &&
		!strings.HasPrefix(norm, ":system:setup") && !strings.HasPrefix(norm, "system:setup") {
		for _, part := range strings.Split(line, ";") {
			s.execute(strings.TrimSpace(part))
		}
		return
	}

	if strings.HasSuffix(norm, "?") {
		s.queries[norm]++
		s.executeQuery(norm)
		return
	}

	path, value, _ := strings.Cut(norm, " ")
	switch path {
	case "*rst":
		s.state = make(map[string]string, len(s.defaults))
		for k, v := range s.defaults {
			s.state[k] = v
		}
	case "*cls":
		s.errQueue = nil
	case ":system:setup", "system:setup":
		s.restoreSetup(line)
	default:
		if fn, ok := s.clamp[path]; ok {
			value = fn(value)
		}
		s.state[path] = value
	}
}

func (s *Instrument) executeQuery(norm string) {
	switch norm {
	case "*idn?":
		s.respond(s.ident)
		return
	case "*opc?":
		s.respond("1")
		return
	case "*lrn?":
		s.respond(s.learnString())
		return
	case ":system:error?", "system:error?":
		if len(s.errQueue) > 0 {
			next := s.errQueue[0]
			s.errQueue = s.errQueue[1:]
			s.respond(next)
		} else {
			s.respond(`0,"No error"`)
		}
		return
	case ":system:setup?", "system:setup?":
		s.respondRaw(scpi.EncodeBlock(s.setupBlob()))
		return
	}

	if data, ok := s.raw[norm]; ok {
		s.respondRaw(data)
		return
	}

	path := strings.TrimSuffix(norm, "?")
	if v, ok := s.state[path]; ok {
		s.respond(v)
		return
	}

	s.errQueue = append(s.errQueue, `-113,"Undefined header"`)
	// Headers the instrument does not know still produce no response;
	// the caller sees a timeout plus a queued error.
}

// learnString serializes the state store as a semicolon-chained program
// message, the classic *LRN? response shape.
func (s *Instrument) learnString() string {
	paths := make([]string, 0, len(s.state))
	for path := range s.state {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	parts := make([]string, 0, len(paths))
	for _, path := range paths {
		parts = append(parts, path+" "+s.state[path])
	}
	return strings.Join(parts, ";")
}

// setupBlob serializes the state store as an opaque payload.
func (s *Instrument) setupBlob() []byte {
	paths := make([]string, 0, len(s.state))
	for path := range s.state {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var b strings.Builder
	for _, path := range paths {
		fmt.Fprintf(&b, "%s=%s\n", path, s.state[path])
	}
	return []byte(b.String())
}

func (s *Instrument) restoreSetup(line string) {
	_, arg, ok := strings.Cut(line, " ")
	if !ok {
		return
	}
	payload, _, err := scpi.DecodeBlock([]byte(arg))
	if err != nil {
		s.errQueue = append(s.errQueue, `-161,"Invalid block data"`)
		return
	}

	s.state = make(map[string]string)
	for _, entry := range strings.Split(string(payload), "\n") {
		if path, value, ok := strings.Cut(entry, "="); ok {
			s.state[path] = value
		}
	}
}

// normalize lowercases a command and collapses surrounding whitespace so
// lookups are dialect-forgiving.
func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
