package scpi

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/scpi-protocol/scpi-go/pkg/log"
	"github.com/scpi-protocol/scpi-go/pkg/transport"
)

// readChunk is the transport read buffer size.
const readChunk = 4096

// errorQueueQuery drains one entry from the instrument error queue.
const errorQueueQuery = "SYSTem:ERRor?"

// Config configures a command channel.
type Config struct {
	// QueryTimeout bounds each query round trip.
	QueryTimeout time.Duration `yaml:"query_timeout"`

	// PollErrorQueue polls SYST:ERR? after every state-changing command.
	// This is the safe default; disabling trades completeness for latency.
	PollErrorQueue bool `yaml:"poll_error_queue"`

	// Trace receives a trace event per command, query, and fault.
	Trace log.Logger `yaml:"-"`
}

// DefaultConfig returns the default channel configuration.
func DefaultConfig() Config {
	return Config{
		QueryTimeout:   transport.DefaultReadTimeout,
		PollErrorQueue: true,
	}
}

// Channel is the command/query dispatch primitive over one binding. All
// capability groups of a driver share one channel. Calls are strictly
// ordered; the channel serializes concurrent callers but the owning driver
// is still a single-session object.
type Channel struct {
	mu         sync.Mutex
	binding    transport.Binding
	timeout    time.Duration
	pollErrors bool
	trace      log.Logger

	// pending holds bytes read past the last response delimiter.
	pending []byte
}

// NewChannel builds a channel over an established binding.
func NewChannel(binding transport.Binding, cfg Config) *Channel {
	timeout := cfg.QueryTimeout
	if timeout <= 0 {
		timeout = transport.DefaultReadTimeout
	}
	return &Channel{
		binding:    binding,
		timeout:    timeout,
		pollErrors: cfg.PollErrorQueue,
		trace:      log.OrNoop(cfg.Trace),
	}
}

// Binding returns the underlying transport binding.
func (c *Channel) Binding() transport.Binding { return c.binding }

// SessionID returns the binding's session identifier.
func (c *Channel) SessionID() string { return c.binding.ID() }

// Send writes one terminated command. When error-queue polling is enabled,
// Send drains the queue afterwards and surfaces any fault as
// InstrumentError.
func (c *Channel) Send(command string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.writeLocked(command); err != nil {
		return err
	}

	polled := c.pollErrors && !isQuery(command)
	c.trace.Log(log.NewCommandEvent(c.binding.ID(), command, polled))

	if !polled {
		return nil
	}
	return c.pollErrorQueueLocked(command)
}

// Query writes one terminated command and blocks for a single delimited
// response frame.
func (c *Channel) Query(command string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queryLocked(command)
}

// QueryBinary writes one terminated command and reads an IEEE 488.2
// definite-length block response, returning the raw payload.
func (c *Channel) QueryBinary(command string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	if err := c.writeLocked(command); err != nil {
		return nil, err
	}

	payload, err := c.readBlockLocked(command)
	if err != nil {
		return nil, err
	}

	c.trace.Log(log.NewBlockEvent(c.binding.ID(), command, len(payload), time.Since(start)))
	return payload, nil
}

// SendBlock writes a command followed by its argument encoded as a
// definite-length block, for opaque payloads such as setup blobs.
func (c *Channel) SendBlock(command string, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data := append([]byte(command+" "), EncodeBlock(payload)...)
	data = append(data, c.binding.Terminator()...)
	if _, err := c.binding.Write(data); err != nil {
		return fmt.Errorf("write %q: %w", command, err)
	}

	c.trace.Log(log.NewCommandEvent(c.binding.ID(), command, c.pollErrors))
	if !c.pollErrors {
		return nil
	}
	return c.pollErrorQueueLocked(command)
}

// queryLocked runs one query round trip. Callers hold c.mu.
func (c *Channel) queryLocked(command string) (string, error) {
	start := time.Now()
	if err := c.writeLocked(command); err != nil {
		return "", err
	}

	response, err := c.readFrameLocked(command)
	if err != nil {
		return "", err
	}

	c.trace.Log(log.NewQueryEvent(c.binding.ID(), command, response, time.Since(start)))
	return response, nil
}

// writeLocked sends one terminated command. Callers hold c.mu.
func (c *Channel) writeLocked(command string) error {
	data := []byte(command + c.binding.Terminator())
	if _, err := c.binding.Write(data); err != nil {
		c.trace.Log(log.NewErrorEvent(c.binding.ID(), err.Error(), command, nil))
		return fmt.Errorf("write %q: %w", command, err)
	}
	return nil
}

// readFrameLocked blocks until a terminator-delimited response frame is
// complete, the timeout elapses, or the transport fails.
func (c *Channel) readFrameLocked(context string) (string, error) {
	raw, err := c.readUntilLocked(func(buf []byte) int {
		if i := bytes.IndexByte(buf, '\n'); i >= 0 {
			return i + 1
		}
		return -1
	}, context)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(raw), "\r\n"), nil
}

// readBlockLocked blocks until a complete definite-length block is read.
func (c *Channel) readBlockLocked(context string) ([]byte, error) {
	var blockErr error
	raw, err := c.readUntilLocked(func(buf []byte) int {
		n, err := blockLength(buf)
		if err != nil {
			blockErr = err
			return len(buf) // stop reading; the header is unusable
		}
		return n
	}, context)
	if blockErr != nil {
		return nil, blockErr
	}
	if err != nil {
		return nil, err
	}
	payload, _, err := DecodeBlock(raw)
	if err == nil {
		// Consume the response terminator that trails the block.
		c.pending = bytes.TrimLeft(c.pending, "\r\n")
	}
	return payload, err
}

// readUntilLocked accumulates transport reads until complete reports the
// frame length in bytes (or -1 to keep reading). Surplus bytes stay pending
// for the next read.
func (c *Channel) readUntilLocked(complete func([]byte) int, context string) ([]byte, error) {
	if ts, ok := c.binding.(transport.TimeoutSetter); ok {
		if err := ts.SetReadTimeout(c.timeout); err != nil {
			return nil, fmt.Errorf("set read timeout: %w", err)
		}
	}

	buf := c.pending
	c.pending = nil
	deadline := time.Now().Add(c.timeout)
	tmp := make([]byte, readChunk)

	for {
		if n := complete(buf); n > 0 && n <= len(buf) {
			c.pending = append(c.pending, buf[n:]...)
			return buf[:n], nil
		}

		n, err := c.binding.Read(tmp)
		if n > 0 {
			buf = append(buf, tmp[:n]...)
			continue
		}
		if err != nil {
			if isTimeout(err) {
				c.trace.Log(log.NewErrorEvent(c.binding.ID(), "query timeout", context, nil))
				return nil, fmt.Errorf("%w: %s", ErrTimeout, context)
			}
			c.trace.Log(log.NewErrorEvent(c.binding.ID(), err.Error(), context, nil))
			return nil, fmt.Errorf("read after %q: %w", context, err)
		}
		// A zero-byte read with no error is a transport timeout tick
		// (serial semantics). Honor the channel deadline.
		if !time.Now().Before(deadline) {
			c.trace.Log(log.NewErrorEvent(c.binding.ID(), "query timeout", context, nil))
			return nil, fmt.Errorf("%w: %s", ErrTimeout, context)
		}
	}
}

// pollErrorQueueLocked drains one error-queue entry and surfaces a fault.
func (c *Channel) pollErrorQueueLocked(context string) error {
	response, err := c.queryLocked(errorQueueQuery)
	if err != nil {
		return err
	}

	code, message, err := parseErrorQueue(response)
	if err != nil {
		return err
	}
	if code == 0 {
		return nil
	}

	c.trace.Log(log.NewErrorEvent(c.binding.ID(), message, context, &code))
	return InstrumentError{Code: code, Message: message}
}

// parseErrorQueue parses a SYST:ERR? response such as
// `-222,"Data out of range"`.
func parseErrorQueue(response string) (int, string, error) {
	codeText, message, _ := strings.Cut(response, ",")
	code, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(codeText), "+"))
	if err != nil {
		return 0, "", fmt.Errorf("unparseable error queue response %q", response)
	}
	return code, strings.Trim(strings.TrimSpace(message), `"`), nil
}

// isQuery reports whether a command expects a response and therefore must
// not be followed by an error-queue poll (the poll would consume its
// response slot).
func isQuery(command string) bool {
	return strings.HasSuffix(strings.TrimSpace(command), "?")
}

// isTimeout matches transport-level timeout errors.
func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
