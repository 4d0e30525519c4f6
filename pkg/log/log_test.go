package log

import (
	"bytes"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	event := NewQueryEvent("sess-1", ":trigger:edge:level?", "2.5E-01", 3*time.Millisecond)
	event.Resource = "TCPIP0::192.168.1.104::INSTR"

	data, err := EncodeEvent(event)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}

	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}

	if decoded.SessionID != "sess-1" {
		t.Errorf("expected session sess-1, got %q", decoded.SessionID)
	}
	if decoded.Category != CategoryQuery {
		t.Errorf("expected CategoryQuery, got %v", decoded.Category)
	}
	if decoded.Query == nil || decoded.Query.Response != "2.5E-01" {
		t.Errorf("query payload did not survive round trip: %+v", decoded.Query)
	}
	if decoded.Resource != "TCPIP0::192.168.1.104::INSTR" {
		t.Errorf("resource did not survive round trip: %q", decoded.Resource)
	}
}

func TestQueryEventTruncation(t *testing.T) {
	long := strings.Repeat("x", MaxTracePayload+100)
	event := NewQueryEvent("sess-1", ":waveform:data?", long, time.Millisecond)

	if !event.Query.Truncated {
		t.Error("expected truncated flag")
	}
	if len(event.Query.Response) != MaxTracePayload {
		t.Errorf("expected response cut to %d bytes, got %d", MaxTracePayload, len(event.Query.Response))
	}
}

func TestFileLoggerAndReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.strc")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}

	logger.Log(NewCommandEvent("sess-9", "*RST", true))
	logger.Log(NewStateChangeEvent("sess-9", "initializing", "ready", ""))
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// Close is idempotent and later events are dropped.
	if err := logger.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
	logger.Log(NewCommandEvent("sess-9", "*CLS", false))

	reader, err := OpenReader(path)
	if err != nil {
		t.Fatalf("OpenReader failed: %v", err)
	}
	defer reader.Close()

	first, err := reader.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if first.Command == nil || first.Command.Command != "*RST" {
		t.Errorf("unexpected first event: %+v", first)
	}

	second, err := reader.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if second.StateChange == nil || second.StateChange.NewState != "ready" {
		t.Errorf("unexpected second event: %+v", second)
	}

	if _, err := reader.Next(); err != io.EOF {
		t.Errorf("expected io.EOF after two events, got %v", err)
	}
}

func TestMultiLogger(t *testing.T) {
	var a, b recordingLogger
	multi := NewMultiLogger(&a, &b)

	multi.Log(NewCommandEvent("sess-1", "*CLS", false))

	if len(a.events) != 1 || len(b.events) != 1 {
		t.Errorf("expected both loggers to receive the event, got %d and %d", len(a.events), len(b.events))
	}
}

func TestSlogAdapter(t *testing.T) {
	var buf bytes.Buffer
	slogger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	adapter := NewSlogAdapter(slogger)
	adapter.Log(NewQueryEvent("sess-1", "*IDN?", "RIGOL TECHNOLOGIES,MSO5072,XX,00.01", time.Millisecond))

	out := buf.String()
	if !strings.Contains(out, "sess-1") || !strings.Contains(out, "*IDN?") {
		t.Errorf("slog output missing event fields: %s", out)
	}
}

func TestOrNoop(t *testing.T) {
	if _, ok := OrNoop(nil).(NoopLogger); !ok {
		t.Error("OrNoop(nil) should return NoopLogger")
	}
	var rec recordingLogger
	if OrNoop(&rec) != &rec {
		t.Error("OrNoop should pass a non-nil logger through")
	}
}

// recordingLogger captures events for assertions.
type recordingLogger struct {
	events []Event
}

func (r *recordingLogger) Log(event Event) {
	r.events = append(r.events, event)
}
