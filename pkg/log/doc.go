// Package log provides structured session tracing for SCPI instrument I/O.
//
// This package defines the Logger interface and Event types for capturing
// every command, query, binary transfer, lifecycle transition, and
// instrument-reported fault on a session. It is separate from operational
// logging (slog): a session trace is a complete machine-readable record of
// what was said to the instrument and what it answered, for post-mortem
// debugging of measurement scripts.
//
// Applications configure tracing by providing a Logger implementation:
//
//	// For development: trace to console via slog
//	cfg.Trace = log.NewSlogAdapter(slog.Default())
//
//	// For production: write to a binary trace file
//	cfg.Trace, _ = log.NewFileLogger("session.strc")
//
//	// Both at once
//	cfg.Trace = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// Trace files use CBOR encoding with integer keys; the Reader type iterates
// the events back for offline inspection.
package log
