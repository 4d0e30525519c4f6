package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes trace events to an slog.Logger at Debug level.
// Useful in development to watch the SCPI conversation on the console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a SlogAdapter over the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("session_id", event.SessionID),
		slog.String("category", event.Category.String()),
	}
	if event.Resource != "" {
		attrs = append(attrs, slog.String("resource", event.Resource))
	}

	switch {
	case event.Command != nil:
		attrs = append(attrs,
			slog.String("command", event.Command.Command),
			slog.Bool("error_polled", event.Command.ErrorPolled),
		)
	case event.Query != nil:
		attrs = append(attrs,
			slog.String("command", event.Query.Command),
			slog.String("response", event.Query.Response),
			slog.Duration("round_trip", event.Query.RoundTrip),
		)
		if event.Query.Truncated {
			attrs = append(attrs, slog.Bool("truncated", true))
		}
	case event.Block != nil:
		attrs = append(attrs,
			slog.String("command", event.Block.Command),
			slog.Int("size", event.Block.Size),
			slog.Duration("round_trip", event.Block.RoundTrip),
		)
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_msg", event.Error.Message),
			slog.String("error_context", event.Error.Context),
		)
		if event.Error.Code != nil {
			attrs = append(attrs, slog.Int("error_code", *event.Error.Code))
		}
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "scpi", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
