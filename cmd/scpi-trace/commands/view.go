// Package commands implements the scpi-trace CLI commands.
package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/scpi-protocol/scpi-go/pkg/log"
)

// ViewFilter specifies criteria for filtering events in the view command.
type ViewFilter struct {
	Category *log.Category
	Session  string
}

// matches reports whether the event passes the filter.
func (f ViewFilter) matches(event log.Event) bool {
	if f.Category != nil && event.Category != *f.Category {
		return false
	}
	if f.Session != "" && !strings.HasPrefix(event.SessionID, f.Session) {
		return false
	}
	return true
}

// ParseCategoryFlag parses a -category flag value.
func ParseCategoryFlag(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "command":
		return log.CategoryCommand, nil
	case "query":
		return log.CategoryQuery, nil
	case "block":
		return log.CategoryBlock, nil
	case "state":
		return log.CategoryState, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("unknown category %q (command, query, block, state, error)", s)
	}
}

// RunView prints the trace file in human-readable form.
func RunView(path string, filter ViewFilter, w io.Writer) error {
	reader, err := log.OpenReader(path)
	if err != nil {
		return fmt.Errorf("open trace file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read event: %w", err)
		}
		if !filter.matches(event) {
			continue
		}
		formatEvent(w, event)
	}
	return nil
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	fmt.Fprintf(w, "%s [sess:%s] %-7s", ts, shortenSessionID(event.SessionID), event.Category.String())

	switch {
	case event.Command != nil:
		fmt.Fprintf(w, " %s", event.Command.Command)
		if event.Command.ErrorPolled {
			fmt.Fprint(w, " (polled)")
		}
		fmt.Fprintln(w)
	case event.Query != nil:
		fmt.Fprintf(w, " %s -> %s", event.Query.Command, event.Query.Response)
		if event.Query.Truncated {
			fmt.Fprint(w, " (truncated)")
		}
		fmt.Fprintf(w, " [%s]\n", formatDuration(event.Query.RoundTrip))
	case event.Block != nil:
		fmt.Fprintf(w, " %s (%d bytes) [%s]\n", event.Block.Command, event.Block.Size, formatDuration(event.Block.RoundTrip))
	case event.StateChange != nil:
		fmt.Fprintf(w, " %s -> %s", event.StateChange.OldState, event.StateChange.NewState)
		if event.StateChange.Reason != "" {
			fmt.Fprintf(w, " (%s)", event.StateChange.Reason)
		}
		fmt.Fprintln(w)
	case event.Error != nil:
		fmt.Fprintf(w, " %s", event.Error.Message)
		if event.Error.Code != nil {
			fmt.Fprintf(w, " (code %d)", *event.Error.Code)
		}
		if event.Error.Context != "" {
			fmt.Fprintf(w, " during %s", event.Error.Context)
		}
		fmt.Fprintln(w)
	default:
		fmt.Fprintln(w)
	}
}

// shortenSessionID returns the first 8 characters of the session ID.
func shortenSessionID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

// formatDuration rounds a round-trip time for display.
func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Second:
		return d.Round(time.Millisecond).String()
	case d >= time.Millisecond:
		return d.Round(time.Microsecond).String()
	default:
		return d.String()
	}
}
