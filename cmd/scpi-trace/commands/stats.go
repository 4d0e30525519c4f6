package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/scpi-protocol/scpi-go/pkg/log"
)

// Stats holds aggregate statistics about a trace file.
type Stats struct {
	TotalEvents      int
	EventsByCategory map[log.Category]int
	Sessions         map[string]*SessionStats
	Errors           int
	TimeRange        struct {
		Start time.Time
		End   time.Time
	}
}

// SessionStats holds statistics for a single transport session.
type SessionStats struct {
	FirstSeen time.Time
	LastSeen  time.Time
	Events    int
	Resource  string

	Queries        int
	TotalRoundTrip time.Duration
}

// RunStats analyzes the trace file and prints statistics.
func RunStats(path string, w io.Writer) error {
	stats, err := Collect(path)
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

// Collect reads the whole trace file into aggregate statistics.
func Collect(path string) (*Stats, error) {
	reader, err := log.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open trace file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByCategory: make(map[log.Category]int),
		Sessions:         make(map[string]*SessionStats),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read event: %w", err)
		}

		stats.TotalEvents++
		stats.EventsByCategory[event.Category]++
		if event.Category == log.CategoryError {
			stats.Errors++
		}

		if stats.TimeRange.Start.IsZero() || event.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = event.Timestamp
		}
		if event.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = event.Timestamp
		}

		sess, ok := stats.Sessions[event.SessionID]
		if !ok {
			sess = &SessionStats{FirstSeen: event.Timestamp}
			stats.Sessions[event.SessionID] = sess
		}
		sess.Events++
		sess.LastSeen = event.Timestamp
		if event.Resource != "" {
			sess.Resource = event.Resource
		}
		if event.Query != nil {
			sess.Queries++
			sess.TotalRoundTrip += event.Query.RoundTrip
		}
	}

	return stats, nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintf(w, "Events: %d\n", stats.TotalEvents)
	if !stats.TimeRange.Start.IsZero() {
		fmt.Fprintf(w, "Time range: %s .. %s (%s)\n",
			stats.TimeRange.Start.UTC().Format(time.RFC3339),
			stats.TimeRange.End.UTC().Format(time.RFC3339),
			stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Millisecond))
	}

	fmt.Fprintln(w, "\nBy category:")
	for _, c := range []log.Category{log.CategoryCommand, log.CategoryQuery, log.CategoryBlock, log.CategoryState, log.CategoryError} {
		if n := stats.EventsByCategory[c]; n > 0 {
			fmt.Fprintf(w, "  %-7s %d\n", c.String(), n)
		}
	}
	if stats.Errors > 0 {
		fmt.Fprintf(w, "\nErrors: %d\n", stats.Errors)
	}

	ids := make([]string, 0, len(stats.Sessions))
	for id := range stats.Sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	fmt.Fprintln(w, "\nSessions:")
	for _, id := range ids {
		sess := stats.Sessions[id]
		fmt.Fprintf(w, "  %s  %d events", shortenSessionID(id), sess.Events)
		if sess.Resource != "" {
			fmt.Fprintf(w, "  %s", sess.Resource)
		}
		if sess.Queries > 0 {
			fmt.Fprintf(w, "  avg round trip %s", (sess.TotalRoundTrip / time.Duration(sess.Queries)).Round(time.Microsecond))
		}
		fmt.Fprintln(w)
	}
}
