package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/scpi-protocol/scpi-go/pkg/log"
)

// RunExport writes the trace file as JSON lines, one event per line.
func RunExport(path, output string) error {
	reader, err := log.OpenReader(path)
	if err != nil {
		return fmt.Errorf("open trace file: %w", err)
	}
	defer reader.Close()

	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	enc := json.NewEncoder(w)
	for {
		event, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read event: %w", err)
		}
		if err := enc.Encode(exportEvent(event)); err != nil {
			return fmt.Errorf("encode event: %w", err)
		}
	}
}

// exportedEvent is the JSONL shape: the category as text plus whichever
// payload the event carries.
type exportedEvent struct {
	Timestamp string                `json:"timestamp"`
	SessionID string                `json:"session_id"`
	Category  string                `json:"category"`
	Resource  string                `json:"resource,omitempty"`
	Command   *log.CommandEvent     `json:"command,omitempty"`
	Query     *log.QueryEvent       `json:"query,omitempty"`
	Block     *log.BlockEvent       `json:"block,omitempty"`
	State     *log.StateChangeEvent `json:"state,omitempty"`
	Error     *log.ErrorEventData   `json:"error,omitempty"`
}

func exportEvent(event log.Event) exportedEvent {
	return exportedEvent{
		Timestamp: event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000000Z"),
		SessionID: event.SessionID,
		Category:  event.Category.String(),
		Resource:  event.Resource,
		Command:   event.Command,
		Query:     event.Query,
		Block:     event.Block,
		State:     event.StateChange,
		Error:     event.Error,
	}
}
