package log

import (
	"errors"
	"io"
	"os"

	"github.com/fxamacker/cbor/v2"
)

// Reader iterates trace events from a CBOR trace file.
type Reader struct {
	file    *os.File
	decoder *cbor.Decoder
}

// OpenReader opens a trace file for reading.
func OpenReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &Reader{
		file:    f,
		decoder: NewDecoder(f),
	}, nil
}

// Next returns the next event, or io.EOF when the trace is exhausted.
func (r *Reader) Next() (Event, error) {
	var event Event
	if err := r.decoder.Decode(&event); err != nil {
		if errors.Is(err, io.EOF) {
			return Event{}, io.EOF
		}
		return Event{}, err
	}
	return event, nil
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}
