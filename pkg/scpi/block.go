package scpi

import (
	"fmt"
	"strconv"
)

// IEEE 488.2 definite-length block framing: '#', one digit giving the
// length-field width, the decimal payload length, then the payload bytes.
// "#3256<256 bytes>" carries a 256-byte payload. Waveform records,
// screenshots, and setup blobs all travel this way.

// blockLength inspects a partial read and returns the total frame size in
// bytes once the header is complete, or -1 while more data is needed.
// It fails with ErrBlockFormat for responses that are not definite-length
// blocks.
func blockLength(data []byte) (int, error) {
	if len(data) == 0 {
		return -1, nil
	}
	if data[0] != '#' {
		return 0, fmt.Errorf("%w: response starts with %q, not '#'", ErrBlockFormat, data[0])
	}
	if len(data) < 2 {
		return -1, nil
	}

	width := int(data[1] - '0')
	if width < 1 || width > 9 {
		// "#0" indefinite-length blocks are not supported; every
		// instrument this library targets produces definite lengths.
		return 0, fmt.Errorf("%w: length field width %q", ErrBlockFormat, data[1])
	}
	if len(data) < 2+width {
		return -1, nil
	}

	size, err := strconv.Atoi(string(data[2 : 2+width]))
	if err != nil {
		return 0, fmt.Errorf("%w: length field %q", ErrBlockFormat, data[2:2+width])
	}

	total := 2 + width + size
	if len(data) < total {
		return -1, nil
	}
	return total, nil
}

// DecodeBlock parses a definite-length block, returning the payload and the
// number of bytes consumed.
func DecodeBlock(data []byte) ([]byte, int, error) {
	total, err := blockLength(data)
	if err != nil {
		return nil, 0, err
	}
	if total < 0 {
		return nil, 0, fmt.Errorf("%w: truncated block (%d bytes)", ErrBlockFormat, len(data))
	}

	width := int(data[1] - '0')
	payload := make([]byte, total-2-width)
	copy(payload, data[2+width:total])
	return payload, total, nil
}

// EncodeBlock renders a payload as a definite-length block.
func EncodeBlock(payload []byte) []byte {
	size := strconv.Itoa(len(payload))
	out := make([]byte, 0, 2+len(size)+len(payload))
	out = append(out, '#', byte('0'+len(size)))
	out = append(out, size...)
	out = append(out, payload...)
	return out
}
