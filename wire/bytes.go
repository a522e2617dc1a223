package wire

import (
	"fmt"
)

// reader is a cursor over one message window. It never copies; every slice it
// hands out aliases buf.
type reader struct {
	buf []byte
	pos int
}

func newReader(window []byte) *reader {
	return &reader{buf: window}
}

// Remaining returns the number of unread bytes.
func (r *reader) Remaining() int {
	return len(r.buf) - r.pos
}

// Done reports whether the window is exhausted.
func (r *reader) Done() bool {
	return r.pos >= len(r.buf)
}

// DecodeLength decodes the length prefix of a LEN field and checks it against
// the rest of the window without consuming the payload.
func (r *reader) DecodeLength() (int, error) {
	length, err := r.DecodeVarint()
	if err != nil {
		return 0, fmt.Errorf("failed to decode bytes length: %w", err)
	}

	if length > uint64(r.Remaining()) {
		return 0, fmt.Errorf("%w: need %d bytes, have %d", ErrTruncated, length, r.Remaining())
	}

	return int(length), nil
}

// DecodeRawBytes returns the next n bytes without copying (shares buffer)
func (r *reader) DecodeRawBytes(n int) []byte {
	data := r.buf[r.pos : r.pos+n : r.pos+n]
	r.pos += n
	return data
}
