package wire

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// maxVarintLen is the longest varint that still fits in 64 bits.
const maxVarintLen = 10

// ConsumeVarint decodes a base-128 varint from the front of b and reports how
// many bytes it consumed.
//
// Decoding stops at the first byte with a clear high bit or at the end of b,
// whichever comes first. Running off the end of b while the continuation bit
// is still set returns the partially accumulated value, n == len(b) and
// ErrTruncated, so callers that only need the byte count can still use it.
func ConsumeVarint(b []byte) (v uint64, n int, err error) {
	if len(b) == 0 {
		return 0, 0, ErrUnexpectedEOF
	}

	for i := 0; i < len(b); i++ {
		c := b[i]

		// The tenth byte may only carry the single remaining bit.
		if i == maxVarintLen-1 && c > 1 {
			return v, i + 1, ErrVarintOverflow
		}

		v |= uint64(c&0x7F) << (7 * uint(i))

		if c&0x80 == 0 {
			return v, i + 1, nil
		}
	}

	return v, len(b), ErrTruncated
}

// ConsumeTag decodes a tag varint and splits it into field number and wire
// type.
func ConsumeTag(b []byte) (FieldNumber, WireType, int, error) {
	v, n, err := ConsumeVarint(b)
	num, typ := ParseTag(Tag(v))
	return num, typ, n, err
}

// AppendVarint appends the varint encoding of v to b.
func AppendVarint(b []byte, v uint64) []byte {
	return protowire.AppendVarint(b, v)
}

// VarintSize returns the number of bytes needed to encode the given varint
func VarintSize(v uint64) int {
	return protowire.SizeVarint(v)
}

// DecodeVarint decodes a varint at the reader position and advances past it.
// On error the position is left where it was.
func (r *reader) DecodeVarint() (uint64, error) {
	v, n, err := ConsumeVarint(r.buf[r.pos:])
	if err != nil {
		return v, err
	}
	r.pos += n
	return v, nil
}

// DecodeTag decodes a field tag at the reader position.
func (r *reader) DecodeTag() (FieldNumber, WireType, error) {
	v, err := r.DecodeVarint()
	if err != nil {
		return 0, 0, err
	}
	num, typ := ParseTag(Tag(v))
	return num, typ, nil
}
