package wire

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// Encoder builds protobuf wire format. The decoder never needs it; it exists
// to produce sample payloads and test fixtures.
type Encoder struct {
	buf []byte
}

// NewEncoder creates a new wire format encoder
func NewEncoder() *Encoder {
	return &Encoder{
		buf: make([]byte, 0),
	}
}

// Bytes returns the encoded bytes
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// Reset clears the encoder buffer
func (e *Encoder) Reset() {
	e.buf = e.buf[:0]
}

// EncodeVarint appends a bare varint.
func (e *Encoder) EncodeVarint(v uint64) *Encoder {
	e.buf = protowire.AppendVarint(e.buf, v)
	return e
}

// EncodeTag appends a field tag.
func (e *Encoder) EncodeTag(num FieldNumber, typ WireType) *Encoder {
	return e.EncodeVarint(uint64(MakeTag(num, typ)))
}

// EncodeRaw appends b verbatim.
func (e *Encoder) EncodeRaw(b []byte) *Encoder {
	e.buf = append(e.buf, b...)
	return e
}

// VarintField appends a VARINT field.
func (e *Encoder) VarintField(num FieldNumber, v uint64) *Encoder {
	return e.EncodeTag(num, WireVarint).EncodeVarint(v)
}

// BytesField appends a LEN field holding b.
func (e *Encoder) BytesField(num FieldNumber, b []byte) *Encoder {
	e.EncodeTag(num, WireBytes)
	e.buf = protowire.AppendBytes(e.buf, b)
	return e
}

// StringField appends a LEN field holding s.
func (e *Encoder) StringField(num FieldNumber, s string) *Encoder {
	e.EncodeTag(num, WireBytes)
	e.buf = protowire.AppendString(e.buf, s)
	return e
}

// MessageField appends a LEN field holding the contents of sub.
func (e *Encoder) MessageField(num FieldNumber, sub *Encoder) *Encoder {
	return e.BytesField(num, sub.Bytes())
}
