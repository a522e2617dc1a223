package wire

import (
	"fmt"
)

// Visitor receives decoded fields in depth-first, left-to-right order.
type Visitor interface {
	// Field is called for every VARINT field and for every LEN field whose
	// payload was classified as bytes.
	Field(f Field)

	// Enter is called before the fields of a nested message are visited.
	Enter(f Field)

	// Leave is called after the fields of a nested message, with the error
	// that stopped decoding of that message, if any.
	Leave(f Field, err error)
}

// Decoder decodes protobuf wire format without a schema. It keeps no
// per-call state, so a single Decoder may be used for any number of buffers,
// including concurrently.
type Decoder struct {
	cfg   Config
	trace tracer
}

// NewDecoder creates a new schema-less decoder
func NewDecoder(cfg Config) *Decoder {
	return &Decoder{
		cfg:   cfg,
		trace: tracer{w: cfg.Trace},
	}
}

// Walk decodes data as a top-level message - main entry point
func Walk(data []byte, cfg Config, v Visitor) (int, error) {
	return NewDecoder(cfg).DecodeMessage(data, 0, v)
}

// DecodeMessage decodes the fields in window, reporting each one to v, and
// returns the number of bytes consumed.
//
// Decoding of this level stops at the first truncated field, unsupported wire
// type or malformed varint; the error is returned along with the bytes
// consumed before the offending field. Errors inside nested messages do not
// stop this level: they are passed to v.Leave and decoding resumes after the
// nested payload.
func (d *Decoder) DecodeMessage(window []byte, depth int, v Visitor) (int, error) {
	return d.decodeMessage(window, depth, nil, v)
}

// decodeMessage is DecodeMessage for a window reached through the fields in
// path. Errors it returns carry paths relative to the window.
func (d *Decoder) decodeMessage(window []byte, depth int, path []FieldNumber, v Visitor) (int, error) {
	r := newReader(window)

	for !r.Done() {
		start := r.pos
		if err := d.decodeField(r, depth, path, v); err != nil {
			return start, err
		}
	}

	return r.pos, nil
}

// decodeField decodes one (tag, value) pair at the reader position.
func (d *Decoder) decodeField(r *reader, depth int, path []FieldNumber, v Visitor) error {
	num, typ, err := r.DecodeTag()
	if err != nil {
		d.trace.truncated()
		return fmt.Errorf("failed to decode tag: %w", err)
	}

	d.trace.tag(num, typ)

	switch typ {
	case WireVarint:
		x, err := r.DecodeVarint()
		if err != nil {
			d.trace.truncated()
			return wrapWithField(fmt.Errorf("failed to decode varint: %w", err), num)
		}
		d.trace.varint(x)
		v.Field(Field{Number: num, Type: typ, Value: Varint(x), Depth: depth})
		return nil

	case WireBytes:
		n, err := r.DecodeLength()
		if err != nil {
			d.trace.exceeds()
			return wrapWithField(err, num)
		}

		payload := r.DecodeRawBytes(n)
		f := Field{Number: num, Type: typ, Depth: depth, Raw: payload}

		d.trace.openLen(n)
		if Classify(payload) == KindMessage {
			d.decodeNested(payload, f, path, v)
		} else {
			d.trace.bytes(payload)
			f.Value = Bytes(payload)
			v.Field(f)
		}
		d.trace.closeLen()
		return nil

	default:
		// I64 and I32 could be skipped, but a schema-less reader cannot tell
		// them from misframed data, and groups need matching end markers.
		d.trace.unsupported()
		return wrapWithField(fmt.Errorf("%w %s", ErrUnsupportedWireType, typ), num)
	}
}

// decodeNested recurses into a payload classified as a message. The payload
// length is fixed, so whatever happens inside, the caller resumes right after
// it. Errors handed to v.Leave carry the full path from the top level.
func (d *Decoder) decodeNested(payload []byte, f Field, path []FieldNumber, v Visitor) {
	f.Value = Message(nil)
	v.Enter(f)

	inner := append(path[:len(path):len(path)], f.Number)

	if f.Depth+1 > d.cfg.maxDepth() {
		d.trace.depthExceeded()
		v.Leave(f, wrapWithPath(ErrDepthExceeded, inner))
		return
	}

	_, err := d.decodeMessage(payload, f.Depth+1, inner, v)
	v.Leave(f, wrapWithPath(err, inner))
}
