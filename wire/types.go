package wire

import "fmt"

// ===== PROTOBUF WIRE FORMAT TYPES =====

// WireType represents protobuf wire format types
type WireType int8

const (
	WireVarint     WireType = 0 // int32, int64, uint32, uint64, sint32, sint64, bool, enum
	WireFixed64    WireType = 1 // fixed64, sfixed64, double
	WireBytes      WireType = 2 // string, bytes, embedded messages, packed repeated fields
	WireStartGroup WireType = 3 // deprecated group start marker
	WireEndGroup   WireType = 4 // deprecated group end marker
	WireFixed32    WireType = 5 // fixed32, sfixed32, float
)

func (t WireType) String() string {
	switch t {
	case WireVarint:
		return "VARINT"
	case WireFixed64:
		return "I64"
	case WireBytes:
		return "LEN"
	case WireStartGroup:
		return "SGROUP"
	case WireEndGroup:
		return "EGROUP"
	case WireFixed32:
		return "I32"
	default:
		return fmt.Sprintf("WireType(%d)", int8(t))
	}
}

// FieldNumber represents a protobuf field number
type FieldNumber uint64

// Tag represents a protobuf field tag (field number + wire type)
type Tag uint64

// MakeTag creates a tag from field number and wire type
func MakeTag(fieldNumber FieldNumber, wireType WireType) Tag {
	return Tag(uint64(fieldNumber)<<3 | uint64(wireType&7))
}

// ParseTag parses a tag into field number and wire type
func ParseTag(tag Tag) (FieldNumber, WireType) {
	return FieldNumber(tag >> 3), WireType(tag & 0x7)
}

// Value is a decoded field value: Varint, Bytes or Message.
type Value interface {
	isValue()
}

// Varint is the value of a VARINT field.
type Varint uint64

// Bytes is an opaque length-delimited payload. It aliases the decoded buffer.
type Bytes []byte

// Message is a length-delimited payload that was classified as a nested
// message. Streaming visitors see it empty; TreeBuilder fills it in.
type Message []Field

func (Varint) isValue()  {}
func (Bytes) isValue()   {}
func (Message) isValue() {}

// Field is one decoded (tag, value) pair.
type Field struct {
	Number FieldNumber
	Type   WireType
	Value  Value
	Depth  int

	// Raw holds the payload of a LEN field, whatever its classification.
	Raw []byte
}

// Tag returns the field's tag.
func (f Field) Tag() Tag {
	return MakeTag(f.Number, f.Type)
}

func (f Field) String() string {
	switch v := f.Value.(type) {
	case Varint:
		return fmt.Sprintf("%d:%s=%d", f.Number, f.Type, uint64(v))
	case Bytes:
		return fmt.Sprintf("%d:%s=%x", f.Number, f.Type, []byte(v))
	case Message:
		return fmt.Sprintf("%d:%s={%d fields}", f.Number, f.Type, len(v))
	default:
		return fmt.Sprintf("%d:%s", f.Number, f.Type)
	}
}
