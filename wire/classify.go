package wire

// Kind is the classification of a length-delimited payload.
type Kind int

const (
	KindBytes Kind = iota
	KindMessage
)

func (k Kind) String() string {
	if k == KindMessage {
		return "message"
	}
	return "bytes"
}

// Classify guesses whether a LEN payload is a nested message or an opaque
// byte string. With no schema to consult, the only evidence is whether the
// payload opens with a well-formed tag for field 1 with a known wire type.
//
// Restricting the guess to field 1 keeps random binary (secrets, mostly) from
// being taken for a message too often, but it still happens: a payload that
// starts with 0x08, 0x0a, 0x0d and so on is classified as a message whatever
// it really is.
func Classify(b []byte) Kind {
	num, typ, n, err := ConsumeTag(b)
	if err != nil || n < 1 {
		return KindBytes
	}
	if typ < 6 && num == 1 {
		return KindMessage
	}
	return KindBytes
}
