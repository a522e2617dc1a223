package wire

import (
	"fmt"
	"io"
)

// tracer writes the structural debug trace. The zero value writes nothing.
type tracer struct {
	w io.Writer
}

func (t tracer) printf(format string, args ...interface{}) {
	if t.w == nil {
		return
	}
	fmt.Fprintf(t.w, format, args...)
}

func (t tracer) tag(num FieldNumber, typ WireType) {
	t.printf("<F:%d,T:%d>=", num, typ)
}

func (t tracer) varint(v uint64) {
	t.printf("<V:%d/0x%x>", v, v)
}

func (t tracer) openLen(n int) {
	t.printf("<L:%d[", n)
}

func (t tracer) closeLen() {
	t.printf("]>")
}

func (t tracer) bytes(b []byte) {
	if t.w == nil {
		return
	}
	for i, c := range b {
		if i > 0 {
			t.printf(" ")
		}
		t.printf("%02x", c)
	}
}

func (t tracer) exceeds() {
	t.printf("<L:exceeds buffer len>")
}

func (t tracer) truncated() {
	t.printf("<truncated>")
}

func (t tracer) unsupported() {
	t.printf("<unsupported>")
}

func (t tracer) depthExceeded() {
	t.printf("<depth exceeded>")
}
