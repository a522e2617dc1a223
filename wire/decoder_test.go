package wire

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand"
	"reflect"
	"strings"
	"sync"
	"testing"
)

// recorder is a Visitor that logs every callback as a line of text.
type recorder struct {
	events []string
	errs   []error
}

func (r *recorder) Field(f Field) {
	r.events = append(r.events, fmt.Sprintf("field %s @%d", f, f.Depth))
}

func (r *recorder) Enter(f Field) {
	r.events = append(r.events, fmt.Sprintf("enter %d @%d", f.Number, f.Depth))
}

func (r *recorder) Leave(f Field, err error) {
	ev := fmt.Sprintf("leave %d @%d", f.Number, f.Depth)
	if err != nil {
		var fe *FieldError
		if errors.As(err, &fe) {
			ev += " err@" + fe.Path()
		} else {
			ev += " err"
		}
		r.errs = append(r.errs, err)
	}
	r.events = append(r.events, ev)
}

// account builds the sub-message of one exported account.
func account(secret []byte, name, issuer string) *Encoder {
	e := NewEncoder().BytesField(1, secret).StringField(2, name)
	if issuer != "" {
		e.StringField(3, issuer)
	}
	return e
}

func TestDecoder_Walk(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		consumed int
		events   []string
	}{
		{
			name:     "empty",
			input:    nil,
			consumed: 0,
			events:   nil,
		},
		{
			name:     "version_only",
			input:    []byte{0x10, 0x01},
			consumed: 2,
			events:   []string{"field 2:VARINT=1 @0"},
		},
		{
			name:     "multibyte_varint",
			input:    []byte{0x10, 0x96, 0x01},
			consumed: 3,
			events:   []string{"field 2:VARINT=150 @0"},
		},
		{
			name:     "top_level_string",
			input:    []byte{0x12, 0x02, 0x61, 0x62},
			consumed: 4,
			events:   []string{"field 2:LEN=6162 @0"},
		},
		{
			name:     "empty_len_is_bytes",
			input:    []byte{0x0a, 0x00},
			consumed: 2,
			events:   []string{"field 1:LEN= @0"},
		},
		{
			name:     "one_account",
			input:    NewEncoder().MessageField(1, account([]byte("Hi"), "alice", "")).VarintField(2, 1).Bytes(),
			consumed: 15,
			events: []string{
				"enter 1 @0",
				"field 1:LEN=4869 @1",
				"field 2:LEN=616c696365 @1",
				"leave 1 @0",
				"field 2:VARINT=1 @0",
			},
		},
		{
			name: "two_accounts",
			input: NewEncoder().
				MessageField(1, account([]byte("Hi"), "a", "X")).
				MessageField(1, account([]byte("Yo"), "b", "")).
				Bytes(),
			consumed: 21,
			events: []string{
				"enter 1 @0",
				"field 1:LEN=4869 @1",
				"field 2:LEN=61 @1",
				"field 3:LEN=58 @1",
				"leave 1 @0",
				"enter 1 @0",
				"field 1:LEN=596f @1",
				"field 2:LEN=62 @1",
				"leave 1 @0",
			},
		},
		{
			// A secret that happens to start with 0x08 is read as a message.
			name: "secret_misclassified",
			input: NewEncoder().
				MessageField(1, account([]byte{0x08, 0x01, 0x10, 0x02}, "n", "i")).
				Bytes(),
			consumed: 14,
			events: []string{
				"enter 1 @0",
				"enter 1 @1",
				"field 1:VARINT=1 @2",
				"field 2:VARINT=2 @2",
				"leave 1 @1",
				"field 2:LEN=6e @1",
				"field 3:LEN=69 @1",
				"leave 1 @0",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r recorder
			n, err := Walk(tt.input, DefaultConfig(), &r)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if n != tt.consumed {
				t.Errorf("consumed %d bytes, want %d", n, tt.consumed)
			}
			if n != len(tt.input) {
				t.Errorf("consumed %d of %d bytes without error", n, len(tt.input))
			}
			if !reflect.DeepEqual(r.events, tt.events) {
				t.Errorf("events mismatch\n got: %q\nwant: %q", r.events, tt.events)
			}
		})
	}
}

func TestDecoder_TopLevelErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		consumed int
		wantErr  error
		path     string // empty when the error carries no field path
		events   []string
	}{
		{
			name:     "len_exceeds_window",
			input:    []byte{0x10, 0x01, 0x1a, 0x05, 0x61},
			consumed: 2,
			wantErr:  ErrTruncated,
			path:     "3",
			events:   []string{"field 2:VARINT=1 @0"},
		},
		{
			name:     "truncated_tag",
			input:    []byte{0x10, 0x01, 0x88},
			consumed: 2,
			wantErr:  ErrTruncated,
			events:   []string{"field 2:VARINT=1 @0"},
		},
		{
			name:     "truncated_varint_value",
			input:    []byte{0x10, 0x96},
			consumed: 0,
			wantErr:  ErrTruncated,
			path:     "2",
		},
		{
			name:     "missing_varint_value",
			input:    []byte{0x10},
			consumed: 0,
			wantErr:  ErrUnexpectedEOF,
			path:     "2",
		},
		{
			name:     "missing_length",
			input:    []byte{0x12},
			consumed: 0,
			wantErr:  ErrUnexpectedEOF,
			path:     "2",
		},
		{
			name:     "varint_overflow",
			input:    []byte{0x10, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x7f},
			consumed: 0,
			wantErr:  ErrVarintOverflow,
			path:     "2",
		},
		{
			name:     "i64",
			input:    []byte{0x10, 0x01, 0x11, 0, 0, 0, 0, 0, 0, 0, 0},
			consumed: 2,
			wantErr:  ErrUnsupportedWireType,
			path:     "2",
			events:   []string{"field 2:VARINT=1 @0"},
		},
		{
			name:    "i32",
			input:   []byte{0x0d, 0, 0, 0, 0},
			wantErr: ErrUnsupportedWireType,
			path:    "1",
		},
		{
			name:    "start_group",
			input:   []byte{0x0b},
			wantErr: ErrUnsupportedWireType,
			path:    "1",
		},
		{
			name:    "end_group",
			input:   []byte{0x0c},
			wantErr: ErrUnsupportedWireType,
			path:    "1",
		},
		{
			name:    "wire_type_6",
			input:   []byte{0x0e, 0x00},
			wantErr: ErrUnsupportedWireType,
			path:    "1",
		},
		{
			name:    "wire_type_7",
			input:   []byte{0x17},
			wantErr: ErrUnsupportedWireType,
			path:    "2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r recorder
			n, err := Walk(tt.input, DefaultConfig(), &r)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if n != tt.consumed {
				t.Errorf("consumed %d bytes, want %d", n, tt.consumed)
			}

			var fe *FieldError
			if tt.path == "" {
				if errors.As(err, &fe) {
					t.Errorf("expected no field path, got %q", fe.Path())
				}
			} else {
				if !errors.As(err, &fe) {
					t.Fatalf("expected *FieldError, got %T: %v", err, err)
				}
				if fe.Path() != tt.path {
					t.Errorf("path = %q, want %q", fe.Path(), tt.path)
				}
			}

			if !reflect.DeepEqual(r.events, tt.events) {
				t.Errorf("events mismatch\n got: %q\nwant: %q", r.events, tt.events)
			}
		})
	}
}

func TestDecoder_NestedErrorResumesParent(t *testing.T) {
	// Field 1 holds a 4 byte message whose second field claims 5 bytes.
	input := []byte{0x0a, 0x04, 0x08, 0x01, 0x12, 0x05, 0x10, 0x01}

	var r recorder
	n, err := Walk(input, DefaultConfig(), &r)
	if err != nil {
		t.Fatalf("nested error leaked to the top level: %v", err)
	}
	if n != len(input) {
		t.Errorf("consumed %d bytes, want %d", n, len(input))
	}

	want := []string{
		"enter 1 @0",
		"field 1:VARINT=1 @1",
		"leave 1 @0 err@1.2",
		"field 2:VARINT=1 @0",
	}
	if !reflect.DeepEqual(r.events, want) {
		t.Errorf("events mismatch\n got: %q\nwant: %q", r.events, want)
	}
	if len(r.errs) != 1 || !errors.Is(r.errs[0], ErrTruncated) {
		t.Errorf("expected one truncation error, got %v", r.errs)
	}
}

func TestDecoder_NestedErrorPathIsAbsolute(t *testing.T) {
	// 1 -> 1 -> 1 -> unsupported I64 in field 4
	inner := NewEncoder().VarintField(1, 7).EncodeTag(4, WireFixed64).EncodeRaw(make([]byte, 8))
	mid := NewEncoder().MessageField(1, inner)
	top := NewEncoder().MessageField(1, mid)
	input := NewEncoder().MessageField(1, top).Bytes()

	var r recorder
	if _, err := Walk(input, DefaultConfig(), &r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(r.errs) != 1 {
		t.Fatalf("expected one nested error, got %v", r.errs)
	}

	var fe *FieldError
	if !errors.As(r.errs[0], &fe) {
		t.Fatalf("expected *FieldError, got %T", r.errs[0])
	}
	if fe.Path() != "1.1.1.4" {
		t.Errorf("path = %q, want 1.1.1.4", fe.Path())
	}
	if !errors.Is(r.errs[0], ErrUnsupportedWireType) {
		t.Errorf("expected unsupported wire type, got %v", r.errs[0])
	}
}

func nested(levels int) []byte {
	e := NewEncoder().VarintField(1, 1)
	for i := 0; i < levels; i++ {
		e = NewEncoder().MessageField(1, e)
	}
	return e.Bytes()
}

func TestDecoder_DepthLimit(t *testing.T) {
	input := nested(40)

	tests := []struct {
		name      string
		maxDepth  int
		deepest   int
		wantError bool
	}{
		{"default", 0, DefaultMaxDepth, true},
		{"explicit_32", 32, 32, true},
		{"shallow", 3, 3, true},
		{"deep_enough", 64, 40, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewTreeBuilder()
			n, err := Walk(input, Config{MaxDepth: tt.maxDepth}, b)
			if err != nil {
				t.Fatalf("depth errors must not stop the top level: %v", err)
			}
			if n != len(input) {
				t.Errorf("consumed %d bytes, want %d", n, len(input))
			}

			deepest := 0
			var walk func(fs []Field)
			walk = func(fs []Field) {
				for _, f := range fs {
					if f.Depth > deepest {
						deepest = f.Depth
					}
					if m, ok := f.Value.(Message); ok {
						walk(m)
					}
				}
			}
			walk(b.Fields())
			if deepest != tt.deepest {
				t.Errorf("deepest field at depth %d, want %d", deepest, tt.deepest)
			}

			errs := b.Errors()
			if !tt.wantError {
				if len(errs) != 0 {
					t.Errorf("unexpected errors: %v", errs)
				}
				return
			}
			if len(errs) != 1 || !errors.Is(errs[0], ErrDepthExceeded) {
				t.Fatalf("expected one depth error, got %v", errs)
			}
			var fe *FieldError
			if !errors.As(errs[0], &fe) {
				t.Fatalf("expected *FieldError, got %T", errs[0])
			}
			if len(fe.FieldPath) != tt.deepest+1 {
				t.Errorf("path has %d elements, want %d", len(fe.FieldPath), tt.deepest+1)
			}
		})
	}
}

func TestDecoder_Trace(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{
			name:  "varint",
			input: []byte{0x10, 0x01},
			want:  "<F:2,T:0>=<V:1/0x1>",
		},
		{
			name:  "multibyte_varint",
			input: []byte{0x10, 0x96, 0x01},
			want:  "<F:2,T:0>=<V:150/0x96>",
		},
		{
			name:  "bytes",
			input: []byte{0x12, 0x02, 0x61, 0x62},
			want:  "<F:2,T:2>=<L:2[61 62]>",
		},
		{
			name:  "empty_bytes",
			input: []byte{0x12, 0x00},
			want:  "<F:2,T:2>=<L:0[]>",
		},
		{
			name:  "nested",
			input: []byte{0x0a, 0x02, 0x08, 0x01},
			want:  "<F:1,T:2>=<L:2[<F:1,T:0>=<V:1/0x1>]>",
		},
		{
			name:  "first_field_not_one",
			input: []byte{0x0a, 0x02, 0x10, 0x01},
			want:  "<F:1,T:2>=<L:2[10 01]>",
		},
		{
			name:  "exceeds",
			input: []byte{0x12, 0x05, 0x61},
			want:  "<F:2,T:2>=<L:exceeds buffer len>",
		},
		{
			name:  "unsupported",
			input: []byte{0x10, 0x01, 0x11},
			want:  "<F:2,T:0>=<V:1/0x1><F:2,T:1>=<unsupported>",
		},
		{
			name:  "truncated_tag",
			input: []byte{0x10, 0x01, 0x88},
			want:  "<F:2,T:0>=<V:1/0x1><truncated>",
		},
		{
			name:  "nested_error",
			input: []byte{0x0a, 0x04, 0x08, 0x01, 0x12, 0x05, 0x10, 0x01},
			want:  "<F:1,T:2>=<L:4[<F:1,T:0>=<V:1/0x1><F:2,T:2>=<L:exceeds buffer len>]><F:2,T:0>=<V:1/0x1>",
		},
		{
			name:  "account",
			input: NewEncoder().MessageField(1, account([]byte("Hi"), "alice", "")).VarintField(2, 1).Bytes(),
			want: "<F:1,T:2>=<L:11[<F:1,T:2>=<L:2[48 69]><F:2,T:2>=<L:5[61 6c 69 63 65]>]>" +
				"<F:2,T:0>=<V:1/0x1>",
		},
		{
			name:  "depth_exceeded",
			input: nested(2),
			want:  "<F:1,T:2>=<L:4[<F:1,T:2>=<L:2[<depth exceeded>]>]>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			cfg := Config{Trace: &buf}
			if tt.name == "depth_exceeded" {
				cfg.MaxDepth = 1
			}
			Walk(tt.input, cfg, &recorder{})
			if buf.String() != tt.want {
				t.Errorf("trace mismatch\n got: %s\nwant: %s", buf.String(), tt.want)
			}
		})
	}
}

func TestDecoder_NoTraceByDefault(t *testing.T) {
	// A nil Trace must not be written to, whatever happens.
	input := []byte{0x0a, 0x04, 0x08, 0x01, 0x12, 0x05, 0x11}
	if _, err := Walk(input, DefaultConfig(), &recorder{}); err == nil {
		t.Fatal("expected an error")
	}
}

func TestDecoder_BytesAliasInput(t *testing.T) {
	input := []byte{0x12, 0x03, 0x61, 0x62, 0x63}
	fields, err := Tree(input, DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	b, ok := fields[0].Value.(Bytes)
	if !ok {
		t.Fatalf("expected Bytes, got %T", fields[0].Value)
	}
	if &b[0] != &input[2] {
		t.Error("payload was copied")
	}
	if cap(b) != len(b) {
		t.Errorf("payload capacity %d leaks past its %d bytes", cap(b), len(b))
	}
}

func TestDecoder_RandomInput(t *testing.T) {
	rng := rand.New(rand.NewSource(2024))
	for i := 0; i < 5000; i++ {
		input := make([]byte, rng.Intn(64))
		rng.Read(input)
		checkWalk(t, input)
	}
}

func TestDecoder_Prefixes(t *testing.T) {
	input := NewEncoder().
		MessageField(1, account([]byte("Hello!\xde\xad\xbe\xef"), "alice@example.com", "Example")).
		MessageField(1, account([]byte("12345678901234567890"), "bob", "")).
		VarintField(2, 1).
		Bytes()

	for i := 0; i <= len(input); i++ {
		checkWalk(t, input[:i])
	}
}

// checkWalk decodes input and checks the invariants that hold for any buffer.
func checkWalk(t *testing.T, input []byte) {
	t.Helper()

	var r recorder
	n, err := Walk(input, DefaultConfig(), &r)
	if n < 0 || n > len(input) {
		t.Fatalf("Walk(%x) consumed %d bytes", input, n)
	}
	if err == nil && n != len(input) {
		t.Fatalf("Walk(%x) stopped at %d without an error", input, n)
	}

	depth := 0
	for _, ev := range r.events {
		switch {
		case strings.HasPrefix(ev, "enter"):
			depth++
		case strings.HasPrefix(ev, "leave"):
			depth--
		}
		if depth < 0 {
			t.Fatalf("Walk(%x): unbalanced Leave in %q", input, r.events)
		}
	}
	if depth != 0 {
		t.Fatalf("Walk(%x): unbalanced Enter in %q", input, r.events)
	}
}

func FuzzWalk(f *testing.F) {
	f.Add([]byte{})
	f.Add([]byte{0x10, 0x01})
	f.Add([]byte{0x0a, 0x04, 0x08, 0x01, 0x12, 0x05, 0x10, 0x01})
	f.Add(nested(40))
	f.Add(NewEncoder().MessageField(1, account([]byte("Hi"), "alice", "")).Bytes())

	f.Fuzz(func(t *testing.T, input []byte) {
		checkWalk(t, input)
	})
}

func TestDecoder_ConcurrentUse(t *testing.T) {
	input := NewEncoder().
		MessageField(1, account([]byte("Hi"), "alice", "Example")).
		MessageField(1, account([]byte{0x08, 0x01}, "bob", "")).
		VarintField(2, 1).
		Bytes()

	d := NewDecoder(DefaultConfig())

	want := NewTreeBuilder()
	if _, err := d.DecodeMessage(input, 0, want); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				got := NewTreeBuilder()
				if _, err := d.DecodeMessage(input, 0, got); err != nil {
					t.Errorf("unexpected error: %v", err)
					return
				}
				if !reflect.DeepEqual(got.Fields(), want.Fields()) {
					t.Errorf("concurrent decode diverged")
					return
				}
			}
		}()
	}
	wg.Wait()
}
