package render

import (
	"encoding/hex"
	"fmt"
	"io"
	"unicode/utf8"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/anirudhraja/otpdump/wire"
)

// Raw writes a decoded field tree as indented JSON, for inspecting payloads
// the label table does not cover.
func Raw(w io.Writer, fields []wire.Field) error {
	v, err := structpb.NewValue(rawList(fields))
	if err != nil {
		return fmt.Errorf("build raw tree: %w", err)
	}
	b, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal raw tree: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", b)
	return err
}

func rawList(fields []wire.Field) []interface{} {
	out := make([]interface{}, 0, len(fields))
	for _, f := range fields {
		out = append(out, rawField(f))
	}
	return out
}

func rawField(f wire.Field) map[string]interface{} {
	m := map[string]interface{}{
		"field": uint64(f.Number),
		"type":  f.Type.String(),
		"depth": f.Depth,
	}
	switch v := f.Value.(type) {
	case wire.Varint:
		m["varint"] = uint64(v)
	case wire.Bytes:
		m["hex"] = hex.EncodeToString(v)
		if utf8.Valid(v) {
			m["text"] = string(v)
		}
	case wire.Message:
		m["message"] = rawList(v)
	}
	return m
}
