// Package render formats decoded exports for people and other programs.
package render

import (
	"encoding/base32"
	"fmt"
	"io"
	"strconv"

	"github.com/anirudhraja/otpdump"
	"github.com/anirudhraja/otpdump/emit"
	"github.com/anirudhraja/otpdump/schema"
	"github.com/anirudhraja/otpdump/wire"
)

// Options tunes value formatting.
type Options struct {
	// NoPadding drops the trailing '=' from base32 secrets.
	NoPadding bool
}

func (o Options) base32() *base32.Encoding {
	if o.NoPadding {
		return base32.StdEncoding.WithPadding(base32.NoPadding)
	}
	return base32.StdEncoding
}

// Secret renders secret bytes the way authenticator apps expect them typed.
func Secret(b []byte, opts Options) string {
	return opts.base32().EncodeToString(b)
}

// Value formats one record according to its kind.
func Value(r emit.Record, opts Options) string {
	switch v := r.Value.(type) {
	case wire.Bytes:
		switch r.Kind {
		case schema.KindText:
			return string(v)
		case schema.KindBinary:
			return Secret(v, opts)
		default:
			return fmt.Sprintf("%x", []byte(v))
		}
	case wire.Varint:
		if r.Kind == schema.KindEnum && r.Rule != nil {
			if name, ok := r.Rule.Enum[uint64(v)]; ok {
				return name
			}
		}
		return strconv.FormatUint(uint64(v), 10)
	default:
		return ""
	}
}

// Text writes one "label: value" line per record, with a blank line after
// each top-level field group.
func Text(w io.Writer, exp *otpdump.Export, opts Options) error {
	for i, r := range exp.Records {
		if i > 0 && r.Group != exp.Records[i-1].Group {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%s: %s\n", r.Label, Value(r, opts)); err != nil {
			return err
		}
	}
	if len(exp.Records) > 0 {
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}
