package schema

import (
	"fmt"

	"github.com/anirudhraja/otpdump/wire"
)

// Label names the meaning of a recognized field, e.g. "secret".
type Label string

const (
	LabelSecret     Label = "secret"
	LabelName       Label = "name"
	LabelIssuer     Label = "issuer"
	LabelVersion    Label = "version"
	LabelAlgorithm  Label = "algorithm"
	LabelDigits     Label = "digits"
	LabelType       Label = "type"
	LabelCounter    Label = "counter"
	LabelBatchSize  Label = "batch_size"
	LabelBatchIndex Label = "batch_index"
	LabelBatchID    Label = "batch_id"
)

// Kind tells renderers how to present a value.
type Kind string

const (
	KindBinary  Kind = "binary"  // raw bytes, rendered as base32
	KindText    Kind = "text"    // bytes holding text
	KindInteger Kind = "integer" // varint, rendered in decimal
	KindEnum    Kind = "enum"    // varint with named values
)

// AnyDepth makes a rule match at every nesting depth.
const AnyDepth = -1

// Rule maps one (field number, wire type, depth) combination to a label.
type Rule struct {
	Number   wire.FieldNumber  `json:"number"`
	WireType wire.WireType     `json:"wire_type"`
	Depth    int               `json:"depth"` // AnyDepth or the exact depth
	Label    Label             `json:"label"`
	Kind     Kind              `json:"kind"`
	Enum     map[uint64]string `json:"enum,omitempty"` // value names when Kind is KindEnum
}

// Table is a fixed set of rules. Lookups prefer a depth-specific rule over an
// AnyDepth one.
type Table struct {
	rules map[key]*Rule
	order []*Rule
}

type key struct {
	num   wire.FieldNumber
	typ   wire.WireType
	depth int
}

// NewTable builds a table from rules. Two rules for the same field, wire type
// and depth are an error.
func NewTable(rules ...Rule) (*Table, error) {
	t := &Table{rules: make(map[key]*Rule, len(rules))}
	for i := range rules {
		r := rules[i]
		k := key{r.Number, r.WireType, r.Depth}
		if prev, ok := t.rules[k]; ok {
			return nil, fmt.Errorf("field %d (%s) at depth %d mapped to both %q and %q",
				r.Number, r.WireType, r.Depth, prev.Label, r.Label)
		}
		t.rules[k] = &r
		t.order = append(t.order, &r)
	}
	return t, nil
}

// Lookup returns the rule for a decoded field, or nil if the field is not
// recognized.
func (t *Table) Lookup(num wire.FieldNumber, typ wire.WireType, depth int) *Rule {
	if t == nil {
		return nil
	}
	if r, ok := t.rules[key{num, typ, depth}]; ok {
		return r
	}
	return t.rules[key{num, typ, AnyDepth}]
}

// Rules returns the rules in the order they were added.
func (t *Table) Rules() []Rule {
	out := make([]Rule, len(t.order))
	for i, r := range t.order {
		out[i] = *r
	}
	return out
}

// DefaultTable returns the built-in table. It ignores depth: secret, name and
// issuer live inside the per-account sub-messages and version at the top
// level, and no other known field collides with them.
func DefaultTable() *Table {
	t, err := NewTable(
		Rule{Number: 1, WireType: wire.WireBytes, Depth: AnyDepth, Label: LabelSecret, Kind: KindBinary},
		Rule{Number: 2, WireType: wire.WireBytes, Depth: AnyDepth, Label: LabelName, Kind: KindText},
		Rule{Number: 3, WireType: wire.WireBytes, Depth: AnyDepth, Label: LabelIssuer, Kind: KindText},
		Rule{Number: 2, WireType: wire.WireVarint, Depth: AnyDepth, Label: LabelVersion, Kind: KindInteger},
	)
	if err != nil {
		panic(err)
	}
	return t
}
