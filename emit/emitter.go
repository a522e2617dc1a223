// Package emit turns the decoder's field stream into labeled records using a
// schema.Table.
package emit

import (
	"github.com/anirudhraja/otpdump/schema"
	"github.com/anirudhraja/otpdump/wire"
)

// Record is one recognized field.
type Record struct {
	Label schema.Label
	Kind  schema.Kind
	Value wire.Value // wire.Varint or wire.Bytes
	Depth int

	// Group is the 1-based ordinal of the top-level sub-message the field
	// was found in, however deep; top-level fields have Group 0. With the
	// export format each group is one account.
	Group int

	// Rule is the table entry that matched.
	Rule *schema.Rule
}

// Sink receives the emitter's output.
type Sink interface {
	Emit(r Record)
	Warn(err error)
}

// Emitter is a wire.Visitor that labels recognized fields and drops the rest.
type Emitter struct {
	table *schema.Table
	sink  Sink

	group int // current top-level sub-message, 0 outside any
	next  int
}

var _ wire.Visitor = (*Emitter)(nil)

// New returns an emitter that looks fields up in table and writes to sink.
// A nil table means schema.DefaultTable().
func New(table *schema.Table, sink Sink) *Emitter {
	if table == nil {
		table = schema.DefaultTable()
	}
	return &Emitter{table: table, sink: sink}
}

func (e *Emitter) Field(f wire.Field) {
	rule := e.table.Lookup(f.Number, f.Type, f.Depth)
	if rule == nil {
		return
	}
	e.sink.Emit(Record{
		Label: rule.Label,
		Kind:  rule.Kind,
		Value: f.Value,
		Depth: f.Depth,
		Group: e.group,
		Rule:  rule,
	})
}

func (e *Emitter) Enter(f wire.Field) {
	if f.Depth == 0 {
		e.next++
		e.group = e.next
	}
}

func (e *Emitter) Leave(f wire.Field, err error) {
	if f.Depth == 0 {
		e.group = 0
	}
	if err != nil {
		e.sink.Warn(err)
	}
}

// Collector is a Sink that keeps everything in memory.
type Collector struct {
	Records  []Record
	Warnings []error
}

func (c *Collector) Emit(r Record) {
	c.Records = append(c.Records, r)
}

func (c *Collector) Warn(err error) {
	c.Warnings = append(c.Warnings, err)
}

// SinkFunc adapts a function to a Sink that ignores warnings.
type SinkFunc func(Record)

func (f SinkFunc) Emit(r Record) { f(r) }
func (f SinkFunc) Warn(error)    {}
