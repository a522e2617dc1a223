// Package otpdump extracts authenticator enrollment records (secrets, account
// names, issuers) from export QR payloads without compiling their schema in:
// the payload is walked as schema-less protobuf wire format and known fields
// are picked out by a label table.
package otpdump

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/anirudhraja/otpdump/emit"
	"github.com/anirudhraja/otpdump/envelope"
	"github.com/anirudhraja/otpdump/registry"
	"github.com/anirudhraja/otpdump/schema"
	"github.com/anirudhraja/otpdump/wire"
)

// Otpdump decodes export payloads. It is safe for concurrent use.
type Otpdump struct {
	table   *schema.Table
	cfg     wire.Config
	decoder *wire.Decoder
	logger  *slog.Logger
}

// Option configures an Otpdump.
type Option func(*Otpdump)

// WithTable replaces the built-in label table.
func WithTable(t *schema.Table) Option {
	return func(o *Otpdump) { o.table = t }
}

// WithConfig sets the decoder configuration (depth limit, trace sink).
func WithConfig(c wire.Config) Option {
	return func(o *Otpdump) { o.cfg = c }
}

// WithLogger sets the logger used for recovered decode errors.
func WithLogger(l *slog.Logger) Option {
	return func(o *Otpdump) { o.logger = l }
}

// New creates a new Otpdump instance
func New(opts ...Option) *Otpdump {
	o := &Otpdump{
		table:  schema.DefaultTable(),
		cfg:    wire.DefaultConfig(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.decoder = wire.NewDecoder(o.cfg)
	return o
}

// LoadSchemaFromFile replaces the label table with one derived from a .proto
// file (or a directory of them), rooted at message root. An empty root
// selects the first top-level message.
func (o *Otpdump) LoadSchemaFromFile(path, root string) error {
	t, err := registry.Load(path, root)
	if err != nil {
		return fmt.Errorf("load schema %s: %w", path, err)
	}
	o.table = t
	return nil
}

// Table returns the label table in use.
func (o *Otpdump) Table() *schema.Table {
	return o.table
}

// Walk streams the labeled records of data into sink and returns the number
// of bytes consumed. The returned error is the one that stopped the top-level
// message, if any; errors in nested messages go to sink.Warn.
func (o *Otpdump) Walk(data []byte, sink emit.Sink) (int, error) {
	return o.decoder.DecodeMessage(data, 0, emit.New(o.table, sink))
}

// Parse decodes a raw payload. The returned Export holds whatever could be
// decoded even when err is non-nil.
func (o *Otpdump) Parse(data []byte) (*Export, error) {
	var c emit.Collector
	n, err := o.Walk(data, &c)

	for _, w := range c.Warnings {
		attrs := []any{"err", w}
		var fe *wire.FieldError
		if errors.As(w, &fe) {
			attrs = append(attrs, "path", fe.Path())
		}
		o.logger.Warn("nested message abandoned", attrs...)
	}

	exp := newExport(data, n, c.Records, c.Warnings)
	if err != nil {
		o.logger.Warn("payload decode stopped", "err", err, "consumed", n, "size", len(data))
		return exp, fmt.Errorf("decode payload: %w", err)
	}

	o.logger.Debug("payload decoded", "size", len(data), "records", len(exp.Records), "accounts", len(exp.Accounts))
	return exp, nil
}

// ParseText decodes one line of QR text: an otpauth-migration URI or bare
// base64.
func (o *Otpdump) ParseText(line string) (*Export, error) {
	data, err := envelope.Decode(line)
	if err != nil {
		return nil, fmt.Errorf("unwrap QR text: %w", err)
	}
	return o.Parse(data)
}

// Tree decodes data into a field tree with nested messages expanded, using
// the same configuration as Parse.
func (o *Otpdump) Tree(data []byte) ([]wire.Field, error) {
	return wire.Tree(data, o.cfg)
}
