// Command otpdump prints the accounts held in authenticator export QR codes.
//
// It reads one QR payload per line on stdin, as produced by e.g.
//
//	zbarimg --raw export.png | otpdump
//
// and prints the secret, name, issuer and version fields it finds.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/anirudhraja/otpdump"
	"github.com/anirudhraja/otpdump/envelope"
	"github.com/anirudhraja/otpdump/registry"
	"github.com/anirudhraja/otpdump/render"
	"github.com/anirudhraja/otpdump/wire"
)

// maxLine bounds a single input line; export QR codes stay far below it.
const maxLine = 16 << 20

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("otpdump", flag.ContinueOnError)
	fs.SetOutput(stderr)
	verbose := fs.Bool("v", false, "write a structural decode trace and debug logs to stderr")
	format := fs.String("format", "text", "output format: text|json|uri|raw")
	schemaPath := fs.String("schema", "", "derive the label table from this .proto file or directory")
	root := fs.String("root", "", "top-level message of -schema (default: first message)")
	full := fs.Bool("full", false, "use the built-in export schema (algorithm, digits, type, counter, batch fields)")
	maxDepth := fs.Int("max-depth", 0, "maximum sub-message nesting depth (default 32)")
	noPadding := fs.Bool("no-padding", false, "omit base32 padding from secrets")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	// Any positional argument turns the trace on, as a bare "otpdump x" did.
	trace := *verbose || fs.NArg() > 0

	cfg := wire.ConfigFromEnv(stderr)
	if trace {
		cfg.Trace = stderr
	}
	if *maxDepth > 0 {
		cfg.MaxDepth = *maxDepth
	}

	level := slog.LevelWarn
	if trace {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	opts := []otpdump.Option{otpdump.WithConfig(cfg), otpdump.WithLogger(logger)}
	if *full {
		table, err := registry.LoadDefault()
		if err != nil {
			logger.Error("load built-in schema", "err", err)
			return 1
		}
		opts = append(opts, otpdump.WithTable(table))
	}
	d := otpdump.New(opts...)
	if *schemaPath != "" {
		if err := d.LoadSchemaFromFile(*schemaPath, *root); err != nil {
			logger.Error("load schema", "err", err)
			return 1
		}
	}

	switch *format {
	case "text", "json", "uri", "raw":
	default:
		fmt.Fprintf(stderr, "unknown format %q\n", *format)
		fs.Usage()
		return 2
	}

	ropts := render.Options{NoPadding: *noPadding}
	failed := false

	sc := bufio.NewScanner(stdin)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	for lineNo := 1; sc.Scan(); lineNo++ {
		line := sc.Text()
		if line == "" {
			continue
		}

		data, err := envelope.Decode(line)
		if err != nil {
			logger.Error("skipping line", "line", lineNo, "err", err)
			failed = true
			continue
		}
		if trace {
			fmt.Fprintf(stderr, "protobuf size: %d bytes\n", len(data))
		}

		if err := output(stdout, d, data, *format, ropts); err != nil {
			logger.Error("decode failed", "line", lineNo, "err", err)
			failed = true
		}
		if trace {
			fmt.Fprintln(stderr)
		}
	}
	if err := sc.Err(); err != nil {
		logger.Error("read input", "err", err)
		return 1
	}

	if failed {
		return 1
	}
	return 0
}

// output decodes one payload and renders it. Partial results are rendered
// before the decode error is returned.
func output(w io.Writer, d *otpdump.Otpdump, data []byte, format string, opts render.Options) error {
	if format == "raw" {
		fields, derr := d.Tree(data)
		if err := render.Raw(w, fields); err != nil {
			return err
		}
		return derr
	}

	exp, derr := d.Parse(data)

	var err error
	switch format {
	case "json":
		err = render.JSON(w, exp, opts)
	case "uri":
		err = render.URIs(w, exp)
	default:
		err = render.Text(w, exp, opts)
	}
	if err != nil {
		return err
	}
	return derr
}
