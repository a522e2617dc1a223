package registry

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	protoparser "github.com/yoheimuta/go-protoparser/v4"

	"github.com/anirudhraja/otpdump/schema"
)

//go:embed migration.proto
var migrationProto []byte

// DefaultRoot is the top-level message of the embedded export schema.
const DefaultRoot = "googleauth.MigrationPayload"

// Registry stores message and enum definitions parsed from .proto files. We
// use it to derive a depth-aware label table for the schema-less decoder.
type Registry struct {
	messages map[string]*message          // fully qualified name -> message
	enums    map[string]map[uint64]string // fully qualified name -> value names
	roots    []string                     // top-level messages in load order
}

type message struct {
	fullName string
	fields   []field
}

type field struct {
	name     string
	number   string
	typeName string
	repeated bool
	scope    string // fully qualified name of the declaring message
}

func NewRegistry() *Registry {
	return &Registry{
		messages: make(map[string]*message),
		enums:    make(map[string]map[uint64]string),
	}
}

// LoadDefault returns the label table derived from the embedded Google
// Authenticator export schema.
func LoadDefault() (*schema.Table, error) {
	r := NewRegistry()
	if err := r.LoadSource("migration.proto", bytes.NewReader(migrationProto)); err != nil {
		return nil, err
	}
	return r.Table(DefaultRoot)
}

// Load parses the .proto file (or directory of files) at path and returns the
// label table rooted at root. An empty root selects the first top-level
// message.
func Load(path, root string) (*schema.Table, error) {
	r := NewRegistry()
	if err := r.LoadSchema(path); err != nil {
		return nil, err
	}
	return r.Table(root)
}

// LoadSchema Given a path it will recursively scan all *proto files inside it
func (r *Registry) LoadSchema(protoPath string) error {
	info, err := os.Stat(protoPath)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}

	if !info.IsDir() {
		if !strings.HasSuffix(protoPath, ".proto") {
			return fmt.Errorf("file %s is not a .proto file", protoPath)
		}
		if err := r.loadSingleProtoFile(protoPath); err != nil {
			return fmt.Errorf("failed to load proto file: %w", err)
		}
		return nil
	}

	err = filepath.WalkDir(protoPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// Skip directories and non-proto files
		if d.IsDir() || !strings.HasSuffix(path, ".proto") {
			return nil
		}

		if err := r.loadSingleProtoFile(path); err != nil {
			return fmt.Errorf("failed to load proto file %s: %w", path, err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk directory: %w", err)
	}

	return nil
}

// loadSingleProtoFile loads and parses a single .proto file
func (r *Registry) loadSingleProtoFile(filePath string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	defer f.Close()

	return r.LoadSource(filepath.Base(filePath), f)
}

// LoadSource parses one .proto source and registers its definitions.
func (r *Registry) LoadSource(name string, src io.Reader) error {
	parsed, err := protoparser.Parse(src, protoparser.WithFilename(name))
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return r.register(parsed)
}

// GetMessage returns the field numbers of a registered message, mostly for
// diagnostics.
func (r *Registry) GetMessage(name string) ([]string, error) {
	msg, ok := r.messages[strings.TrimPrefix(name, ".")]
	if !ok {
		return nil, fmt.Errorf("message not found: %s", name)
	}
	names := make([]string, len(msg.fields))
	for i, f := range msg.fields {
		names[i] = f.name
	}
	return names, nil
}

// ListMessages returns the fully qualified names of all registered messages.
func (r *Registry) ListMessages() []string {
	names := make([]string, 0, len(r.messages))
	for name := range r.messages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListEnums returns the fully qualified names of all registered enums.
func (r *Registry) ListEnums() []string {
	names := make([]string, 0, len(r.enums))
	for name := range r.enums {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
