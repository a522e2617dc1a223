package registry

import (
	"fmt"
	"strconv"
	"strings"

	protoparserparser "github.com/yoheimuta/go-protoparser/v4/parser"

	"github.com/anirudhraja/otpdump/schema"
	"github.com/anirudhraja/otpdump/wire"
)

// register walks a parsed file and records every message and enum under its
// fully qualified name.
func (r *Registry) register(parsed *protoparserparser.Proto) error {
	pkg := ""
	for _, body := range parsed.ProtoBody {
		if p, ok := body.(*protoparserparser.Package); ok {
			pkg = p.Name
		}
	}

	for _, body := range parsed.ProtoBody {
		switch b := body.(type) {
		case *protoparserparser.Message:
			name := getFullName(pkg, b.MessageName)
			r.roots = append(r.roots, name)
			if err := r.registerMessage(name, b.MessageBody); err != nil {
				return err
			}
		case *protoparserparser.Enum:
			if err := r.registerEnum(getFullName(pkg, b.EnumName), b.EnumBody); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Registry) registerMessage(fullName string, body []protoparserparser.Visitee) error {
	if _, ok := r.messages[fullName]; ok {
		return fmt.Errorf("duplicate message %s", fullName)
	}
	msg := &message{fullName: fullName}
	r.messages[fullName] = msg

	for _, item := range body {
		switch b := item.(type) {
		case *protoparserparser.Field:
			msg.fields = append(msg.fields, field{
				name:     b.FieldName,
				number:   b.FieldNumber,
				typeName: b.Type,
				repeated: b.IsRepeated,
				scope:    fullName,
			})
		case *protoparserparser.Oneof:
			for _, of := range b.OneofFields {
				msg.fields = append(msg.fields, field{
					name:     of.FieldName,
					number:   of.FieldNumber,
					typeName: of.Type,
					scope:    fullName,
				})
			}
		case *protoparserparser.Message:
			if err := r.registerMessage(fullName+"."+b.MessageName, b.MessageBody); err != nil {
				return err
			}
		case *protoparserparser.Enum:
			if err := r.registerEnum(fullName+"."+b.EnumName, b.EnumBody); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Registry) registerEnum(fullName string, body []protoparserparser.Visitee) error {
	values := make(map[uint64]string)
	for _, item := range body {
		ef, ok := item.(*protoparserparser.EnumField)
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(strings.TrimSpace(ef.Number), 0, 64)
		if err != nil {
			return fmt.Errorf("enum %s value %s: bad number %q: %w", fullName, ef.Ident, ef.Number, err)
		}
		// Negative enum values go on the wire sign-extended to 64 bits.
		values[uint64(n)] = ef.Ident
	}
	r.enums[fullName] = values
	return nil
}

// Table derives the label table for messages rooted at root: fields of the
// root message match at depth 0, fields of messages it embeds at depth 1, and
// so on. Message-typed fields produce no rule of their own.
func (r *Registry) Table(root string) (*schema.Table, error) {
	if root == "" {
		if len(r.roots) == 0 {
			return nil, fmt.Errorf("no messages loaded")
		}
		root = r.roots[0]
	}

	msg, ok := r.messages[strings.TrimPrefix(root, ".")]
	if !ok {
		return nil, fmt.Errorf("message type not found: %s", root)
	}

	b := &tableBuilder{r: r, seen: make(map[ruleKey]bool), visiting: make(map[string]bool)}
	if err := b.collect(msg, 0); err != nil {
		return nil, err
	}
	return schema.NewTable(b.rules...)
}

type ruleKey struct {
	num   wire.FieldNumber
	typ   wire.WireType
	depth int
}

type tableBuilder struct {
	r        *Registry
	rules    []schema.Rule
	seen     map[ruleKey]bool
	visiting map[string]bool
}

func (b *tableBuilder) collect(msg *message, depth int) error {
	// Recursive message types stop at the first repetition; the decoder could
	// never reach deeper levels anyway without the classifier agreeing.
	if depth > wire.DefaultMaxDepth || b.visiting[msg.fullName] {
		return nil
	}
	b.visiting[msg.fullName] = true
	defer delete(b.visiting, msg.fullName)

	for _, f := range msg.fields {
		num, err := strconv.ParseUint(strings.TrimSpace(f.number), 0, 64)
		if err != nil {
			return fmt.Errorf("field %s.%s: bad number %q: %w", msg.fullName, f.name, f.number, err)
		}

		if typ, kind, ok := scalarType(f.typeName); ok {
			// Packed repeated numbers travel as LEN and are not decodable here.
			if f.repeated && typ == wire.WireVarint {
				continue
			}
			b.add(schema.Rule{Number: wire.FieldNumber(num), WireType: typ, Depth: depth, Label: schema.Label(f.name), Kind: kind})
			continue
		}
		if isFixedScalar(f.typeName) {
			continue
		}

		resolved, err := getReferencedType(f.typeName, f.scope, b.r.entities())
		if err != nil {
			return fmt.Errorf("field %s.%s: %w", msg.fullName, f.name, err)
		}

		if values, ok := b.r.enums[resolved]; ok {
			if f.repeated {
				continue
			}
			b.add(schema.Rule{Number: wire.FieldNumber(num), WireType: wire.WireVarint, Depth: depth, Label: schema.Label(f.name), Kind: schema.KindEnum, Enum: values})
			continue
		}

		if err := b.collect(b.r.messages[resolved], depth+1); err != nil {
			return err
		}
	}
	return nil
}

// add keeps the first rule for a key; sibling messages at the same depth may
// reuse field numbers and the decoder cannot tell them apart.
func (b *tableBuilder) add(rule schema.Rule) {
	k := ruleKey{rule.Number, rule.WireType, rule.Depth}
	if b.seen[k] {
		return
	}
	b.seen[k] = true
	b.rules = append(b.rules, rule)
}

// scalarType maps a proto scalar type to the wire type it is encoded with
// and the kind it should be rendered as. Fixed-width scalars are reported as
// not ok: the schema-less decoder never produces them.
func scalarType(name string) (wire.WireType, schema.Kind, bool) {
	switch name {
	case "string":
		return wire.WireBytes, schema.KindText, true
	case "bytes":
		return wire.WireBytes, schema.KindBinary, true
	case "int32", "int64", "uint32", "uint64", "sint32", "sint64", "bool":
		return wire.WireVarint, schema.KindInteger, true
	}
	return 0, "", false
}

// isFixedScalar reports fixed-width scalar types, which have no rule.
func isFixedScalar(name string) bool {
	switch name {
	case "fixed32", "sfixed32", "float", "fixed64", "sfixed64", "double":
		return true
	}
	return false
}

func (r *Registry) entities() map[string]struct{} {
	all := make(map[string]struct{}, len(r.messages)+len(r.enums))
	for name := range r.messages {
		all[name] = struct{}{}
	}
	for name := range r.enums {
		all[name] = struct{}{}
	}
	return all
}

func getFullName(pkg, name string) string {
	if pkg == "" {
		return name
	}
	return pkg + "." + name
}

/*
This helper function will return the entity for any referenced type ,
Be it top/file,nested or imported entities.If not found will return an error
Ref - https://github.com/protocolbuffers/protobuf/blob/b7a5772caf08d62a20fd1bca258f501fa4db022c/src/google/protobuf/descriptor.proto#L186-L191
*/
func getReferencedType(typeName, prefix string, allResolvedEntities map[string]struct{}) (string, error) {
	// check if fully qualifed prefixed by dot
	if strings.HasPrefix(typeName, ".") {
		return getFullyQualifiedType(typeName, allResolvedEntities)
	}
	// try resolving from inner entities up till the parent package
	if result, ok := splitNameAndCheck(typeName, prefix, allResolvedEntities); ok {
		return result, nil
	}
	//  check if the entity is referenced to other packages via packageName
	if _, ok := allResolvedEntities[typeName]; ok {
		return typeName, nil
	}
	return "", fmt.Errorf("unable to resolve type name: %s", typeName)
}

// splitNameAndCheck splits the prefixName and tries to append the typeName and find the entity for resolution
// it also tries the find the entities defined using relative path
func splitNameAndCheck(typeName, prefix string, allResolvedEntities map[string]struct{}) (string, bool) {
	prefixSplit := strings.Split(prefix, ".")

	for len(prefixSplit) > 0 && prefixSplit[0] != "" {
		entityName := strings.Join(prefixSplit, ".") + "." + typeName
		if _, ok := allResolvedEntities[entityName]; ok {
			return entityName, true
		}
		// Omit the last element in each iteration as we go level above to outer entity
		prefixSplit = prefixSplit[:len(prefixSplit)-1]
	}
	return "", false
}

func getFullyQualifiedType(typeName string, allResolvedEntities map[string]struct{}) (string, error) {
	typeName = strings.TrimPrefix(typeName, ".")
	if _, ok := allResolvedEntities[typeName]; ok {
		return typeName, nil
	}
	return "", fmt.Errorf("unable to resolve fully qualified type name: %s", typeName)
}
