package wire

import (
	"errors"
)

// TreeBuilder is a Visitor that materializes the decoded fields, filling in
// the Message value of every nested message.
type TreeBuilder struct {
	stack [][]Field
	errs  []error
}

// NewTreeBuilder creates an empty tree builder
func NewTreeBuilder() *TreeBuilder {
	return &TreeBuilder{stack: [][]Field{nil}}
}

func (b *TreeBuilder) Field(f Field) {
	top := len(b.stack) - 1
	b.stack[top] = append(b.stack[top], f)
}

func (b *TreeBuilder) Enter(Field) {
	b.stack = append(b.stack, nil)
}

func (b *TreeBuilder) Leave(f Field, err error) {
	top := len(b.stack) - 1
	f.Value = Message(b.stack[top])
	b.stack = b.stack[:top]
	b.Field(f)
	if err != nil {
		b.errs = append(b.errs, err)
	}
}

// Fields returns the top-level fields decoded so far.
func (b *TreeBuilder) Fields() []Field {
	return b.stack[0]
}

// Errors returns the errors that stopped nested messages.
func (b *TreeBuilder) Errors() []error {
	return b.errs
}

// Tree decodes data into a field tree. Whatever could be decoded is returned
// even when err is non-nil; err joins the top-level error with every nested
// one.
func Tree(data []byte, cfg Config) ([]Field, error) {
	b := NewTreeBuilder()
	_, err := Walk(data, cfg, b)
	return b.Fields(), errors.Join(append([]error{err}, b.Errors()...)...)
}
