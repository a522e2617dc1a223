package wire

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Decoding errors. None of them is fatal to the process: each one only stops
// decoding of the message level it occurred in.
var (
	ErrUnexpectedEOF       = errors.New("unexpected EOF while reading varint")
	ErrVarintOverflow      = errors.New("varint overflow")
	ErrTruncated           = errors.New("truncated field")
	ErrUnsupportedWireType = errors.New("unsupported wire type")
	ErrDepthExceeded       = errors.New("maximum nesting depth exceeded")
)

// FieldError represents a decoding error with the field path it occurred at.
type FieldError struct {
	FieldPath []FieldNumber // e.g. [1, 2] for field 2 inside the message in field 1
	Err       error         // underlying error
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	if len(e.FieldPath) == 0 {
		return e.Err.Error()
	}

	return fmt.Sprintf("error at field path %s: %v", e.Path(), e.Err)
}

// Path returns the dotted field path, e.g. "1.2".
func (e *FieldError) Path() string {
	parts := make([]string, len(e.FieldPath))
	for i, n := range e.FieldPath {
		parts[i] = strconv.FormatUint(uint64(n), 10)
	}
	return strings.Join(parts, ".")
}

// Unwrap returns the underlying error.
func (e *FieldError) Unwrap() error {
	return e.Err
}

// wrapWithField prefixes the error's field path with field number n.
func wrapWithField(err error, n FieldNumber) error {
	if err == nil {
		return nil
	}

	var fe *FieldError
	if errors.As(err, &fe) {
		return &FieldError{
			FieldPath: append([]FieldNumber{n}, fe.FieldPath...),
			Err:       fe.Err,
		}
	}

	return &FieldError{
		FieldPath: []FieldNumber{n},
		Err:       err,
	}
}

// wrapWithPath prefixes the error's field path with path.
func wrapWithPath(err error, path []FieldNumber) error {
	for i := len(path) - 1; i >= 0; i-- {
		err = wrapWithField(err, path[i])
	}
	return err
}
