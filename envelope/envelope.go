// Package envelope unwraps the text carried by an export QR code into the raw
// protobuf payload, and wraps payloads back into that text.
package envelope

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Scheme is the URI scheme of export QR codes.
const Scheme = "otpauth-migration"

var (
	ErrEmpty     = errors.New("empty input")
	ErrNoPayload = errors.New("no data parameter")
)

var encodings = []*base64.Encoding{
	base64.StdEncoding,
	base64.RawStdEncoding,
	base64.URLEncoding,
	base64.RawURLEncoding,
}

// Decode extracts and decodes the payload from one line of QR text. The line
// is either an otpauth-migration URI or bare base64.
//
// Only well-formed %XX escapes are undone; a stray '%' is kept as is. '+'
// belongs to the base64 alphabet and is kept.
// Spaces, which some scanners produce in place of '+', are turned back.
func Decode(line string) ([]byte, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, ErrEmpty
	}

	text := unescape(line)

	data := text
	if strings.Contains(text, "://") || strings.Contains(text, "?") {
		var err error
		data, err = dataParam(text)
		if err != nil {
			return nil, err
		}
	}
	data = strings.ReplaceAll(data, " ", "+")

	var firstErr error
	for _, enc := range encodings {
		b, err := enc.DecodeString(data)
		if err == nil {
			return b, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, fmt.Errorf("base64: %w", firstErr)
}

// unescape decodes %XX sequences and copies everything else through.
func unescape(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) {
			hi, ok1 := unhex(s[i+1])
			lo, ok2 := unhex(s[i+2])
			if ok1 && ok2 {
				b.WriteByte(hi<<4 | lo)
				i += 2
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func unhex(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// dataParam returns the value of the data query parameter. The query is not
// parsed with url.ParseQuery because that would turn '+' into a space.
func dataParam(text string) (string, error) {
	_, query, ok := strings.Cut(text, "?")
	if !ok {
		return "", ErrNoPayload
	}
	for _, kv := range strings.Split(query, "&") {
		k, v, _ := strings.Cut(kv, "=")
		if k == "data" {
			return v, nil
		}
	}
	return "", ErrNoPayload
}

// Encode wraps a payload into the URI form found in export QR codes.
func Encode(payload []byte) string {
	return Scheme + "://offline?data=" + url.QueryEscape(base64.StdEncoding.EncodeToString(payload))
}
