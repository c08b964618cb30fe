package tsqr

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// Version is the fixed token prefix.
const Version = "TSQR1"

// Token format errors.
var (
	// ErrInvalidFormat means the token is not three dot-separated base64url
	// segments with the expected version prefix.
	ErrInvalidFormat = errors.New("invalid_token_format")

	// ErrInvalidPayload means the payload segment is not a JSON object.
	ErrInvalidPayload = errors.New("invalid_payload")
)

var rawURL = base64.RawURLEncoding

// Canonicalize returns the canonical JSON encoding of a payload: keys sorted
// ascending by code point, no insignificant whitespace, HTML characters left
// as is, and pure ASCII output with every rune from DEL upward written as a
// lowercase \uXXXX escape (a surrogate pair above the BMP).
func Canonicalize(p Payload) ([]byte, error) {
	if p == nil {
		p = Payload{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// encoding/json sorts map keys by their UTF-8 bytes, which is code point order.
	if err := enc.Encode(map[string]any(p)); err != nil {
		return nil, fmt.Errorf("canonicalize payload: %w", err)
	}
	return asciiEscape(bytes.TrimSuffix(buf.Bytes(), []byte{'\n'})), nil
}

// asciiEscape rewrites encoded JSON so it holds only printable ASCII.
// Runes at or above DEL only occur inside strings, where an escape is
// equivalent.
func asciiEscape(b []byte) []byte {
	i := bytes.IndexFunc(b, func(r rune) bool { return r >= utf8.RuneSelf-1 })
	if i < 0 {
		return b
	}

	out := make([]byte, i, len(b)+len(b)/2)
	copy(out, b[:i])
	for _, r := range string(b[i:]) {
		switch {
		case r < utf8.RuneSelf-1:
			out = append(out, byte(r))
		case r <= 0xffff:
			out = appendEscape(out, r)
		default:
			hi, lo := utf16.EncodeRune(r)
			out = appendEscape(appendEscape(out, hi), lo)
		}
	}
	return out
}

func appendEscape(dst []byte, r rune) []byte {
	const hex = "0123456789abcdef"
	return append(dst, '\\', 'u', hex[r>>12&0xf], hex[r>>8&0xf], hex[r>>4&0xf], hex[r&0xf])
}

// Encode signs the payload with secret and returns the wire token.
func Encode(p Payload, secret string) (string, error) {
	canonical, err := Canonicalize(p)
	if err != nil {
		return "", err
	}
	sig := Sign(canonical, []byte(secret))
	return Version + "." + rawURL.EncodeToString(canonical) + "." + rawURL.EncodeToString(sig), nil
}

// BuildToken is an alias for Encode.
func BuildToken(p Payload, secret string) (string, error) {
	return Encode(p, secret)
}

// Decode parses a wire token into its payload and raw signature bytes.
//
// Decode does not check the signature. Errors are ErrInvalidFormat or
// ErrInvalidPayload (possibly wrapped).
func Decode(token string) (Payload, []byte, error) {
	parts := strings.Split(strings.TrimSpace(token), ".")
	if len(parts) != 3 || parts[0] != Version {
		return nil, nil, ErrInvalidFormat
	}

	payloadJSON, err := decodeSegment(parts[1])
	if err != nil {
		return nil, nil, fmt.Errorf("%w: payload segment: %v", ErrInvalidFormat, err)
	}
	sig, err := decodeSegment(parts[2])
	if err != nil {
		return nil, nil, fmt.Errorf("%w: signature segment: %v", ErrInvalidFormat, err)
	}

	payload, err := parsePayload(payloadJSON)
	if err != nil {
		return nil, nil, err
	}
	return payload, sig, nil
}

// decodeSegment decodes base64url, restoring stripped padding.
func decodeSegment(s string) ([]byte, error) {
	return rawURL.DecodeString(strings.TrimRight(s, "="))
}

func parsePayload(data []byte) (Payload, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: not utf-8", ErrInvalidPayload)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data", ErrInvalidPayload)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, ErrInvalidPayload
	}
	return Payload(obj), nil
}
