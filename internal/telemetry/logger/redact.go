package logger

import (
	"log/slog"
	"strings"
)

// tokenPrefix marks a signed receipt token.
const tokenPrefix = "TSQR1."

// Keys containing any of these are credentials and never printed.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"credential",
	"authorization",
	"bearer",
	"signature",
}

const redactedValue = "***REDACTED***"

// redactSensitive masks tokens by value and credentials by key.
func redactSensitive(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindGroup:
		attrs := a.Value.Group()
		out := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			out[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}

	case slog.KindString:
		s := a.Value.String()
		if IsSensitiveValue(s) {
			return slog.String(a.Key, RedactString(s))
		}
		if s != "" && IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}

	default:
		if IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
	}
	return a
}

// RedactString masks a token to its version, the first and last three
// characters of the payload segment, and nothing of the signature.
// Other values are returned unchanged.
func RedactString(value string) string {
	if !IsSensitiveValue(value) {
		return value
	}
	body := strings.TrimSpace(value)[len(tokenPrefix):]
	if i := strings.IndexByte(body, '.'); i >= 0 {
		body = body[:i]
	}
	if len(body) <= 6 {
		return tokenPrefix + "***"
	}
	return tokenPrefix + body[:3] + "..." + body[len(body)-3:]
}

// IsSensitiveKey reports whether a key name suggests a credential.
func IsSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	for _, p := range sensitiveKeyPatterns {
		if strings.Contains(k, p) {
			return true
		}
	}
	return false
}

// IsSensitiveValue reports whether value is a signed token.
func IsSensitiveValue(value string) bool {
	return strings.HasPrefix(strings.TrimSpace(value), tokenPrefix)
}
