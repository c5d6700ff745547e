package logger

import (
	"log/slog"
	"strings"
)

// Prefixes of raw key material as accepted by adaptive.ParseKey.
var keyValuePrefixes = []string{"hex:", "base64:"}

// Attribute names whose values are always hidden. Matching is by substring
// on the lower-cased name. Plain "key" is deliberately absent: store keys
// are logged under it.
var sensitiveNames = []string{
	"password",
	"passphrase",
	"secret",
	"token",
	"credential",
	"authorization",
	"encryption_key",
	"api_key",
	"private_key",
}

const redacted = "***REDACTED***"

func redact(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		v := a.Value.String()
		if v == "" {
			return a
		}
		if IsSensitiveName(a.Key) {
			return slog.String(a.Key, redacted)
		}
		for _, p := range keyValuePrefixes {
			if strings.HasPrefix(v, p) {
				return slog.String(a.Key, p+"***")
			}
		}
	case slog.KindGroup:
		attrs := a.Value.Group()
		out := make([]slog.Attr, len(attrs))
		for i, ga := range attrs {
			out[i] = redact(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}
	return a
}

// IsSensitiveName reports whether values logged under name are hidden.
func IsSensitiveName(name string) bool {
	lower := strings.ToLower(name)
	for _, s := range sensitiveNames {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// Redact masks a value for display outside of slog, e.g. in a printed
// config.
func Redact(v string) string {
	if v == "" {
		return ""
	}
	for _, p := range keyValuePrefixes {
		if strings.HasPrefix(v, p) {
			return p + "***"
		}
	}
	return redacted
}
