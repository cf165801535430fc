package redact

import (
	"fmt"
	"log"
	"strings"
	"unicode"
)

// Uploaded content is hostile by assumption: evidence snippets may contain
// control bytes, terminal escapes, or megabytes of padding. Everything that
// ends up in a log line or an alert goes through this package first.

const defaultPreviewLen = 120

// Evidence clips a matched byte region to a short printable preview suitable
// for findings and alerts.
func Evidence(b []byte, max int) string {
	if max <= 0 {
		max = defaultPreviewLen
	}
	truncated := false
	if len(b) > max {
		b = b[:max]
		truncated = true
	}
	out := sanitize(string(b))
	if truncated {
		out += "..."
	}
	return out
}

// String strips control characters from free-form text so a crafted upload
// cannot inject fake log lines or escape sequences.
func String(s string) string {
	return sanitize(s)
}

// Sprintf formats like fmt.Sprintf and sanitizes the result.
func Sprintf(format string, args ...interface{}) string {
	return sanitize(fmt.Sprintf(format, args...))
}

// Logf prints a sanitized log line.
func Logf(format string, args ...interface{}) {
	log.Print(Sprintf(format, args...))
}

func sanitize(s string) string {
	if s == "" {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\t':
			sb.WriteRune(' ')
		case r == unicode.ReplacementChar:
			sb.WriteString(`\x?`)
		case unicode.IsControl(r) || !unicode.IsPrint(r):
			sb.WriteString(fmt.Sprintf(`\x%02x`, r))
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
