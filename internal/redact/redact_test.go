package redact

import (
	"strings"
	"testing"
)

func TestEvidenceTruncates(t *testing.T) {
	long := strings.Repeat("x", 500)
	got := Evidence([]byte(long), 50)
	if len(got) != 53 {
		t.Fatalf("expected 50 chars plus ellipsis, got %d: %q", len(got), got)
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("expected truncation marker, got %q", got)
	}
}

func TestEvidenceEscapesControlBytes(t *testing.T) {
	got := Evidence([]byte("ok\x00\x1b[31mbad"), 0)
	if strings.ContainsRune(got, 0x00) || strings.ContainsRune(got, 0x1b) {
		t.Fatalf("control bytes must not survive sanitization: %q", got)
	}
	if !strings.Contains(got, "ok") {
		t.Fatalf("printable content should survive: %q", got)
	}
}

func TestStringNeutralizesNewlines(t *testing.T) {
	got := String("line1\nFAKE LOG: intrusion cleared")
	if strings.Contains(got, "\n") {
		t.Fatalf("newlines must not survive: %q", got)
	}
}

func TestEvidenceDefaultCap(t *testing.T) {
	got := Evidence([]byte(strings.Repeat("a", 1000)), 0)
	if len(got) > defaultPreviewLen+3 {
		t.Fatalf("default cap not applied, got %d chars", len(got))
	}
}
