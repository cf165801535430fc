package intel

import (
	"bytes"
	"regexp"

	"github.com/helixgate/helixgate/internal/scan"
)

// Pattern is one immutable threat signature. Regex patterns match the content
// decoded as text; byte patterns substring-match the raw bytes. The set is
// loaded once at startup and never mutated.
type Pattern struct {
	Description string
	Severity    scan.Severity
	Regex       *regexp.Regexp // nil for byte-substring patterns
	Bytes       []byte         // nil for regex patterns
}

// defaultPatterns is the built-in signature set. It covers the attack classes
// seen against genomic upload endpoints: injection through metadata fields
// that end up in shell commands or SQL, payloads disguised as sequence data,
// and malformed structure used to probe parsers.
func defaultPatterns() []Pattern {
	return []Pattern{
		{
			Description: "Path traversal attempt",
			Severity:    scan.SeverityHigh,
			Regex:       regexp.MustCompile(`\.\./|\.\.\\`),
		},
		{
			Description: "SQL injection attempt",
			Severity:    scan.SeverityCritical,
			Regex:       regexp.MustCompile(`(?i)('|")?\s*(OR|AND)\s+('|")?\d+('|")?\s*=\s*('|")?\d+('|")?`),
		},
		{
			Description: "Cross-site scripting (XSS) attempt",
			Severity:    scan.SeverityCritical,
			Regex:       regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`),
		},
		{
			Description: "Command injection attempt",
			Severity:    scan.SeverityCritical,
			Regex:       regexp.MustCompile(`(?i)[;|&]\s*(rm|del|format|cat|type|sudo)\b`),
		},
		{
			Description: "File inclusion attempt",
			Severity:    scan.SeverityCritical,
			Regex:       regexp.MustCompile(`(?i)(/etc/passwd|/etc/shadow|C:\\Windows\\System32)`),
		},
		{
			Description: "Suspicious binary pattern in genomic data",
			Severity:    scan.SeverityMedium,
			Bytes:       bytes.Repeat([]byte{0x00, 0xFF}, 10),
		},
		{
			Description: "Malformed FASTA header",
			Severity:    scan.SeverityLow,
			Regex:       regexp.MustCompile(`>{2,}[^>]{1000,}`),
		},
	}
}
