package intel

import (
	"bytes"
	"strings"
	"sync"

	"github.com/helixgate/helixgate/internal/config"
	"github.com/helixgate/helixgate/internal/redact"
	"github.com/helixgate/helixgate/internal/scan"
)

// Matcher scans raw upload bytes against the fixed threat pattern set and
// runs structural and genomic anomaly checks. The pattern set is read-only
// after construction, so one Matcher is safe for concurrent scans.
//
// Matching is plain regex/byte-substring matching; there is no
// mismatch-tolerant structure behind it.
type Matcher struct {
	patterns []Pattern
	cfg      config.IntelConfig

	mu       sync.Mutex
	scans    uint64
	findings uint64
}

// Stats is a snapshot of matcher activity.
type Stats struct {
	TotalScans    uint64
	TotalFindings uint64
}

// NewMatcher builds a matcher with the built-in pattern set.
func NewMatcher(cfg config.IntelConfig) *Matcher {
	return &Matcher{
		patterns: defaultPatterns(),
		cfg:      cfg,
	}
}

// Scan returns every finding for the content. It never fails: an internal
// panic degrades to "no findings" and is logged, since a malformed input
// must not be able to deny service by forcing matcher errors. The pass/fail
// decision from the returned set belongs to the orchestrator's sensitivity
// policy, not to the matcher.
func (m *Matcher) Scan(content []byte, filename string) (findings []scan.Finding) {
	defer func() {
		if r := recover(); r != nil {
			redact.Logf("intel: matcher fault on %s, failing open: %v", filename, r)
			findings = nil
		}
	}()

	m.mu.Lock()
	m.scans++
	m.mu.Unlock()

	// Regex patterns match on text with invalid UTF-8 replaced, never
	// rejected; byte patterns match the raw content.
	text := strings.ToValidUTF8(string(content), "�")

	for _, p := range m.patterns {
		matched := false
		var evidence string
		switch {
		case p.Regex != nil:
			if loc := p.Regex.FindStringIndex(text); loc != nil {
				matched = true
				evidence = redact.Evidence([]byte(text[loc[0]:loc[1]]), 80)
			}
		case len(p.Bytes) > 0:
			if i := bytes.Index(content, p.Bytes); i >= 0 {
				matched = true
				evidence = redact.Evidence(content[i:i+len(p.Bytes)], 80)
			}
		}
		if !matched {
			continue
		}
		findings = append(findings, scan.Finding{
			Kind:        scan.KindPatternMatch,
			Severity:    p.Severity,
			Description: p.Description,
			Evidence:    evidence,
		})
	}

	findings = append(findings, m.structuralFindings(content, filename)...)
	findings = append(findings, genomicFindings(content, filename)...)

	m.mu.Lock()
	m.findings += uint64(len(findings))
	m.mu.Unlock()

	return findings
}

// Stats returns a snapshot of scan counters.
func (m *Matcher) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{TotalScans: m.scans, TotalFindings: m.findings}
}
