package alerts

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/helixgate/helixgate/internal/scan"
)

// Alert records one blocked or suspicious submission. Alerts are kept in a
// bounded in-memory history and optionally delivered to external sinks; the
// core never persists them itself.
type Alert struct {
	ID        string         `json:"alert_id"`
	Timestamp time.Time      `json:"timestamp"`
	Filename  string         `json:"filename"`
	SourceID  string         `json:"source_id,omitempty"`
	Findings  []scan.Finding `json:"findings"`
	Severity  scan.Severity  `json:"severity"`
	Blocked   bool           `json:"blocked"`
}

// New builds an alert. The ID is a digest of filename and timestamp, so two
// alerts for the same file at different times stay distinguishable. Severity
// is the maximum over the findings.
func New(filename, sourceID string, findings []scan.Finding, blocked bool, now time.Time) Alert {
	sum := sha256.Sum256([]byte(filename + now.UTC().Format(time.RFC3339Nano)))
	return Alert{
		ID:        hex.EncodeToString(sum[:8]),
		Timestamp: now.UTC(),
		Filename:  filename,
		SourceID:  sourceID,
		Findings:  findings,
		Severity:  scan.MaxSeverity(findings),
		Blocked:   blocked,
	}
}
