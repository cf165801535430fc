package scan

import "time"

// FindingKind tells which class of detector emitted a finding.
type FindingKind string

const (
	KindPatternMatch       FindingKind = "pattern_match"
	KindStatisticalAnomaly FindingKind = "statistical_anomaly"
	KindGenomicStructure   FindingKind = "genomic_structure_anomaly"
)

// Finding is a single detected signal. Findings live only as long as the
// report they belong to; nothing in the core persists them.
type Finding struct {
	Kind        FindingKind `json:"kind"`
	Severity    Severity    `json:"severity"`
	Description string      `json:"description"`
	Evidence    string      `json:"evidence,omitempty"`
}

// Result captures one detector invocation inside the pipeline.
type Result struct {
	Passed   bool          `json:"passed"`
	Findings []Finding     `json:"findings,omitempty"`
	Elapsed  time.Duration `json:"elapsed_ns"`
	Detector string        `json:"detector"`
}

// Stage names, in pipeline order. A report's Stages map only contains the
// stages that actually ran; on early exit later stages are simply absent.
const (
	StageOriginValidation = "origin_validation"
	StagePatternScan      = "pattern_scan"
	StageAnomalyScan      = "anomaly_scan"
)

// Report is the aggregate outcome for one submitted file. It is created
// fresh per submission and must be treated as immutable once returned.
type Report struct {
	JobID         string            `json:"job_id"`
	Filename      string            `json:"filename"`
	Stages        map[string]Result `json:"stages"`
	OverallPassed bool              `json:"overall_passed"`
	SecurityScore float64           `json:"security_score"`
	ThreatLevel   ThreatLevel       `json:"threat_level"`
	TotalElapsed  time.Duration     `json:"total_elapsed_ns"`
}
