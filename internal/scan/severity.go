package scan

// Severity classifies how dangerous a finding is. The ranking below is the
// single total order used everywhere; never compare severities any other way.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank maps a severity onto the total order. Unknown values rank below low so
// malformed data never outranks a real detection.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 0
	}
}

// MaxSeverity returns the highest severity among the findings, or SeverityLow
// when the slice is empty.
func MaxSeverity(findings []Finding) Severity {
	max := SeverityLow
	for _, f := range findings {
		if f.Severity.Rank() > max.Rank() {
			max = f.Severity
		}
	}
	return max
}
