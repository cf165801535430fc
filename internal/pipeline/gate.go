package pipeline

import "github.com/helixgate/helixgate/internal/scan"

// Sensitivity levels for the pattern-scan gate.
const (
	SensitivityHigh   = "high"
	SensitivityMedium = "medium"
	SensitivityLow    = "low"
)

// gateBlocks converts pattern findings into a binary pass/fail decision.
// This is the single point where severity becomes a gate: at high
// sensitivity any finding blocks; at medium, one critical or two high
// findings block; at low, only a critical finding blocks.
func gateBlocks(sensitivity string, findings []scan.Finding) bool {
	if len(findings) == 0 {
		return false
	}

	var critical, high int
	for _, f := range findings {
		switch f.Severity {
		case scan.SeverityCritical:
			critical++
		case scan.SeverityHigh:
			high++
		}
	}

	switch sensitivity {
	case SensitivityHigh:
		return true
	case SensitivityLow:
		return critical >= 1
	default: // medium
		return critical >= 1 || high >= 2
	}
}
