package scan

// ThreatLevel is the four-tier classification derived from the security score.
type ThreatLevel string

const (
	ThreatLow      ThreatLevel = "low"
	ThreatMedium   ThreatLevel = "medium"
	ThreatHigh     ThreatLevel = "high"
	ThreatCritical ThreatLevel = "critical"
)

// ThreatLevelForScore derives the threat level from a security score in
// [0,100]. It is a pure function so score and level can never disagree.
func ThreatLevelForScore(score float64) ThreatLevel {
	switch {
	case score >= 90:
		return ThreatLow
	case score >= 70:
		return ThreatMedium
	case score >= 50:
		return ThreatHigh
	default:
		return ThreatCritical
	}
}
