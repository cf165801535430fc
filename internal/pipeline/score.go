package pipeline

import (
	"sync"

	"github.com/helixgate/helixgate/internal/scan"
)

// Stage-specific penalties applied to the shared security score.
const (
	intrusionPenalty   = 10
	adversarialPenalty = 15
)

// ScoreState is the single process-wide security health metric in [0,100].
// Detected threats decrement it; it is never raised back. All mutation goes
// through Apply so concurrent scans can never interleave a partial update of
// (score, threat level).
type ScoreState struct {
	mu    sync.Mutex
	score float64
}

// NewScoreState starts at a perfect score.
func NewScoreState() *ScoreState {
	return &ScoreState{score: 100}
}

// Apply subtracts the penalty, clamps into [0,100], and returns the new
// score with its derived threat level as one atomic read-modify-write.
func (s *ScoreState) Apply(penalty float64) (float64, scan.ThreatLevel) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.score -= penalty
	if s.score < 0 {
		s.score = 0
	}
	if s.score > 100 {
		s.score = 100
	}
	return s.score, scan.ThreatLevelForScore(s.score)
}

// Snapshot returns the current score and threat level without mutating.
func (s *ScoreState) Snapshot() (float64, scan.ThreatLevel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.score, scan.ThreatLevelForScore(s.score)
}
