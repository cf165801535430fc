package genetic

import "sync/atomic"

// Gene names. Every individual holds exactly these four bounded values.
const (
	GeneAMLThreshold    = "aml_threshold"
	GeneIDSSensitivity  = "ids_sensitivity"
	GeneRateLimit       = "rate_limit"
	GeneEncryptionLevel = "encryption_level"
)

// Bounds is the closed interval a gene may take values in.
type Bounds struct {
	Min float64
	Max float64
}

// DefaultBounds returns the per-gene search space.
func DefaultBounds() map[string]Bounds {
	return map[string]Bounds{
		GeneAMLThreshold:    {Min: 0.5, Max: 0.99},
		GeneIDSSensitivity:  {Min: 0.0, Max: 1.0},
		GeneRateLimit:       {Min: 10, Max: 1000},
		GeneEncryptionLevel: {Min: 0.5, Max: 1.0},
	}
}

// Parameters maps gene name to value.
type Parameters map[string]float64

// Clone returns an independent copy.
func (p Parameters) Clone() Parameters {
	out := make(Parameters, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// DefaultParameters is the fallback used until an optimization run completes.
func DefaultParameters() Parameters {
	return Parameters{
		GeneAMLThreshold:    0.85,
		GeneIDSSensitivity:  0.85,
		GeneRateLimit:       100,
		GeneEncryptionLevel: 1.0,
	}
}

// Store publishes the current best parameter set. The optimizer is the only
// writer; detectors read concurrently. Each run replaces the set wholesale
// via atomic swap, so readers never observe a partial update.
type Store struct {
	current atomic.Pointer[Parameters]
}

// Current returns the live parameter set, or the defaults when no
// optimization run has published yet. The returned map is a private copy.
func (s *Store) Current() Parameters {
	if p, ok := s.Published(); ok {
		return p
	}
	return DefaultParameters()
}

// Published returns the live parameter set and whether an optimization run
// has published one. Callers that hold their own configured fallbacks (the
// pipeline's anomaly threshold) must use this rather than Current, so a
// store that has never published does not shadow operator configuration
// with the package defaults.
func (s *Store) Published() (Parameters, bool) {
	if p := s.current.Load(); p != nil {
		return p.Clone(), true
	}
	return nil, false
}

// Publish atomically replaces the live parameter set.
func (s *Store) Publish(p Parameters) {
	c := p.Clone()
	s.current.Store(&c)
}
