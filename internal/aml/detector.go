package aml

import (
	"sync"

	"github.com/helixgate/helixgate/internal/config"
	"github.com/helixgate/helixgate/internal/redact"
	"github.com/helixgate/helixgate/internal/scan"
)

// anomalyScale converts a raw reconstruction MSE into the [0,1] anomaly score.
const anomalyScale = 100.0

// Perturbation score weights: uniformity, discontinuity, spike fraction.
// Pinned by tests; changing them changes the blocking boundary.
const (
	weightUniformity    = 0.3
	weightDiscontinuity = 0.4
	weightSpikes        = 0.3
	spikeSigma          = 3.0
)

// Assessment is the outcome of one adversarial check.
type Assessment struct {
	Adversarial       bool
	AnomalyDetected   bool
	AnomalyScore      float64
	PerturbationScore float64
	Entropy           float64
}

// Detector flags adversarially perturbed content from byte statistics.
//
// The decision rule is conjunctive on purpose: content is adversarial only
// when the reconstruction anomaly fires AND the perturbation score is above
// the cutoff AND the entropy is outside the configured window. Legitimate
// genomic data is high-diversity, so any single signal alone is too noisy to
// block on. This makes the detector intentionally lenient; it is paired with
// the pattern matcher, never used as the sole gate.
type Detector struct {
	cfg   config.AMLConfig
	model Reconstructor

	mu          sync.Mutex
	checks      uint64
	adversarial uint64
	clean       uint64
	faults      uint64
}

// DetectorStats is a snapshot of detector activity.
type DetectorStats struct {
	TotalChecks         uint64
	AdversarialDetected uint64
	CleanInputs         uint64
	Faults              uint64
}

// NewDetector builds a detector from config. Model preference order: ONNX
// bundle, JSON checkpoint, then the built-in untrained network. Construction
// is the only place that fails hard; scans never do.
func NewDetector(cfg config.AMLConfig) (*Detector, error) {
	var model Reconstructor
	switch {
	case cfg.ModelDir != "":
		m, err := LoadONNXModel(cfg.ModelDir, cfg.FeatureSize)
		if err != nil {
			return nil, err
		}
		model = m
	case cfg.Checkpoint != "":
		m, err := LoadCheckpoint(cfg.Checkpoint)
		if err != nil {
			return nil, err
		}
		model = m
	default:
		model = NewAutoencoder(cfg.FeatureSize, cfg.Seed)
	}
	return &Detector{cfg: cfg, model: model}, nil
}

// NewDetectorWithModel wires an explicit reconstructor; used by tests and by
// callers that manage model lifecycle themselves.
func NewDetectorWithModel(cfg config.AMLConfig, model Reconstructor) *Detector {
	return &Detector{cfg: cfg, model: model}
}

// Assess scores content. threshold overrides the configured anomaly cutoff
// when positive; the orchestrator passes the optimizer's live value here.
// Any internal failure returns a clean assessment and is logged: failing
// closed would let a trivially malformed input deny service, so this
// detector cannot be a security boundary by itself.
func (d *Detector) Assess(content []byte, threshold float64) Assessment {
	d.mu.Lock()
	d.checks++
	d.mu.Unlock()

	if threshold <= 0 {
		threshold = d.cfg.Threshold
	}

	features := Features(content, d.cfg.FeatureSize)
	entropy := scan.Entropy(content)

	rec, err := d.model.Reconstruct(features)
	if err != nil {
		redact.Logf("aml: reconstruction fault, failing open: %v", err)
		d.mu.Lock()
		d.faults++
		d.clean++
		d.mu.Unlock()
		return Assessment{Entropy: entropy}
	}

	anomalyScore := clamp01(meanSquaredError(features, rec) * anomalyScale)
	anomalyDetected := anomalyScore > threshold
	perturbation := perturbationScore(features)
	entropyOutOfBand := entropy < d.cfg.EntropyFloor || entropy > d.cfg.EntropyCeiling

	a := Assessment{
		AnomalyDetected:   anomalyDetected,
		AnomalyScore:      anomalyScore,
		PerturbationScore: perturbation,
		Entropy:           entropy,
		Adversarial:       anomalyDetected && perturbation > d.cfg.PerturbationCutoff && entropyOutOfBand,
	}

	d.mu.Lock()
	if a.Adversarial {
		d.adversarial++
	} else {
		d.clean++
	}
	d.mu.Unlock()

	return a
}

// perturbationScore combines three heuristics over the feature vector:
// extreme uniformity, sharp discontinuities, and outlier spikes beyond
// mean+3σ.
func perturbationScore(features []float64) float64 {
	if len(features) < 2 {
		return 0
	}

	mean, std := meanStd(features)

	uniformity := 1.0 - std

	discontinuity := 0.0
	for i := 1; i < len(features); i++ {
		d := features[i] - features[i-1]
		if d < 0 {
			d = -d
		}
		discontinuity += d
	}
	discontinuity /= float64(len(features) - 1)

	spikeCutoff := mean + spikeSigma*std
	spikes := 0
	for _, f := range features {
		if f > spikeCutoff {
			spikes++
		}
	}
	spikeFraction := float64(spikes) / float64(len(features))

	return clamp01(weightUniformity*uniformity +
		weightDiscontinuity*discontinuity +
		weightSpikes*spikeFraction)
}

// Sanitize is best-effort defensive filtering of possibly adversarial input.
// It returns a defensive copy with values clipped to the valid byte range;
// 8-bit input is already in range, so today this is a copy. It never fails
// and never gates the pipeline.
func (d *Detector) Sanitize(data []byte) []byte {
	out := make([]byte, len(data))
	copy(out, data)
	return out
}

// Stats returns a snapshot of detector counters.
func (d *Detector) Stats() DetectorStats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return DetectorStats{
		TotalChecks:         d.checks,
		AdversarialDetected: d.adversarial,
		CleanInputs:         d.clean,
		Faults:              d.faults,
	}
}
