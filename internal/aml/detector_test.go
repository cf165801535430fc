package aml

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/helixgate/helixgate/internal/config"
)

type stubReconstructor struct {
	offset float64
	err    error
}

func (s *stubReconstructor) Reconstruct(features []float64) ([]float64, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]float64, len(features))
	for i, f := range features {
		out[i] = f + s.offset
	}
	return out, nil
}

func TestFeaturesNormalized(t *testing.T) {
	f := Features([]byte(">s\nATCGATCG\n"), DefaultFeatureSize)
	if len(f) != DefaultFeatureSize {
		t.Fatalf("expected %d features, got %d", DefaultFeatureSize, len(f))
	}
	sum := 0.0
	for _, v := range f {
		if v < 0 || v > 1 {
			t.Fatalf("feature out of [0,1]: %f", v)
		}
		sum += v
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Fatalf("histogram should sum to 1, got %f", sum)
	}
}

func TestFeaturesEmptyInput(t *testing.T) {
	f := Features(nil, 64)
	if len(f) != 64 {
		t.Fatalf("expected 64 features, got %d", len(f))
	}
	for _, v := range f {
		if v != 0 {
			t.Fatalf("empty input should yield zero features")
		}
	}
}

func TestPerturbationScoreUniformVector(t *testing.T) {
	features := make([]float64, 256)
	for i := range features {
		features[i] = 0.5
	}
	// std=0 so only the uniformity term contributes, exactly its weight.
	got := perturbationScore(features)
	if math.Abs(got-weightUniformity) > 1e-12 {
		t.Fatalf("uniform vector should score %.1f, got %f", weightUniformity, got)
	}
}

func TestPerturbationScoreClampsAtOne(t *testing.T) {
	features := make([]float64, 64)
	for i := range features {
		if i%2 == 0 {
			features[i] = 5
		}
	}
	if got := perturbationScore(features); got != 1 {
		t.Fatalf("violent alternation should clamp to 1, got %f", got)
	}
}

func TestAssessCleanGenomicContent(t *testing.T) {
	d, err := NewDetector(config.Default().AML)
	if err != nil {
		t.Fatalf("detector: %v", err)
	}
	a := d.Assess([]byte(">seq1\nATGCGTACGTAGC\n>seq2\nGCTAGCTAGCTA\n"), 0)
	if a.Adversarial {
		t.Fatalf("clean FASTA flagged adversarial: %+v", a)
	}
	if a.Entropy <= 0 {
		t.Fatalf("entropy should be positive for mixed content, got %f", a.Entropy)
	}
}

func TestAssessConjunctiveRuleIsLenient(t *testing.T) {
	// Force a maximal anomaly score; low-entropy constant content still must
	// not be adversarial because its perturbation score stays below the
	// cutoff. All three legs have to agree.
	cfg := config.Default().AML
	d := NewDetectorWithModel(cfg, &stubReconstructor{offset: 1})
	a := d.Assess(bytes.Repeat([]byte{'A'}, 2048), 0)
	if !a.AnomalyDetected {
		t.Fatalf("expected anomaly leg to fire, score %f", a.AnomalyScore)
	}
	if a.Entropy >= cfg.EntropyFloor {
		t.Fatalf("constant content should sit below the entropy floor, got %f", a.Entropy)
	}
	if a.Adversarial {
		t.Fatalf("two of three legs must not block: %+v", a)
	}
}

func TestAssessFailsOpenOnModelFault(t *testing.T) {
	d := NewDetectorWithModel(config.Default().AML, &stubReconstructor{err: errors.New("boom")})
	a := d.Assess([]byte("anything"), 0)
	if a.Adversarial || a.AnomalyDetected {
		t.Fatalf("model fault must fail open: %+v", a)
	}
	st := d.Stats()
	if st.Faults != 1 {
		t.Fatalf("expected fault counted, got %+v", st)
	}
	if st.CleanInputs != 1 {
		t.Fatalf("failed-open check counts as clean, got %+v", st)
	}
}

func TestAssessThresholdOverride(t *testing.T) {
	// The stub adds a small offset so the anomaly score lands strictly
	// between a permissive and a strict threshold.
	d := NewDetectorWithModel(config.Default().AML, &stubReconstructor{offset: 0.05})
	content := []byte(">s\nATCG\n")

	strict := d.Assess(content, 0.1)
	if !strict.AnomalyDetected {
		t.Fatalf("threshold 0.1 should detect, score %f", strict.AnomalyScore)
	}
	permissive := d.Assess(content, 0.99)
	if permissive.AnomalyDetected {
		t.Fatalf("threshold 0.99 should not detect, score %f", permissive.AnomalyScore)
	}
}

func TestSanitizeReturnsIndependentCopy(t *testing.T) {
	d := NewDetectorWithModel(config.Default().AML, &stubReconstructor{})
	in := []byte{1, 2, 3}
	out := d.Sanitize(in)
	if !bytes.Equal(in, out) {
		t.Fatalf("sanitize must preserve content")
	}
	out[0] = 99
	if in[0] == 99 {
		t.Fatalf("sanitize must not alias the input")
	}
}

func TestDetectorStats(t *testing.T) {
	d := NewDetectorWithModel(config.Default().AML, &stubReconstructor{})
	d.Assess([]byte("a"), 0)
	d.Assess([]byte("b"), 0)
	st := d.Stats()
	if st.TotalChecks != 2 {
		t.Fatalf("expected 2 checks, got %+v", st)
	}
	if st.AdversarialDetected+st.CleanInputs != 2 {
		t.Fatalf("every check is either adversarial or clean: %+v", st)
	}
}
