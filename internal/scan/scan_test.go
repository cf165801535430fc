package scan

import (
	"bytes"
	"math"
	"testing"
)

func TestSeverityRankTotalOrder(t *testing.T) {
	order := []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
	for i := 1; i < len(order); i++ {
		if order[i-1].Rank() >= order[i].Rank() {
			t.Fatalf("%s should rank below %s", order[i-1], order[i])
		}
	}
	if Severity("bogus").Rank() >= SeverityLow.Rank() {
		t.Fatalf("unknown severity must rank below low")
	}
}

func TestMaxSeverity(t *testing.T) {
	findings := []Finding{
		{Severity: SeverityMedium},
		{Severity: SeverityCritical},
		{Severity: SeverityHigh},
	}
	if got := MaxSeverity(findings); got != SeverityCritical {
		t.Fatalf("expected critical, got %s", got)
	}
	if got := MaxSeverity(nil); got != SeverityLow {
		t.Fatalf("empty findings should yield low, got %s", got)
	}
}

func TestThreatLevelBoundaries(t *testing.T) {
	cases := []struct {
		score float64
		want  ThreatLevel
	}{
		{100, ThreatLow},
		{90, ThreatLow},
		{89.9, ThreatMedium},
		{70, ThreatMedium},
		{69.9, ThreatHigh},
		{50, ThreatHigh},
		{49.9, ThreatCritical},
		{0, ThreatCritical},
	}
	for _, c := range cases {
		if got := ThreatLevelForScore(c.score); got != c.want {
			t.Fatalf("score %.1f: expected %s, got %s", c.score, c.want, got)
		}
	}
}

func TestEntropyConstantInput(t *testing.T) {
	for _, n := range []int{1, 100, 4096} {
		e := Entropy(bytes.Repeat([]byte{'A'}, n))
		if e != 0 {
			t.Fatalf("entropy of %d repeated bytes should be 0, got %f", n, e)
		}
	}
}

func TestEntropyUniformDistribution(t *testing.T) {
	// Every byte value equally often: entropy is exactly 8 bits/byte.
	data := make([]byte, 256*16)
	for i := range data {
		data[i] = byte(i % 256)
	}
	e := Entropy(data)
	if math.Abs(e-8.0) > 1e-9 {
		t.Fatalf("expected entropy 8.0 for uniform bytes, got %f", e)
	}
}

func TestEntropyEmpty(t *testing.T) {
	if e := Entropy(nil); e != 0 {
		t.Fatalf("entropy of empty input should be 0, got %f", e)
	}
}
