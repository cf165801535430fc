package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/helixgate/helixgate/internal/scan"
)

func testAlert(filename string, ts time.Time) Alert {
	return New(filename, "10.0.0.1", []scan.Finding{
		{Kind: scan.KindPatternMatch, Severity: scan.SeverityHigh, Description: "test"},
		{Kind: scan.KindStatisticalAnomaly, Severity: scan.SeverityCritical, Description: "test"},
	}, true, ts)
}

func TestNewAlertDerivesSeverityAndID(t *testing.T) {
	now := time.Now()
	a := testAlert("x.fasta", now)
	if a.Severity != scan.SeverityCritical {
		t.Fatalf("severity should be max over findings, got %s", a.Severity)
	}
	if len(a.ID) != 16 {
		t.Fatalf("expected 16-char digest id, got %q", a.ID)
	}
	b := New("x.fasta", "", nil, true, now.Add(time.Nanosecond))
	if a.ID == b.ID {
		t.Fatalf("alerts at different times must get distinct ids")
	}
}

func TestRingEvictsOldestFirst(t *testing.T) {
	r := NewRing(3)
	base := time.Now()
	for i := 0; i < 5; i++ {
		r.Append(testAlert(fmt.Sprintf("f%d", i), base.Add(time.Duration(i))))
	}
	if r.Len() != 3 {
		t.Fatalf("capacity 3 ring holds %d", r.Len())
	}
	got := r.Recent(0)
	if len(got) != 3 {
		t.Fatalf("expected 3 alerts, got %d", len(got))
	}
	if got[0].Filename != "f2" || got[2].Filename != "f4" {
		t.Fatalf("expected f2..f4 oldest-first, got %s..%s", got[0].Filename, got[2].Filename)
	}
}

func TestRingRecentLimit(t *testing.T) {
	r := NewRing(10)
	base := time.Now()
	for i := 0; i < 6; i++ {
		r.Append(testAlert(fmt.Sprintf("f%d", i), base.Add(time.Duration(i))))
	}
	got := r.Recent(2)
	if len(got) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(got))
	}
	if got[0].Filename != "f4" || got[1].Filename != "f5" {
		t.Fatalf("expected the 2 newest in order, got %s,%s", got[0].Filename, got[1].Filename)
	}
}

func TestFileSinkWritesJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "alerts.jsonl")
	sink, err := NewFileSink(path)
	if err != nil {
		t.Fatalf("file sink: %v", err)
	}

	a1 := testAlert("one.fasta", time.Now())
	a2 := testAlert("two.fasta", time.Now().Add(time.Millisecond))
	if err := sink.Deliver(context.Background(), &a1); err != nil {
		t.Fatalf("deliver 1: %v", err)
	}
	if err := sink.Deliver(context.Background(), &a2); err != nil {
		t.Fatalf("deliver 2: %v", err)
	}
	if err := sink.Close(context.Background()); err != nil {
		t.Fatalf("close sink: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	var decoded Alert
	if err := json.Unmarshal([]byte(lines[0]), &decoded); err != nil {
		t.Fatalf("unmarshal jsonl line: %v", err)
	}
	if decoded.Filename != "one.fasta" {
		t.Fatalf("expected one.fasta, got %s", decoded.Filename)
	}
}

type blockingSink struct {
	wait chan struct{}
}

func (b *blockingSink) Name() string { return "blocking" }
func (b *blockingSink) Deliver(context.Context, *Alert) error {
	<-b.wait
	return nil
}
func (b *blockingSink) Close(context.Context) error { return nil }

func TestEmitterDropsWhenQueueFull(t *testing.T) {
	wait := make(chan struct{})
	sink := &blockingSink{wait: wait}
	em := NewEmitter(EmitterConfig{QueueSize: 1, Workers: 1, ShutdownTimeout: time.Second}, []Sink{sink})

	a := testAlert("x.fasta", time.Now())
	em.Emit(context.Background(), &a)
	em.Emit(context.Background(), &a)
	em.Emit(context.Background(), &a)

	metrics := em.MetricsSnapshot()
	if metrics.Dropped() == 0 {
		t.Fatalf("expected dropped alerts when queue is full")
	}

	close(wait)
	em.Close(context.Background())
}

func TestLogAppendsAndDelivers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alerts.jsonl")
	sink, err := NewFileSink(path)
	if err != nil {
		t.Fatalf("file sink: %v", err)
	}
	em := NewEmitter(EmitterConfig{QueueSize: 10, Workers: 1, ShutdownTimeout: time.Second}, []Sink{sink})
	l := NewLog(5, em)

	l.Append(context.Background(), testAlert("x.fasta", time.Now()))
	if l.Len() != 1 {
		t.Fatalf("history should hold the alert")
	}
	l.Close(context.Background())

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sink file: %v", err)
	}
	if !strings.Contains(string(data), "x.fasta") {
		t.Fatalf("alert not delivered to sink: %q", data)
	}
}
