package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/helixgate/helixgate/internal/alerts"
	"github.com/helixgate/helixgate/internal/aml"
	"github.com/helixgate/helixgate/internal/config"
	"github.com/helixgate/helixgate/internal/genetic"
	"github.com/helixgate/helixgate/internal/intel"
	"github.com/helixgate/helixgate/internal/redact"
	"github.com/helixgate/helixgate/internal/scan"
)

// MetricsSink receives per-scan observations. The pipeline never blocks on
// it; implementations must be cheap or buffer internally.
type MetricsSink interface {
	RecordScan(threatLevel string, passed bool, score float64, durMs float64)
	RecordIntrusionAttempt(severity string)
	RecordAdversarialDetection()
}

type nopMetrics struct{}

func (nopMetrics) RecordScan(string, bool, float64, float64) {}
func (nopMetrics) RecordIntrusionAttempt(string)             {}
func (nopMetrics) RecordAdversarialDetection()               {}

// Pipeline runs the staged validation of untrusted uploads: origin
// validation, then the pattern scan, then the anomaly scan, stopping at the
// first failing stage. Detectors are read-only after construction; the score
// state and the alert history are the only shared mutable pieces. One
// Pipeline serves concurrent scans.
type Pipeline struct {
	cfg         *config.Config
	sensitivity string
	matcher     *intel.Matcher
	detector    *aml.Detector
	params      *genetic.Store
	score       *ScoreState
	alerts      *alerts.Log
	metrics     MetricsSink
	tracer      trace.Tracer
}

// Options carries the pipeline's external collaborators. Zero values are
// valid: a nil Metrics drops observations, a nil Alerts builds an in-memory
// history with no sinks.
type Options struct {
	Metrics MetricsSink
	Alerts  *alerts.Log
	// Detector overrides the config-built anomaly detector; used by callers
	// that manage the model lifecycle themselves.
	Detector *aml.Detector
	// Tracer, when set, wraps each scan in a span.
	Tracer trace.Tracer
}

// New builds the pipeline. Construction is the only place that fails hard;
// once built, scans always return a structured report.
func New(cfg *config.Config, opts Options) (*Pipeline, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	detector := opts.Detector
	if detector == nil {
		d, err := aml.NewDetector(cfg.AML)
		if err != nil {
			return nil, fmt.Errorf("anomaly detector: %w", err)
		}
		detector = d
	}

	metrics := opts.Metrics
	if metrics == nil {
		metrics = nopMetrics{}
	}
	log := opts.Alerts
	if log == nil {
		log = alerts.NewLog(cfg.Alerts.HistorySize, nil)
	}

	return &Pipeline{
		cfg:         cfg,
		sensitivity: strings.ToLower(cfg.Sensitivity),
		matcher:     intel.NewMatcher(cfg.Intel),
		detector:    detector,
		params:      &genetic.Store{},
		score:       NewScoreState(),
		alerts:      log,
		metrics:     metrics,
		tracer:      opts.Tracer,
	}, nil
}

// Scan validates one submission and always returns a report. The error
// return is reserved for caller cancellation; detector faults fail open and
// show up only in logs. Cancellation is honored at stage boundaries, never
// mid-algorithm, so an abandoned scan leaves no partial state behind.
func (p *Pipeline) Scan(ctx context.Context, content []byte, filename, sourceID, jobID string) (*scan.Report, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if jobID == "" {
		jobID = uuid.NewString()
	}

	if p.tracer != nil {
		var span trace.Span
		ctx, span = p.tracer.Start(ctx, "helixgate.scan",
			trace.WithAttributes(
				attribute.String("helixgate.job_id", jobID),
				attribute.Int("helixgate.content_bytes", len(content)),
			))
		defer span.End()
	}

	start := time.Now()
	report := &scan.Report{
		JobID:    jobID,
		Filename: filename,
		Stages:   make(map[string]scan.Result, 3),
	}

	// Stage: origin validation. Flags unrecognized content but never blocks.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	stageStart := time.Now()
	originFindings := validateOrigin(content)
	report.Stages[scan.StageOriginValidation] = scan.Result{
		Passed:   true,
		Findings: originFindings,
		Elapsed:  time.Since(stageStart),
		Detector: "origin",
	}

	// Stage: pattern scan.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	stageStart = time.Now()
	patternFindings := p.matcher.Scan(content, filename)
	blocked := gateBlocks(p.sensitivity, patternFindings)
	report.Stages[scan.StagePatternScan] = scan.Result{
		Passed:   !blocked,
		Findings: patternFindings,
		Elapsed:  time.Since(stageStart),
		Detector: "intel",
	}
	if len(patternFindings) > 0 {
		p.metrics.RecordIntrusionAttempt(string(scan.MaxSeverity(patternFindings)))
	}
	if blocked {
		score, level := p.score.Apply(intrusionPenalty)
		return p.finish(ctx, report, start, false, score, level, filename, sourceID, patternFindings), nil
	}

	// Stage: anomaly scan.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	stageStart = time.Now()
	// The configured cutoff applies until an optimization run publishes a
	// live one.
	threshold := p.cfg.AML.Threshold
	if live, ok := p.params.Published(); ok {
		threshold = live[genetic.GeneAMLThreshold]
	}
	assessment := p.detector.Assess(content, threshold)
	var anomalyFindings []scan.Finding
	if assessment.Adversarial {
		anomalyFindings = append(anomalyFindings, scan.Finding{
			Kind:     scan.KindStatisticalAnomaly,
			Severity: scan.SeverityCritical,
			Description: fmt.Sprintf("Adversarial perturbation detected (anomaly=%.3f perturbation=%.3f entropy=%.2f)",
				assessment.AnomalyScore, assessment.PerturbationScore, assessment.Entropy),
		})
	}
	report.Stages[scan.StageAnomalyScan] = scan.Result{
		Passed:   !assessment.Adversarial,
		Findings: anomalyFindings,
		Elapsed:  time.Since(stageStart),
		Detector: "aml",
	}
	if assessment.Adversarial {
		p.metrics.RecordAdversarialDetection()
		score, level := p.score.Apply(adversarialPenalty)
		return p.finish(ctx, report, start, false, score, level, filename, sourceID, anomalyFindings), nil
	}

	score, level := p.score.Snapshot()
	return p.finish(ctx, report, start, true, score, level, filename, sourceID, nil), nil
}

// finish stamps the aggregate fields, records metrics and, on a block,
// appends an alert.
func (p *Pipeline) finish(ctx context.Context, report *scan.Report, start time.Time, passed bool, score float64, level scan.ThreatLevel, filename, sourceID string, blockedBy []scan.Finding) *scan.Report {
	report.OverallPassed = passed
	report.SecurityScore = score
	report.ThreatLevel = level
	report.TotalElapsed = time.Since(start)

	if !passed {
		p.alerts.Append(ctx, alerts.New(filename, sourceID, blockedBy, true, time.Now()))
		redact.Logf("scan blocked job=%s file=%s level=%s score=%.1f", report.JobID, filename, level, score)
	}
	p.metrics.RecordScan(string(level), passed, score, float64(report.TotalElapsed)/float64(time.Millisecond))
	return report
}

// validateOrigin flags content that does not start with a recognizable
// genomic marker byte ('>' FASTA, '@' FASTQ). It never blocks: plenty of
// legitimate formats carry neither marker.
func validateOrigin(content []byte) []scan.Finding {
	if len(content) == 0 {
		return []scan.Finding{{
			Kind:        scan.KindGenomicStructure,
			Severity:    scan.SeverityLow,
			Description: "Empty upload",
		}}
	}
	if content[0] == '>' || content[0] == '@' {
		return nil
	}
	return []scan.Finding{{
		Kind:        scan.KindGenomicStructure,
		Severity:    scan.SeverityLow,
		Description: "Content does not start with a recognized genomic marker",
		Evidence:    redact.Evidence(content, 16),
	}}
}

// Status is a point-in-time operational snapshot.
type Status struct {
	SecurityScore float64            `json:"security_score"`
	ThreatLevel   scan.ThreatLevel   `json:"threat_level"`
	Matcher       intel.Stats        `json:"matcher"`
	Detector      aml.DetectorStats  `json:"detector"`
	AlertCount    int                `json:"alert_count"`
	Parameters    genetic.Parameters `json:"parameters"`
}

// Status reports current counters, score and live parameters.
func (p *Pipeline) Status() Status {
	score, level := p.score.Snapshot()
	return Status{
		SecurityScore: score,
		ThreatLevel:   level,
		Matcher:       p.matcher.Stats(),
		Detector:      p.detector.Stats(),
		AlertCount:    p.alerts.Len(),
		Parameters:    p.params.Current(),
	}
}

// RecentAlerts returns up to n retained alerts, oldest first.
func (p *Pipeline) RecentAlerts(n int) []alerts.Alert {
	return p.alerts.Recent(n)
}

// Parameters returns the live tunable set.
func (p *Pipeline) Parameters() genetic.Parameters {
	return p.params.Current()
}

// RunOptimization executes one genetic search and publishes the result for
// the detectors to pick up. It is CPU-bound; call it off the scan path.
func (p *Pipeline) RunOptimization() (genetic.Parameters, error) {
	opt, err := genetic.New(genetic.Options{
		PopulationSize: p.cfg.Optimizer.PopulationSize,
		Generations:    p.cfg.Optimizer.Generations,
		MutationRate:   p.cfg.Optimizer.MutationRate,
		CrossoverRate:  p.cfg.Optimizer.CrossoverRate,
	})
	if err != nil {
		return nil, fmt.Errorf("optimizer: %w", err)
	}
	best := opt.Optimize()
	p.params.Publish(best)
	redact.Logf("optimizer published parameters aml_threshold=%.3f ids_sensitivity=%.3f", best[genetic.GeneAMLThreshold], best[genetic.GeneIDSSensitivity])
	return best, nil
}

// StartOptimizer reruns the optimization on the configured interval until
// ctx is canceled. It is a no-op when no interval is configured.
func (p *Pipeline) StartOptimizer(ctx context.Context) {
	interval := p.cfg.Optimizer.Interval
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := p.RunOptimization(); err != nil {
					redact.Logf("background optimization failed: %v", err)
				}
			}
		}
	}()
}

// Close drains alert delivery.
func (p *Pipeline) Close(ctx context.Context) {
	p.alerts.Close(ctx)
}
