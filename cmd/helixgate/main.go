package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/helixgate/helixgate/internal/alerts"
	"github.com/helixgate/helixgate/internal/config"
	"github.com/helixgate/helixgate/internal/pipeline"
	"github.com/helixgate/helixgate/internal/telemetry"
)

func main() {
	configPath := flag.String("config", "helixgate.yaml", "Path to helixgate config file")
	sensitivity := flag.String("sensitivity", "", "Blocking sensitivity (overrides config): high | medium | low")
	optimize := flag.Bool("optimize", false, "Run one parameter optimization before scanning")
	sourceID := flag.String("source", "", "Source identifier attached to alerts")
	flag.Parse()

	if flag.NArg() == 0 {
		log.Fatalf("usage: helixgate [flags] file...")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *sensitivity != "" {
		cfg.Sensitivity = *sensitivity
	}

	ctx := context.Background()

	provider, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:  cfg.Telemetry.Enabled,
		Endpoint: cfg.Telemetry.Endpoint,
		Protocol: cfg.Telemetry.Protocol,
		Service:  cfg.Telemetry.Service,
		Version:  cfg.Telemetry.Version,
	})
	if err != nil {
		log.Fatalf("telemetry setup failed: %v", err)
	}

	alertLog, err := buildAlertLog(cfg.Alerts)
	if err != nil {
		log.Fatalf("alert sink setup failed: %v", err)
	}

	p, err := pipeline.New(cfg, pipeline.Options{Metrics: provider, Alerts: alertLog, Tracer: provider.Tracer()})
	if err != nil {
		log.Fatalf("pipeline setup failed: %v", err)
	}

	if *optimize {
		if _, err := p.RunOptimization(); err != nil {
			log.Fatalf("optimization failed: %v", err)
		}
	}
	p.StartOptimizer(ctx)

	enc := json.NewEncoder(os.Stdout)
	blocked := false
	for _, path := range flag.Args() {
		content, err := os.ReadFile(path)
		if err != nil {
			log.Fatalf("read %s: %v", path, err)
		}
		report, err := p.Scan(ctx, content, filepath.Base(path), *sourceID, "")
		if err != nil {
			log.Fatalf("scan %s: %v", path, err)
		}
		if err := enc.Encode(report); err != nil {
			log.Fatalf("encode report: %v", err)
		}
		if !report.OverallPassed {
			blocked = true
		}
	}

	p.Close(ctx)
	provider.Shutdown(ctx)
	if blocked {
		os.Exit(1)
	}
}

func buildAlertLog(cfg config.AlertsConfig) (*alerts.Log, error) {
	var sinks []alerts.Sink
	for _, sc := range cfg.Sinks {
		switch sc.Type {
		case "file_jsonl":
			s, err := alerts.NewFileSink(sc.Path)
			if err != nil {
				return nil, err
			}
			sinks = append(sinks, s)
		}
	}

	var emitter *alerts.Emitter
	if len(sinks) > 0 {
		emitter = alerts.NewEmitter(alerts.EmitterConfig{
			QueueSize: cfg.QueueSize,
			Workers:   cfg.Workers,
		}, sinks)
	}
	return alerts.NewLog(cfg.HistorySize, emitter), nil
}
