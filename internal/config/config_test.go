package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if cfg.Sensitivity != "high" {
		t.Fatalf("default sensitivity should be high, got %q", cfg.Sensitivity)
	}
	if cfg.AML.Threshold != 0.85 {
		t.Fatalf("default aml threshold should be 0.85, got %g", cfg.AML.Threshold)
	}
	if cfg.Alerts.HistorySize != 1000 {
		t.Fatalf("default alert history should be 1000, got %d", cfg.Alerts.HistorySize)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestLoadAppliesPartialDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	body := "sensitivity: medium\naml:\n  threshold: 0.9\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Sensitivity != "medium" {
		t.Fatalf("expected sensitivity medium, got %q", cfg.Sensitivity)
	}
	if cfg.AML.Threshold != 0.9 {
		t.Fatalf("expected threshold 0.9, got %g", cfg.AML.Threshold)
	}
	if cfg.Intel.MaxFileSize != 50*1024*1024 {
		t.Fatalf("file size cap default not applied: %d", cfg.Intel.MaxFileSize)
	}
	if cfg.Optimizer.PopulationSize != 30 {
		t.Fatalf("optimizer defaults not applied: %d", cfg.Optimizer.PopulationSize)
	}
}

func TestValidateFailures(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{
			name:   "bad sensitivity",
			mutate: func(c *Config) { c.Sensitivity = "paranoid" },
			want:   "sensitivity",
		},
		{
			name:   "aml threshold out of range",
			mutate: func(c *Config) { c.AML.Threshold = 1.5 },
			want:   "aml.threshold",
		},
		{
			name:   "inverted entropy window",
			mutate: func(c *Config) { c.AML.EntropyFloor = 9; c.AML.EntropyCeiling = 8.5 },
			want:   "entropy window",
		},
		{
			name:   "population too small",
			mutate: func(c *Config) { c.Optimizer.PopulationSize = 1 },
			want:   "population_size",
		},
		{
			name:   "mutation rate out of range",
			mutate: func(c *Config) { c.Optimizer.MutationRate = 1.2 },
			want:   "mutation_rate",
		},
		{
			name:   "sink missing path",
			mutate: func(c *Config) { c.Alerts.Sinks = []AlertSinkConfig{{Type: "file_jsonl"}} },
			want:   "missing path",
		},
		{
			name:   "unknown sink type",
			mutate: func(c *Config) { c.Alerts.Sinks = []AlertSinkConfig{{Type: "kafka", Path: "x"}} },
			want:   "unsupported type",
		},
		{
			name:   "telemetry enabled without endpoint",
			mutate: func(c *Config) { c.Telemetry.Enabled = true },
			want:   "telemetry.endpoint",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := Validate(cfg)
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q should mention %q", err, tc.want)
			}
		})
	}
}
