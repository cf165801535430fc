package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds helixgate configuration. Every tunable that gates content is a
// named field here; detectors never read the environment themselves.
type Config struct {
	Sensitivity string          `yaml:"sensitivity"` // high | medium | low
	Intel       IntelConfig     `yaml:"intel"`
	AML         AMLConfig       `yaml:"aml"`
	Optimizer   OptimizerConfig `yaml:"optimizer"`
	Alerts      AlertsConfig    `yaml:"alerts"`
	Telemetry   TelemetryConfig `yaml:"telemetry"`
}

// IntelConfig tunes the threat pattern matcher's structural checks.
type IntelConfig struct {
	// MaxFileSize is the hard cap beyond which content is flagged as
	// suspiciously large. Bytes.
	MaxFileSize int64 `yaml:"max_file_size"`
	// EntropyCeiling flags possible encrypted/compressed payload smuggling
	// when the Shannon entropy of the sampled prefix exceeds it.
	EntropyCeiling float64 `yaml:"entropy_ceiling"`
	// SampleSize is how much of the file prefix the structural checks read.
	SampleSize int `yaml:"sample_size"`
}

// AMLConfig tunes the statistical anomaly detector.
type AMLConfig struct {
	Threshold   float64 `yaml:"threshold"`    // anomaly score cutoff
	FeatureSize int     `yaml:"feature_size"` // feature vector width
	// PerturbationCutoff, EntropyFloor and EntropyCeiling pin the conjunctive
	// decision rule: content is adversarial only when the anomaly score
	// exceeds Threshold AND the perturbation score exceeds PerturbationCutoff
	// AND entropy falls outside [EntropyFloor, EntropyCeiling]. Deliberately
	// lenient; legitimate genomic data is high-diversity.
	PerturbationCutoff float64 `yaml:"perturbation_cutoff"`
	EntropyFloor       float64 `yaml:"entropy_floor"`
	EntropyCeiling     float64 `yaml:"entropy_ceiling"`
	// ModelDir optionally points at an ONNX reconstruction model bundle.
	// When empty the detector runs a built-in untrained network.
	ModelDir string `yaml:"model_dir"`
	// Checkpoint optionally points at a JSON weights file for the built-in
	// network, produced by offline training on known-clean samples.
	Checkpoint string `yaml:"checkpoint"`
	// Seed makes the untrained network deterministic across restarts.
	Seed int64 `yaml:"seed"`
}

// OptimizerConfig tunes the genetic parameter search.
type OptimizerConfig struct {
	PopulationSize int     `yaml:"population_size"`
	Generations    int     `yaml:"generations"`
	MutationRate   float64 `yaml:"mutation_rate"`
	CrossoverRate  float64 `yaml:"crossover_rate"`
	// Interval > 0 reruns the optimizer periodically in the background;
	// zero means on demand only.
	Interval time.Duration `yaml:"interval"`
}

// AlertsConfig controls the alert history and optional delivery sinks.
type AlertsConfig struct {
	HistorySize int               `yaml:"history_size"`
	QueueSize   int               `yaml:"queue_size"`
	Workers     int               `yaml:"workers"`
	Sinks       []AlertSinkConfig `yaml:"sinks"`
}

type AlertSinkConfig struct {
	Type string `yaml:"type"` // file_jsonl
	Path string `yaml:"path"`
}

// TelemetryConfig controls the OTLP metrics/trace export.
type TelemetryConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
	Protocol string `yaml:"protocol"` // grpc | http
	Service  string `yaml:"service"`
	Version  string `yaml:"version"`
}

// Load reads configuration from a YAML file.
// If the file doesn't exist, it returns the default config and no error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Sensitivity == "" {
		cfg.Sensitivity = "high"
	}

	if cfg.Intel.MaxFileSize <= 0 {
		cfg.Intel.MaxFileSize = 50 * 1024 * 1024
	}
	if cfg.Intel.EntropyCeiling <= 0 {
		cfg.Intel.EntropyCeiling = 7.5
	}
	if cfg.Intel.SampleSize <= 0 {
		cfg.Intel.SampleSize = 10 * 1024
	}

	if cfg.AML.Threshold <= 0 {
		cfg.AML.Threshold = 0.85
	}
	if cfg.AML.FeatureSize <= 0 {
		cfg.AML.FeatureSize = 256
	}
	if cfg.AML.PerturbationCutoff <= 0 {
		cfg.AML.PerturbationCutoff = 0.85
	}
	if cfg.AML.EntropyFloor <= 0 {
		cfg.AML.EntropyFloor = 1.0
	}
	if cfg.AML.EntropyCeiling <= 0 {
		cfg.AML.EntropyCeiling = 8.5
	}

	if cfg.Optimizer.PopulationSize <= 0 {
		cfg.Optimizer.PopulationSize = 30
	}
	if cfg.Optimizer.Generations <= 0 {
		cfg.Optimizer.Generations = 20
	}
	if cfg.Optimizer.MutationRate <= 0 {
		cfg.Optimizer.MutationRate = 0.1
	}
	if cfg.Optimizer.CrossoverRate <= 0 {
		cfg.Optimizer.CrossoverRate = 0.8
	}

	if cfg.Alerts.HistorySize <= 0 {
		cfg.Alerts.HistorySize = 1000
	}
	if cfg.Alerts.QueueSize <= 0 {
		cfg.Alerts.QueueSize = 1000
	}
	if cfg.Alerts.Workers <= 0 {
		cfg.Alerts.Workers = 1
	}

	if cfg.Telemetry.Protocol == "" {
		cfg.Telemetry.Protocol = "grpc"
	}
	if cfg.Telemetry.Service == "" {
		cfg.Telemetry.Service = "helixgate"
	}
}
