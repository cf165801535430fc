package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks the loaded config for required fields and safe ranges.
// Out-of-range tunables are rejected here, eagerly, before any detector or
// optimizer is constructed.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	switch strings.ToLower(cfg.Sensitivity) {
	case "high", "medium", "low":
	default:
		return fmt.Errorf("sensitivity must be high, medium or low, got %q", cfg.Sensitivity)
	}

	if cfg.Intel.MaxFileSize <= 0 {
		return errors.New("intel.max_file_size must be positive")
	}
	if cfg.Intel.EntropyCeiling <= 0 || cfg.Intel.EntropyCeiling > 8 {
		return fmt.Errorf("intel.entropy_ceiling must be in (0,8], got %g", cfg.Intel.EntropyCeiling)
	}
	if cfg.Intel.SampleSize <= 0 {
		return errors.New("intel.sample_size must be positive")
	}

	if cfg.AML.Threshold <= 0 || cfg.AML.Threshold > 1 {
		return fmt.Errorf("aml.threshold must be in (0,1], got %g", cfg.AML.Threshold)
	}
	if cfg.AML.FeatureSize <= 0 || cfg.AML.FeatureSize > 4096 {
		return fmt.Errorf("aml.feature_size must be in (0,4096], got %d", cfg.AML.FeatureSize)
	}
	if cfg.AML.PerturbationCutoff <= 0 || cfg.AML.PerturbationCutoff > 1 {
		return fmt.Errorf("aml.perturbation_cutoff must be in (0,1], got %g", cfg.AML.PerturbationCutoff)
	}
	if cfg.AML.EntropyFloor < 0 || cfg.AML.EntropyFloor >= cfg.AML.EntropyCeiling {
		return fmt.Errorf("aml entropy window [%g,%g] is invalid", cfg.AML.EntropyFloor, cfg.AML.EntropyCeiling)
	}

	if cfg.Optimizer.PopulationSize < 2 {
		return fmt.Errorf("optimizer.population_size must be at least 2, got %d", cfg.Optimizer.PopulationSize)
	}
	if cfg.Optimizer.Generations < 1 {
		return fmt.Errorf("optimizer.generations must be at least 1, got %d", cfg.Optimizer.Generations)
	}
	if cfg.Optimizer.MutationRate < 0 || cfg.Optimizer.MutationRate > 1 {
		return fmt.Errorf("optimizer.mutation_rate must be in [0,1], got %g", cfg.Optimizer.MutationRate)
	}
	if cfg.Optimizer.CrossoverRate < 0 || cfg.Optimizer.CrossoverRate > 1 {
		return fmt.Errorf("optimizer.crossover_rate must be in [0,1], got %g", cfg.Optimizer.CrossoverRate)
	}

	if cfg.Alerts.HistorySize < 1 {
		return errors.New("alerts.history_size must be at least 1")
	}
	for i, s := range cfg.Alerts.Sinks {
		switch strings.ToLower(strings.TrimSpace(s.Type)) {
		case "file_jsonl":
			if strings.TrimSpace(s.Path) == "" {
				return fmt.Errorf("alerts sink %d (file_jsonl) missing path", i)
			}
		default:
			return fmt.Errorf("alerts sink %d has unsupported type %q", i, s.Type)
		}
	}

	if cfg.Telemetry.Enabled {
		if strings.TrimSpace(cfg.Telemetry.Endpoint) == "" {
			return errors.New("telemetry.endpoint must be set when telemetry is enabled")
		}
		switch strings.ToLower(cfg.Telemetry.Protocol) {
		case "grpc", "http":
		default:
			return fmt.Errorf("telemetry.protocol must be grpc or http, got %q", cfg.Telemetry.Protocol)
		}
	}

	return nil
}
