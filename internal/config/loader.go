package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// configName is the config file name without extension.
const configName = ".valknut"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for valknut settings.
const envPrefix = "VALKNUT"

// envKeySeparator is the nested key separator in environment variable names.
const envKeySeparator = "_"

// LoadConfig loads configuration from file, env vars, and defaults.
// If configPath is non-empty, it is used as the explicit config file path.
// Otherwise, the config file is searched in CWD and $HOME.
// Missing config file is not an error; defaults are used.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return &cfg, nil
}

// DefaultConfig returns the built-in configuration defaults, ignoring any
// .valknut.yaml or environment overrides. Used by `print-default-config`
// and `init-config` to show/write the baseline an operator can start from.
func DefaultConfig() (*Config, error) {
	viperCfg := viper.New()
	applyDefaults(viperCfg)

	var cfg Config

	if err := viperCfg.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("languages", []string{})

	viperCfg.SetDefault("analysis.exclude_dirs", DefaultExcludeDirs)
	viperCfg.SetDefault("analysis.complexity.cyclomatic", [4]float64{10, 20, 35, 50})
	viperCfg.SetDefault("analysis.complexity.cognitive", [4]float64{15, 25, 40, 60})
	viperCfg.SetDefault("analysis.complexity.nesting_depth", [4]float64{3, 5, 7, 9})
	viperCfg.SetDefault("analysis.complexity.maintainability_index", [4]float64{65, 45, 25, 10})
	viperCfg.SetDefault("analysis.structure.max_files", DefaultMaxFiles)
	viperCfg.SetDefault("analysis.structure.max_subdirs", DefaultMaxSubdirs)
	viperCfg.SetDefault("analysis.structure.max_total_loc", DefaultMaxTotalLOC)

	viperCfg.SetDefault("scoring.normalization_scheme", "zscore")
	viperCfg.SetDefault("scoring.weights.complexity", 3.0)
	viperCfg.SetDefault("scoring.weights.graph", 2.0)
	viperCfg.SetDefault("scoring.weights.structure", 2.0)
	viperCfg.SetDefault("scoring.weights.style", 1.0)
	viperCfg.SetDefault("scoring.weights.coverage", 2.0)
	viperCfg.SetDefault("scoring.thresholds.critical", 8.0)
	viperCfg.SetDefault("scoring.thresholds.high", 5.0)
	viperCfg.SetDefault("scoring.thresholds.medium", 2.5)
	viperCfg.SetDefault("scoring.thresholds.low", 1.0)

	viperCfg.SetDefault("coverage.merge_gap_lines", DefaultCoverageMergeGapLines)

	viperCfg.SetDefault("dedupe.shingle_size", DefaultShingleSize)
	viperCfg.SetDefault("dedupe.identifier_scheme", "classed")
	viperCfg.SetDefault("dedupe.motif_iterations", DefaultMotifIterations)
	viperCfg.SetDefault("dedupe.structural_gate_min", 0.5)
	viperCfg.SetDefault("dedupe.apted_node_budget", DefaultAPTEDNodeBudget)
	viperCfg.SetDefault("dedupe.floors.min_saved_tokens", 100)
	viperCfg.SetDefault("dedupe.floors.min_rarity_gain", 1.2)
	viperCfg.SetDefault("dedupe.calibration.quality_target", 0.8)
	viperCfg.SetDefault("dedupe.calibration.max_iterations", 20)
	viperCfg.SetDefault("dedupe.calibration.sample_size", 500)
	viperCfg.SetDefault("dedupe.refresh.max_age_days", 30)
	viperCfg.SetDefault("dedupe.refresh.change_threshold_percent", 25.0)
	viperCfg.SetDefault("dedupe.refresh.stop_motif_percentile", 0.95)
	viperCfg.SetDefault("dedupe.refresh.weight_multiplier", 0.1)

	viperCfg.SetDefault("lsh.num_hashes", DefaultNumHashes)
	viperCfg.SetDefault("lsh.num_bands", 32)

	viperCfg.SetDefault("performance.workers", DefaultWorkers)
	viperCfg.SetDefault("performance.arena_budget_mb", DefaultArenaBudgetMB)
	viperCfg.SetDefault("performance.gogc", DefaultGOGC)
	viperCfg.SetDefault("performance.cache_directory", DefaultCacheDirectory)

	viperCfg.SetDefault("live_reach.enabled", false)
}
