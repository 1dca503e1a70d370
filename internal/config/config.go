// Package config defines valknut's typed, validated configuration (§6):
// discovery, per-detector thresholds, scoring weights, clone-detection
// tuning, and performance knobs, loaded from YAML via viper into
// mapstructure-tagged structs, following the teacher's
// pkg/config/config.go layering (plain config types, a Validate method
// returning sentinel errors, and a defaults-then-overlay loader).
package config

import "errors"

// Config is the top-level configuration struct for valknut. Section names
// match §6's documented top-level keys.
type Config struct {
	Languages   []string          `mapstructure:"languages"`
	Analysis    AnalysisConfig    `mapstructure:"analysis"`
	Scoring     ScoringConfig     `mapstructure:"scoring"`
	Coverage    CoverageConfig    `mapstructure:"coverage"`
	Dedupe      DedupeConfig      `mapstructure:"dedupe"`
	LSH         LSHConfig         `mapstructure:"lsh"`
	Performance PerformanceConfig `mapstructure:"performance"`
	LiveReach   LiveReachConfig   `mapstructure:"live_reach"`
}

// AnalysisConfig controls file discovery and which detectors run, plus
// the complexity/structure thresholds that shape their output (§4.3-4.6).
type AnalysisConfig struct {
	IncludeGlobs []string         `mapstructure:"include_globs"`
	ExcludeGlobs []string         `mapstructure:"exclude_globs"`
	ExcludeDirs  []string         `mapstructure:"exclude_dirs"`
	Disable      DisableConfig    `mapstructure:"disable"`
	Complexity   ComplexityConfig `mapstructure:"complexity"`
	Structure    StructureConfig  `mapstructure:"structure"`
}

// DisableConfig toggles individual detector stages off, mirroring the
// CLI's `--no-<detector>` flags (§6).
type DisableConfig struct {
	Complexity bool `mapstructure:"complexity"`
	Structure  bool `mapstructure:"structure"`
	Dependency bool `mapstructure:"dependency"`
	Clones     bool `mapstructure:"clones"`
	Coverage   bool `mapstructure:"coverage"`
}

// ComplexityConfig mirrors complexity.Thresholds' four-point severity
// quadruples (low, medium, high, veryHigh).
type ComplexityConfig struct {
	Cyclomatic       [4]float64 `mapstructure:"cyclomatic"`
	Cognitive        [4]float64 `mapstructure:"cognitive"`
	NestingDepth     [4]float64 `mapstructure:"nesting_depth"`
	MaintainabilityM [4]float64 `mapstructure:"maintainability_index"`
}

// StructureConfig mirrors structure.DirectoryLimits, the caps directory
// imbalance pressure terms are measured against (§4.5).
type StructureConfig struct {
	MaxFiles    int `mapstructure:"max_files"`
	MaxSubdirs  int `mapstructure:"max_subdirs"`
	MaxTotalLOC int `mapstructure:"max_total_loc"`
}

// ScoringConfig holds the normalization scheme and family weights/
// thresholds that drive composite scoring (§4.10).
type ScoringConfig struct {
	NormalizationScheme string             `mapstructure:"normalization_scheme"`
	Weights             map[string]float64 `mapstructure:"weights"`
	Thresholds          ScoreThresholds    `mapstructure:"thresholds"`
	BayesianPriors      BayesianPriors     `mapstructure:"bayesian_priors"`
}

// ScoreThresholds mirrors scoring.Thresholds.
type ScoreThresholds struct {
	Critical float64 `mapstructure:"critical"`
	High     float64 `mapstructure:"high"`
	Medium   float64 `mapstructure:"medium"`
	Low      float64 `mapstructure:"low"`
}

// BayesianPriors mirrors scoring.BayesianPriors, used only when
// NormalizationScheme is "bayesian".
type BayesianPriors struct {
	MinSampleSize int     `mapstructure:"min_sample_size"`
	PriorMean     float64 `mapstructure:"prior_mean"`
	PriorStdDev   float64 `mapstructure:"prior_std_dev"`
	PriorWeight   float64 `mapstructure:"prior_weight"`
}

// CoverageConfig controls coverage-report discovery (§4.7, §6).
type CoverageConfig struct {
	SearchPaths   []string `mapstructure:"search_paths"`
	Patterns      []string `mapstructure:"patterns"`
	ExplicitPaths []string `mapstructure:"explicit_paths"`
	MergeGapLines int      `mapstructure:"merge_gap_lines"`
}

// DedupeConfig tunes the clone-detection subsystem (§4.8); named "dedupe"
// per §6's documented config section ("dedupe"/"denoise").
type DedupeConfig struct {
	ShingleSize       int              `mapstructure:"shingle_size"`
	IdentifierScheme  string           `mapstructure:"identifier_scheme"` // "literal" | "classed"
	MotifIterations   int              `mapstructure:"motif_iterations"`
	StructuralGateMin float64          `mapstructure:"structural_gate_min"`
	APTEDNodeBudget   int              `mapstructure:"apted_node_budget"`
	Floors            HardFloorsConfig `mapstructure:"floors"`
	Calibration       CalibrationCfg   `mapstructure:"calibration"`
	Refresh           RefreshPolicyCfg `mapstructure:"refresh"`
}

// RefreshPolicyCfg mirrors clones.RefreshPolicy (§4.8.5).
type RefreshPolicyCfg struct {
	MaxAgeDays             int     `mapstructure:"max_age_days"`
	ChangeThresholdPercent float64 `mapstructure:"change_threshold_percent"`
	StopMotifPercentile    float64 `mapstructure:"stop_motif_percentile"`
	WeightMultiplier       float64 `mapstructure:"weight_multiplier"`
}

// HardFloorsConfig mirrors clones.HardFloors.
type HardFloorsConfig struct {
	MinSavedTokens  int     `mapstructure:"min_saved_tokens"`
	MinRarityGain   float64 `mapstructure:"min_rarity_gain"`
	MinTokenCount   int     `mapstructure:"min_token_count"`
	MinASTNodeCount int     `mapstructure:"min_ast_node_count"`
}

// CalibrationCfg mirrors clones.CalibrationConfig.
type CalibrationCfg struct {
	QualityTarget float64 `mapstructure:"quality_target"`
	MaxIterations int     `mapstructure:"max_iterations"`
	SampleSize    int     `mapstructure:"sample_size"`
}

// LSHConfig mirrors clones.LSHParams.
type LSHConfig struct {
	NumHashes int `mapstructure:"num_hashes"`
	NumBands  int `mapstructure:"num_bands"`
}

// PerformanceConfig holds the resource knobs named in §5.
type PerformanceConfig struct {
	Workers        int    `mapstructure:"workers"`
	ArenaBudgetMB  int    `mapstructure:"arena_budget_mb"`
	CacheDirectory string `mapstructure:"cache_directory"`
	GOGC           int    `mapstructure:"gogc"`
}

// LiveReachConfig is the optional live-reachability boost source (§6);
// disabled by default since the sampler itself is out of core scope.
type LiveReachConfig struct {
	Enabled     bool     `mapstructure:"enabled"`
	EntryPoints []string `mapstructure:"entry_points"`
}

// sentimentGapMax-style bound constants for validated ranges.
const (
	maxFamilyWeight   = 10.0
	maxGapRatio       = 1.0
	maxStructuralGate = 1.0
)

// Sentinel errors for configuration validation (§7: "Validation" errors
// are fatal at startup).
var (
	ErrInvalidWorkers           = errors.New("performance.workers must be non-negative")
	ErrInvalidArenaBudget       = errors.New("performance.arena_budget_mb must be non-negative")
	ErrInvalidGOGC              = errors.New("performance.gogc must be non-negative")
	ErrInvalidShingleSize       = errors.New("dedupe.shingle_size must be non-negative (0 selects the default)")
	ErrInvalidMotifIterations   = errors.New("dedupe.motif_iterations must be non-negative (0 selects the default)")
	ErrInvalidStructuralGateMin = errors.New("dedupe.structural_gate_min must be in [0,1]")
	ErrInvalidAPTEDNodeBudget   = errors.New("dedupe.apted_node_budget must be non-negative (0 selects the default)")
	ErrInvalidIdentifierScheme  = errors.New("dedupe.identifier_scheme must be \"literal\" or \"classed\"")
	ErrInvalidNumHashes         = errors.New("lsh.num_hashes must be non-negative (0 selects the default)")
	ErrInvalidNumBands          = errors.New("lsh.num_bands must be positive")
	ErrLSHBandsNotDividing      = errors.New("lsh.num_hashes must be evenly divisible by lsh.num_bands")
	ErrInvalidFamilyWeight      = errors.New("scoring.weights value must be in [0,10]")
	ErrInvalidNormalizationScheme = errors.New("scoring.normalization_scheme must be one of zscore, minmax, robust, bayesian")
	ErrInvalidMergeGapLines     = errors.New("coverage.merge_gap_lines must be non-negative")
	ErrInvalidCalibrationTarget = errors.New("dedupe.calibration.quality_target must be in [0,1]")
	ErrInvalidRefreshPercentile = errors.New("dedupe.refresh.stop_motif_percentile must be in [0,1]")
)

// validIdentifierSchemes and validNormalizationSchemes gate the two
// string-enum config fields.
var (
	validIdentifierSchemes   = map[string]bool{"literal": true, "classed": true}
	validNormalizationSchemes = map[string]bool{"zscore": true, "minmax": true, "robust": true, "bayesian": true}
)

// Validate checks Config invariants and returns the first error found,
// matching §7's "config out of range" fatal-at-startup validation error.
func (c *Config) Validate() error {
	if err := c.Performance.validate(); err != nil {
		return err
	}

	if err := c.Dedupe.validate(); err != nil {
		return err
	}

	if err := c.LSH.validate(); err != nil {
		return err
	}

	if err := c.Scoring.validate(); err != nil {
		return err
	}

	return c.Coverage.validate()
}

func (p PerformanceConfig) validate() error {
	if p.Workers < 0 {
		return ErrInvalidWorkers
	}

	if p.ArenaBudgetMB < 0 {
		return ErrInvalidArenaBudget
	}

	if p.GOGC < 0 {
		return ErrInvalidGOGC
	}

	return nil
}

func (d DedupeConfig) validate() error {
	if d.ShingleSize < 0 {
		return ErrInvalidShingleSize
	}

	if d.MotifIterations < 0 {
		return ErrInvalidMotifIterations
	}

	if d.StructuralGateMin < 0 || d.StructuralGateMin > maxStructuralGate {
		return ErrInvalidStructuralGateMin
	}

	if d.APTEDNodeBudget < 0 {
		return ErrInvalidAPTEDNodeBudget
	}

	if d.IdentifierScheme != "" && !validIdentifierSchemes[d.IdentifierScheme] {
		return ErrInvalidIdentifierScheme
	}

	if d.Calibration.QualityTarget < 0 || d.Calibration.QualityTarget > maxGapRatio {
		return ErrInvalidCalibrationTarget
	}

	if d.Refresh.StopMotifPercentile < 0 || d.Refresh.StopMotifPercentile > maxGapRatio {
		return ErrInvalidRefreshPercentile
	}

	return nil
}

func (l LSHConfig) validate() error {
	if l.NumHashes < 0 {
		return ErrInvalidNumHashes
	}

	if l.NumBands < 0 {
		return ErrInvalidNumBands
	}

	if l.NumHashes != 0 && l.NumBands != 0 && l.NumHashes%l.NumBands != 0 {
		return ErrLSHBandsNotDividing
	}

	return nil
}

func (s ScoringConfig) validate() error {
	for _, w := range s.Weights {
		if w < 0 || w > maxFamilyWeight {
			return ErrInvalidFamilyWeight
		}
	}

	if s.NormalizationScheme != "" && !validNormalizationSchemes[s.NormalizationScheme] {
		return ErrInvalidNormalizationScheme
	}

	return nil
}

func (c CoverageConfig) validate() error {
	if c.MergeGapLines < 0 {
		return ErrInvalidMergeGapLines
	}

	return nil
}
