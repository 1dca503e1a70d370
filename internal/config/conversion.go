package config

import (
	"github.com/sibyllinesoft/valknut/internal/detect/clones"
	"github.com/sibyllinesoft/valknut/internal/detect/complexity"
	"github.com/sibyllinesoft/valknut/internal/detect/structure"
	"github.com/sibyllinesoft/valknut/internal/pipeline"
	"github.com/sibyllinesoft/valknut/internal/scoring"
)

// Default values mirrored from each detect/scoring package's own
// Default<Thing>() so the config loader's viper defaults stay in sync
// with the code paths that run when a section is omitted entirely.
const (
	DefaultMaxFiles              = 50
	DefaultMaxSubdirs            = 10
	DefaultMaxTotalLOC           = 5000
	DefaultCoverageMergeGapLines = 3
	DefaultShingleSize           = 3
	DefaultMotifIterations       = 2
	DefaultAPTEDNodeBudget       = 400
	DefaultNumHashes             = 128
	DefaultWorkers               = 0 // 0 means "use GOMAXPROCS"
	DefaultArenaBudgetMB         = 256
	DefaultGOGC                  = 100
	DefaultCacheDirectory        = ".valknut-cache"
)

// DefaultExcludeDirs mirrors pipeline.DefaultExcludeDirs() as a plain
// slice for viper's default registration.
var DefaultExcludeDirs = []string{".git", "node_modules", "vendor", "dist", "build", "target", ".venv", "__pycache__"}

// ToComplexityThresholds projects the config section onto
// complexity.Thresholds, falling back to complexity.DefaultThresholds()
// for any all-zero quadruple (an omitted section).
func (c ComplexityConfig) ToComplexityThresholds() complexity.Thresholds {
	defaults := complexity.DefaultThresholds()

	th := complexity.Thresholds{
		Cyclomatic:       c.Cyclomatic,
		Cognitive:        c.Cognitive,
		NestingDepth:     c.NestingDepth,
		MaintainabilityM: c.MaintainabilityM,
	}

	if th.Cyclomatic == ([4]float64{}) {
		th.Cyclomatic = defaults.Cyclomatic
	}

	if th.Cognitive == ([4]float64{}) {
		th.Cognitive = defaults.Cognitive
	}

	if th.NestingDepth == ([4]float64{}) {
		th.NestingDepth = defaults.NestingDepth
	}

	if th.MaintainabilityM == ([4]float64{}) {
		th.MaintainabilityM = defaults.MaintainabilityM
	}

	return th
}

// ToDirectoryLimits projects the config section onto
// structure.DirectoryLimits.
func (s StructureConfig) ToDirectoryLimits() structure.DirectoryLimits {
	return structure.DirectoryLimits{
		MaxFiles:    s.MaxFiles,
		MaxSubdirs:  s.MaxSubdirs,
		MaxTotalLOC: s.MaxTotalLOC,
	}
}

// ToDiscoveryConfig projects the analysis section onto
// pipeline.DiscoveryConfig for a given root path and known extensions.
func (a AnalysisConfig) ToDiscoveryConfig(root string, knownExtensions []string) pipeline.DiscoveryConfig {
	excludeDirs := a.ExcludeDirs
	if len(excludeDirs) == 0 {
		excludeDirs = pipeline.DefaultExcludeDirs()
	}

	return pipeline.DiscoveryConfig{
		Root:            root,
		IncludeGlobs:    a.IncludeGlobs,
		ExcludeGlobs:    a.ExcludeGlobs,
		ExcludeDirs:     excludeDirs,
		KnownExtensions: knownExtensions,
	}
}

// ToScheme maps the configured normalization scheme name onto
// scoring.Scheme, defaulting to SchemeZScore for an empty/unknown value
// (Validate rejects unknown non-empty values before this is ever called).
func (s ScoringConfig) ToScheme() scoring.Scheme {
	switch s.NormalizationScheme {
	case string(scoring.SchemeMinMax):
		return scoring.SchemeMinMax
	case string(scoring.SchemeRobust):
		return scoring.SchemeRobust
	case string(scoring.SchemeBayesian):
		return scoring.SchemeBayesian
	default:
		return scoring.SchemeZScore
	}
}

// ToWeights projects the config's string-keyed weight map onto
// scoring.Weights, falling back to scoring.DefaultWeights() for any
// family left unset.
func (s ScoringConfig) ToWeights() scoring.Weights {
	out := scoring.DefaultWeights()

	for family, weight := range s.Weights {
		out[scoring.FeatureFamily(family)] = weight
	}

	return out
}

// ToThresholds projects the config section onto scoring.Thresholds,
// falling back to scoring.DefaultThresholds() when the whole section is
// omitted (all-zero).
func (s ScoringConfig) ToThresholds() scoring.Thresholds {
	if s.Thresholds == (ScoreThresholds{}) {
		return scoring.DefaultThresholds()
	}

	return scoring.Thresholds{
		Critical: s.Thresholds.Critical,
		High:     s.Thresholds.High,
		Medium:   s.Thresholds.Medium,
		Low:      s.Thresholds.Low,
	}
}

// ToBayesianPriors projects the config section onto scoring.BayesianPriors.
func (b BayesianPriors) ToBayesianPriors() scoring.BayesianPriors {
	return scoring.BayesianPriors{
		MinSampleSize: b.MinSampleSize,
		PriorMean:     b.PriorMean,
		PriorStdDev:   b.PriorStdDev,
		PriorWeight:   b.PriorWeight,
	}
}

// ToCloneConfig projects the dedupe + lsh sections onto clones.Config,
// falling back to clones.DefaultConfig() field-by-field for zero values.
func (c Config) ToCloneConfig() clones.Config {
	defaults := clones.DefaultConfig()

	cfg := clones.Config{
		ShingleSize:       c.Dedupe.ShingleSize,
		IdentifierScheme:  identifierScheme(c.Dedupe.IdentifierScheme),
		LSH:               clones.LSHParams{NumHashes: c.LSH.NumHashes, NumBands: c.LSH.NumBands},
		MotifIterations:   c.Dedupe.MotifIterations,
		StructuralGateMin: c.Dedupe.StructuralGateMin,
		APTEDNodeBudget:   c.Dedupe.APTEDNodeBudget,
		Floors: clones.HardFloors{
			MinSavedTokens:  c.Dedupe.Floors.MinSavedTokens,
			MinRarityGain:   c.Dedupe.Floors.MinRarityGain,
			MinTokenCount:   c.Dedupe.Floors.MinTokenCount,
			MinASTNodeCount: c.Dedupe.Floors.MinASTNodeCount,
		},
		Calibration: clones.CalibrationConfig{
			QualityTarget: c.Dedupe.Calibration.QualityTarget,
			MaxIterations: c.Dedupe.Calibration.MaxIterations,
			SampleSize:    c.Dedupe.Calibration.SampleSize,
		},
	}

	if cfg.ShingleSize == 0 {
		cfg.ShingleSize = defaults.ShingleSize
	}

	if cfg.LSH.NumHashes == 0 {
		cfg.LSH = defaults.LSH
	}

	if cfg.MotifIterations == 0 {
		cfg.MotifIterations = defaults.MotifIterations
	}

	if cfg.StructuralGateMin == 0 {
		cfg.StructuralGateMin = defaults.StructuralGateMin
	}

	if cfg.APTEDNodeBudget == 0 {
		cfg.APTEDNodeBudget = defaults.APTEDNodeBudget
	}

	if cfg.Floors == (clones.HardFloors{}) {
		cfg.Floors = defaults.Floors
	}

	if cfg.Calibration == (clones.CalibrationConfig{}) {
		cfg.Calibration = defaults.Calibration
	}

	if cfg.Calibration.Floors == (clones.QualityFloors{}) {
		cfg.Calibration.Floors = defaults.Calibration.Floors
	}

	return cfg
}

// ToRefreshPolicy projects the dedupe.refresh section onto
// clones.RefreshPolicy, falling back to clones.DefaultRefreshPolicy() for
// zero values. KGramSize always follows the dedupe section's shingle_size
// since the two must stay in lockstep (§4.8.5 names k_gram_size as part of
// the same tunable set as the shingler itself).
func (c Config) ToRefreshPolicy() clones.RefreshPolicy {
	defaults := clones.DefaultRefreshPolicy()

	policy := clones.RefreshPolicy{
		MaxAgeDays:             c.Dedupe.Refresh.MaxAgeDays,
		ChangeThresholdPercent: c.Dedupe.Refresh.ChangeThresholdPercent,
		StopMotifPercentile:    c.Dedupe.Refresh.StopMotifPercentile,
		WeightMultiplier:       c.Dedupe.Refresh.WeightMultiplier,
		KGramSize:              c.Dedupe.ShingleSize,
	}

	if policy.MaxAgeDays == 0 {
		policy.MaxAgeDays = defaults.MaxAgeDays
	}

	if policy.ChangeThresholdPercent == 0 {
		policy.ChangeThresholdPercent = defaults.ChangeThresholdPercent
	}

	if policy.StopMotifPercentile == 0 {
		policy.StopMotifPercentile = defaults.StopMotifPercentile
	}

	if policy.WeightMultiplier == 0 {
		policy.WeightMultiplier = defaults.WeightMultiplier
	}

	if policy.KGramSize == 0 {
		policy.KGramSize = defaults.KGramSize
	}

	return policy
}

func identifierScheme(name string) clones.IdentifierScheme {
	if name == "literal" {
		return clones.SchemeLiteral
	}

	return clones.SchemeClassed
}
