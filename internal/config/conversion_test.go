package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sibyllinesoft/valknut/internal/config"
	"github.com/sibyllinesoft/valknut/internal/detect/clones"
	"github.com/sibyllinesoft/valknut/internal/detect/complexity"
	"github.com/sibyllinesoft/valknut/internal/scoring"
)

func TestComplexityConfig_ToComplexityThresholds_FallsBackToDefaultOnZero(t *testing.T) {
	t.Parallel()

	var cc config.ComplexityConfig

	th := cc.ToComplexityThresholds()
	assert.Equal(t, complexity.DefaultThresholds(), th)
}

func TestComplexityConfig_ToComplexityThresholds_UsesOverride(t *testing.T) {
	t.Parallel()

	cc := config.ComplexityConfig{Cyclomatic: [4]float64{5, 10, 15, 20}}

	th := cc.ToComplexityThresholds()
	assert.Equal(t, [4]float64{5, 10, 15, 20}, th.Cyclomatic)
	assert.Equal(t, complexity.DefaultThresholds().Cognitive, th.Cognitive)
}

func TestStructureConfig_ToDirectoryLimits(t *testing.T) {
	t.Parallel()

	sc := config.StructureConfig{MaxFiles: 20, MaxSubdirs: 5, MaxTotalLOC: 2000}

	limits := sc.ToDirectoryLimits()
	assert.Equal(t, 20, limits.MaxFiles)
	assert.Equal(t, 5, limits.MaxSubdirs)
	assert.Equal(t, 2000, limits.MaxTotalLOC)
}

func TestAnalysisConfig_ToDiscoveryConfig_FallsBackToDefaultExcludeDirs(t *testing.T) {
	t.Parallel()

	ac := config.AnalysisConfig{}

	dc := ac.ToDiscoveryConfig("/repo", []string{".go"})
	assert.Equal(t, "/repo", dc.Root)
	assert.Contains(t, dc.ExcludeDirs, ".git")
	assert.Equal(t, []string{".go"}, dc.KnownExtensions)
}

func TestScoringConfig_ToScheme(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want scoring.Scheme
	}{
		{"minmax", scoring.SchemeMinMax},
		{"robust", scoring.SchemeRobust},
		{"bayesian", scoring.SchemeBayesian},
		{"", scoring.SchemeZScore},
		{"unknown", scoring.SchemeZScore},
	}

	for _, tt := range tests {
		sc := config.ScoringConfig{NormalizationScheme: tt.name}
		assert.Equal(t, tt.want, sc.ToScheme())
	}
}

func TestScoringConfig_ToWeights_OverlaysDefaults(t *testing.T) {
	t.Parallel()

	sc := config.ScoringConfig{Weights: map[string]float64{"complexity": 5.0}}

	weights := sc.ToWeights()
	assert.Equal(t, 5.0, weights[scoring.FamilyComplexity])
	assert.Equal(t, scoring.DefaultWeights()[scoring.FamilyGraph], weights[scoring.FamilyGraph])
}

func TestScoringConfig_ToThresholds_FallsBackOnZero(t *testing.T) {
	t.Parallel()

	var sc config.ScoringConfig

	assert.Equal(t, scoring.DefaultThresholds(), sc.ToThresholds())
}

func TestConfig_ToCloneConfig_FallsBackToDefaults(t *testing.T) {
	t.Parallel()

	var cfg config.Config

	cloneCfg := cfg.ToCloneConfig()
	assert.Equal(t, clones.DefaultConfig().ShingleSize, cloneCfg.ShingleSize)
	assert.Equal(t, clones.DefaultConfig().LSH, cloneCfg.LSH)
	assert.Equal(t, clones.SchemeClassed, cloneCfg.IdentifierScheme)
}

func TestConfig_ToCloneConfig_UsesLiteralScheme(t *testing.T) {
	t.Parallel()

	cfg := config.Config{Dedupe: config.DedupeConfig{IdentifierScheme: "literal"}}

	cloneCfg := cfg.ToCloneConfig()
	assert.Equal(t, clones.SchemeLiteral, cloneCfg.IdentifierScheme)
}
