package refactoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSuggestFor_MatchesCyclomaticRule(t *testing.T) {
	t.Parallel()

	out := SuggestFor([]FeatureContribution{{Feature: "cyclomatic", Severity: "high"}})

	assert.Len(t, out, 1)
	assert.Equal(t, KindReduceCyclomatic, out[0].Kind)
	assert.Equal(t, PriorityHigh, out[0].Priority)
}

func TestSuggestFor_DeduplicatesByCode(t *testing.T) {
	t.Parallel()

	out := SuggestFor([]FeatureContribution{
		{Feature: "cyclomatic", Severity: "high"},
		{Feature: "cyclomatic_complexity_overflow", Severity: "medium"},
	})

	assert.Len(t, out, 1, "duplicate suggestions for the same code must be deduplicated per entity")
}

func TestSuggestFor_SortsByPriorityThenCode(t *testing.T) {
	t.Parallel()

	out := SuggestFor([]FeatureContribution{
		{Feature: "fan_out", Severity: "low"},
		{Feature: "chokepoint", Severity: "very_high"},
	})

	require := out[0]
	assert.Equal(t, KindReduceChokepoint, require.Kind)
}

func TestPriority_Higher(t *testing.T) {
	t.Parallel()

	assert.True(t, PriorityCritical.Higher(PriorityLow))
	assert.False(t, PriorityLow.Higher(PriorityCritical))
}

func TestBuildCandidate_WorstSeverityDrivesPriority(t *testing.T) {
	t.Parallel()

	issues := []Issue{
		{Feature: "cyclomatic", Severity: "medium"},
		{Feature: "nesting_depth", Severity: "very_high"},
	}

	c := BuildCandidate("entity-1", issues, 0, 42.0)

	assert.Equal(t, PriorityCritical, c.Priority)
	assert.Equal(t, 42.0, c.Score)
	assert.NotEmpty(t, c.Suggestions)
}

func TestBuildCandidate_CloneTouchCountContributesDuplicateSuggestion(t *testing.T) {
	t.Parallel()

	c := BuildCandidate("entity-2", nil, 4, 10.0)

	assert.Equal(t, PriorityHigh, c.Priority)

	found := false

	for _, s := range c.Suggestions {
		if s.Kind == KindDuplicateElimination {
			found = true
		}
	}

	assert.True(t, found)
}

func TestCode_FormatsOrdinal(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "RF-CYC-01", Code("RF-CYC", 1))
}
