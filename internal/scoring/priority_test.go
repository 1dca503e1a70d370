package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sibyllinesoft/valknut/internal/detect/refactoring"
)

func TestWeights_ValidateRejectsOutOfRange(t *testing.T) {
	t.Parallel()

	w := Weights{FamilyComplexity: 11.0}

	err := w.Validate()
	require.Error(t, err)

	var rangeErr *WeightOutOfRangeError
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, FamilyComplexity, rangeErr.Family)
}

func TestWeights_ValidateAcceptsDefaults(t *testing.T) {
	t.Parallel()

	assert.NoError(t, DefaultWeights().Validate())
}

func TestScore_WeightsFeaturesByFamily(t *testing.T) {
	t.Parallel()

	weights := Weights{FamilyComplexity: 2.0, FamilyGraph: 1.0}
	features := []Feature{
		{Name: "cyclomatic", Family: FamilyComplexity, NormalizedValue: 3.0},
		{Name: "fan_out", Family: FamilyGraph, NormalizedValue: 1.0},
	}

	composite := Score("entity-1", features, weights, DefaultThresholds())

	assert.Equal(t, 7.0, composite.Score) // 2*3 + 1*1
}

func TestScore_UnweightedFamilyDefaultsToOne(t *testing.T) {
	t.Parallel()

	composite := Score("e", []Feature{{Family: "unknown", NormalizedValue: 4.0}}, Weights{}, DefaultThresholds())

	assert.Equal(t, 4.0, composite.Score)
}

func TestScore_PriorityThresholds(t *testing.T) {
	t.Parallel()

	thresholds := DefaultThresholds()

	cases := []struct {
		score    float64
		expected refactoring.Priority
	}{
		{0.0, refactoring.PriorityNone},
		{1.0, refactoring.PriorityLow},
		{2.5, refactoring.PriorityMedium},
		{5.0, refactoring.PriorityHigh},
		{8.0, refactoring.PriorityCritical},
	}

	for _, tc := range cases {
		composite := Score("e", []Feature{{Family: FamilyComplexity, NormalizedValue: tc.score}}, Weights{FamilyComplexity: 1.0}, thresholds)
		assert.Equal(t, tc.expected, composite.Priority, "score %v", tc.score)
	}
}

func TestSortComposites_DescendingThenEntityID(t *testing.T) {
	t.Parallel()

	composites := []Composite{
		{EntityID: "b", Score: 5.0},
		{EntityID: "a", Score: 5.0},
		{EntityID: "c", Score: 9.0},
	}

	SortComposites(composites)

	assert.Equal(t, []string{"c", "a", "b"}, []string{composites[0].EntityID, composites[1].EntityID, composites[2].EntityID})
}
