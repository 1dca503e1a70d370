package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sibyllinesoft/valknut/internal/detect/refactoring"
)

func TestMerge_IdentityWithEmpty(t *testing.T) {
	t.Parallel()

	r := AnalysisResults{
		Summary: Summary{FilesProcessed: 3, EntitiesAnalyzed: 10, PriorityCounts: map[refactoring.Priority]int{refactoring.PriorityHigh: 2}},
		Stats:   Stats{Durations: map[string]time.Duration{"parse": time.Second}, PriorityHistogram: map[refactoring.Priority]int{}},
	}

	merged := Merge(r, Empty())

	assert.Equal(t, r.Summary.FilesProcessed, merged.Summary.FilesProcessed)
	assert.Equal(t, r.Summary.EntitiesAnalyzed, merged.Summary.EntitiesAnalyzed)
	assert.Equal(t, r.Stats.Durations["parse"], merged.Stats.Durations["parse"])
}

func TestMerge_CountersAdd(t *testing.T) {
	t.Parallel()

	a := AnalysisResults{Summary: Summary{FilesProcessed: 2, EntitiesAnalyzed: 5, PriorityCounts: map[refactoring.Priority]int{}}}
	b := AnalysisResults{Summary: Summary{FilesProcessed: 3, EntitiesAnalyzed: 7, PriorityCounts: map[refactoring.Priority]int{}}}

	merged := Merge(a, b)

	assert.Equal(t, 5, merged.Summary.FilesProcessed)
	assert.Equal(t, 12, merged.Summary.EntitiesAnalyzed)
}

func TestMerge_Associative(t *testing.T) {
	t.Parallel()

	mk := func(files, entities int, health float64) AnalysisResults {
		return AnalysisResults{Summary: Summary{FilesProcessed: files, EntitiesAnalyzed: entities, HealthScore: health, PriorityCounts: map[refactoring.Priority]int{}}}
	}

	a, b, c := mk(1, 10, 0.9), mk(2, 20, 0.5), mk(3, 5, 0.2)

	left := Merge(Merge(a, b), c)
	right := Merge(a, Merge(b, c))

	assert.Equal(t, left.Summary.FilesProcessed, right.Summary.FilesProcessed)
	assert.Equal(t, left.Summary.EntitiesAnalyzed, right.Summary.EntitiesAnalyzed)
	assert.InDelta(t, left.Summary.HealthScore, right.Summary.HealthScore, 1e-9)
}

func TestMerge_MapHistogramsSumPerKey(t *testing.T) {
	t.Parallel()

	a := AnalysisResults{Summary: Summary{PriorityCounts: map[refactoring.Priority]int{refactoring.PriorityHigh: 2}}}
	b := AnalysisResults{Summary: Summary{PriorityCounts: map[refactoring.Priority]int{refactoring.PriorityHigh: 3, refactoring.PriorityLow: 1}}}

	merged := Merge(a, b)

	assert.Equal(t, 5, merged.Summary.PriorityCounts[refactoring.PriorityHigh])
	assert.Equal(t, 1, merged.Summary.PriorityCounts[refactoring.PriorityLow])
}

func TestMerge_HealthScoreWeightedAverage(t *testing.T) {
	t.Parallel()

	a := AnalysisResults{Summary: Summary{EntitiesAnalyzed: 10, HealthScore: 1.0, PriorityCounts: map[refactoring.Priority]int{}}}
	b := AnalysisResults{Summary: Summary{EntitiesAnalyzed: 30, HealthScore: 0.0, PriorityCounts: map[refactoring.Priority]int{}}}

	merged := Merge(a, b)

	assert.InDelta(t, 0.25, merged.Summary.HealthScore, 1e-9)
}

func TestMerge_ZeroWeightFallsBackToArithmeticMean(t *testing.T) {
	t.Parallel()

	a := AnalysisResults{Summary: Summary{HealthScore: 1.0, PriorityCounts: map[refactoring.Priority]int{}}}
	b := AnalysisResults{Summary: Summary{HealthScore: 0.0, PriorityCounts: map[refactoring.Priority]int{}}}

	merged := Merge(a, b)

	assert.InDelta(t, 0.5, merged.Summary.HealthScore, 1e-9)
}

func TestBuildSummary_CountsRefactoringNeeded(t *testing.T) {
	t.Parallel()

	candidates := []refactoring.Candidate{
		{Priority: refactoring.PriorityNone},
		{Priority: refactoring.PriorityHigh},
		{Priority: refactoring.PriorityCritical},
	}

	s := BuildSummary(1, 3, candidates, 0.7)

	assert.Equal(t, 2, s.RefactoringNeeded)
	assert.Equal(t, 1, s.PriorityCounts[refactoring.PriorityHigh])
}

func TestGroupByFile_SortsByHighestPriorityThenPath(t *testing.T) {
	t.Parallel()

	candidates := []refactoring.Candidate{
		{EntityID: "b#f", Priority: refactoring.PriorityLow},
		{EntityID: "a#f", Priority: refactoring.PriorityCritical},
	}

	groups := GroupByFile(candidates, func(id string) string {
		if id == "b#f" {
			return "b.go"
		}

		return "a.go"
	})

	assert.Equal(t, "a.go", groups[0].FilePath)
	assert.Equal(t, refactoring.PriorityCritical, groups[0].HighestPriority)
}
