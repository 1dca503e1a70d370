package scoring

import (
	"sort"

	"github.com/sibyllinesoft/valknut/internal/detect/refactoring"
)

// FeatureFamily groups related features for weighting purposes (§4.10).
type FeatureFamily string

// Canonical feature families.
const (
	FamilyComplexity FeatureFamily = "complexity"
	FamilyGraph      FeatureFamily = "graph"
	FamilyStructure  FeatureFamily = "structure"
	FamilyStyle      FeatureFamily = "style"
	FamilyCoverage   FeatureFamily = "coverage"
)

// maxFamilyWeight bounds an individual family weight (§4.10).
const maxFamilyWeight = 10.0

// Weights holds the per-family multipliers applied to normalized feature
// values before summing into a composite score.
type Weights map[FeatureFamily]float64

// DefaultWeights returns the spec's stated default family weights.
func DefaultWeights() Weights {
	return Weights{
		FamilyComplexity: 3.0,
		FamilyGraph:      2.0,
		FamilyStructure:  2.0,
		FamilyStyle:      1.0,
		FamilyCoverage:   2.0,
	}
}

// Validate reports the first family whose weight falls outside [0,10], if
// any.
func (w Weights) Validate() error {
	for family, weight := range w {
		if weight < 0 || weight > maxFamilyWeight {
			return &WeightOutOfRangeError{Family: family, Weight: weight}
		}
	}

	return nil
}

// WeightOutOfRangeError reports a family weight outside the valid range.
type WeightOutOfRangeError struct {
	Family FeatureFamily
	Weight float64
}

func (e *WeightOutOfRangeError) Error() string {
	return "scoring: weight for family " + string(e.Family) + " out of [0,10] range"
}

// Feature is one normalized, family-tagged contribution to a composite
// score.
type Feature struct {
	Name           string
	Family         FeatureFamily
	NormalizedValue float64
}

// Composite is the weighted sum across features plus the resulting
// priority bucket (§4.10).
type Composite struct {
	EntityID string
	Score    float64
	Priority refactoring.Priority
}

// Thresholds maps composite-score cutoffs onto priority buckets. A score
// must be >= a threshold to earn that bucket; thresholds are checked from
// most to least urgent.
type Thresholds struct {
	Critical float64
	High     float64
	Medium   float64
	Low      float64
}

// DefaultThresholds matches the spec's stated priority cutoffs.
func DefaultThresholds() Thresholds {
	return Thresholds{Critical: 8.0, High: 5.0, Medium: 2.5, Low: 1.0}
}

// Score computes the weighted composite for one entity's normalized
// feature set and derives its priority from thresholds.
func Score(entityID string, features []Feature, weights Weights, thresholds Thresholds) Composite {
	var total float64

	for _, f := range features {
		w, ok := weights[f.Family]
		if !ok {
			w = 1.0
		}

		total += w * f.NormalizedValue
	}

	return Composite{EntityID: entityID, Score: total, Priority: priorityFor(total, thresholds)}
}

func priorityFor(score float64, t Thresholds) refactoring.Priority {
	switch {
	case score >= t.Critical:
		return refactoring.PriorityCritical
	case score >= t.High:
		return refactoring.PriorityHigh
	case score >= t.Medium:
		return refactoring.PriorityMedium
	case score >= t.Low:
		return refactoring.PriorityLow
	default:
		return refactoring.PriorityNone
	}
}

// SortComposites orders composites by descending score, breaking ties on
// entity ID for determinism.
func SortComposites(composites []Composite) {
	sort.SliceStable(composites, func(i, j int) bool {
		if composites[i].Score != composites[j].Score {
			return composites[i].Score > composites[j].Score
		}

		return composites[i].EntityID < composites[j].EntityID
	})
}
