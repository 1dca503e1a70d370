// Package report defines AnalysisResults, the pipeline's per-run aggregate
// (§4.11), its commutative-monoid merge semantics (§4.11.1), and the
// directory health tree (§4.11.2). Grounded on the teacher's generic
// aggregator style (internal/analyzers/analyze/generic_aggregator.go),
// which accumulates per-tick state behind explicit merge/extract hooks;
// here the accumulation unit is a whole AnalysisResults rather than a
// per-commit tick. The pipeline orchestrator builds one AnalysisResults per
// run and does not call Merge itself; Merge combines separately produced
// results.
package report

import (
	"sort"
	"strings"
	"time"

	"github.com/sibyllinesoft/valknut/internal/detect/refactoring"
	"github.com/sibyllinesoft/valknut/internal/entity"
)

// Warning carries a per-file, per-stage fault (§4.10's failure policy).
type Warning struct {
	FilePath string
	Stage    string
	Message  string
}

// FileGroup is the per-file candidate grouping, sorted by the file's
// highest-priority candidate (§4.11).
type FileGroup struct {
	FilePath        string
	Candidates      []refactoring.Candidate
	HighestPriority refactoring.Priority
}

// ClonesBlock summarizes the clone-detection stage's contribution to a run.
type ClonesBlock struct {
	PairCount     int
	TotalSaved    int
	MeanSimilarity float64
}

// Stats carries run-level timing, memory, and priority-histogram data.
type Stats struct {
	Durations        map[string]time.Duration // stage name -> cumulative duration
	PeakMemoryBytes  int64
	PriorityHistogram map[refactoring.Priority]int
}

// Summary is the headline run statistics (§4.11).
type Summary struct {
	FilesProcessed    int
	EntitiesAnalyzed  int
	RefactoringNeeded int
	PriorityCounts    map[refactoring.Priority]int
	HealthScore       float64
}

// AnalysisResults is the per-run aggregate produced by the pipeline
// orchestrator (§4.11). Every field declares its own merge strategy in
// Merge, so two results from disjoint file sets (or two chunks of the
// same run) combine into one without reprocessing.
type AnalysisResults struct {
	Summary      Summary
	Candidates   []refactoring.Candidate
	FileGroups   []FileGroup
	Clones       ClonesBlock
	CoveragePacks []string // coverage.CoveragePack paths/IDs already rendered upstream
	HealthTree   *DirectoryHealthNode
	Stats        Stats
	Warnings     []Warning
	Entities     []entity.Summary
}

// Empty returns the identity element for Merge: merge(R, Empty()) == R.
func Empty() AnalysisResults {
	return AnalysisResults{
		Summary:  Summary{PriorityCounts: map[refactoring.Priority]int{}},
		Stats:    Stats{Durations: map[string]time.Duration{}, PriorityHistogram: map[refactoring.Priority]int{}},
	}
}

// Merge combines a and b additively per §4.11.1: integer counters add, rate
// fields recompute as a weighted average using entities_analyzed as weight,
// maps sum per key, and the two health scores blend by weighted average
// (falling back to an arithmetic mean when both weights are zero).
//
// Merge is commutative and associative on every numeric/map field, which is
// what makes the three-way associativity property in §8 testable directly:
// merge(merge(a,b),c) and merge(a,merge(b,c)) produce identical counters.
func Merge(a, b AnalysisResults) AnalysisResults {
	out := AnalysisResults{}

	out.Summary = mergeSummary(a.Summary, b.Summary)
	out.Candidates = append(append([]refactoring.Candidate{}, a.Candidates...), b.Candidates...)
	out.FileGroups = mergeFileGroups(a.FileGroups, b.FileGroups)
	out.Clones = mergeClones(a.Clones, b.Clones)
	out.CoveragePacks = append(append([]string{}, a.CoveragePacks...), b.CoveragePacks...)
	out.HealthTree = mergeHealthTree(a.HealthTree, b.HealthTree)
	out.Stats = mergeStats(a.Stats, b.Stats)
	out.Warnings = append(append([]Warning{}, a.Warnings...), b.Warnings...)
	out.Entities = append(append([]entity.Summary{}, a.Entities...), b.Entities...)

	return out
}

func mergeSummary(a, b Summary) Summary {
	weightA := float64(a.EntitiesAnalyzed)
	weightB := float64(b.EntitiesAnalyzed)

	counts := make(map[refactoring.Priority]int, len(a.PriorityCounts)+len(b.PriorityCounts))

	for p, c := range a.PriorityCounts {
		counts[p] += c
	}

	for p, c := range b.PriorityCounts {
		counts[p] += c
	}

	return Summary{
		FilesProcessed:    a.FilesProcessed + b.FilesProcessed,
		EntitiesAnalyzed:  a.EntitiesAnalyzed + b.EntitiesAnalyzed,
		RefactoringNeeded: a.RefactoringNeeded + b.RefactoringNeeded,
		PriorityCounts:    counts,
		HealthScore:       weightedAverage(a.HealthScore, weightA, b.HealthScore, weightB),
	}
}

// weightedAverage blends two rates by their declared weights, falling back
// to a plain arithmetic mean when both weights are zero (§4.11.1).
func weightedAverage(valA, weightA, valB, weightB float64) float64 {
	total := weightA + weightB
	if total == 0 {
		return (valA + valB) / 2
	}

	return (valA*weightA + valB*weightB) / total
}

func mergeFileGroups(a, b []FileGroup) []FileGroup {
	byPath := make(map[string]*FileGroup, len(a)+len(b))

	order := make([]string, 0, len(a)+len(b))

	add := func(groups []FileGroup) {
		for _, g := range groups {
			existing, ok := byPath[g.FilePath]
			if !ok {
				copyG := g
				byPath[g.FilePath] = &copyG
				order = append(order, g.FilePath)

				continue
			}

			existing.Candidates = append(existing.Candidates, g.Candidates...)
			if g.HighestPriority.Higher(existing.HighestPriority) {
				existing.HighestPriority = g.HighestPriority
			}
		}
	}

	add(a)
	add(b)

	out := make([]FileGroup, 0, len(order))
	for _, path := range order {
		out = append(out, *byPath[path])
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].HighestPriority != out[j].HighestPriority {
			return out[i].HighestPriority.Higher(out[j].HighestPriority)
		}

		return out[i].FilePath < out[j].FilePath
	})

	return out
}

func mergeClones(a, b ClonesBlock) ClonesBlock {
	totalPairs := a.PairCount + b.PairCount

	return ClonesBlock{
		PairCount:      totalPairs,
		TotalSaved:     a.TotalSaved + b.TotalSaved,
		MeanSimilarity: weightedAverage(a.MeanSimilarity, float64(a.PairCount), b.MeanSimilarity, float64(b.PairCount)),
	}
}

func mergeStats(a, b Stats) Stats {
	durations := make(map[string]time.Duration, len(a.Durations)+len(b.Durations))

	for stage, d := range a.Durations {
		durations[stage] += d
	}

	for stage, d := range b.Durations {
		durations[stage] += d
	}

	histogram := make(map[refactoring.Priority]int, len(a.PriorityHistogram)+len(b.PriorityHistogram))

	for p, c := range a.PriorityHistogram {
		histogram[p] += c
	}

	for p, c := range b.PriorityHistogram {
		histogram[p] += c
	}

	peak := a.PeakMemoryBytes
	if b.PeakMemoryBytes > peak {
		peak = b.PeakMemoryBytes
	}

	return Stats{Durations: durations, PeakMemoryBytes: peak, PriorityHistogram: histogram}
}

// BuildSummary computes the run-level Summary from a finished candidate
// list, applying the priority→needs-refactoring rule (anything above
// PriorityNone counts) and the directory-tree-derived health score.
func BuildSummary(filesProcessed, entitiesAnalyzed int, candidates []refactoring.Candidate, healthScore float64) Summary {
	counts := map[refactoring.Priority]int{}
	needed := 0

	for _, c := range candidates {
		counts[c.Priority]++

		if c.Priority != refactoring.PriorityNone {
			needed++
		}
	}

	return Summary{
		FilesProcessed:    filesProcessed,
		EntitiesAnalyzed:  entitiesAnalyzed,
		RefactoringNeeded: needed,
		PriorityCounts:    counts,
		HealthScore:       healthScore,
	}
}

// GroupByFile partitions candidates into per-file groups sorted by each
// file's highest candidate priority, then by path (§4.11).
func GroupByFile(candidates []refactoring.Candidate, entityFile func(entityID string) string) []FileGroup {
	byPath := make(map[string]*FileGroup)

	var order []string

	for _, c := range candidates {
		path := entityFile(c.EntityID)

		g, ok := byPath[path]
		if !ok {
			g = &FileGroup{FilePath: path, HighestPriority: refactoring.PriorityNone}
			byPath[path] = g
			order = append(order, path)
		}

		g.Candidates = append(g.Candidates, c)

		if c.Priority.Higher(g.HighestPriority) {
			g.HighestPriority = c.Priority
		}
	}

	out := make([]FileGroup, 0, len(order))
	for _, path := range order {
		out = append(out, *byPath[path])
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].HighestPriority != out[j].HighestPriority {
			return out[i].HighestPriority.Higher(out[j].HighestPriority)
		}

		return out[i].FilePath < out[j].FilePath
	})

	return out
}

// severityWeight maps a priority bucket onto the severity weight used by
// the directory health formula (§4.11.2).
func severityWeight(p refactoring.Priority) float64 {
	switch p {
	case refactoring.PriorityCritical:
		return 5
	case refactoring.PriorityHigh:
		return 3
	case refactoring.PriorityMedium:
		return 1.5
	case refactoring.PriorityLow:
		return 0.5
	default:
		return 0
	}
}

func dirOf(path string) string {
	idx := strings.LastIndexByte(path, '/')
	if idx < 0 {
		return "."
	}

	return path[:idx]
}
