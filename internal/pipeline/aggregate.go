package pipeline

import (
	"context"
	"sort"
	"time"

	"github.com/sibyllinesoft/valknut/internal/detect/clones"
	"github.com/sibyllinesoft/valknut/internal/detect/complexity"
	"github.com/sibyllinesoft/valknut/internal/detect/coverage"
	"github.com/sibyllinesoft/valknut/internal/detect/dependency"
	"github.com/sibyllinesoft/valknut/internal/detect/refactoring"
	"github.com/sibyllinesoft/valknut/internal/detect/structure"
	"github.com/sibyllinesoft/valknut/internal/entity"
	"github.com/sibyllinesoft/valknut/internal/report"
	"github.com/sibyllinesoft/valknut/internal/scoring"
)

// Thresholds used to turn raw call-graph signals into refactoring.Issues;
// the graph detector itself only ranks, it doesn't classify, so the
// orchestrator owns this mapping (§4.9's "callers adapt their
// detector-specific issue types").
const (
	fanInIssueThreshold      = 10
	fanOutIssueThreshold     = 15
	chokepointIssueThreshold = 50
	centralityIssueThreshold = 0.6
	cycleIssueMinMembers     = 2
)

// aggregate runs every cross-file stage (§4.11) over the collected per-file
// outcomes and assembles the final AnalysisResults.
func (o *Orchestrator) aggregate(ctx context.Context, outcomes []fileOutcome) report.AnalysisResults {
	results := report.Empty()
	durations := map[string]time.Duration{}

	var (
		allEntities     []entity.Summary
		entityFile      = map[string]string{}
		entityLines     = map[string][2]int{}
		entitiesInFile  = map[string][]string{}
		complexityByID  = map[string]complexity.Result{}
		classUnits      = map[string][]structure.SymbolSet{}
		fingerprints    = map[string]clones.Fingerprint{}
		filesProcessed  int
	)

	for _, fo := range outcomes {
		if fo.path == "" {
			continue
		}

		filesProcessed++
		results.Warnings = append(results.Warnings, fo.warnings...)

		for _, e := range fo.entities {
			allEntities = append(allEntities, e)
			entityFile[e.ID] = fo.path
			entitiesInFile[fo.path] = append(entitiesInFile[fo.path], e.ID)
		}

		for id, lines := range fo.entityLines {
			entityLines[id] = lines
		}

		for id, cres := range fo.complexity {
			complexityByID[id] = cres
		}

		for id, fp := range fo.fingerprints {
			fingerprints[id] = fp
		}

		for classID, units := range fo.classUnits {
			classUnits[classID] = append(classUnits[classID], units...)
		}
	}

	ids := make([]string, 0, len(allEntities))
	for _, e := range allEntities {
		ids = append(ids, e.ID)
	}

	sort.Strings(ids)

	depStart := time.Now()
	fanIn, fanOut, chokepoints, centrality, cycles := o.runDependencyStage(outcomes)
	durations["dependency"] = time.Since(depStart)

	cycleMembers := map[string]bool{}

	for _, c := range cycles {
		for _, m := range c.Members {
			cycleMembers[m] = true
		}
	}

	structStart := time.Now()
	dirImbalance, communities := o.runStructureStage(outcomes, classUnits)
	durations["structure"] = time.Since(structStart)

	cloneStart := time.Now()

	var clonePairs []clones.ClonePair

	if !o.Config.Disable.Clones && len(fingerprints) > 0 {
		o.StopMotifCache = clones.RefreshIfNeeded(o.StopMotifCache, o.Config.StopMotifPolicy, fingerprints, time.Now())

		res, err := clones.Detect(fingerprints, o.Config.CloneConfig, o.StopMotifCache, o.LiveReach)
		if err != nil {
			results.Warnings = append(results.Warnings, report.Warning{Stage: "clones", Message: err.Error()})
		} else {
			clonePairs = res.Pairs
			o.StopMotifCache.LastCalibration = res.Calibration
		}
	}

	durations["clones"] = time.Since(cloneStart)

	cloneTouch := map[string]int{}

	for _, p := range clonePairs {
		cloneTouch[p.EntityA]++
		cloneTouch[p.EntityB]++
	}

	covStart := time.Now()
	coverageGap, coveragePaths := o.runCoverageStage(entitiesInFile, entityLines, complexityByID, fanIn)
	durations["coverage"] = time.Since(covStart)

	scoreStart := time.Now()
	composites := o.scoreEntities(ids, complexityByID, fanIn, fanOut, chokepoints, centrality, dirImbalance, communities, coverageGap, entityFile)
	durations["scoring"] = time.Since(scoreStart)

	refStart := time.Now()
	candidates := o.buildCandidates(ids, complexityByID, fanIn, fanOut, chokepoints, centrality, cycleMembers, communities, cloneTouch, composites)
	durations["refactoring"] = time.Since(refStart)

	healthTree := report.BuildDirectoryHealthTree(candidates, func(id string) string { return entityFile[id] }, o.Config.MaxDirectorySeverity)

	results.Summary = report.BuildSummary(filesProcessed, len(allEntities), candidates, healthTree.HealthScore)
	results.Candidates = candidates
	results.FileGroups = report.GroupByFile(candidates, func(id string) string { return entityFile[id] })
	results.Clones = buildClonesBlock(clonePairs)
	results.CoveragePacks = coveragePaths
	results.HealthTree = healthTree
	results.Entities = allEntities
	results.Stats = report.Stats{Durations: durations, PeakMemoryBytes: peakMemoryEstimate(outcomes, o.workers()), PriorityHistogram: priorityHistogram(composites)}

	return results
}

func buildClonesBlock(pairs []clones.ClonePair) report.ClonesBlock {
	if len(pairs) == 0 {
		return report.ClonesBlock{}
	}

	var totalSaved int

	var simSum float64

	for _, p := range pairs {
		totalSaved += p.SavedTokens

		sim := p.BandedJaccard
		if p.APTEDSimilarity != nil {
			sim = *p.APTEDSimilarity
		}

		simSum += sim
	}

	return report.ClonesBlock{
		PairCount:      len(pairs),
		TotalSaved:     totalSaved,
		MeanSimilarity: simSum / float64(len(pairs)),
	}
}

func peakMemoryEstimate(outcomes []fileOutcome, workers int64) int64 {
	var total, n int64

	for _, o := range outcomes {
		if o.path == "" {
			continue
		}

		total += o.arenaBytes
		n++
	}

	if n == 0 {
		return 0
	}

	avg := total / n
	if workers > n {
		workers = n
	}

	return avg * workers
}

func priorityHistogram(composites map[string]scoring.Composite) map[refactoring.Priority]int {
	out := map[refactoring.Priority]int{}

	for _, c := range composites {
		out[c.Priority]++
	}

	return out
}

// runDependencyStage builds and resolves the global call graph across every
// file's harvested nodes (§4.6). Returns zero-value maps/slices when the
// dependency detector is disabled.
func (o *Orchestrator) runDependencyStage(outcomes []fileOutcome) (fanIn, fanOut map[string]int, chokepoints []dependency.Chokepoint, centrality map[string]float64, cycles []dependency.Cycle) {
	if o.Config.Disable.Dependency {
		return nil, nil, nil, nil, nil
	}

	graph := dependency.NewGraph()

	for _, out := range outcomes {
		for _, n := range out.depNodes {
			graph.AddNode(n)
		}
	}

	graph.Resolve()

	fanIn, fanOut = graph.FanInOut()
	chokepoints = graph.Chokepoints(o.Config.ChokepointTopK)
	centrality = graph.ClosenessCentrality()
	cycles = graph.FindCycles()

	return fanIn, fanOut, chokepoints, centrality, cycles
}

// runStructureStage computes per-directory imbalance and per-class
// file-split communities (§4.5). Returns nil maps when structure is
// disabled.
func (o *Orchestrator) runStructureStage(outcomes []fileOutcome, classUnits map[string][]structure.SymbolSet) (map[string]structure.Imbalance, map[string][]structure.Community) {
	if o.Config.Disable.Structure {
		return nil, nil
	}

	type dirAgg struct {
		loc      []int
		children map[string]bool
	}

	dirs := map[string]*dirAgg{}

	ensure := func(d string) *dirAgg {
		a, ok := dirs[d]
		if !ok {
			a = &dirAgg{children: map[string]bool{}}
			dirs[d] = a
		}

		return a
	}

	for _, out := range outcomes {
		if out.path == "" {
			continue
		}

		d := dirOf(out.path)
		ensure(d).loc = append(ensure(d).loc, out.loc)

		cur := d

		for cur != "." {
			parent := dirOf(cur)
			if parent == cur {
				break
			}

			ensure(parent).children[cur] = true
			cur = parent
		}
	}

	imbalance := make(map[string]structure.Imbalance, len(dirs))

	for path, agg := range dirs {
		stats := structure.DirectoryStats{Path: path, FileCount: len(agg.loc), SubdirCount: len(agg.children), FileLOC: agg.loc}
		imbalance[path] = structure.Analyze(stats, o.Config.DirectoryLimits)
	}

	communities := make(map[string][]structure.Community, len(classUnits))

	for classID, units := range classUnits {
		found := structure.FindCommunities(units, o.Config.FileSplitMinCommunity)
		if len(found) > 0 {
			communities[classID] = found
		}
	}

	return imbalance, communities
}

// runCoverageStage maps uncovered spans from pre-parsed coverage reports
// onto entities sharing the same file and overlapping line range (§4.7),
// returning each entity's worst overlapping gap score and the set of file
// paths that produced a coverage pack.
func (o *Orchestrator) runCoverageStage(entitiesInFile map[string][]string, entityLines map[string][2]int, complexityByID map[string]complexity.Result, fanIn map[string]int) (map[string]float64, []string) {
	gap := map[string]float64{}

	if o.Config.Disable.Coverage || len(o.Config.CoverageReports) == 0 {
		return gap, nil
	}

	var paths []string

	for _, fc := range o.Config.CoverageReports {
		spans := coverage.BuildSpans(fc, o.Config.CoverageMergeGapLines)
		if len(spans) == 0 {
			continue
		}

		fileEntities := entitiesInFile[fc.Path]

		scored := make([]coverage.ScoredSpan, 0, len(spans))

		for _, span := range spans {
			var maxCyclo, maxCognitive, maxFanIn int

			for _, id := range fileEntities {
				if !overlaps(entityLines[id], span) {
					continue
				}

				if cres, ok := complexityByID[id]; ok {
					if cres.Cyclomatic > maxCyclo {
						maxCyclo = cres.Cyclomatic
					}

					if cres.Cognitive > maxCognitive {
						maxCognitive = cres.Cognitive
					}
				}

				if fanIn[id] > maxFanIn {
					maxFanIn = fanIn[id]
				}
			}

			gs := coverage.ScoreGap(coverage.GapFeatures{
				Size:       span.LineCount(),
				Cyclomatic: maxCyclo,
				Cognitive:  maxCognitive,
				FanIn:      maxFanIn,
				Centrality: coverage.FileCentrality(fc.Path),
			})

			scored = append(scored, coverage.ScoredSpan{Span: span, Score: gs})

			for _, id := range fileEntities {
				if overlaps(entityLines[id], span) && gs.Score > gap[id] {
					gap[id] = gs.Score
				}
			}
		}

		pack := coverage.BuildCoveragePack(fc.Path, scored, o.Config.CoverageMaxSpansPerFile)
		if len(pack.Spans) > 0 {
			paths = append(paths, pack.Path)
		}
	}

	return gap, paths
}

func overlaps(lines [2]int, span coverage.UncoveredSpan) bool {
	if lines == ([2]int{}) {
		return false
	}

	return lines[0] <= span.EndLine && span.StartLine <= lines[1]
}

// scoreEntities normalizes every feature family across the full entity set
// and computes each entity's composite score (§4.10).
func (o *Orchestrator) scoreEntities(
	ids []string,
	complexityByID map[string]complexity.Result,
	fanIn, fanOut map[string]int,
	chokepoints []dependency.Chokepoint,
	centrality map[string]float64,
	dirImbalance map[string]structure.Imbalance,
	communities map[string][]structure.Community,
	coverageGap map[string]float64,
	entityFile map[string]string,
) map[string]scoring.Composite {
	chokeScore := make(map[string]int, len(chokepoints))
	for _, c := range chokepoints {
		chokeScore[c.ID] = c.Score
	}

	type featureDef struct {
		name   string
		family scoring.FeatureFamily
		raw    []float64
	}

	defs := []*featureDef{
		{name: "technical_debt", family: scoring.FamilyComplexity, raw: make([]float64, len(ids))},
		{name: "maintainability_inverse", family: scoring.FamilyStyle, raw: make([]float64, len(ids))},
		{name: "fan_in", family: scoring.FamilyGraph, raw: make([]float64, len(ids))},
		{name: "fan_out", family: scoring.FamilyGraph, raw: make([]float64, len(ids))},
		{name: "chokepoint", family: scoring.FamilyGraph, raw: make([]float64, len(ids))},
		{name: "centrality", family: scoring.FamilyGraph, raw: make([]float64, len(ids))},
		{name: "directory_imbalance", family: scoring.FamilyStructure, raw: make([]float64, len(ids))},
		{name: "cohesion_risk", family: scoring.FamilyStructure, raw: make([]float64, len(ids))},
		{name: "coverage_gap", family: scoring.FamilyCoverage, raw: make([]float64, len(ids))},
	}

	for i, id := range ids {
		if cres, ok := complexityByID[id]; ok {
			defs[0].raw[i] = cres.TechnicalDebtScore
			defs[1].raw[i] = (100 - cres.MaintainabilityIndex) / 100
		}

		defs[2].raw[i] = float64(fanIn[id])
		defs[3].raw[i] = float64(fanOut[id])
		defs[4].raw[i] = float64(chokeScore[id])
		defs[5].raw[i] = centrality[id]

		if imb, ok := dirImbalance[dirOf(entityFile[id])]; ok {
			defs[6].raw[i] = imb.Score
		}

		if cs, ok := communities[id]; ok && len(cs) > 0 {
			defs[7].raw[i] = cs[0].CloneFactor
		}

		defs[8].raw[i] = coverageGap[id]
	}

	normalized := make([][]float64, len(defs))
	for i, d := range defs {
		normalized[i] = scoring.Normalize(d.raw, o.Config.NormalizationScheme, o.Config.BayesianPriors)
	}

	out := make(map[string]scoring.Composite, len(ids))

	for i, id := range ids {
		features := make([]scoring.Feature, 0, len(defs))

		for fi, d := range defs {
			features = append(features, scoring.Feature{Name: d.name, Family: d.family, NormalizedValue: normalized[fi][i]})
		}

		out[id] = scoring.Score(id, features, o.Config.ScoringWeights, o.Config.ScoringThresholds)
	}

	return out
}

// buildCandidates adapts every detector's per-entity signal into
// refactoring.Issues and assembles the final candidate list, overriding
// each candidate's locally-derived priority with the composite score's
// priority bucket (§4.10: "priority is derived from the final composite
// score by configurable thresholds").
func (o *Orchestrator) buildCandidates(
	ids []string,
	complexityByID map[string]complexity.Result,
	fanIn, fanOut map[string]int,
	chokepoints []dependency.Chokepoint,
	centrality map[string]float64,
	cycleMembers map[string]bool,
	communities map[string][]structure.Community,
	cloneTouch map[string]int,
	composites map[string]scoring.Composite,
) []refactoring.Candidate {
	chokeScore := make(map[string]int, len(chokepoints))
	for _, c := range chokepoints {
		chokeScore[c.ID] = c.Score
	}

	var out []refactoring.Candidate

	for _, id := range ids {
		var issues []refactoring.Issue

		if cres, ok := complexityByID[id]; ok {
			for _, iss := range cres.Issues {
				issues = append(issues, refactoring.Issue{Feature: iss.Feature, Severity: string(iss.Severity), Value: iss.Value, Limit: iss.Limit})
			}
		}

		if v := fanIn[id]; v >= fanInIssueThreshold {
			issues = append(issues, refactoring.Issue{Feature: "fan_in", Severity: graphSeverity(v, fanInIssueThreshold), Value: float64(v), Limit: fanInIssueThreshold})
		}

		if v := fanOut[id]; v >= fanOutIssueThreshold {
			issues = append(issues, refactoring.Issue{Feature: "fan_out", Severity: graphSeverity(v, fanOutIssueThreshold), Value: float64(v), Limit: fanOutIssueThreshold})
		}

		if v := chokeScore[id]; v >= chokepointIssueThreshold {
			issues = append(issues, refactoring.Issue{Feature: "chokepoint", Severity: graphSeverity(v, chokepointIssueThreshold), Value: float64(v), Limit: chokepointIssueThreshold})
		}

		if v := centrality[id]; v >= centralityIssueThreshold {
			issues = append(issues, refactoring.Issue{Feature: "centrality", Severity: "high", Value: v, Limit: centralityIssueThreshold})
		}

		if cycleMembers[id] {
			issues = append(issues, refactoring.Issue{Feature: "cycle_membership", Severity: "high", Value: cycleIssueMinMembers, Limit: cycleIssueMinMembers})
		}

		if cs, ok := communities[id]; ok && len(cs) > 0 {
			issues = append(issues, refactoring.Issue{Feature: "cohesion", Severity: cohesionSeverity(cs[0]), Value: cs[0].CloneFactor, Limit: 0})
		}

		touch := cloneTouch[id]

		composite, ok := composites[id]
		if !ok {
			composite = scoring.Composite{EntityID: id, Priority: refactoring.PriorityNone}
		}

		if len(issues) == 0 && touch == 0 && composite.Priority == refactoring.PriorityNone {
			continue
		}

		candidate := refactoring.BuildCandidate(id, issues, touch, composite.Score)
		candidate.Priority = composite.Priority

		out = append(out, candidate)
	}

	return out
}

func graphSeverity(value, threshold int) string {
	if float64(value) >= float64(threshold)*2 {
		return "high"
	}

	return "medium"
}

func cohesionSeverity(c structure.Community) string {
	if c.CloneFactor >= 0.7 {
		return "high"
	}

	return "medium"
}
