package clones

import (
	"sort"

	"github.com/sibyllinesoft/valknut/internal/ast"
	"github.com/sibyllinesoft/valknut/internal/entity"
	"github.com/sibyllinesoft/valknut/internal/intern"
)

// Config bundles every tunable of the clone-detection pipeline (§4.8) so
// callers configure it once per run.
type Config struct {
	ShingleSize      int
	IdentifierScheme IdentifierScheme
	LSH              LSHParams
	Floors           HardFloors
	MotifIterations  int
	StructuralGateMin float64
	APTEDNodeBudget  int
	Calibration      CalibrationConfig
}

// DefaultConfig matches the defaults named throughout §4.8.
func DefaultConfig() Config {
	return Config{
		ShingleSize:       DefaultShingleSize,
		IdentifierScheme:  SchemeClassed,
		LSH:               LSHParams{NumHashes: DefaultNumHashes, NumBands: 32},
		Floors:            DefaultHardFloors(),
		MotifIterations:   DefaultWLIterations,
		StructuralGateMin: 0.5,
		APTEDNodeBudget:   DefaultAPTEDNodeBudget,
		Calibration:       DefaultCalibrationConfig(),
	}
}

// EntityInput bundles the data Fingerprint needs out of the arena/AST-cache
// layer for one entity.
type EntityInput struct {
	EntityID string
	Root     *ast.Node
}

// BuildFingerprint runs §4.8.1 steps 1-4 for one entity: normalize, shingle,
// weight, and sign. boilerplateProb is an optional per-shingle down-weight
// hook; 0 disables it (callers without a boilerplate classifier pass 0).
func BuildFingerprint(in EntityInput, cfg Config, cache *StopMotifCache, table *intern.Table) (Fingerprint, error) {
	tokens := Normalize(in.Root, cfg.IdentifierScheme)
	shingles := BuildShingles(tokens, cfg.ShingleSize, table)

	sig, err := NewSignature(cfg.LSH.NumHashes)
	if err != nil {
		return Fingerprint{}, err
	}

	shingleText := make(map[Shingle]string, len(shingles))

	for _, sh := range shingles {
		text, _ := table.Lookup(sh.Handle)
		shingleText[sh] = text

		weight := 1.0
		if cache != nil {
			weight = cache.ShingleWeight(text, 0)
		}

		sig.Add([]byte(text), weight)
	}

	simpleTree, truncated := BuildSimpleTree(in.Root, cfg.APTEDNodeBudget)

	return Fingerprint{
		EntityID:     in.EntityID,
		TokenCount:   len(tokens),
		ASTNodeCount: ast.CountNodes(in.Root),
		Shingles:     shingles,
		ShingleText:  shingleText,
		Signature:    sig,
		Motifs:       ExtractMotifs(in.Root, cfg.MotifIterations),
		SimpleTree:   simpleTree,
		Truncated:    truncated,
	}, nil
}

// Result is the clone detector's per-run output (§4.8): the surviving,
// ranked clone pairs plus accumulated warnings from skipped entities.
type Result struct {
	Pairs       []ClonePair
	Warnings    []string
	Calibration CalibrationRecord
}

// Detect runs the full per-run pipeline described in §4.8.1-§4.8.7 over a
// set of entities already reduced to Fingerprints: index every fingerprint,
// generate LSH candidates per entity, auto-calibrate the structural-gate
// threshold against sampled quality metrics (§4.8.6), apply the calibrated
// gate, verify survivors with bounded APTED, then rank by payoff.
func Detect(fingerprints map[string]Fingerprint, cfg Config, cache *StopMotifCache, reach LiveReach) (Result, error) {
	idx, err := NewIndex(cfg.LSH)
	if err != nil {
		return Result{}, err
	}

	for id, fp := range fingerprints {
		idx.Insert(id, fp.Signature)
	}

	raw := collectRawCandidates(idx, fingerprints, cache, cfg.Floors)

	threshold := calibrateGate(raw, cfg)

	var pairs []ClonePair

	for _, rc := range raw {
		if !PassesStructuralGateFraction(rc.structureRatio, threshold) {
			continue
		}

		a, b := fingerprints[rc.pair.EntityA], fingerprints[rc.pair.EntityB]
		verifyAPTED(&rc.pair, a, b)
		pairs = append(pairs, rc.pair)
	}

	pairs = ApplyPayoff(pairs, reach)

	return Result{Pairs: pairs, Calibration: CalibrationRecord{Threshold: threshold, Config: cfg.Calibration, SampleSize: len(raw)}}, nil
}

// rawCandidate bundles a hard-floor-surviving pair with the quality
// statistics §4.8.6 calibrates against, computed once up front so
// calibration doesn't re-walk fingerprints per bisection step.
type rawCandidate struct {
	pair           ClonePair
	metrics        QualityMetrics
	structureRatio float64
}

// collectRawCandidates runs §4.8.2 (LSH candidate generation + hard
// floors) for every entity, deduplicates unordered pairs, and attaches
// the §4.8.6 quality metrics to each survivor ahead of the structural
// gate so calibration can be computed before gating.
func collectRawCandidates(idx *Index, fingerprints map[string]Fingerprint, cache *StopMotifCache, floors HardFloors) []rawCandidate {
	seen := make(map[[2]string]bool)

	var out []rawCandidate

	for _, id := range sortedKeys(fingerprints) {
		fp := fingerprints[id]

		for _, candidate := range GenerateCandidates(idx, fp, fingerprints, cache, floors) {
			a, b := PairKey(candidate.EntityA, candidate.EntityB)
			key := [2]string{a, b}

			if seen[key] {
				continue
			}

			seen[key] = true

			other := fingerprints[otherID(candidate, id)]
			candidate.EntityA, candidate.EntityB = a, b

			out = append(out, rawCandidate{
				pair:           candidate,
				metrics:        QualityMetricsOf(candidate, fp, other, cache),
				structureRatio: structureOverlap(fp.Motifs, other.Motifs),
			})
		}
	}

	return out
}

// calibrateGate runs §4.8.6's bisection search over the structural-gate
// threshold, sampling up to cfg.Calibration.SampleSize raw candidates and
// finding the strictest threshold that still admits cfg.Calibration's
// target fraction meeting all three quality floors. Falls back to the
// static cfg.StructuralGateMin when there's nothing to sample.
func calibrateGate(raw []rawCandidate, cfg Config) float64 {
	if len(raw) == 0 {
		return cfg.StructuralGateMin
	}

	sample := raw
	if cfg.Calibration.SampleSize > 0 && len(sample) > cfg.Calibration.SampleSize {
		sample = sample[:cfg.Calibration.SampleSize]
	}

	metrics := make([]QualityMetrics, len(sample))
	for i, rc := range sample {
		metrics[i] = rc.metrics
	}

	fraction := func(threshold float64) float64 {
		var meeting, total int

		for i, rc := range sample {
			if rc.structureRatio < threshold {
				continue
			}

			total++

			if metrics[i].MeetsFloors(cfg.Calibration.Floors) {
				meeting++
			}
		}

		if total == 0 {
			return 0
		}

		return float64(meeting) / float64(total)
	}

	return Calibrate(cfg.Calibration, cfg.StructuralGateMin, 1.0, fraction)
}

// CalibrationRecord is persisted alongside the stop-motif cache (§6) so a
// later run can report what threshold the last auto-calibration settled
// on without recomputing it from scratch.
type CalibrationRecord struct {
	Threshold  float64
	Config     CalibrationConfig
	SampleSize int
}

// structureOverlap mirrors PassesStructuralGate's "no control flow on
// either side" special case: two entities with zero motifs are trivially
// structurally consistent, so they shouldn't be blocked for lack of any
// control-flow shape to compare.
func structureOverlap(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}

	return MotifOverlap(a, b)
}

func otherID(pair ClonePair, queryID string) string {
	if pair.EntityA == queryID {
		return pair.EntityB
	}

	return pair.EntityA
}

// verifyAPTED runs §4.8.4 for one candidate pair. Detect calls it inline for
// each surviving pair, on the goroutine that called Detect; there is no
// separate verification worker pool. Oversized or missing trees are flagged
// Unverified rather than dropped, per §4.8.4's failure-handling rule.
func verifyAPTED(pair *ClonePair, a, b Fingerprint) {
	if a.SimpleTree == nil || b.SimpleTree == nil || a.Truncated || b.Truncated {
		pair.Unverified = true

		return
	}

	sim := NormalizedSimilarity(a.SimpleTree, b.SimpleTree)
	pair.APTEDSimilarity = &sim
}

func sortedKeys(m map[string]Fingerprint) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

// entityIDOf is a small adapter used by callers building EntityInput from a
// CodeEntity.
func entityIDOf(e *entity.CodeEntity) string {
	return e.ID()
}
