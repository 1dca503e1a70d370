package clones

import "sort"

// LiveReach supplies the optional median-reach boost for payoff ranking
// (§4.8.7). Implementations come from the out-of-scope live-reachability
// sampler; when absent, every entity contributes a neutral boost of 1.
type LiveReach interface {
	MedianReach(entityIDs ...string) (float64, bool)
}

// ApplyPayoff computes payoff = similarity_max * saved_tokens * rarity_gain
// * live_reach_boost for every pair, using the best available similarity
// (APTED if verified, else the banded Jaccard estimate), then assigns
// ordinal ranks by descending payoff with the explicit tie-break from
// §4.8.8 (score desc, entity id lexicographic).
func ApplyPayoff(pairs []ClonePair, reach LiveReach) []ClonePair {
	for i := range pairs {
		pairs[i].Payoff = payoffOf(pairs[i], reach)
	}

	SortCandidates(pairs, func(p ClonePair) float64 { return p.Payoff })

	for i := range pairs {
		pairs[i].Rank = i + 1
	}

	return pairs
}

func payoffOf(p ClonePair, reach LiveReach) float64 {
	similarity := p.BandedJaccard
	if p.APTEDSimilarity != nil {
		similarity = *p.APTEDSimilarity
	}

	boost := 1.0

	if reach != nil {
		if median, ok := reach.MedianReach(p.EntityA, p.EntityB); ok {
			boost = 1 + median
		}
	}

	return similarity * float64(p.SavedTokens) * p.RarityGain * boost
}

// QualityMetrics are the per-candidate statistics auto-calibration tunes
// against (§4.8.6).
type QualityMetrics struct {
	Fragmentarity  float64 // matched_blocks / total_blocks
	StructureRatio float64 // structural_motifs / total_motifs
	Uniqueness     float64 // mean IDF of matched shingles
}

// QualityFloors are the three floors a candidate must clear to count as
// "meeting quality" during calibration (§4.8.6).
type QualityFloors struct {
	MinFragmentarity  float64
	MinStructureRatio float64
	MinUniqueness     float64
}

// MeetsFloors reports whether m clears every configured floor.
func (m QualityMetrics) MeetsFloors(f QualityFloors) bool {
	return m.Fragmentarity >= f.MinFragmentarity &&
		m.StructureRatio >= f.MinStructureRatio &&
		m.Uniqueness >= f.MinUniqueness
}

// CalibrationConfig bounds the auto-calibration search (§4.8.6).
type CalibrationConfig struct {
	QualityTarget float64
	MaxIterations int
	SampleSize    int
	Floors        QualityFloors
}

// DefaultCalibrationConfig matches the spec's stated defaults.
func DefaultCalibrationConfig() CalibrationConfig {
	return CalibrationConfig{
		QualityTarget: 0.8,
		MaxIterations: 20,
		SampleSize:    500,
		Floors:        QualityFloors{MinFragmentarity: 0.3, MinStructureRatio: 0.5, MinUniqueness: 1.0},
	}
}

// QualityMetricsOf computes §4.8.6's three quality statistics for a
// candidate pair: fragmentarity (matched shingles over the smaller
// entity's shingle count, standing in for "matched blocks / total
// blocks"), structure ratio (the §4.8.3 motif-overlap fraction), and
// uniqueness (mean IDF of the matched shingles).
func QualityMetricsOf(pair ClonePair, a, b Fingerprint, cache *StopMotifCache) QualityMetrics {
	totalShingles := len(a.Shingles)
	if len(b.Shingles) < totalShingles {
		totalShingles = len(b.Shingles)
	}

	fragmentarity := 0.0
	if totalShingles > 0 {
		fragmentarity = float64(pair.MatchedTokenCount) / float64(totalShingles)
	}

	matched := matchedShingles(a, b)

	uniqueness := 0.0

	if cache != nil && len(matched) > 0 {
		var sum float64

		for _, text := range matched {
			if stats, ok := cache.Shingles[text]; ok {
				sum += stats.IDF
			} else {
				sum += 1.0
			}
		}

		uniqueness = sum / float64(len(matched))
	}

	return QualityMetrics{
		Fragmentarity:  fragmentarity,
		StructureRatio: MotifOverlap(a.Motifs, b.Motifs),
		Uniqueness:     uniqueness,
	}
}

// Calibrate performs bisection/line-search (§4.8.6) on the scalar threshold
// t (e.g. a minimum similarity floor), using fractionMeetingFloors(t) to test
// whether the fraction of sampled candidates meeting all three quality
// floors at threshold t exceeds cfg.QualityTarget. fractionMeetingFloors is
// assumed non-increasing in t (stricter thresholds admit fewer candidates,
// so a smaller share meets the quality floors). Search operates over
// [lo, hi] and returns the LARGEST threshold still meeting the target —
// the strictest setting auto-calibration can justify — or lo if the
// target is unreachable anywhere in the range.
func Calibrate(cfg CalibrationConfig, lo, hi float64, fractionMeetingFloors func(threshold float64) float64) float64 {
	best := lo

	for i := 0; i < cfg.MaxIterations && hi-lo > 1e-4; i++ {
		mid := (lo + hi) / 2

		if fractionMeetingFloors(mid) >= cfg.QualityTarget {
			best = mid
			lo = mid
		} else {
			hi = mid
		}
	}

	return best
}

// FractionMeetingFloors computes the calibration statistic directly from a
// sample of (metrics) measurements, for callers that have already computed
// QualityMetrics per candidate rather than a threshold-parameterized
// predicate.
func FractionMeetingFloors(samples []QualityMetrics, floors QualityFloors) float64 {
	if len(samples) == 0 {
		return 0
	}

	meeting := 0

	for _, m := range samples {
		if m.MeetsFloors(floors) {
			meeting++
		}
	}

	return float64(meeting) / float64(len(samples))
}

// sortedCopy is a small helper used by tests to assert deterministic rank
// ordering without mutating the caller's slice.
func sortedCopy(pairs []ClonePair) []ClonePair {
	out := make([]ClonePair, len(pairs))
	copy(out, pairs)

	sort.SliceStable(out, func(i, j int) bool { return out[i].Rank < out[j].Rank })

	return out
}
