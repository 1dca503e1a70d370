package clones

import "sort"

// HardFloors are the candidate-admission floors from §4.8.2 and §8's
// "Hard floors" invariant: every surfaced clone pair satisfies these.
type HardFloors struct {
	MinSavedTokens  int
	MinRarityGain   float64
	MinTokenCount   int
	MinASTNodeCount int
}

// DefaultHardFloors matches the values named explicitly in §4.8.2 and §8.
func DefaultHardFloors() HardFloors {
	return HardFloors{
		MinSavedTokens: 100,
		MinRarityGain:  1.2,
	}
}

// Fingerprint is everything the clone detector retains about one entity
// after the normalize/shingle/weight/sign steps (§4.8.1), enough to
// generate and verify candidates without re-walking the AST.
type Fingerprint struct {
	EntityID     string
	TokenCount   int
	ASTNodeCount int
	Shingles     []Shingle
	ShingleText  map[Shingle]string
	Signature    *Signature
	Motifs       []string
	SimpleTree   *SimpleNode
	Truncated    bool
}

// ClonePair is an ordered-by-discovery pair of entities flagged as possible
// clones (§3). Pairs are stored once per unordered combination by callers
// keying on (min(id), max(id)).
type ClonePair struct {
	EntityA            string
	EntityB            string
	BandedJaccard       float64
	APTEDSimilarity     *float64
	Unverified          bool
	MatchedTokenCount   int
	RarityGain          float64
	SavedTokens         int
	Payoff              float64
	Rank                int
}

// PairKey returns a stable, order-independent identity for a pair so the
// same unordered combination is never stored twice (§3 ClonePair invariant).
func PairKey(a, b string) (string, string) {
	if a <= b {
		return a, b
	}

	return b, a
}

// GenerateCandidates runs §4.8.2 for one query entity: collect LSH
// colliders, compute the banded Jaccard estimate and rarity/saved-token
// statistics, and filter by hard floors. Candidates failing the floors are
// dropped before ever being constructed into a ClonePair.
func GenerateCandidates(
	idx *Index,
	query Fingerprint,
	fingerprints map[string]Fingerprint,
	cache *StopMotifCache,
	floors HardFloors,
) []ClonePair {
	if query.TokenCount < floors.MinTokenCount || query.ASTNodeCount < floors.MinASTNodeCount {
		return nil
	}

	candidateIDs := idx.Candidates(query.EntityID, query.Signature)

	pairs := make([]ClonePair, 0, len(candidateIDs))

	for _, otherID := range candidateIDs {
		other, ok := fingerprints[otherID]
		if !ok {
			continue
		}

		if other.TokenCount < floors.MinTokenCount || other.ASTNodeCount < floors.MinASTNodeCount {
			continue
		}

		pair, ok := buildPair(query, other, cache, floors)
		if !ok {
			continue
		}

		pairs = append(pairs, pair)
	}

	return pairs
}

func buildPair(a, b Fingerprint, cache *StopMotifCache, floors HardFloors) (ClonePair, bool) {
	jaccard := a.Signature.JaccardEstimate(b.Signature)

	matched := matchedShingles(a, b)
	savedTokens := estimateSavedTokens(a, b, jaccard)
	rarity := rarityGain(matched, cache)

	if savedTokens < floors.MinSavedTokens || rarity < floors.MinRarityGain {
		return ClonePair{}, false
	}

	return ClonePair{
		EntityA:           a.EntityID,
		EntityB:           b.EntityID,
		BandedJaccard:     jaccard,
		MatchedTokenCount: len(matched),
		RarityGain:        rarity,
		SavedTokens:       savedTokens,
	}, true
}

// matchedShingles returns the shingle texts shared between a and b.
func matchedShingles(a, b Fingerprint) []string {
	seen := make(map[string]bool, len(b.ShingleText))
	for _, s := range b.Shingles {
		seen[b.ShingleText[s]] = true
	}

	var matched []string

	for _, s := range a.Shingles {
		text := a.ShingleText[s]
		if seen[text] {
			matched = append(matched, text)
		}
	}

	return matched
}

// estimateSavedTokens approximates tokens removable by deduplicating the
// smaller entity against the larger, scaled by the banded Jaccard overlap.
func estimateSavedTokens(a, b Fingerprint, jaccard float64) int {
	smaller := a.TokenCount
	if b.TokenCount < smaller {
		smaller = b.TokenCount
	}

	return int(float64(smaller) * jaccard)
}

// rarityGain resolves the open question on rarity-gain weighting (see
// DESIGN.md): meanIDF(matched shingles) * (1 + stopMotifSuppressionRatio),
// where the suppression ratio rewards pairs whose overlap skews toward
// shingles the stop-motif cache has NOT flagged as boilerplate.
func rarityGain(matchedShingleTexts []string, cache *StopMotifCache) float64 {
	if len(matchedShingleTexts) == 0 || cache == nil {
		return 0
	}

	var sumIDF float64

	hubCount := 0

	for _, text := range matchedShingleTexts {
		stats, ok := cache.Shingles[text]

		idfValue := 1.0
		if ok {
			idfValue = stats.IDF
		}

		sumIDF += idfValue

		if cache.HubPatterns[text] {
			hubCount++
		}
	}

	meanIDF := sumIDF / float64(len(matchedShingleTexts))
	suppressionRatio := 1 - float64(hubCount)/float64(len(matchedShingleTexts))

	return meanIDF * (1 + suppressionRatio)
}

// SortCandidates orders pairs by a stable total order matching §4.8.8:
// score descending, then entity-id lexicographic.
func SortCandidates(pairs []ClonePair, scoreOf func(ClonePair) float64) {
	sort.SliceStable(pairs, func(i, j int) bool {
		si, sj := scoreOf(pairs[i]), scoreOf(pairs[j])
		if si != sj {
			return si > sj
		}

		if pairs[i].EntityA != pairs[j].EntityA {
			return pairs[i].EntityA < pairs[j].EntityA
		}

		return pairs[i].EntityB < pairs[j].EntityB
	})
}
