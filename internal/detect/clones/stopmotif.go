package clones

import (
	"bufio"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// stopMotifSchemaVersion tags the on-disk cache format. Load rejects a file
// written by an incompatible version rather than risk misreading it (§6:
// "versioned by schema hash so incompatible caches are ignored rather than
// crashing").
const stopMotifSchemaVersion = 1

// ErrIncompatibleCacheSchema is returned by Load when the on-disk cache was
// written by a different schema version. Callers should treat this the
// same as a missing cache (start cold) rather than fail the run.
var ErrIncompatibleCacheSchema = errors.New("clones: stop-motif cache schema version mismatch")

// FingerprintStats tracks a shingle or AST-motif's observed frequency
// across codebases, used to derive its IDF weight (§4.8.5).
type FingerprintStats struct {
	SupportCount int
	IDF          float64
}

// RefreshPolicy configures when the stop-motif cache is rebuilt (§4.8.5).
type RefreshPolicy struct {
	MaxAgeDays            int
	ChangeThresholdPercent float64
	StopMotifPercentile    float64
	WeightMultiplier       float64
	KGramSize              int
}

// DefaultRefreshPolicy returns the spec's suggested defaults.
func DefaultRefreshPolicy() RefreshPolicy {
	return RefreshPolicy{
		MaxAgeDays:             30,
		ChangeThresholdPercent: 25.0,
		StopMotifPercentile:    0.95,
		WeightMultiplier:       0.1,
		KGramSize:              DefaultShingleSize,
	}
}

// StopMotifCache is the self-learning cache of shingle and AST-motif
// frequency statistics plus the derived hub-pattern set (§4.8.5).
type StopMotifCache struct {
	Shingles  map[string]FingerprintStats
	Motifs    map[string]FingerprintStats
	HubPatterns map[string]bool
	Policy    RefreshPolicy
	BuiltAt   time.Time
	totalDocs int

	// LastCalibration is the most recent auto-calibration outcome (§4.8.6),
	// persisted alongside the cache itself per §6.
	LastCalibration CalibrationRecord
}

// NewStopMotifCache returns an empty cache with the given refresh policy.
func NewStopMotifCache(policy RefreshPolicy, builtAt time.Time) *StopMotifCache {
	return &StopMotifCache{
		Shingles:    make(map[string]FingerprintStats),
		Motifs:      make(map[string]FingerprintStats),
		HubPatterns: make(map[string]bool),
		Policy:      policy,
		BuiltAt:     builtAt,
	}
}

// Observe records one shingle occurrence (one occurrence per document;
// callers should dedupe per-file before calling if they want per-document
// rather than per-occurrence counts).
func (c *StopMotifCache) Observe(shingle string) {
	s := c.Shingles[shingle]
	s.SupportCount++
	c.Shingles[shingle] = s
}

// ObserveMotif records one AST-motif occurrence.
func (c *StopMotifCache) ObserveMotif(motif string) {
	s := c.Motifs[motif]
	s.SupportCount++
	c.Motifs[motif] = s
}

// FinalizeIDF computes IDF = ln(totalDocs / (1 + support)) for every
// tracked shingle and motif, then marks the top (1 - percentile) most
// frequent shingles, rounded up to a whole count, as hub patterns, per
// §4.8.5's refresh-retention rule.
func (c *StopMotifCache) FinalizeIDF(totalDocs int) {
	c.totalDocs = totalDocs

	for key, s := range c.Shingles {
		s.IDF = idf(totalDocs, s.SupportCount)
		c.Shingles[key] = s
	}

	for key, s := range c.Motifs {
		s.IDF = idf(totalDocs, s.SupportCount)
		c.Motifs[key] = s
	}

	c.markHubPatterns()
}

func idf(totalDocs, support int) float64 {
	if totalDocs <= 0 {
		return 0
	}

	return math.Log(float64(totalDocs) / float64(1+support))
}

// markHubPatterns flags the most frequent (lowest IDF) shingles, up to the
// configured stop-motif percentile, as boilerplate hub patterns.
func (c *StopMotifCache) markHubPatterns() {
	type entry struct {
		key string
		idf float64
	}

	entries := make([]entry, 0, len(c.Shingles))
	for key, s := range c.Shingles {
		entries = append(entries, entry{key: key, idf: s.IDF})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].idf < entries[j].idf })

	cutoff := len(entries) - int(float64(len(entries))*c.Policy.StopMotifPercentile)

	c.HubPatterns = make(map[string]bool, cutoff)
	for i := 0; i < cutoff && i < len(entries); i++ {
		c.HubPatterns[entries[i].key] = true
	}
}

// HubPenalty returns WeightMultiplier for a hub-pattern shingle, else 1.0.
func (c *StopMotifCache) HubPenalty(shingle string) float64 {
	if c.HubPatterns[shingle] {
		return c.Policy.WeightMultiplier
	}

	return 1.0
}

// ShingleWeight implements §4.8.1 step 3: weight = IDF(shingle) *
// hubPenalty * (1 - boilerplateProb).
func (c *StopMotifCache) ShingleWeight(shingle string, boilerplateProb float64) float64 {
	stats, ok := c.Shingles[shingle]

	idfValue := 1.0
	if ok {
		idfValue = stats.IDF
	}

	if boilerplateProb < 0 {
		boilerplateProb = 0
	}

	if boilerplateProb > 1 {
		boilerplateProb = 1
	}

	return idfValue * c.HubPenalty(shingle) * (1 - boilerplateProb)
}

// NeedsRefresh reports whether the cache should be rebuilt: its age exceeds
// MaxAgeDays, or the fraction of fingerprints in currentFingerprints that
// are unseen in the cache exceeds ChangeThresholdPercent (§4.8.5).
func (c *StopMotifCache) NeedsRefresh(now time.Time, currentFingerprints []string) bool {
	age := now.Sub(c.BuiltAt)
	if age > time.Duration(c.Policy.MaxAgeDays)*24*time.Hour {
		return true
	}

	if len(currentFingerprints) == 0 {
		return false
	}

	unseen := 0

	for _, fp := range currentFingerprints {
		if _, ok := c.Shingles[fp]; !ok {
			unseen++
		}
	}

	changePercent := 100 * float64(unseen) / float64(len(currentFingerprints))

	return changePercent > c.Policy.ChangeThresholdPercent
}

// RefreshIfNeeded implements §4.8.5's refresh policy plus §8's boundary
// test ("stop-motif cache older than max_age_days or missing → refreshed
// and used on the same run"): it rebuilds the corpus from the current
// run's fingerprints when cache is nil or NeedsRefresh, observing each
// fingerprint's shingles and motifs once per document, finalizing IDF
// weights, and returning the cache to use for the rest of THIS run.
// Returns cache unmodified when no refresh is needed.
func RefreshIfNeeded(cache *StopMotifCache, policy RefreshPolicy, fingerprints map[string]Fingerprint, now time.Time) *StopMotifCache {
	shingleTexts := make([]string, 0, len(fingerprints))

	for _, fp := range fingerprints {
		for _, text := range fp.ShingleText {
			shingleTexts = append(shingleTexts, text)
		}
	}

	if cache != nil && !cache.NeedsRefresh(now, shingleTexts) {
		return cache
	}

	fresh := NewStopMotifCache(policy, now)

	for _, fp := range fingerprints {
		for _, text := range dedupeSet(fp.ShingleText) {
			fresh.Observe(text)
		}

		for _, motif := range dedupeSlice(fp.Motifs) {
			fresh.ObserveMotif(motif)
		}
	}

	fresh.FinalizeIDF(len(fingerprints))

	if cache != nil {
		fresh.LastCalibration = cache.LastCalibration
	}

	return fresh
}

// dedupeSet returns the unique values of m, so a document containing the
// same shingle text at multiple positions is observed once (§4.8.5:
// "one occurrence per document").
func dedupeSet(m map[Shingle]string) []string {
	seen := make(map[string]bool, len(m))

	out := make([]string, 0, len(m))

	for _, v := range m {
		if !seen[v] {
			seen[v] = true

			out = append(out, v)
		}
	}

	return out
}

func dedupeSlice(ss []string) []string {
	seen := make(map[string]bool, len(ss))

	out := make([]string, 0, len(ss))

	for _, s := range ss {
		if !seen[s] {
			seen[s] = true

			out = append(out, s)
		}
	}

	return out
}

// Save persists the cache atomically: write to a temp file in the same
// directory, then rename over the destination, so a crash mid-write never
// leaves a truncated cache file. This improves on the teacher's
// pkg/persist.SaveState, which writes directly with os.Create.
func (c *StopMotifCache) Save(path string) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, ".stopmotif-*.tmp")
	if err != nil {
		return fmt.Errorf("clones: create temp cache file: %w", err)
	}

	tmpPath := tmp.Name()

	defer os.Remove(tmpPath)

	w := bufio.NewWriter(tmp)

	if err := c.encode(w); err != nil {
		tmp.Close()
		return fmt.Errorf("clones: encode cache: %w", err)
	}

	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("clones: flush cache: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("clones: sync cache: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("clones: close temp cache file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("clones: rename cache into place: %w", err)
	}

	return nil
}

func (c *StopMotifCache) encode(w *bufio.Writer) error {
	fmt.Fprintf(w, "schema:%d\n", stopMotifSchemaVersion)
	fmt.Fprintf(w, "builtat:%d\n", c.BuiltAt.Unix())
	fmt.Fprintf(w, "totaldocs:%d\n", c.totalDocs)
	fmt.Fprintf(w, "policy:%d,%f,%f,%f,%d\n",
		c.Policy.MaxAgeDays, c.Policy.ChangeThresholdPercent,
		c.Policy.StopMotifPercentile, c.Policy.WeightMultiplier, c.Policy.KGramSize)
	fmt.Fprintf(w, "calibration:%f,%f,%d,%d\n",
		c.LastCalibration.Threshold, c.LastCalibration.Config.QualityTarget,
		c.LastCalibration.Config.MaxIterations, c.LastCalibration.SampleSize)

	for key, s := range c.Shingles {
		fmt.Fprintf(w, "shingle:%s\t%d\t%f\n", key, s.SupportCount, s.IDF)
	}

	for key, s := range c.Motifs {
		fmt.Fprintf(w, "motif:%s\t%d\t%f\n", key, s.SupportCount, s.IDF)
	}

	return nil
}

// Load reads a persisted cache written by Save.
func Load(path string) (*StopMotifCache, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("clones: open cache file: %w", err)
	}
	defer f.Close()

	c := NewStopMotifCache(DefaultRefreshPolicy(), time.Time{})

	sawSchema := false

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if err := c.decodeLine(scanner.Text(), &sawSchema); err != nil {
			return nil, err
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("clones: read cache file: %w", err)
	}

	if !sawSchema {
		return nil, ErrIncompatibleCacheSchema
	}

	c.markHubPatterns()

	return c, nil
}

func (c *StopMotifCache) decodeLine(line string, sawSchema *bool) error {
	var (
		schemaVer    int
		unix         int64
		totalDocs    int
		maxAge       int
		changePct    float64
		percentile   float64
		multiplier   float64
		kgram        int
		key          string
		support      int
		idfValue     float64
		calThreshold float64
		calTarget    float64
		calMaxIter   int
		calSample    int
	)

	switch {
	case scanLine(line, "schema:%d", &schemaVer):
		if schemaVer != stopMotifSchemaVersion {
			return ErrIncompatibleCacheSchema
		}

		*sawSchema = true
	case scanLine(line, "builtat:%d", &unix):
		c.BuiltAt = time.Unix(unix, 0)
	case scanLine(line, "totaldocs:%d", &totalDocs):
		c.totalDocs = totalDocs
	case scanLine(line, "policy:%d,%f,%f,%f,%d", &maxAge, &changePct, &percentile, &multiplier, &kgram):
		c.Policy = RefreshPolicy{
			MaxAgeDays: maxAge, ChangeThresholdPercent: changePct,
			StopMotifPercentile: percentile, WeightMultiplier: multiplier, KGramSize: kgram,
		}
	case scanLine(line, "calibration:%f,%f,%d,%d", &calThreshold, &calTarget, &calMaxIter, &calSample):
		c.LastCalibration = CalibrationRecord{
			Threshold:  calThreshold,
			Config:     CalibrationConfig{QualityTarget: calTarget, MaxIterations: calMaxIter},
			SampleSize: calSample,
		}
	case scanLine(line, "shingle:%s\t%d\t%f", &key, &support, &idfValue):
		c.Shingles[key] = FingerprintStats{SupportCount: support, IDF: idfValue}
	case scanLine(line, "motif:%s\t%d\t%f", &key, &support, &idfValue):
		c.Motifs[key] = FingerprintStats{SupportCount: support, IDF: idfValue}
	}

	return nil
}

// scanLine is a thin Sscanf wrapper that reports success as a bool instead
// of an error, letting decodeLine read as a dispatch table.
func scanLine(line, format string, args ...any) bool {
	prefixLen := 0

	for i, r := range format {
		if r == '%' {
			prefixLen = i
			break
		}
	}

	if prefixLen > 0 && (len(line) < prefixLen || line[:prefixLen] != format[:prefixLen]) {
		return false
	}

	n, err := fmt.Sscanf(line, format, args...)

	return err == nil && n == len(args)
}
