package clones

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sibyllinesoft/valknut/internal/intern"
)

func TestStopMotifCache_FinalizeIDFMarksHubPatterns(t *testing.T) {
	t.Parallel()

	c := NewStopMotifCache(DefaultRefreshPolicy(), time.Now())

	for i := 0; i < 100; i++ {
		c.Observe("boilerplate")
	}

	c.Observe("rare")

	c.FinalizeIDF(101)

	assert.True(t, c.HubPatterns["boilerplate"])
	assert.False(t, c.HubPatterns["rare"])
	assert.Greater(t, c.Shingles["rare"].IDF, c.Shingles["boilerplate"].IDF)
}

func TestStopMotifCache_NeedsRefresh_Age(t *testing.T) {
	t.Parallel()

	c := NewStopMotifCache(DefaultRefreshPolicy(), time.Now().Add(-40*24*time.Hour))

	assert.True(t, c.NeedsRefresh(time.Now(), nil))
}

func TestStopMotifCache_NeedsRefresh_ChangeThreshold(t *testing.T) {
	t.Parallel()

	c := NewStopMotifCache(DefaultRefreshPolicy(), time.Now())
	c.Observe("known")
	c.FinalizeIDF(1)

	unseen := []string{"known", "new1", "new2", "new3"}
	assert.True(t, c.NeedsRefresh(time.Now(), unseen))
}

func TestStopMotifCache_HubPenalty(t *testing.T) {
	t.Parallel()

	c := NewStopMotifCache(DefaultRefreshPolicy(), time.Now())
	c.HubPatterns["hub"] = true

	assert.Equal(t, c.Policy.WeightMultiplier, c.HubPenalty("hub"))
	assert.Equal(t, 1.0, c.HubPenalty("not-hub"))
}

func TestStopMotifCache_SaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "stopmotif.cache")

	c := NewStopMotifCache(DefaultRefreshPolicy(), time.Now())
	c.Observe("one")
	c.Observe("one")
	c.Observe("two")
	c.FinalizeIDF(2)

	require.NoError(t, c.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, c.Shingles["one"].SupportCount, loaded.Shingles["one"].SupportCount)
	assert.Equal(t, c.Shingles["two"].SupportCount, loaded.Shingles["two"].SupportCount)
}

func TestStopMotifCache_SaveIsAtomic(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "stopmotif.cache")

	c := NewStopMotifCache(DefaultRefreshPolicy(), time.Now())
	require.NoError(t, c.Save(path))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp")
	}
}

// TestLoad_RejectsIncompatibleSchema covers §6's "versioned by schema hash
// so incompatible caches are ignored rather than crashing": a file with no
// recognizable schema line (e.g. written by a pre-versioning build) must
// fail with ErrIncompatibleCacheSchema, not a generic parse error or panic.
func TestLoad_RejectsIncompatibleSchema(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "stopmotif.cache")

	require.NoError(t, os.WriteFile(path, []byte("builtat:0\ntotaldocs:0\n"), 0o600))

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrIncompatibleCacheSchema)
}

func TestStopMotifCache_SaveLoadRoundTrip_PreservesCalibration(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "stopmotif.cache")

	c := NewStopMotifCache(DefaultRefreshPolicy(), time.Now())
	c.LastCalibration = CalibrationRecord{
		Threshold:  0.73,
		Config:     CalibrationConfig{QualityTarget: 0.8, MaxIterations: 20},
		SampleSize: 42,
	}

	require.NoError(t, c.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)

	assert.InDelta(t, 0.73, loaded.LastCalibration.Threshold, 1e-9)
	assert.Equal(t, 42, loaded.LastCalibration.SampleSize)
}

// TestRefreshIfNeeded_ColdStartBuildsCache covers the §8 boundary test: a
// missing cache is refreshed and the refreshed weights are usable within
// the same run.
func TestRefreshIfNeeded_ColdStartBuildsCache(t *testing.T) {
	t.Parallel()

	table := intern.New()
	tree := bigFunctionTree("cold")

	fp, err := BuildFingerprint(EntityInput{EntityID: "a", Root: tree}, DefaultConfig(), nil, table)
	require.NoError(t, err)

	refreshed := RefreshIfNeeded(nil, DefaultRefreshPolicy(), map[string]Fingerprint{"a": fp}, time.Now())

	require.NotNil(t, refreshed)
	assert.NotEmpty(t, refreshed.Shingles)
	assert.False(t, refreshed.NeedsRefresh(time.Now(), nil))
}

// TestRefreshIfNeeded_SkipsWhenFresh ensures a cache that isn't due for
// refresh is returned unmodified rather than rebuilt every run.
func TestRefreshIfNeeded_SkipsWhenFresh(t *testing.T) {
	t.Parallel()

	table := intern.New()
	fp, err := BuildFingerprint(EntityInput{EntityID: "a", Root: bigFunctionTree("x")}, DefaultConfig(), nil, table)
	require.NoError(t, err)

	c := NewStopMotifCache(DefaultRefreshPolicy(), time.Now())

	for _, text := range fp.ShingleText {
		c.Observe(text)
	}

	c.FinalizeIDF(1)

	result := RefreshIfNeeded(c, c.Policy, map[string]Fingerprint{"a": fp}, time.Now())

	assert.Same(t, c, result)
}
