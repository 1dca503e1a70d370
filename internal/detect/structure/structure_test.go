package structure

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGini_EqualDistributionIsZero(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 0.0, Gini([]int{10, 10, 10, 10}), 0.0001)
}

func TestGini_EmptyIsZero(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 0.0, Gini(nil), 0.0001)
}

func TestGini_SkewedDistributionIsHigh(t *testing.T) {
	t.Parallel()

	g := Gini([]int{1, 1, 1, 1000})
	assert.Greater(t, g, 0.5)
}

func TestEntropy_UniformIsMax(t *testing.T) {
	t.Parallel()

	e := Entropy([]int{10, 10, 10, 10})
	assert.InDelta(t, MaxEntropy(4), e, 0.0001)
}

func TestAnalyze_WithinLimitsLowScore(t *testing.T) {
	t.Parallel()

	stats := DirectoryStats{Path: "pkg/foo", FileCount: 3, SubdirCount: 0, FileLOC: []int{100, 100, 100}}
	limits := DirectoryLimits{MaxFiles: 50, MaxSubdirs: 10, MaxTotalLOC: 10000}

	res := Analyze(stats, limits)
	assert.Less(t, res.Score, 0.3)
}

func TestFindCommunities_RespectsMinSizeAndCap(t *testing.T) {
	t.Parallel()

	units := []SymbolSet{
		{Name: "a", Symbols: map[string]struct{}{"x": {}, "y": {}}},
		{Name: "b", Symbols: map[string]struct{}{"x": {}, "y": {}}},
		{Name: "c", Symbols: map[string]struct{}{"z": {}}},
	}

	communities := FindCommunities(units, 2)

	assert.Len(t, communities, 1)
	assert.ElementsMatch(t, []string{"a", "b"}, communities[0].Members)
}

func TestPlan_GroupsConnectedFiles(t *testing.T) {
	t.Parallel()

	files := []FileNode{
		{Path: "a.go", References: []string{"b.go"}},
		{Path: "b.go"},
		{Path: "c.go"},
	}

	plans := Plan("pkg/x", files)

	assert.Len(t, plans, 1)
	assert.ElementsMatch(t, []string{"a.go", "b.go"}, plans[0].Files)
}
