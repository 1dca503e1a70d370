package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sibyllinesoft/valknut/internal/detect/refactoring"
)

func fileOf(id string) string {
	switch id {
	case "x1":
		return "pkg/a/foo.go"
	case "x2":
		return "pkg/b/bar.go"
	default:
		return "pkg/a/baz.go"
	}
}

func TestBuildDirectoryHealthTree_HighSeverityLowersHealth(t *testing.T) {
	t.Parallel()

	candidates := []refactoring.Candidate{
		{EntityID: "x1", Priority: refactoring.PriorityCritical},
	}

	tree := BuildDirectoryHealthTree(candidates, fileOf, 10)

	node := tree.Lookup("pkg/a")
	require.NotNil(t, node)
	assert.Less(t, node.HealthScore, 1.0)
}

func TestBuildDirectoryHealthTree_NoCandidatesFullHealth(t *testing.T) {
	t.Parallel()

	tree := BuildDirectoryHealthTree(nil, fileOf, 10)

	assert.Equal(t, 1.0, tree.HealthScore)
}

func TestLookup_FallsBackToNearestAncestor(t *testing.T) {
	t.Parallel()

	candidates := []refactoring.Candidate{{EntityID: "x1", Priority: refactoring.PriorityLow}}
	tree := BuildDirectoryHealthTree(candidates, fileOf, 10)

	node := tree.Lookup("pkg/a/nonexistent/deep")
	require.NotNil(t, node)
	assert.Equal(t, "pkg/a", node.Path)
}

func TestChildrenSorted_OrdersByPath(t *testing.T) {
	t.Parallel()

	candidates := []refactoring.Candidate{
		{EntityID: "x2", Priority: refactoring.PriorityHigh},
		{EntityID: "x1", Priority: refactoring.PriorityHigh},
	}

	tree := BuildDirectoryHealthTree(candidates, fileOf, 10)

	children := tree.ChildrenSorted()
	require.Len(t, children, 1) // "pkg" is the only direct child of root
	assert.Equal(t, "pkg", children[0].Path)
}

func TestPretty_IncludesWorstPriorityMarker(t *testing.T) {
	t.Parallel()

	candidates := []refactoring.Candidate{{EntityID: "x1", Priority: refactoring.PriorityCritical}}
	tree := BuildDirectoryHealthTree(candidates, fileOf, 10)

	out := tree.Pretty()
	assert.Contains(t, out, "critical")
}

func TestMergeHealthTree_CombinesChildren(t *testing.T) {
	t.Parallel()

	a := BuildDirectoryHealthTree([]refactoring.Candidate{{EntityID: "x1", Priority: refactoring.PriorityLow}}, fileOf, 10)
	b := BuildDirectoryHealthTree([]refactoring.Candidate{{EntityID: "x2", Priority: refactoring.PriorityHigh}}, fileOf, 10)

	merged := mergeHealthTree(a, b)

	assert.NotNil(t, merged.Lookup("pkg/a"))
	assert.NotNil(t, merged.Lookup("pkg/b"))
}
