package clones

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sibyllinesoft/valknut/internal/ast"
)

func TestNormalizedSimilarity_IdenticalTreesIsOne(t *testing.T) {
	t.Parallel()

	root := &ast.Node{
		Kind: ast.KindFunction,
		Children: []*ast.Node{
			{Kind: ast.KindIf, Children: []*ast.Node{{Kind: ast.KindReturn}}},
		},
	}

	a, _ := BuildSimpleTree(root, 100)
	b, _ := BuildSimpleTree(root, 100)

	assert.InDelta(t, 1.0, NormalizedSimilarity(a, b), 1e-9)
}

func TestNormalizedSimilarity_DisjointTreesIsZero(t *testing.T) {
	t.Parallel()

	a := &SimpleNode{Label: "A", Children: []*SimpleNode{{Label: "B"}, {Label: "C"}}}
	b := &SimpleNode{Label: "X", Children: []*SimpleNode{{Label: "Y"}, {Label: "Z"}}}

	assert.Equal(t, 0.0, NormalizedSimilarity(a, b))
}

func TestNormalizedSimilarity_BoundedZeroToOne(t *testing.T) {
	t.Parallel()

	a := &SimpleNode{Label: "A", Children: []*SimpleNode{{Label: "B"}}}
	b := &SimpleNode{Label: "A", Children: []*SimpleNode{{Label: "B"}, {Label: "C"}, {Label: "D"}}}

	sim := NormalizedSimilarity(a, b)
	assert.GreaterOrEqual(t, sim, 0.0)
	assert.LessOrEqual(t, sim, 1.0)
}

func TestNormalizedSimilarity_BothEmptyIsOne(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1.0, NormalizedSimilarity(nil, nil))
}

func TestBuildSimpleTree_TruncatesAtBudget(t *testing.T) {
	t.Parallel()

	root := &ast.Node{Kind: ast.KindFunction, Children: []*ast.Node{
		{Kind: ast.KindIf}, {Kind: ast.KindLoop}, {Kind: ast.KindReturn},
	}}

	tree, truncated := BuildSimpleTree(root, 2)

	assert.True(t, truncated)
	assert.LessOrEqual(t, tree.Size(), 2)
}

func TestTreeEditDistance_SingleRelabel(t *testing.T) {
	t.Parallel()

	a := &SimpleNode{Label: "A"}
	b := &SimpleNode{Label: "B"}

	assert.Equal(t, 2, TreeEditDistance(a, b))
}
