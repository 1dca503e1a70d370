package clones

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sibyllinesoft/valknut/internal/ast"
)

func TestExtractMotifs_FindsControlFlowNodes(t *testing.T) {
	t.Parallel()

	root := &ast.Node{
		Kind: ast.KindFunction,
		Children: []*ast.Node{
			{Kind: ast.KindIf, Children: []*ast.Node{{Kind: ast.KindReturn}}},
			{Kind: ast.KindLoop},
		},
	}

	motifs := ExtractMotifs(root, DefaultWLIterations)
	assert.Len(t, motifs, 2)
}

func TestPassesStructuralGate_IdenticalControlFlow(t *testing.T) {
	t.Parallel()

	forLoop := &ast.Node{Kind: ast.KindFunction, Children: []*ast.Node{{Kind: ast.KindLoop}}}

	a := ExtractMotifs(forLoop, 2)
	b := ExtractMotifs(forLoop, 2)

	assert.True(t, PassesStructuralGate(a, b, 0.5))
}

// TestPassesStructuralGate_DivergentControlFlow covers §8 scenario 3: two
// functions with identical token bags but differing control flow (a bare
// return vs a for loop) must fail the structural gate.
func TestPassesStructuralGate_DivergentControlFlow(t *testing.T) {
	t.Parallel()

	bareReturn := &ast.Node{Kind: ast.KindFunction, Children: []*ast.Node{{Kind: ast.KindReturn}}}
	withLoop := &ast.Node{Kind: ast.KindFunction, Children: []*ast.Node{
		{Kind: ast.KindLoop, Children: []*ast.Node{{Kind: ast.KindReturn}}},
	}}

	a := ExtractMotifs(bareReturn, 2)
	b := ExtractMotifs(withLoop, 2)

	assert.False(t, PassesStructuralGate(a, b, 0.5))
}

func TestMotifOverlap_EmptyIsZero(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.0, MotifOverlap(nil, []string{"x"}))
}
