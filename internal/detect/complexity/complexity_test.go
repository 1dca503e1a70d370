package complexity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sibyllinesoft/valknut/internal/ast"
	"github.com/sibyllinesoft/valknut/internal/entity"
)

func leaf(kind ast.Kind, token string) *ast.Node {
	return &ast.Node{Kind: kind, Token: token}
}

func block(children ...*ast.Node) *ast.Node {
	return &ast.Node{Kind: ast.KindBlock, Children: children}
}

func TestCyclomatic_SimpleIf(t *testing.T) {
	t.Parallel()

	root := &ast.Node{
		Kind: ast.KindFunction,
		Children: []*ast.Node{
			block(&ast.Node{Kind: ast.KindIf}, leaf(ast.KindReturn, "")),
		},
	}

	assert.Equal(t, 2, cyclomatic(root))
}

func TestCyclomatic_NoDecisions(t *testing.T) {
	t.Parallel()

	root := &ast.Node{Kind: ast.KindFunction, Children: []*ast.Node{leaf(ast.KindReturn, "")}}

	assert.Equal(t, 1, cyclomatic(root))
}

func TestCognitive_NestedIfAddsNestingPenalty(t *testing.T) {
	t.Parallel()

	inner := &ast.Node{Kind: ast.KindIf}
	outer := &ast.Node{Kind: ast.KindIf, Children: []*ast.Node{inner}}
	root := &ast.Node{Kind: ast.KindFunction, Children: []*ast.Node{outer}}

	assert.Equal(t, 3, cognitive(root)) // outer: +1, inner nested one level deeper: +2
}

func TestMaxNestingDepth(t *testing.T) {
	t.Parallel()

	root := block(block(block()))

	assert.Equal(t, 3, maxNestingDepth(root, 0))
}

func TestMaintainabilityIndex_ClampedToRange(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 100.0, maintainabilityIndex(0, 0, 0), 0.001)

	mi := maintainabilityIndex(100000, 200, 5000)
	assert.GreaterOrEqual(t, mi, 0.0)
	assert.LessOrEqual(t, mi, 100.0)
}

func TestAnalyze_EmitsIssuesAboveThreshold(t *testing.T) {
	t.Parallel()

	var children []*ast.Node
	for range 40 {
		children = append(children, &ast.Node{Kind: ast.KindIf})
	}

	root := &ast.Node{Kind: ast.KindFunction, Children: children}
	e := &entity.CodeEntity{Key: entity.Key{FilePath: "f.go", QualifiedName: "F", StartLine: 1}, StartLine: 1, EndLine: 500}

	res := Analyze(e, root, DefaultThresholds())

	assert.Equal(t, 41, res.Cyclomatic)
	assert.NotEmpty(t, res.Issues)
	assert.Greater(t, res.TechnicalDebtScore, 0.0)
}
