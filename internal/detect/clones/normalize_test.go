package clones

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sibyllinesoft/valknut/internal/ast"
	"github.com/sibyllinesoft/valknut/internal/intern"
)

func TestNormalize_ClassedSchemeCanonicalizesIdentifiers(t *testing.T) {
	t.Parallel()

	root := &ast.Node{
		Kind: ast.KindFunction,
		Children: []*ast.Node{
			{Kind: ast.KindIdentifier, Token: "foo"},
			{Kind: ast.KindIdentifier, Token: "bar"},
		},
	}

	tokens := Normalize(root, SchemeClassed)

	assert.Equal(t, "\x00IDENT", tokens[0].Text)
	assert.Equal(t, "\x00IDENT", tokens[1].Text)
}

func TestNormalize_LiteralSchemeKeepsTokens(t *testing.T) {
	t.Parallel()

	root := &ast.Node{
		Kind:     ast.KindFunction,
		Children: []*ast.Node{{Kind: ast.KindIdentifier, Token: "foo"}},
	}

	tokens := Normalize(root, SchemeLiteral)
	assert.Equal(t, "foo", tokens[0].Text)
}

func TestBuildShingles_FixedSizeKGrams(t *testing.T) {
	t.Parallel()

	table := intern.New()
	tokens := []NormalizeToken{{Text: "a"}, {Text: "b"}, {Text: "c"}, {Text: "d"}}

	shingles := BuildShingles(tokens, 2, table)
	assert.Len(t, shingles, 3)
}

func TestBuildShingles_ShortInputYieldsNone(t *testing.T) {
	t.Parallel()

	table := intern.New()
	tokens := []NormalizeToken{{Text: "a"}}

	assert.Nil(t, BuildShingles(tokens, 3, table))
}

func TestCollapseWhitespace(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a b c", collapseWhitespace("a   b\n\tc"))
}
