// Package clones implements the clone detector (§4.8): per-file
// normalization and shingling, weighted MinHash signatures, LSH candidate
// generation, a PDG-motif structural gate, APTED verification, a
// self-learning stop-motif cache, auto-calibration, and payoff ranking.
//
// Grounded on pkg/alg/minhash and pkg/alg/lsh (banding/signature plumbing),
// pkg/persist (state persistence idiom, made atomic here), and
// internal/analyzers/complexity's AST-walk style for motif extraction.
package clones

import (
	"strings"
	"unicode"

	"github.com/sibyllinesoft/valknut/internal/ast"
	"github.com/sibyllinesoft/valknut/internal/intern"
)

// IdentifierScheme controls how identifiers are canonicalized during
// normalization, per adapter (language) convention.
type IdentifierScheme int

const (
	// SchemeLiteral keeps identifiers verbatim.
	SchemeLiteral IdentifierScheme = iota
	// SchemeClassed replaces every identifier with the single class token
	// "\x00IDENT" so clones are detected across renamed variables.
	SchemeClassed
)

// NormalizeToken is one token of a file's normalized token stream.
type NormalizeToken struct {
	Text string
	Kind ast.Kind
	Line int
}

// identKinds are treated as identifier-like for canonicalization purposes.
var identKinds = map[ast.Kind]bool{
	ast.KindIdentifier: true,
}

// Normalize walks the AST in source order, skipping comment nodes and
// canonicalizing identifiers according to scheme, per §4.8.1 step 1.
func Normalize(root *ast.Node, scheme IdentifierScheme) []NormalizeToken {
	var tokens []NormalizeToken

	var walk func(n *ast.Node)

	walk = func(n *ast.Node) {
		if n == nil || n.Kind == ast.KindComment {
			return
		}

		if len(n.Children) == 0 && n.Token != "" {
			tokens = append(tokens, NormalizeToken{
				Text: canonicalize(n, scheme),
				Kind: n.Kind,
				Line: n.Range.Start.Line,
			})
		}

		for _, c := range n.Children {
			walk(c)
		}
	}

	walk(root)

	return tokens
}

func canonicalize(n *ast.Node, scheme IdentifierScheme) string {
	if scheme == SchemeClassed && identKinds[n.Kind] {
		return "\x00IDENT"
	}

	return collapseWhitespace(n.Token)
}

func collapseWhitespace(s string) string {
	var b strings.Builder

	lastSpace := false

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastSpace {
				b.WriteByte(' ')
			}

			lastSpace = true

			continue
		}

		lastSpace = false

		b.WriteRune(r)
	}

	return strings.TrimSpace(b.String())
}

// DefaultShingleSize is the k in k-gram shingling (§4.8.1 step 2).
const DefaultShingleSize = 3

// Shingle is one k-gram of normalized tokens, identified by its interned
// text handle for zero-allocation reuse across files.
type Shingle struct {
	Handle    intern.Handle
	StartLine int
}

// BuildShingles produces fixed-size k-grams of the normalized token stream,
// interning each shingle's joined text via table.
func BuildShingles(tokens []NormalizeToken, k int, table *intern.Table) []Shingle {
	if k <= 0 || len(tokens) < k {
		return nil
	}

	shingles := make([]Shingle, 0, len(tokens)-k+1)

	for i := 0; i+k <= len(tokens); i++ {
		var b strings.Builder

		for j := 0; j < k; j++ {
			if j > 0 {
				b.WriteByte('\x1f')
			}

			b.WriteString(tokens[i+j].Text)
		}

		shingles = append(shingles, Shingle{
			Handle:    table.Intern(b.String()),
			StartLine: tokens[i].Line,
		})
	}

	return shingles
}
