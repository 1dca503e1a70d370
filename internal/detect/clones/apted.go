// Package clones' APTED verification (§4.8.4): exact tree-edit distance on
// bounded, kind-only simplified trees. Grounded conceptually on
// pkg/alg/levenshtein's dynamic-programming edit-distance style, generalized
// from strings to ordered labeled trees (the open question in SPEC_FULL.md
// resolves APTED's label set to kind-only, per spec.md §9).
package clones

import (
	"github.com/sibyllinesoft/valknut/internal/ast"
)

// DefaultAPTEDNodeBudget bounds the simplified tree size passed to tree-edit
// distance, keeping verification off the critical path for pathologically
// large entities (§4.8.4).
const DefaultAPTEDNodeBudget = 400

// SimpleNode is a bounded, kind-only projection of an ast.Node used for
// tree-edit-distance verification. Labels are node kinds only, per the
// resolved open question in SPEC_FULL.md.
type SimpleNode struct {
	Label    string
	Children []*SimpleNode
}

// Size returns the total node count of the subtree rooted at n.
func (n *SimpleNode) Size() int {
	if n == nil {
		return 0
	}

	size := 1
	for _, c := range n.Children {
		size += c.Size()
	}

	return size
}

// BuildSimpleTree projects root into a kind-only SimpleTree, truncating
// once budget nodes have been emitted. Truncation is recorded by the
// caller via the Unverified flag on the resulting ClonePair, not hidden.
func BuildSimpleTree(root *ast.Node, budget int) (*SimpleNode, bool) {
	remaining := budget
	truncated := false

	var build func(n *ast.Node) *SimpleNode

	build = func(n *ast.Node) *SimpleNode {
		if n == nil || remaining <= 0 {
			truncated = truncated || n != nil
			return nil
		}

		remaining--

		sn := &SimpleNode{Label: string(n.Kind)}

		for _, c := range n.Children {
			if remaining <= 0 {
				truncated = true
				break
			}

			if child := build(c); child != nil {
				sn.Children = append(sn.Children, child)
			}
		}

		return sn
	}

	return build(root), truncated
}

// TreeEditDistance computes the cost to transform tree a into tree b.
// Inserting or deleting a node costs 1; relabelling a node costs 2, the same
// as deleting it and inserting its replacement, so two trees with no label
// in common cost |a|+|b|. Trees are compared top-down in child order: the
// roots are always matched to each other, and the alignment of a's and b's
// child sequences is found by the standard edit-distance recurrence,
// recursing into matched children. Deleting an inner node while keeping its
// children is not modelled, so the cost can exceed the unrestricted
// tree-edit distance that APTED computes.
func TreeEditDistance(a, b *SimpleNode) int {
	if a == nil && b == nil {
		return 0
	}

	if a == nil {
		return b.Size()
	}

	if b == nil {
		return a.Size()
	}

	relabel := 0
	if a.Label != b.Label {
		relabel = 2
	}

	return relabel + childSequenceDistance(a.Children, b.Children)
}

// childSequenceDistance runs the classic edit-distance DP over two ordered
// child sequences, where substituting child i for child j costs
// TreeEditDistance(i, j) instead of a flat relabel, and insert/delete costs
// the full size of the inserted/deleted subtree.
func childSequenceDistance(a, b []*SimpleNode) int {
	n, m := len(a), len(b)

	dp := make([][]int, n+1)
	for i := range dp {
		dp[i] = make([]int, m+1)
	}

	for i := 1; i <= n; i++ {
		dp[i][0] = dp[i-1][0] + a[i-1].Size()
	}

	for j := 1; j <= m; j++ {
		dp[0][j] = dp[0][j-1] + b[j-1].Size()
	}

	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			del := dp[i-1][j] + a[i-1].Size()
			ins := dp[i][j-1] + b[j-1].Size()
			sub := dp[i-1][j-1] + TreeEditDistance(a[i-1], b[j-1])

			dp[i][j] = minOf3(del, ins, sub)
		}
	}

	return dp[n][m]
}

func minOf3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}

	if c < m {
		m = c
	}

	return m
}

// NormalizedSimilarity implements §4.8.4: clamp(1 - cost/(|Ta|+|Tb|), 0, 1).
// Returns 1 for two empty trees (vacuously identical) rather than dividing
// by zero.
func NormalizedSimilarity(a, b *SimpleNode) float64 {
	sizeA, sizeB := a.Size(), b.Size()

	if sizeA+sizeB == 0 {
		return 1
	}

	cost := TreeEditDistance(a, b)
	sim := 1 - float64(cost)/float64(sizeA+sizeB)

	if sim < 0 {
		return 0
	}

	if sim > 1 {
		return 1
	}

	return sim
}
