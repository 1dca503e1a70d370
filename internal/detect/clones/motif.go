package clones

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"github.com/sibyllinesoft/valknut/internal/ast"
)

// motifKinds are the control-flow node kinds that seed a PDG motif (§4.8.3).
var motifKinds = map[ast.Kind]bool{
	ast.KindIf: true, ast.KindLoop: true, ast.KindTry: true,
	ast.KindSwitch: true, ast.KindCatch: true,
}

// DefaultWLIterations is the default Weisfeiler-Lehman refinement depth
// for motif hashing (§4.8.3).
const DefaultWLIterations = 2

// ExtractMotifs walks root and returns one Weisfeiler-Lehman-style hash per
// control-flow block (if/for/while/try/match), each hash folding in the
// multiset of its descendants' kinds up to iterations levels, so
// structurally identical control-flow shapes hash identically regardless
// of the literal tokens inside them.
func ExtractMotifs(root *ast.Node, iterations int) []string {
	var motifs []string

	ast.Walk(root, func(n *ast.Node) bool {
		if motifKinds[n.Kind] {
			motifs = append(motifs, wlHash(n, iterations))
		}

		return true
	})

	sort.Strings(motifs)

	return motifs
}

// wlHash computes a Weisfeiler-Lehman-style label for n: start from n's own
// kind, then iteratively fold in the sorted multiset of child labels,
// refining `iterations` times, finally hashing the result. This is the
// standard WL graph-isomorphism-test refinement applied to an AST subtree
// viewed as a rooted labeled tree.
func wlHash(n *ast.Node, iterations int) string {
	label := wlLabel(n, iterations)

	sum := sha256.Sum256([]byte(label))

	return hex.EncodeToString(sum[:12])
}

func wlLabel(n *ast.Node, depth int) string {
	if n == nil {
		return ""
	}

	if depth <= 0 || len(n.Children) == 0 {
		return string(n.Kind)
	}

	childLabels := make([]string, 0, len(n.Children))
	for _, c := range n.Children {
		childLabels = append(childLabels, wlLabel(c, depth-1))
	}

	sort.Strings(childLabels)

	label := string(n.Kind) + "("

	for i, cl := range childLabels {
		if i > 0 {
			label += ","
		}

		label += cl
	}

	return label + ")"
}

// MotifOverlap reports the fraction of motifs in the smaller of a, b that
// also appear in the other, the structural-gate statistic of §4.8.3.
func MotifOverlap(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	set := make(map[string]int, len(b))
	for _, m := range b {
		set[m]++
	}

	shared := 0

	for _, m := range a {
		if set[m] > 0 {
			shared++
			set[m]--
		}
	}

	smaller := len(a)
	if len(b) < smaller {
		smaller = len(b)
	}

	return float64(shared) / float64(smaller)
}

// PassesStructuralGate implements §4.8.3: a candidate pair must share at
// least minFraction of its control-flow motifs, else it is discarded.
func PassesStructuralGate(a, b []string, minFraction float64) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}

	return MotifOverlap(a, b) >= minFraction
}

// PassesStructuralGateFraction is PassesStructuralGate for callers that
// already hold the precomputed overlap fraction (e.g. a calibrated
// threshold applied to candidates gathered before gating).
func PassesStructuralGateFraction(overlap, minFraction float64) bool {
	return overlap >= minFraction
}
