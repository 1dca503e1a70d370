package complexity

import (
	"math"
	"strings"

	"github.com/sibyllinesoft/valknut/internal/ast"
)

// Halstead divisor constants, grounded on pkg/analyzers/halstead/metrics.go.
const (
	deliveredBugsDivisor = 3000.0
	difficultyDivisor    = 2.0
	timeToProgramDivisor = 18.0
)

// Halstead holds the distinct/total operator and operand counts plus every
// derived measure from §4.4.1.
type Halstead struct {
	DistinctOperators int
	DistinctOperands  int
	TotalOperators    int
	TotalOperands     int
	Vocabulary        int
	Length            int
	EstimatedLength   float64
	Volume            float64
	Difficulty        float64
	Effort            float64
	TimeToProgram     float64
	DeliveredBugs     float64
}

// allowListOperatorKinds are node kinds counted as operators even though
// their kind name doesn't match the generic suffix/substring rule (§4.4.1).
var allowListOperatorKinds = map[ast.Kind]bool{
	ast.KindIf: true, ast.KindLoop: true, ast.KindReturn: true,
	ast.KindBreak: true, ast.KindContinue: true, ast.KindSwitch: true,
	ast.KindCase: true, ast.KindCall: true, ast.KindLambda: true,
	ast.KindAwait: true, ast.KindYield: true,
}

var operandKinds = map[ast.Kind]bool{
	ast.KindIdentifier: true, ast.KindLiteral: true, ast.KindField: true,
}

func isOperatorNode(n *ast.Node) bool {
	if allowListOperatorKinds[n.Kind] {
		return true
	}

	k := string(n.Kind)

	return strings.Contains(strings.ToLower(k), "operator") ||
		strings.Contains(strings.ToLower(k), "assignment")
}

// computeHalstead walks root counting distinct/total operators and
// operands per §4.4.1's traversal rule, then derives every measure via the
// same formula set as pkg/analyzers/halstead/metrics.go.
func computeHalstead(root *ast.Node) Halstead {
	operators := make(map[string]int)
	operands := make(map[string]int)

	ast.Walk(root, func(n *ast.Node) bool {
		switch {
		case isOperatorNode(n):
			key := string(n.Kind)
			if n.Token != "" {
				key = n.Token
			}

			operators[key]++
		case operandKinds[n.Kind]:
			key := n.Token
			if key == "" {
				key = string(n.Kind)
			}

			operands[key]++
		}

		return true
	})

	h := Halstead{
		DistinctOperators: len(operators),
		DistinctOperands:  len(operands),
		TotalOperators:    sumCounts(operators),
		TotalOperands:     sumCounts(operands),
	}

	h.Vocabulary = h.DistinctOperators + h.DistinctOperands
	h.Length = h.TotalOperators + h.TotalOperands

	if h.DistinctOperators > 0 {
		h.EstimatedLength += float64(h.DistinctOperators) * math.Log2(float64(h.DistinctOperators))
	}

	if h.DistinctOperands > 0 {
		h.EstimatedLength += float64(h.DistinctOperands) * math.Log2(float64(h.DistinctOperands))
	}

	if h.Vocabulary > 0 {
		h.Volume = float64(h.Length) * math.Log2(float64(h.Vocabulary))
	}

	if h.DistinctOperands > 0 {
		h.Difficulty = (float64(h.DistinctOperators) / difficultyDivisor) *
			(float64(h.TotalOperands) / float64(h.DistinctOperands))
	}

	h.Effort = h.Difficulty * h.Volume
	h.TimeToProgram = h.Effort / timeToProgramDivisor
	h.DeliveredBugs = h.Volume / deliveredBugsDivisor

	return h
}

func sumCounts(m map[string]int) int {
	sum := 0
	for _, v := range m {
		sum += v
	}

	return sum
}
