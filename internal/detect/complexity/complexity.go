// Package complexity computes cyclomatic, cognitive, nesting, Halstead, and
// maintainability-index metrics per entity (§4.4), grounded on the
// teacher's internal/analyzers/complexity and internal/analyzers/halstead
// traversal style but driven off the canonical ast.Node tree instead of the
// teacher's UAST node type.
package complexity

import (
	"math"

	"github.com/sibyllinesoft/valknut/internal/ast"
	"github.com/sibyllinesoft/valknut/internal/entity"
)

// Thresholds configures the overflow points used to classify issues by
// severity. Each field is a (low, medium, high, veryHigh) quadruple.
type Thresholds struct {
	Cyclomatic       [4]float64
	Cognitive        [4]float64
	NestingDepth     [4]float64
	MaintainabilityM [4]float64 // inverted: MI below these bounds is worse
}

// DefaultThresholds mirrors the teacher's complexity report-section
// defaults, scaled to this spec's metric set.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Cyclomatic:       [4]float64{10, 20, 35, 50},
		Cognitive:        [4]float64{15, 25, 40, 60},
		NestingDepth:     [4]float64{3, 5, 7, 9},
		MaintainabilityM: [4]float64{65, 45, 25, 10},
	}
}

// Severity classifies how far a metric has overflowed its threshold.
type Severity string

// Canonical severities, ordered least to most severe.
const (
	SeverityNone     Severity = "none"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityVeryHigh Severity = "very_high"
)

// Issue is a single threshold overflow tagged with the feature that caused
// it, used downstream by the refactoring detector (§4.9).
type Issue struct {
	Feature  string
	Severity Severity
	Value    float64
	Limit    float64
}

// Result holds every per-entity complexity metric computed by this
// detector.
type Result struct {
	EntityID           string
	Cyclomatic          int
	Cognitive            int
	MaxNestingDepth       int
	Halstead              Halstead
	MaintainabilityIndex  float64
	TechnicalDebtScore    float64
	Issues                []Issue
}

// decisionKinds are node kinds that each add one to cyclomatic complexity.
var decisionKinds = map[ast.Kind]bool{
	ast.KindIf: true, ast.KindLoop: true, ast.KindCase: true,
	ast.KindCatch: true, ast.KindTernary: true, ast.KindBooleanOp: true,
}

// Analyze computes every metric in §4.4 for a single entity's subtree.
func Analyze(e *entity.CodeEntity, root *ast.Node, th Thresholds) Result {
	res := Result{EntityID: e.ID()}

	res.Cyclomatic = cyclomatic(root)
	res.Cognitive = cognitive(root)
	res.MaxNestingDepth = maxNestingDepth(root, 0)
	res.Halstead = computeHalstead(root)
	res.MaintainabilityIndex = maintainabilityIndex(res.Halstead.Volume, res.Cyclomatic, e.LineCount())
	res.Issues = classify(res, th)
	res.TechnicalDebtScore = debtScore(res.Issues, th)

	return res
}

// cyclomatic implements the 1 + decision-node count rule (§4.4).
func cyclomatic(root *ast.Node) int {
	count := 1

	ast.Walk(root, func(n *ast.Node) bool {
		if decisionKinds[n.Kind] {
			count++
		}

		return true
	})

	return count
}

// cognitive implements SonarSource-style cognitive complexity: decisions
// weighted by nesting depth, with every boolean operator adding one (§4.4),
// grounded on the teacher's nesting-increment and logical-sequence-
// complexity rules.
func cognitive(root *ast.Node) int {
	c := &cognitiveWalker{}

	for _, child := range root.Children {
		c.walk(child, 0)
	}

	return c.total
}

type cognitiveWalker struct {
	total int
}

var nestingKinds = map[ast.Kind]bool{
	ast.KindIf: true, ast.KindLoop: true, ast.KindSwitch: true,
	ast.KindTry: true, ast.KindCatch: true,
}

func (c *cognitiveWalker) walk(n *ast.Node, nesting int) {
	if n == nil {
		return
	}

	switch {
	case n.Kind == ast.KindBooleanOp:
		// Logical-sequence complexity: each BooleanOp node adds one, so a
		// chain of n operators adds n. Changes of operator kind within a
		// chain are not counted separately.
		c.total++
	case nestingKinds[n.Kind]:
		c.total += nesting + 1

		for _, child := range n.Children {
			c.walk(child, nesting+1)
		}

		return
	case n.Kind == ast.KindLambda:
		for _, child := range n.Children {
			c.walk(child, nesting+1)
		}

		return
	}

	for _, child := range n.Children {
		c.walk(child, nesting)
	}
}

func maxNestingDepth(n *ast.Node, depth int) int {
	if n == nil {
		return depth
	}

	next := depth
	if n.Kind == ast.KindBlock {
		next = depth + 1
	}

	best := next

	for _, child := range n.Children {
		if d := maxNestingDepth(child, next); d > best {
			best = d
		}
	}

	return best
}

// maintainabilityIndex implements the Microsoft-derived formula from §4.4:
// max(0, 171 - 5.2*ln(V) - 0.23*G - 16.2*ln(LOC)), clamped to [0,100].
// Undefined terms (zero volume/LOC) contribute 0 rather than -Inf.
func maintainabilityIndex(volume float64, cyclo, loc int) float64 {
	mi := 171.0

	if volume > 0 {
		mi -= 5.2 * math.Log(volume)
	}

	mi -= 0.23 * float64(cyclo)

	if loc > 0 {
		mi -= 16.2 * math.Log(float64(loc))
	}

	return math.Max(0, math.Min(100, mi))
}

func classify(res Result, th Thresholds) []Issue {
	var issues []Issue

	if sev, limit := severityFor(float64(res.Cyclomatic), th.Cyclomatic, false); sev != SeverityNone {
		issues = append(issues, Issue{Feature: "cyclomatic", Severity: sev, Value: float64(res.Cyclomatic), Limit: limit})
	}

	if sev, limit := severityFor(float64(res.Cognitive), th.Cognitive, false); sev != SeverityNone {
		issues = append(issues, Issue{Feature: "cognitive", Severity: sev, Value: float64(res.Cognitive), Limit: limit})
	}

	if sev, limit := severityFor(float64(res.MaxNestingDepth), th.NestingDepth, false); sev != SeverityNone {
		issues = append(issues, Issue{Feature: "nesting_depth", Severity: sev, Value: float64(res.MaxNestingDepth), Limit: limit})
	}

	if sev, limit := severityFor(res.MaintainabilityIndex, th.MaintainabilityM, true); sev != SeverityNone {
		issues = append(issues, Issue{Feature: "maintainability_index", Severity: sev, Value: res.MaintainabilityIndex, Limit: limit})
	}

	return issues
}

// severityFor walks a threshold quadruple from most to least severe.
// inverted is true for metrics where a LOWER value is worse (maintainability).
func severityFor(value float64, limits [4]float64, inverted bool) (Severity, float64) {
	order := []Severity{SeverityVeryHigh, SeverityHigh, SeverityMedium, SeverityLow}

	for i, sev := range order {
		limit := limits[3-i]

		if inverted {
			if value <= limit {
				return sev, limit
			}
		} else if value >= limit {
			return sev, limit
		}
	}

	return SeverityNone, 0
}

var severityWeight = map[Severity]float64{
	SeverityLow: 1, SeverityMedium: 2.5, SeverityHigh: 5, SeverityVeryHigh: 9,
}

func debtScore(issues []Issue, _ Thresholds) float64 {
	var score float64

	for _, iss := range issues {
		score += severityWeight[iss.Severity]
	}

	return score
}
