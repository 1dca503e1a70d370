// Package dependency builds the function-call graph and derives fan-in/out,
// cycles, and chokepoint scores (§4.6), grounded on pkg/toposort's
// string-keyed graph idiom but extended with full Tarjan SCC decomposition.
package dependency

import "strings"

// receiverTokens are stripped from the head of a dotted call expression
// before qualified-name resolution (§4.6 step 2).
var receiverTokens = map[string]bool{
	"self": true, "this": true, "cls": true, "super": true,
}

// CallIdentifier is a parsed call expression: a segment list with any
// leading receiver token removed.
type CallIdentifier struct {
	Segments []string
}

// ParseCallIdentifier splits a dotted call string into segments and strips
// a leading receiver token.
func ParseCallIdentifier(raw string) CallIdentifier {
	segments := strings.Split(raw, ".")

	if len(segments) > 1 && receiverTokens[strings.ToLower(segments[0])] {
		segments = segments[1:]
	}

	return CallIdentifier{Segments: segments}
}

// TrailingName returns the last segment, typically the bare function name.
func (c CallIdentifier) TrailingName() string {
	if len(c.Segments) == 0 {
		return ""
	}

	return c.Segments[len(c.Segments)-1]
}

// Namespace returns every segment but the last.
func (c CallIdentifier) Namespace() string {
	if len(c.Segments) <= 1 {
		return ""
	}

	return strings.Join(c.Segments[:len(c.Segments)-1], ".")
}

// Node is one function/method in the call graph.
type Node struct {
	ID            string
	QualifiedName string
	Namespace     string
	File          string
	Line          int
	Calls         []string // raw call strings observed in this node's body
}

// Scoring weights for candidate resolution, per §4.6 step 3.
const (
	scoreSelfCall          = 120
	scoreExactQualified    = 100
	scoreContainsMatch     = 75
	scoreTrailingMatch     = 40
	scoreNamespaceEquality = 15
	scoreTailMatch         = 8
	scoreSameFile          = 20
	lineProximityBase      = 15.0
	lineProximityDivisor   = 25.0
	lineProximityCap       = 400
)

// Edge is a resolved call from one node to another.
type Edge struct {
	From  string
	To    string
	Score float64
}

// Graph is the resolved function-call graph for one pipeline run.
type Graph struct {
	Nodes map[string]*Node
	Edges []Edge
	order []string // insertion order, for deterministic iteration
}

// NewGraph returns an empty call graph.
func NewGraph() *Graph {
	return &Graph{Nodes: make(map[string]*Node)}
}

// AddNode registers a function/method node, ignoring duplicate IDs.
func (g *Graph) AddNode(n *Node) {
	if _, exists := g.Nodes[n.ID]; exists {
		return
	}

	g.Nodes[n.ID] = n
	g.order = append(g.order, n.ID)
}

// Resolve builds edges for every call observed on every node by scoring
// candidates against the priority list in §4.6 step 3 and keeping the best
// match per call.
func (g *Graph) Resolve() {
	for _, id := range g.order {
		node := g.Nodes[id]

		for _, raw := range node.Calls {
			call := ParseCallIdentifier(raw)

			best, bestScore := g.bestCandidate(node, call)
			if best != "" && bestScore > 0 {
				g.Edges = append(g.Edges, Edge{From: node.ID, To: best, Score: bestScore})
			}
		}
	}
}

func (g *Graph) bestCandidate(from *Node, call CallIdentifier) (string, float64) {
	var bestID string

	bestScore := -1.0

	for _, candID := range g.order {
		cand := g.Nodes[candID]

		score := scoreCandidate(from, cand, call)
		if score > bestScore {
			bestScore = score
			bestID = candID
		}
	}

	return bestID, bestScore
}

func scoreCandidate(from, cand *Node, call CallIdentifier) float64 {
	var score float64

	trailing := call.TrailingName()

	if cand.ID == from.ID && trailing == lastSegment(from.QualifiedName) {
		score += scoreSelfCall
	}

	if cand.QualifiedName == strings.Join(call.Segments, ".") {
		score += scoreExactQualified
	}

	if trailing != "" && strings.Contains(cand.QualifiedName, trailing) {
		score += scoreContainsMatch
	}

	if trailing != "" && lastSegment(cand.QualifiedName) == trailing {
		score += scoreTrailingMatch
	}

	if ns := call.Namespace(); ns != "" && ns == cand.Namespace {
		score += scoreNamespaceEquality
	}

	if trailing != "" && strings.HasSuffix(cand.QualifiedName, trailing) {
		score += scoreTailMatch
	}

	if cand.File == from.File {
		score += scoreSameFile

		delta := cand.Line - from.Line
		if delta < 0 {
			delta = -delta
		}

		if delta > lineProximityCap {
			delta = lineProximityCap
		}

		score += lineProximityBase - float64(delta)/lineProximityDivisor
	}

	return score
}

func lastSegment(qualified string) string {
	segs := strings.Split(qualified, ".")

	return segs[len(segs)-1]
}

// FanInOut returns the fan-in and fan-out count for every node.
func (g *Graph) FanInOut() (fanIn, fanOut map[string]int) {
	fanIn = make(map[string]int, len(g.Nodes))
	fanOut = make(map[string]int, len(g.Nodes))

	for _, e := range g.Edges {
		fanOut[e.From]++
		fanIn[e.To]++
	}

	return fanIn, fanOut
}

// Chokepoint is a node ranked by fan_in * fan_out.
type Chokepoint struct {
	ID    string
	Score int
}

// Chokepoints returns the top-k nodes by fan_in*fan_out score, descending.
func (g *Graph) Chokepoints(topK int) []Chokepoint {
	fanIn, fanOut := g.FanInOut()

	points := make([]Chokepoint, 0, len(g.Nodes))
	for id := range g.Nodes {
		points = append(points, Chokepoint{ID: id, Score: fanIn[id] * fanOut[id]})
	}

	sortChokepoints(points)

	if topK > 0 && len(points) > topK {
		points = points[:topK]
	}

	return points
}

func sortChokepoints(points []Chokepoint) {
	for i := 1; i < len(points); i++ {
		j := i

		for j > 0 && (points[j-1].Score < points[j].Score ||
			(points[j-1].Score == points[j].Score && points[j-1].ID > points[j].ID)) {
			points[j-1], points[j] = points[j], points[j-1]
			j--
		}
	}
}
