package report

import (
	"sort"
	"strings"

	"github.com/sibyllinesoft/valknut/internal/detect/refactoring"
)

// DirectoryHealthNode is one node of the recursive directory health tree
// (§4.11.2): health score in [0,1], children, and a worst-priority flag
// summarizing the subtree.
type DirectoryHealthNode struct {
	Path          string
	HealthScore   float64
	WorstPriority refactoring.Priority
	Children      map[string]*DirectoryHealthNode
}

func newHealthNode(path string) *DirectoryHealthNode {
	return &DirectoryHealthNode{Path: path, WorstPriority: refactoring.PriorityNone, Children: map[string]*DirectoryHealthNode{}}
}

// BuildDirectoryHealthTree computes per-directory aggregated health from
// candidates: health = 1 - clamp(weighted_severity_sum/maxSeverity, 0, 1),
// where maxSeverity bounds the per-directory severity sum (§4.11.2). A
// directory's weighted_severity_sum is the sum of severityWeight(priority)
// over every candidate whose entity lives at or below that directory.
func BuildDirectoryHealthTree(candidates []refactoring.Candidate, entityFile func(entityID string) string, maxSeverity float64) *DirectoryHealthNode {
	root := newHealthNode(".")

	severitySums := map[string]float64{}
	worst := map[string]refactoring.Priority{".": refactoring.PriorityNone}

	for _, c := range candidates {
		path := entityFile(c.EntityID)
		dir := dirOf(path)

		for _, ancestor := range ancestorsOf(dir) {
			severitySums[ancestor] += severityWeight(c.Priority)

			if c.Priority.Higher(worst[ancestor]) {
				worst[ancestor] = c.Priority
			}

			ensurePath(root, ancestor)
		}
	}

	if maxSeverity <= 0 {
		maxSeverity = 1
	}

	for path, node := range flatten(root) {
		sum := severitySums[path]
		ratio := sum / maxSeverity
		ratio = clamp01(ratio)
		node.HealthScore = 1 - ratio

		if w, ok := worst[path]; ok {
			node.WorstPriority = w
		}
	}

	return root
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}

	if v > 1 {
		return 1
	}

	return v
}

// ancestorsOf returns dir and every ancestor directory up to ".", the tree
// root, inclusive.
func ancestorsOf(dir string) []string {
	if dir == "" || dir == "." {
		return []string{"."}
	}

	parts := strings.Split(dir, "/")

	out := make([]string, 0, len(parts)+1)
	out = append(out, ".")

	acc := ""

	for _, p := range parts {
		if acc == "" {
			acc = p
		} else {
			acc = acc + "/" + p
		}

		out = append(out, acc)
	}

	return out
}

// ensurePath walks root down to path, creating any missing nodes.
func ensurePath(root *DirectoryHealthNode, path string) {
	if path == "." {
		return
	}

	parts := strings.Split(path, "/")

	cur := root
	acc := ""

	for _, p := range parts {
		if acc == "" {
			acc = p
		} else {
			acc = acc + "/" + p
		}

		child, ok := cur.Children[acc]
		if !ok {
			child = newHealthNode(acc)
			cur.Children[acc] = child
		}

		cur = child
	}
}

func flatten(node *DirectoryHealthNode) map[string]*DirectoryHealthNode {
	out := map[string]*DirectoryHealthNode{node.Path: node}

	for _, child := range node.Children {
		for path, n := range flatten(child) {
			out[path] = n
		}
	}

	return out
}

// Lookup finds the health node for path, falling back to the nearest
// ancestor present in the tree (§4.11.2).
func (n *DirectoryHealthNode) Lookup(path string) *DirectoryHealthNode {
	for _, ancestor := range reverseAncestors(ancestorsOf(path)) {
		if ancestor == n.Path {
			return n
		}

		if found := n.findPath(ancestor); found != nil {
			return found
		}
	}

	return n
}

func (n *DirectoryHealthNode) findPath(path string) *DirectoryHealthNode {
	flat := flatten(n)

	return flat[path]
}

func reverseAncestors(a []string) []string {
	out := make([]string, len(a))

	for i, v := range a {
		out[len(a)-1-i] = v
	}

	return out
}

// ChildrenSorted returns n's direct descendants sorted by path (§4.11.2).
func (n *DirectoryHealthNode) ChildrenSorted() []*DirectoryHealthNode {
	out := make([]*DirectoryHealthNode, 0, len(n.Children))
	for _, c := range n.Children {
		out = append(out, c)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })

	return out
}

// Pretty renders the subtree rooted at n as an indented text tree.
func (n *DirectoryHealthNode) Pretty() string {
	var b strings.Builder

	n.prettyInto(&b, 0)

	return b.String()
}

func (n *DirectoryHealthNode) prettyInto(b *strings.Builder, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(n.Path)
	b.WriteString(" ")
	b.WriteString(priorityMarker(n.WorstPriority))
	b.WriteString("\n")

	for _, c := range n.ChildrenSorted() {
		c.prettyInto(b, depth+1)
	}
}

func priorityMarker(p refactoring.Priority) string {
	return "[" + string(p) + "]"
}

func mergeHealthTree(a, b *DirectoryHealthNode) *DirectoryHealthNode {
	if a == nil {
		return b
	}

	if b == nil {
		return a
	}

	merged := newHealthNode(a.Path)
	merged.HealthScore = weightedAverage(a.HealthScore, 1, b.HealthScore, 1)

	if b.WorstPriority.Higher(a.WorstPriority) {
		merged.WorstPriority = b.WorstPriority
	} else {
		merged.WorstPriority = a.WorstPriority
	}

	for path, child := range a.Children {
		merged.Children[path] = child
	}

	for path, child := range b.Children {
		if existing, ok := merged.Children[path]; ok {
			merged.Children[path] = mergeHealthTree(existing, child)
		} else {
			merged.Children[path] = child
		}
	}

	return merged
}
