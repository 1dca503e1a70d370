// Package ast defines the language-agnostic syntax tree used across all
// detectors. Every language adapter produces trees of this shape so the
// rest of the pipeline never branches on source language.
package ast

import "sync"

// Kind is a canonical node category shared across all supported languages.
type Kind string

// Canonical node kinds. Adapters translate language-specific tree-sitter
// node types into this fixed vocabulary.
const (
	KindFile         Kind = "File"
	KindFunction     Kind = "Function"
	KindMethod       Kind = "Method"
	KindClass        Kind = "Class"
	KindInterface    Kind = "Interface"
	KindStruct       Kind = "Struct"
	KindVariable     Kind = "Variable"
	KindParameter    Kind = "Parameter"
	KindBlock        Kind = "Block"
	KindIf           Kind = "If"
	KindLoop         Kind = "Loop"
	KindSwitch       Kind = "Switch"
	KindCase         Kind = "Case"
	KindReturn       Kind = "Return"
	KindBreak        Kind = "Break"
	KindContinue     Kind = "Continue"
	KindAssignment   Kind = "Assignment"
	KindCall         Kind = "Call"
	KindIdentifier   Kind = "Identifier"
	KindLiteral      Kind = "Literal"
	KindBinaryOp     Kind = "BinaryOp"
	KindUnaryOp      Kind = "UnaryOp"
	KindImport       Kind = "Import"
	KindPackage      Kind = "Package"
	KindComment      Kind = "Comment"
	KindField        Kind = "Field"
	KindTry          Kind = "Try"
	KindCatch        Kind = "Catch"
	KindThrow        Kind = "Throw"
	KindLambda       Kind = "Lambda"
	KindAwait        Kind = "Await"
	KindYield        Kind = "Yield"
	KindBooleanOp    Kind = "BooleanOp"
	KindTernary      Kind = "Ternary"
	KindAttribute    Kind = "Attribute"
	KindUnmapped     Kind = "Unmapped"
)

// Role is an orthogonal, composable tag describing a node's syntactic
// function, independent of its Kind (e.g. a Function node also carries
// RoleDeclaration).
type Role string

// Canonical roles.
const (
	RoleDeclaration Role = "Declaration"
	RoleFunction    Role = "Function"
	RoleName        Role = "Name"
	RoleBody        Role = "Body"
	RoleCondition   Role = "Condition"
	RoleOperator    Role = "Operator"
	RoleArgument    Role = "Argument"
)

// Position is a source location. Line and Column are 1-indexed, matching the
// convention used by most language tooling (and by the teacher's UAST node
// positions); Byte is a 0-based offset into the source.
type Position struct {
	Line   int
	Column int
	Byte   int
}

// Range is an inclusive start/end span within a single file.
type Range struct {
	Start Position
	End   Position
}

// Node is one entry in a parsed syntax tree. Trees are immutable once
// built: detectors read Node values but never mutate them in place.
type Node struct {
	Kind     Kind
	Token    string
	Roles    []Role
	Range    Range
	Props    map[string]string
	Children []*Node
}

// HasRole reports whether n carries the given role.
func (n *Node) HasRole(r Role) bool {
	if n == nil {
		return false
	}

	for _, role := range n.Roles {
		if role == r {
			return true
		}
	}

	return false
}

// HasAnyKind reports whether n's Kind matches any of the given kinds.
func (n *Node) HasAnyKind(kinds ...Kind) bool {
	if n == nil {
		return false
	}

	for _, k := range kinds {
		if n.Kind == k {
			return true
		}
	}

	return false
}

// Walk calls fn for n and every descendant, in pre-order, stopping early
// for a subtree if fn returns false for its root.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil {
		return
	}

	if !fn(n) {
		return
	}

	for _, child := range n.Children {
		Walk(child, fn)
	}
}

// CountNodes returns the number of nodes in the subtree rooted at n.
func CountNodes(n *Node) int {
	count := 0

	Walk(n, func(*Node) bool {
		count++

		return true
	})

	return count
}

// nodePool reduces allocation overhead for short-lived traversal nodes
// built outside of an adapter's primary parse (e.g. bounded copies used by
// clone-detection's APTED verification). Mirrors the teacher's node pool.
var nodePool = sync.Pool{ //nolint:gochecknoglobals // shared pool, matches teacher idiom
	New: func() any { return &Node{} },
}

// AcquireNode returns a zeroed Node from the shared pool.
func AcquireNode() *Node {
	n, _ := nodePool.Get().(*Node)
	*n = Node{}

	return n
}

// ReleaseNode returns n to the shared pool. Callers must not retain n or
// any alias to it after calling ReleaseNode.
func ReleaseNode(n *Node) {
	if n == nil {
		return
	}

	nodePool.Put(n)
}
