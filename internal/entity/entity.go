// Package entity defines the CodeEntity and EntityKey types shared across
// every detector in the pipeline.
package entity

import "fmt"

// Kind enumerates the units of code the arena analyzer extracts.
type Kind string

// Canonical entity kinds.
const (
	KindFunction Kind = "function"
	KindMethod   Kind = "method"
	KindClass    Kind = "class"
	KindModule   Kind = "module"
)

// Key uniquely identifies an entity within a single pipeline run:
// (file_path, qualified_name, start_line).
type Key struct {
	FilePath      string
	QualifiedName string
	StartLine     int
}

// String renders the key in a stable, human-readable form used for sorting
// and as a map key substitute where comparability matters more than speed.
func (k Key) String() string {
	return fmt.Sprintf("%s::%s:%d", k.FilePath, k.QualifiedName, k.StartLine)
}

// CodeEntity is an identified unit of source (function, method, class,
// module). Entities are created by the arena analyzer, are immutable after
// extraction, and are dropped along with the arena that owns them; only a
// cloned EntitySummary survives into the aggregate results (§9).
type CodeEntity struct {
	Key         Key
	Kind        Kind
	Name        string
	Language    string
	StartLine   int
	EndLine     int
	StartByte   int
	EndByte     int
	ASTKind     string
	Source      string
	Properties  map[string]string
	NodeCount   int
	ControlFlow int
}

// ID derives a stable identifier from (path, kind, name, start_line), used
// wherever entities must be referenced without holding a pointer into a
// freed arena.
func (e *CodeEntity) ID() string {
	return fmt.Sprintf("%s|%s|%s|%d", e.Key.FilePath, e.Kind, e.Name, e.StartLine)
}

// LineCount returns the inclusive line span of the entity.
func (e *CodeEntity) LineCount() int {
	if e.EndLine < e.StartLine {
		return 0
	}

	return e.EndLine - e.StartLine + 1
}

// Summary is the minimal, arena-independent projection of a CodeEntity
// retained inside AnalysisResults once the owning arena is freed.
type Summary struct {
	ID        string
	Key       Key
	Kind      Kind
	Name      string
	Language  string
	StartLine int
	EndLine   int
}

// Summarize clones the arena-independent fields of e into a Summary.
func (e *CodeEntity) Summarize() Summary {
	return Summary{
		ID:        e.ID(),
		Key:       e.Key,
		Kind:      e.Kind,
		Name:      e.Name,
		Language:  e.Language,
		StartLine: e.StartLine,
		EndLine:   e.EndLine,
	}
}
