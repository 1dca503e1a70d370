// Package langs defines the per-language adapter contract (§4.1) and a
// shared tree-sitter-backed implementation for Python, JavaScript,
// TypeScript, Rust, and Go.
package langs

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/sibyllinesoft/valknut/internal/ast"
)

// ErrUnsupportedLanguage is returned when no adapter is registered for a
// requested language name.
var ErrUnsupportedLanguage = errors.New("langs: unsupported language")

// ErrMalformedEncoding is returned when source bytes are not valid UTF-8.
// Callers skip the file and emit a warning rather than treat this as fatal.
var ErrMalformedEncoding = errors.New("langs: source is not valid UTF-8")

// ParseError wraps a recoverable syntax error from an adapter. The caller
// skips the file and records a warning; adapters never panic on malformed
// input.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("langs: parse error in %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Import is a raw module reference observed in source order.
type Import struct {
	Module string
	Line   int
}

// Adapter is the capability set every language implementation exposes
// (§4.1). Implementations must not panic on ill-formed input.
type Adapter interface {
	// LanguageName returns a stable language tag (e.g. "python").
	LanguageName() string

	// Extensions returns the file extensions this adapter claims, with
	// leading dots (e.g. ".py").
	Extensions() []string

	// Parse parses source into a canonical tree. On a recoverable syntax
	// error, it may return a partial tree alongside a *ParseError.
	Parse(path string, source []byte) (*ast.Node, error)

	// ExtractImports returns raw import/module references in source order.
	ExtractImports(source []byte) []Import

	// ExtractFunctionCalls returns dotted call expressions observed in
	// source order, under the given tree.
	ExtractFunctionCalls(root *ast.Node) []string

	// ExtractIdentifiers returns every identifier token under root.
	ExtractIdentifiers(root *ast.Node) []string

	// NormalizeSource returns a canonical S-expression-like string for the
	// given tree, used as the basis for clone-detection shingling.
	NormalizeSource(root *ast.Node) string

	// CountASTNodes returns the total node count under root.
	CountASTNodes(root *ast.Node) int

	// CountControlBlocks returns the number of control-flow blocks
	// (if, loop, switch, try and catch nodes) under root.
	CountControlBlocks(root *ast.Node) int
}

// ValidateUTF8 returns ErrMalformedEncoding if source is not valid UTF-8.
func ValidateUTF8(source []byte) error {
	if !utf8.Valid(source) {
		return ErrMalformedEncoding
	}

	return nil
}

// Registry resolves adapters by language name or file extension.
type Registry struct {
	byName map[string]Adapter
	byExt  map[string]Adapter
}

// NewRegistry builds a registry containing every built-in adapter.
func NewRegistry() *Registry {
	reg := &Registry{
		byName: make(map[string]Adapter),
		byExt:  make(map[string]Adapter),
	}

	for _, a := range builtinAdapters() {
		reg.Register(a)
	}

	return reg
}

// Register adds or replaces an adapter under its language name and every
// extension it claims.
func (r *Registry) Register(a Adapter) {
	r.byName[a.LanguageName()] = a

	for _, ext := range a.Extensions() {
		r.byExt[ext] = a
	}
}

// ByName returns the adapter registered for the given language name.
func (r *Registry) ByName(name string) (Adapter, error) {
	a, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, name)
	}

	return a, nil
}

// ByExtension returns the adapter registered for the given file extension
// (including the leading dot).
func (r *Registry) ByExtension(ext string) (Adapter, error) {
	a, ok := r.byExt[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, ext)
	}

	return a, nil
}

// Names returns every registered language name, used by `list-languages`.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}

	return names
}

// Extensions returns every file extension claimed by a registered adapter,
// used to seed discovery's KnownExtensions filter (§4.10).
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}

	return exts
}
