// Package arena implements the per-file slab allocator and single-pass
// entity extraction described in §4.3. An Arena owns every CodeEntity
// extracted from one file; callers must not retain entities past Release.
// Analyze is traced under the "valknut.arena" tracer, suppressed by default
// alongside "valknut.astsvc" (see internal/observability's filtering
// tracer provider).
package arena

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/sibyllinesoft/valknut/internal/ast"
	"github.com/sibyllinesoft/valknut/internal/astsvc"
	"github.com/sibyllinesoft/valknut/internal/entity"
	"github.com/sibyllinesoft/valknut/internal/langs"
)

// tracerName is this package's OTel tracer name, suppressed by default by
// observability.NewFilteringTracerProvider alongside "valknut.astsvc" since
// an Analyze span exists for every discovered file.
const tracerName = "valknut.arena"

// slabInitialCapacity sizes the first bump-allocation slab; subsequent
// slabs double, matching the teacher's pool-growth idiom in pkg/alg.
const slabInitialCapacity = 64

var slabPool = sync.Pool{ //nolint:gochecknoglobals // shared pool, matches teacher idiom
	New: func() any {
		s := make([]entity.CodeEntity, 0, slabInitialCapacity)

		return &s
	},
}

// Arena is a scoped, single-file allocation slab. Entities extracted into
// an Arena are valid only until Release is called.
type Arena struct {
	slab  *[]entity.CodeEntity
	bytes int
}

// Acquire returns a zeroed Arena backed by a pooled slab.
func Acquire() *Arena {
	slab, _ := slabPool.Get().(*[]entity.CodeEntity)
	*slab = (*slab)[:0]

	return &Arena{slab: slab}
}

// Release returns the arena's backing slab to the pool. Entities returned
// by this arena must not be used after Release.
func (a *Arena) Release() {
	if a == nil || a.slab == nil {
		return
	}

	slabPool.Put(a.slab)
	a.slab = nil
}

func (a *Arena) alloc(e entity.CodeEntity) *entity.CodeEntity {
	*a.slab = append(*a.slab, e)
	a.bytes += len(e.Source) + len(e.Name)

	return &(*a.slab)[len(*a.slab)-1]
}

// Result is the output of a single file's arena analysis, owned by the
// caller. The arena itself never outlives the call that produced Result.
type Result struct {
	Path       string
	Language   string
	Entities   []*entity.CodeEntity
	// EntityNodes holds the AST subtree root for each entry in Entities, at
	// the same index, for detectors (clones, complexity) that need to walk
	// an entity's own subtree rather than its CodeEntity projection. Valid
	// only as long as the parse tree behind it remains cached; callers that
	// outlive the astsvc cache entry must not retain these nodes.
	EntityNodes []*ast.Node
	LOC         int
	ArenaBytes  int
	ParseTime   time.Duration
	WalkTime    time.Duration
	Warning     string
}

// functionLikeKinds are the ast.Kind values that delimit an extractable
// CodeEntity boundary.
var functionLikeKinds = map[ast.Kind]entity.Kind{
	ast.KindFunction: entity.KindFunction,
	ast.KindMethod:   entity.KindMethod,
	ast.KindClass:    entity.KindClass,
}

// Analyze runs the single-pass per-file traversal (§4.3): acquire a scoped
// arena, parse via the AST service, walk the tree emitting CodeEntity
// records, and record instrumentation. The returned Result's entities are
// owned by the caller-held arena; call Release once done. tracer may be nil,
// in which case the span is dropped rather than recorded.
func Analyze(ctx context.Context, tracer trace.Tracer, svc *astsvc.Service, registry *langs.Registry, path string, source []byte) (*Arena, *Result) {
	a := Acquire()

	if tracer != nil {
		var span trace.Span

		ctx, span = tracer.Start(ctx, "analyze", trace.WithAttributes(attribute.String("path", path)))
		defer span.End()
	}

	parseStart := time.Now()

	tree, err := svc.GetOrParse(ctx, path, source)

	parseElapsed := time.Since(parseStart)

	res := &Result{Path: path, LOC: strings.Count(string(source), "\n") + 1, ParseTime: parseElapsed}

	if tree == nil {
		res.Warning = "arena: nil parse result"

		return a, res
	}

	res.Language = tree.Language

	if err != nil {
		res.Warning = err.Error()

		if tree.Root == nil {
			return a, res
		}
	}

	adapter, adapterErr := registry.ByName(tree.Language)
	if adapterErr != nil {
		res.Warning = adapterErr.Error()

		return a, res
	}

	walkStart := time.Now()

	var nodes []*ast.Node

	ast.Walk(tree.Root, func(n *ast.Node) bool {
		kind, known := functionLikeKinds[n.Kind]
		if !known || !n.HasRole(ast.RoleDeclaration) {
			return true
		}

		name := declaredName(n)

		e := entity.CodeEntity{
			Key: entity.Key{
				FilePath:      path,
				QualifiedName: name,
				StartLine:     n.Range.Start.Line,
			},
			Kind:        kind,
			Name:        name,
			Language:    tree.Language,
			StartLine:   n.Range.Start.Line,
			EndLine:     n.Range.End.Line,
			StartByte:   n.Range.Start.Byte,
			EndByte:     n.Range.End.Byte,
			ASTKind:     string(n.Kind),
			Source:      sliceSource(source, n.Range.Start.Byte, n.Range.End.Byte),
			Properties:  map[string]string{},
			NodeCount:   adapter.CountASTNodes(n),
			ControlFlow: adapter.CountControlBlocks(n),
		}

		a.alloc(e)
		nodes = append(nodes, n)

		return true
	})

	res.WalkTime = time.Since(walkStart)
	res.ArenaBytes = a.bytes

	entities := make([]*entity.CodeEntity, len(*a.slab))
	for i := range *a.slab {
		entities[i] = &(*a.slab)[i]
	}

	res.Entities = entities
	res.EntityNodes = nodes

	return a, res
}

func declaredName(n *ast.Node) string {
	for _, c := range n.Children {
		if c.HasRole(ast.RoleName) || c.Kind == ast.KindIdentifier {
			return c.Token
		}
	}

	return "<anonymous>"
}

func sliceSource(source []byte, start, end int) string {
	if start < 0 || end > len(source) || start > end {
		return ""
	}

	return string(source[start:end])
}
