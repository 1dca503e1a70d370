// Package astsvc caches parsed syntax trees keyed by (path, content hash)
// and hands out thin traversal contexts (§4.2). Parses are traced under the
// "valknut.astsvc" tracer, suppressed by default by
// observability.NewFilteringTracerProvider since one span exists per file.
package astsvc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/sibyllinesoft/valknut/internal/ast"
	"github.com/sibyllinesoft/valknut/internal/langs"
)

// tracerName is this service's OTel tracer name. internal/observability's
// filtering tracer provider suppresses it by default since a parse span
// exists for every file in a run (§4.2 is a hot path).
const tracerName = "valknut.astsvc"

// CachedTree is a parsed syntax tree plus the content hash and language tag
// it was parsed under. Identity is (Path, ContentHash): a tree is never
// exposed to a caller before parsing completes.
type CachedTree struct {
	Path        string
	ContentHash string
	Language    string
	Root        *ast.Node
	Source      []byte
	ParseErr    error
}

// AstContext is a thin borrow over a CachedTree, carrying the tree and its
// source slice without granting ownership of either.
type AstContext struct {
	Tree   *CachedTree
	Source []byte
}

type entry struct {
	once sync.Once
	tree *CachedTree
}

// Service is a concurrent AST cache. Multiple readers may hold the same
// tree; writes (parses) use a fine-grained exclusive gate per key so two
// goroutines racing on the same file parse it exactly once.
type Service struct {
	registry *langs.Registry
	Tracer   trace.Tracer

	mu      sync.RWMutex
	entries map[string]*entry

	hits   atomic.Int64
	misses atomic.Int64
}

// New builds an AST service backed by the given language registry. Tracer
// defaults to a no-op tracer; callers wire a real one (e.g. from
// observability.Init) before running a pipeline.
func New(registry *langs.Registry) *Service {
	return &Service{
		registry: registry,
		entries:  make(map[string]*entry),
		Tracer:   nooptrace.NewTracerProvider().Tracer(tracerName),
	}
}

// Stats reports cumulative cache hits and misses since construction, for
// AnalysisMetrics' "ast" cache counter (§5).
func (s *Service) Stats() (hits, misses int64) {
	return s.hits.Load(), s.misses.Load()
}

// ContentHash returns the stable cache-key component for a file's bytes.
func ContentHash(source []byte) string {
	sum := sha256.Sum256(source)

	return hex.EncodeToString(sum[:])
}

func cacheKey(path, hash string) string {
	return path + "@" + hash
}

// GetOrParse returns the cached tree for (path, content) if present,
// otherwise parses it via the adapter registered for path's extension and
// caches the result. Concurrent calls for the same key block on the same
// parse rather than racing; calls for distinct keys proceed independently.
func (s *Service) GetOrParse(ctx context.Context, path string, source []byte) (*CachedTree, error) {
	hash := ContentHash(source)
	key := cacheKey(path, hash)

	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		e = &entry{}
		s.entries[key] = e
	}
	s.mu.Unlock()

	if ok {
		s.hits.Add(1)
	} else {
		s.misses.Add(1)
	}

	e.once.Do(func() {
		_, span := s.Tracer.Start(ctx, "parse", trace.WithAttributes(attribute.String("path", path)))
		defer span.End()

		e.tree = s.parse(path, hash, source)
	})

	if e.tree.ParseErr != nil {
		return e.tree, e.tree.ParseErr
	}

	return e.tree, nil
}

func (s *Service) parse(path, hash string, source []byte) *CachedTree {
	adapter, err := s.registry.ByExtension(extensionOf(path))
	if err != nil {
		return &CachedTree{Path: path, ContentHash: hash, ParseErr: err}
	}

	root, parseErr := adapter.Parse(path, source)

	return &CachedTree{
		Path:        path,
		ContentHash: hash,
		Language:    adapter.LanguageName(),
		Root:        root,
		Source:      source,
		ParseErr:    parseErr,
	}
}

// CreateContext returns a thin borrow over tree, carrying its root and
// source without copying either.
func (s *Service) CreateContext(tree *CachedTree) *AstContext {
	return &AstContext{Tree: tree, Source: tree.Source}
}

// Evict drops the cached entry for (path, content), if any. Used by callers
// that want to bound memory across very large runs; the AST service itself
// is dropped wholesale at pipeline completion (§4.2).
func (s *Service) Evict(path string, source []byte) {
	key := cacheKey(path, ContentHash(source))

	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

// Len reports the number of cached trees, for diagnostics.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries)
}

func extensionOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '.' {
			return path[i:]
		}

		if path[i] == '/' {
			break
		}
	}

	return ""
}
