// Orchestrator wires file discovery, the per-file parallel stage, and
// cross-file aggregation into one pipeline run. Grounded on the teacher's
// pkg/framework/runner.go Initialize/ProcessChunk/Finalize lifecycle, with
// the hand-rolled leafWorker/workChan fan-out replaced by
// golang.org/x/sync's errgroup+semaphore: this pipeline's unit of parallel
// work is one file, not a commit dispatched to pre-forked replicas.
package pipeline

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/sibyllinesoft/valknut/internal/arena"
	"github.com/sibyllinesoft/valknut/internal/astsvc"
	"github.com/sibyllinesoft/valknut/internal/detect/clones"
	"github.com/sibyllinesoft/valknut/internal/detect/complexity"
	"github.com/sibyllinesoft/valknut/internal/detect/coverage"
	"github.com/sibyllinesoft/valknut/internal/detect/dependency"
	"github.com/sibyllinesoft/valknut/internal/detect/structure"
	"github.com/sibyllinesoft/valknut/internal/entity"
	"github.com/sibyllinesoft/valknut/internal/intern"
	"github.com/sibyllinesoft/valknut/internal/langs"
	"github.com/sibyllinesoft/valknut/internal/observability"
	"github.com/sibyllinesoft/valknut/internal/report"
	"github.com/sibyllinesoft/valknut/internal/scoring"
)

// tracerName is the orchestrator's OTel tracer name. Unlike
// "valknut.astsvc"/"valknut.arena" it is not suppressed by
// observability.NewFilteringTracerProvider: stage-level spans are the
// structural trace this pipeline is meant to produce. Per-file spans
// started on it use the name "valknut.pipeline.entity", which the
// filtering provider suppresses on its own.
const tracerName = "valknut.pipeline"

// DisableFlags toggles individual detector stages off, mirroring the CLI's
// `--no-<detector>` flags (§6) and AnalysisConfig.Disable.
type DisableFlags struct {
	Complexity bool
	Structure  bool
	Dependency bool
	Clones     bool
	Coverage   bool
}

// RunConfig bundles every detector/scoring tunable the orchestrator needs
// for one run. Callers (typically cmd/valknut) build this from
// internal/config's typed sections via the To*() conversions.
type RunConfig struct {
	Discovery             DiscoveryConfig
	Disable               DisableFlags
	ComplexityThresholds  complexity.Thresholds
	DirectoryLimits       structure.DirectoryLimits
	FileSplitMinCommunity int
	CloneConfig           clones.Config
	ScoringWeights        scoring.Weights
	ScoringThresholds     scoring.Thresholds
	NormalizationScheme   scoring.Scheme
	BayesianPriors        *scoring.BayesianPriors
	MaxDirectorySeverity  float64
	ChokepointTopK        int
	Workers               int
	CoverageReports       []coverage.FileCoverage
	CoverageMergeGapLines int
	CoverageMaxSpansPerFile int
	StopMotifPolicy       clones.RefreshPolicy
	BundledDetection      BundledDetectionConfig
}

// DefaultRunConfig returns sane defaults for every field not sourced from a
// detector package's own Default*().
func DefaultRunConfig() RunConfig {
	return RunConfig{
		ComplexityThresholds:    complexity.DefaultThresholds(),
		DirectoryLimits:         structure.DirectoryLimits{MaxFiles: 50, MaxSubdirs: 10, MaxTotalLOC: 5000},
		FileSplitMinCommunity:   2,
		CloneConfig:             clones.DefaultConfig(),
		ScoringWeights:          scoring.DefaultWeights(),
		ScoringThresholds:       scoring.DefaultThresholds(),
		NormalizationScheme:     scoring.SchemeZScore,
		MaxDirectorySeverity:    20,
		ChokepointTopK:          20,
		Workers:                 0,
		CoverageMergeGapLines:   3,
		CoverageMaxSpansPerFile: 10,
		StopMotifPolicy:         clones.DefaultRefreshPolicy(),
		BundledDetection:        DefaultBundledDetectionConfig(),
	}
}

// Orchestrator runs the full pipeline described in §4.11 over a discovered
// file set, sharing one AST cache and one string interner across every
// stage of a run.
type Orchestrator struct {
	Registry       *langs.Registry
	ASTService     *astsvc.Service
	Interner       *intern.Table
	StopMotifCache *clones.StopMotifCache
	LiveReach      clones.LiveReach
	Logger         *slog.Logger
	Tracer         trace.Tracer
	Metrics        *observability.AnalysisMetrics
	Red            *observability.REDMetrics

	arenaTracer trace.Tracer

	Config RunConfig
}

// New builds an Orchestrator with a fresh AST cache and interner, wired to
// registry. Tracer/Metrics/Red default to no-ops; callers typically call
// WireTracing with the TracerProvider returned by observability.Init, and
// override StopMotifCache/LiveReach/Logger/Metrics/Red, before calling Run.
func New(registry *langs.Registry, cfg RunConfig) *Orchestrator {
	o := &Orchestrator{
		Registry:   registry,
		ASTService: astsvc.New(registry),
		Interner:   intern.New(),
		Logger:     slog.Default(),
		Config:     cfg,
	}

	o.WireTracing(nooptrace.NewTracerProvider())

	return o
}

// WireTracing derives this pipeline's component tracers from provider:
// "valknut.pipeline" for stage/entity spans, "valknut.astsvc" and
// "valknut.arena" for the per-file parse/extract spans that
// observability.NewFilteringTracerProvider suppresses by default.
func (o *Orchestrator) WireTracing(provider trace.TracerProvider) {
	o.Tracer = provider.Tracer(tracerName)
	o.ASTService.Tracer = provider.Tracer("valknut.astsvc")
	o.arenaTracer = provider.Tracer("valknut.arena")
}

func (o *Orchestrator) workers() int64 {
	if o.Config.Workers > 0 {
		return int64(o.Config.Workers)
	}

	return int64(runtime.GOMAXPROCS(0))
}

// Run executes discovery, the per-file parallel stage, the cross-file
// aggregation stage (dependency graph, clone detection, directory
// imbalance, scoring), and returns the assembled AnalysisResults. Run
// cooperates with ctx cancellation at file boundaries (§5): a cancelled
// context yields partial results plus a warning rather than an error.
func (o *Orchestrator) Run(ctx context.Context) (report.AnalysisResults, error) {
	if o.Config.Discovery.KnownExtensions == nil {
		o.Config.Discovery.KnownExtensions = o.Registry.Extensions()
	}

	discoverCtx, discoverSpan := o.Tracer.Start(ctx, "valknut.stage.discover")
	discoverStart := time.Now()

	files, err := Discover(o.Config.Discovery)

	discoverElapsed := time.Since(discoverStart)
	o.recordStage(discoverCtx, "discover", err, discoverElapsed)
	discoverSpan.End()

	if err != nil {
		return report.Empty(), err
	}

	outcomes := make([]fileOutcome, len(files))

	fileStageCtx, fileStageSpan := o.Tracer.Start(ctx, "valknut.stage.parse")
	fileStageStart := time.Now()

	cancelled := o.runFileStage(fileStageCtx, files, outcomes)

	o.recordStage(fileStageCtx, "parse", nil, time.Since(fileStageStart))
	fileStageSpan.End()

	aggregateCtx, aggregateSpan := o.Tracer.Start(ctx, "valknut.stage.aggregate")
	stageStart := time.Now()

	results := o.aggregate(aggregateCtx, outcomes)

	aggregateElapsed := time.Since(stageStart)
	o.recordStage(aggregateCtx, "aggregate", nil, aggregateElapsed)
	aggregateSpan.End()

	results.Stats.Durations["discover"] = discoverElapsed
	results.Stats.Durations["aggregate"] = aggregateElapsed

	if cancelled {
		results.Warnings = append(results.Warnings, report.Warning{Stage: "run", Message: "pipeline cancelled before all files finished; results are partial"})
	}

	astHits, astMisses := o.ASTService.Stats()

	if o.Metrics != nil {
		o.Metrics.RecordRun(ctx, observability.AnalysisStats{
			FilesProcessed:   int64(results.Summary.FilesProcessed),
			EntitiesAnalyzed: int64(results.Summary.EntitiesAnalyzed),
			ClonePairsFound:  int64(results.Clones.PairCount),
			StageDurations:   durationsToStats(results.Stats.Durations),
			ASTCacheHits:     astHits,
			ASTCacheMisses:   astMisses,
		})
	}

	return results, nil
}

// recordStage reports a completed pipeline stage's outcome through Red, the
// orchestrator's RED metrics instrument. Safe to call with a nil Red (the
// default before WireTracing's caller also sets Metrics/Red).
func (o *Orchestrator) recordStage(ctx context.Context, stage string, err error, elapsed time.Duration) {
	if o.Red == nil {
		return
	}

	status := "ok"
	if err != nil {
		status = "error"
	}

	o.Red.RecordRequest(ctx, stage, status, elapsed)
}

func durationsToStats(d map[string]time.Duration) []observability.StageDuration {
	out := make([]observability.StageDuration, 0, len(d))
	for stage, dur := range d {
		out = append(out, observability.StageDuration{Stage: stage, Duration: dur})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Stage < out[j].Stage })

	return out
}

// runFileStage processes every discovered file on a bounded worker pool,
// writing into outcomes at each file's original index so aggregation stays
// deterministic regardless of completion order. It returns true if ctx was
// cancelled before every file finished.
func (o *Orchestrator) runFileStage(ctx context.Context, files []string, outcomes []fileOutcome) bool {
	sem := semaphore.NewWeighted(o.workers())

	group, gctx := errgroup.WithContext(ctx)

	for i, path := range files {
		i, path := i, path

		group.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			if gctx.Err() != nil {
				return gctx.Err()
			}

			outcomes[i] = o.processFile(gctx, path)

			return nil
		})
	}

	return group.Wait() != nil
}

// fileOutcome is the per-file stage output retained after the owning arena
// is released: entity summaries plus whatever each enabled detector
// extracted about those entities, per §9's "clone a minimal EntitySummary
// into the aggregate results so the arena can be freed".
type fileOutcome struct {
	path       string
	loc        int
	arenaBytes int64
	warnings   []report.Warning

	entities    []entity.Summary
	entityLines map[string][2]int

	complexity map[string]complexity.Result
	depNodes   []*dependency.Node
	fingerprints map[string]clones.Fingerprint
	classUnits map[string][]structure.SymbolSet
}

func (o *Orchestrator) processFile(ctx context.Context, path string) fileOutcome {
	ctx, span := o.Tracer.Start(ctx, "valknut.pipeline.entity", trace.WithAttributes(attribute.String("path", path)))
	defer span.End()

	out := fileOutcome{path: path, entityLines: map[string][2]int{}}

	source, readErr := os.ReadFile(path) //nolint:gosec // path comes from Discover's own walk, not user-controlled input
	if readErr != nil {
		out.warnings = append(out.warnings, report.Warning{FilePath: path, Stage: "discover", Message: readErr.Error()})

		return out
	}

	if encErr := langs.ValidateUTF8(source); encErr != nil {
		out.warnings = append(out.warnings, report.Warning{FilePath: path, Stage: "parse", Message: encErr.Error()})

		return out
	}

	if IsBundledFile(o.Config.BundledDetection, path, source) {
		out.warnings = append(out.warnings, report.Warning{FilePath: path, Stage: "discover", Message: "skipped: bundler-generated file"})

		return out
	}

	a, res := arena.Analyze(ctx, o.arenaTracer, o.ASTService, o.Registry, path, source)
	defer a.Release()

	out.loc = res.LOC
	out.arenaBytes = int64(res.ArenaBytes)

	if res.Warning != "" {
		out.warnings = append(out.warnings, report.Warning{FilePath: path, Stage: "parse", Message: res.Warning})
	}

	if len(res.Entities) == 0 {
		return out
	}

	adapter, adapterErr := o.Registry.ByName(res.Language)
	if adapterErr != nil {
		out.warnings = append(out.warnings, report.Warning{FilePath: path, Stage: "extract", Message: adapterErr.Error()})

		return out
	}

	if !o.Config.Disable.Complexity {
		out.complexity = make(map[string]complexity.Result, len(res.Entities))
	}

	if !o.Config.Disable.Clones {
		out.fingerprints = make(map[string]clones.Fingerprint, len(res.Entities))
	}

	for i, e := range res.Entities {
		node := res.EntityNodes[i]
		id := e.ID()

		out.entities = append(out.entities, e.Summarize())
		out.entityLines[id] = [2]int{e.StartLine, e.EndLine}

		if !o.Config.Disable.Complexity {
			out.complexity[id] = complexity.Analyze(e, node, o.Config.ComplexityThresholds)
		}

		if !o.Config.Disable.Dependency {
			out.depNodes = append(out.depNodes, &dependency.Node{
				ID:            id,
				QualifiedName: e.Name,
				Namespace:     dirOf(path),
				File:          path,
				Line:          e.StartLine,
				Calls:         adapter.ExtractFunctionCalls(node),
			})
		}

		if !o.Config.Disable.Clones {
			fp, fpErr := clones.BuildFingerprint(clones.EntityInput{EntityID: id, Root: node}, o.Config.CloneConfig, o.StopMotifCache, o.Interner)
			if fpErr != nil {
				out.warnings = append(out.warnings, report.Warning{FilePath: path, Stage: "clones", Message: fpErr.Error()})
			} else {
				out.fingerprints[id] = fp
			}
		}
	}

	if !o.Config.Disable.Structure {
		out.classUnits = buildClassUnits(res, adapter)
	}

	return out
}

// buildClassUnits groups each class entity's sibling method entities into
// structure.SymbolSet units for file-split cohesion analysis (§4.5): a
// method is a member of a class if its line range nests inside the class
// entity's range.
func buildClassUnits(res *arena.Result, adapter langs.Adapter) map[string][]structure.SymbolSet {
	var classes []*entity.CodeEntity

	for _, e := range res.Entities {
		if e.Kind == entity.KindClass {
			classes = append(classes, e)
		}
	}

	if len(classes) == 0 {
		return nil
	}

	out := make(map[string][]structure.SymbolSet, len(classes))

	for i, e := range res.Entities {
		if e.Kind == entity.KindClass {
			continue
		}

		owner := enclosingClass(e, classes)
		if owner == nil {
			continue
		}

		symbols := map[string]struct{}{}
		for _, id := range adapter.ExtractIdentifiers(res.EntityNodes[i]) {
			symbols[id] = struct{}{}
		}

		ownerID := owner.ID()
		out[ownerID] = append(out[ownerID], structure.SymbolSet{Name: e.Name, Symbols: symbols})
	}

	return out
}

func enclosingClass(member *entity.CodeEntity, classes []*entity.CodeEntity) *entity.CodeEntity {
	var best *entity.CodeEntity

	for _, c := range classes {
		if c.StartLine <= member.StartLine && member.EndLine <= c.EndLine {
			if best == nil || c.LineCount() < best.LineCount() {
				best = c
			}
		}
	}

	return best
}

func dirOf(path string) string {
	idx := strings.LastIndexByte(path, '/')
	if idx < 0 {
		return "."
	}

	return path[:idx]
}
