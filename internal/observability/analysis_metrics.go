package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricFilesTotal       = "valknut.analysis.files.total"
	metricEntitiesTotal    = "valknut.analysis.entities.total"
	metricClonePairsTotal  = "valknut.analysis.clone_pairs.total"
	metricStageDuration    = "valknut.analysis.stage.duration.seconds"
	metricCacheHitsTotal   = "valknut.analysis.cache.hits.total"
	metricCacheMissesTotal = "valknut.analysis.cache.misses.total"

	attrCache = "cache"
	attrStage = "stage"
)

// AnalysisMetrics holds OTel instruments for per-run analysis metrics:
// files processed, entities extracted, clone pairs found, and per-stage
// duration (§5's concurrency model names these as the run's headline
// counters).
type AnalysisMetrics struct {
	filesTotal      metric.Int64Counter
	entitiesTotal   metric.Int64Counter
	clonePairsTotal metric.Int64Counter
	stageDuration   metric.Float64Histogram
	cacheHits       metric.Int64Counter
	cacheMisses     metric.Int64Counter
}

// StageDuration names one pipeline stage's cumulative wall time for a run,
// e.g. {Stage: "complexity", Duration: 1.2s}.
type StageDuration struct {
	Stage    string
	Duration time.Duration
}

// AnalysisStats holds the statistics for a single pipeline run, decoupled
// from the pipeline package's internal types.
type AnalysisStats struct {
	FilesProcessed   int64
	EntitiesAnalyzed int64
	ClonePairsFound  int64
	StageDurations   []StageDuration
	// ASTCacheHits/ASTCacheMisses track astsvc.Service's parse-result cache
	// (keyed by content hash), the one cache this pipeline shares across
	// stages.
	ASTCacheHits   int64
	ASTCacheMisses int64
	// StopMotifCacheHits/StopMotifCacheMisses track the clone detector's
	// self-learning stop-motif cache.
	StopMotifCacheHits   int64
	StopMotifCacheMisses int64
}

// NewAnalysisMetrics creates analysis metric instruments from the given
// meter.
func NewAnalysisMetrics(mt metric.Meter) (*AnalysisMetrics, error) {
	b := newMetricBuilder(mt)

	am := &AnalysisMetrics{
		filesTotal:      b.counter(metricFilesTotal, "Total files processed", "{file}"),
		entitiesTotal:   b.counter(metricEntitiesTotal, "Total entities extracted", "{entity}"),
		clonePairsTotal: b.counter(metricClonePairsTotal, "Total clone pairs found", "{pair}"),
		stageDuration:   b.histogram(metricStageDuration, "Per-stage processing duration in seconds", "s", durationBucketBoundaries...),
		cacheHits:       b.counter(metricCacheHitsTotal, "Cache hits by cache name", "{hit}"),
		cacheMisses:     b.counter(metricCacheMissesTotal, "Cache misses by cache name", "{miss}"),
	}

	if b.err != nil {
		return nil, b.err
	}

	return am, nil
}

// RecordRun records analysis statistics for a completed pipeline run. Safe
// to call on a nil receiver (no-op), matching the teacher's
// nil-receiver-safe instrument pattern.
func (am *AnalysisMetrics) RecordRun(ctx context.Context, stats AnalysisStats) {
	if am == nil {
		return
	}

	am.filesTotal.Add(ctx, stats.FilesProcessed)
	am.entitiesTotal.Add(ctx, stats.EntitiesAnalyzed)
	am.clonePairsTotal.Add(ctx, stats.ClonePairsFound)

	for _, sd := range stats.StageDurations {
		am.stageDuration.Record(ctx, sd.Duration.Seconds(), metric.WithAttributes(attribute.String(attrStage, sd.Stage)))
	}

	astAttrs := metric.WithAttributes(attribute.String(attrCache, "ast"))
	am.cacheHits.Add(ctx, stats.ASTCacheHits, astAttrs)
	am.cacheMisses.Add(ctx, stats.ASTCacheMisses, astAttrs)

	stopMotifAttrs := metric.WithAttributes(attribute.String(attrCache, "stop_motif"))
	am.cacheHits.Add(ctx, stats.StopMotifCacheHits, stopMotifAttrs)
	am.cacheMisses.Add(ctx, stats.StopMotifCacheMisses, stopMotifAttrs)
}
