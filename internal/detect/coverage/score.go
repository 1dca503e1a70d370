package coverage

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// centralityHints maps filename/path substrings to the file-centrality
// heuristic score, per §4.7's fixed lookup table.
var centralityHints = []struct {
	substr string
	score  float64
}{
	{"lib.rs", 0.9},
	{"main.rs", 0.9},
	{"__init__.py", 0.9},
	{"index.", 0.9},
	{"core/", 0.7},
	{"base/", 0.7},
	{"common/", 0.7},
	{"util", 0.7},
	{"test", 0.2},
}

const defaultCentrality = 0.5

// FileCentrality implements the fixed substring-lookup heuristic from
// §4.7: structural entry points score highest, test files lowest, and
// everything else takes the default.
func FileCentrality(path string) float64 {
	lower := strings.ToLower(path)

	for _, hint := range centralityHints {
		if strings.Contains(lower, hint.substr) {
			return hint.score
		}
	}

	return defaultCentrality
}

// GapFeatures are the raw, unnormalized inputs to a gap's score.
type GapFeatures struct {
	Size               int
	Cyclomatic         int
	Cognitive          int
	FanIn              int
	ExportsTouched     bool
	Centrality         float64
	DocsPresent        bool
	ExceptionDensity   float64
}

// saturate implements the size/complexity normalization 1 - exp(-x/k).
func saturate(x float64, k float64) float64 {
	return 1 - math.Exp(-x/k)
}

// fanInSaturation implements the fan-in-specific saturation x/(x+5).
func fanInSaturation(x float64) float64 {
	return x / (x + 5)
}

// sizeNormK/complexityNormK set how quickly size/complexity saturate
// toward 1. A 6-line gap with cyclomatic=5 (the documented "uncovered
// lines 2-7 of an 8-line file" scenario) must already score as a clear
// candidate (size-score > 0.5, composite > 0.6) rather than needing a
// much larger gap to stand out.
const (
	sizeNormK       = 3.0
	complexityNormK = 2.0
)

// GapScore is the weighted composite score from §4.7 plus its components,
// kept for explainability in reports.
type GapScore struct {
	NormSize       float64
	NormComplexity float64
	NormFanIn      float64
	Exports        float64
	Centrality     float64
	DocsPenalty    float64
	Score          float64
}

// ScoreGap computes the §4.7 weighted composite:
// 0.40*normSize + 0.20*normComplexity + 0.15*normFanIn + 0.10*exports +
// 0.10*centrality + 0.05*(1-docs).
func ScoreGap(f GapFeatures) GapScore {
	normSize := saturate(float64(f.Size), sizeNormK)
	normComplexity := saturate(float64(f.Cyclomatic+f.Cognitive), complexityNormK)
	normFanIn := fanInSaturation(float64(f.FanIn))

	exports := 0.0
	if f.ExportsTouched {
		exports = 1.0
	}

	docs := 0.0
	if f.DocsPresent {
		docs = 1.0
	}

	score := 0.40*normSize + 0.20*normComplexity + 0.15*normFanIn +
		0.10*exports + 0.10*f.Centrality + 0.05*(1-docs)

	return GapScore{
		NormSize:       normSize,
		NormComplexity: normComplexity,
		NormFanIn:      normFanIn,
		Exports:        exports,
		Centrality:     f.Centrality,
		DocsPenalty:    1 - docs,
		Score:          score,
	}
}

// ScoredSpan pairs an UncoveredSpan with its computed score and a source
// preview for reporting.
type ScoredSpan struct {
	Span    UncoveredSpan
	Score   GapScore
	Preview string
}

// CoveragePack bundles a file's ranked, truncated gaps with previews.
type CoveragePack struct {
	Path  string
	Spans []ScoredSpan
}

// BuildCoveragePack sorts scored spans descending by score and truncates to
// maxSpans, implementing §4.7's "sorted, truncated per file" rule.
func BuildCoveragePack(path string, spans []ScoredSpan, maxSpans int) CoveragePack {
	sorted := make([]ScoredSpan, len(spans))
	copy(sorted, spans)

	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Score.Score > sorted[j].Score.Score })

	if maxSpans > 0 && len(sorted) > maxSpans {
		sorted = sorted[:maxSpans]
	}

	return CoveragePack{Path: path, Spans: sorted}
}

const (
	previewContextLines = 3
	previewHeadTailLines = 5
)

// PreviewSpan renders a context-windowed preview of a span: full span plus
// context lines if short, head/tail windowing with an elision marker for
// long gaps, per §4.7's "head/tail windowing for long gaps".
func PreviewSpan(sourceLines []string, span UncoveredSpan) string {
	start := span.StartLine - previewContextLines
	if start < 1 {
		start = 1
	}

	end := span.EndLine + previewContextLines
	if end > len(sourceLines) {
		end = len(sourceLines)
	}

	if span.LineCount() <= previewHeadTailLines*2 {
		return strings.Join(sliceLines(sourceLines, start, end), "\n")
	}

	headEnd := span.StartLine + previewHeadTailLines - 1
	tailStart := span.EndLine - previewHeadTailLines + 1

	var b strings.Builder

	b.WriteString(strings.Join(sliceLines(sourceLines, start, headEnd), "\n"))
	b.WriteString("\n... (")
	b.WriteString(strconv.Itoa(maxInt(tailStart-headEnd-1, 0)))
	b.WriteString(" lines elided) ...\n")
	b.WriteString(strings.Join(sliceLines(sourceLines, tailStart, end), "\n"))

	return b.String()
}

func sliceLines(lines []string, start, end int) []string {
	if start < 1 {
		start = 1
	}

	if end > len(lines) {
		end = len(lines)
	}

	if start > end {
		return nil
	}

	return lines[start-1 : end]
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}

	return b
}
