package coverage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectFormat_LCOVBySFMarker(t *testing.T) {
	t.Parallel()

	f := DetectFormat("coverage.info", []byte("SF:foo.go\nDA:1,1\n"))
	assert.Equal(t, FormatLCOV, f)
}

func TestDetectFormat_CoberturaByXMLMarkers(t *testing.T) {
	t.Parallel()

	f := DetectFormat("coverage.xml", []byte(`<coverage line-rate="1.0"><packages>`))
	assert.Equal(t, FormatCobertura, f)
}

func TestParseLCOV_BuildsFileCoverage(t *testing.T) {
	t.Parallel()

	input := "SF:src/foo.go\nDA:1,1\nDA:2,0\nDA:3,0\nend_of_record\n"

	files, err := ParseLCOV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "src/foo.go", files[0].Path)
	assert.Len(t, files[0].Lines, 3)
}

func TestBuildSpans_MergesAdjacentGaps(t *testing.T) {
	t.Parallel()

	fc := FileCoverage{
		Path: "foo.go",
		Lines: []LineCoverage{
			{Line: 1, Hits: 1},
			{Line: 2, Hits: 0},
			{Line: 3, Hits: 0},
			{Line: 4, Hits: 0},
			{Line: 5, Hits: 1},
			{Line: 8, Hits: 0},
		},
	}

	spans := BuildSpans(fc, 0)
	require.Len(t, spans, 2)
	assert.Equal(t, 2, spans[0].StartLine)
	assert.Equal(t, 4, spans[0].EndLine)
	assert.Equal(t, 8, spans[1].StartLine)
}

func TestSplitOnFunctionBoundaries_SplitsAtStarts(t *testing.T) {
	t.Parallel()

	span := UncoveredSpan{Path: "foo.py", StartLine: 1, EndLine: 10}

	parts := SplitOnFunctionBoundaries(span, []int{5})
	require.Len(t, parts, 2)
	assert.Equal(t, 4, parts[0].EndLine)
	assert.Equal(t, 5, parts[1].StartLine)
}

func TestFileCentrality_EntryPointHigherThanTest(t *testing.T) {
	t.Parallel()

	assert.Greater(t, FileCentrality("pkg/__init__.py"), FileCentrality("pkg/foo_test.go"))
}

func TestScoreGap_LargerGapScoresHigher(t *testing.T) {
	t.Parallel()

	small := ScoreGap(GapFeatures{Size: 2, Centrality: 0.5, DocsPresent: true})
	large := ScoreGap(GapFeatures{Size: 50, Cyclomatic: 10, FanIn: 8, Centrality: 0.9})

	assert.Greater(t, large.Score, small.Score)
}

// TestScoreGap_UncoveredFunctionScoresAsCandidate mirrors the documented
// scenario: an LCOV file marking lines 2-7 of an 8-line file as uncovered
// (one function spanning those 6 lines, cyclomatic=5) must score as a
// clear refactoring candidate, not just rank above a trivial gap.
func TestScoreGap_UncoveredFunctionScoresAsCandidate(t *testing.T) {
	t.Parallel()

	gap := ScoreGap(GapFeatures{
		Size:        6,
		Cyclomatic:  5,
		Centrality:  defaultCentrality,
		DocsPresent: false,
	})

	assert.Greater(t, gap.NormSize, 0.5, "size-score should exceed 0.5 for a 6-line uncovered function")
	assert.Greater(t, gap.Score, 0.6, "composite score should exceed 0.6 for this gap")
}

func TestBuildCoveragePack_SortsAndTruncates(t *testing.T) {
	t.Parallel()

	spans := []ScoredSpan{
		{Span: UncoveredSpan{StartLine: 1, EndLine: 1}, Score: GapScore{Score: 0.2}},
		{Span: UncoveredSpan{StartLine: 2, EndLine: 2}, Score: GapScore{Score: 0.9}},
		{Span: UncoveredSpan{StartLine: 3, EndLine: 3}, Score: GapScore{Score: 0.5}},
	}

	pack := BuildCoveragePack("foo.go", spans, 2)
	require.Len(t, pack.Spans, 2)
	assert.Equal(t, 0.9, pack.Spans[0].Score.Score)
	assert.Equal(t, 0.5, pack.Spans[1].Score.Score)
}

func TestPreviewSpan_ShortGapIncludesContext(t *testing.T) {
	t.Parallel()

	lines := []string{"a", "b", "c", "d", "e"}
	preview := PreviewSpan(lines, UncoveredSpan{StartLine: 2, EndLine: 3})

	assert.Contains(t, preview, "a")
	assert.Contains(t, preview, "d")
}

func TestPreviewSpan_LongGapElides(t *testing.T) {
	t.Parallel()

	lines := make([]string, 100)
	for i := range lines {
		lines[i] = "line"
	}

	preview := PreviewSpan(lines, UncoveredSpan{StartLine: 1, EndLine: 100})
	assert.Contains(t, preview, "elided")
}
