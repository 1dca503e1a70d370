package render

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sibyllinesoft/valknut/internal/detect/refactoring"
	"github.com/sibyllinesoft/valknut/internal/report"
)

func TestRender_IncludesSummaryLine(t *testing.T) {
	t.Parallel()

	results := report.AnalysisResults{
		Summary: report.Summary{
			FilesProcessed:   2,
			EntitiesAnalyzed: 5,
			HealthScore:      0.875,
			PriorityCounts:   map[refactoring.Priority]int{refactoring.PriorityHigh: 1},
		},
	}

	var buf bytes.Buffer

	err := Render(results, &buf, true)

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "2 files")
	assert.Contains(t, buf.String(), "88%")
}

func TestRender_ListsWarnings(t *testing.T) {
	t.Parallel()

	results := report.AnalysisResults{
		Summary:  report.Summary{PriorityCounts: map[refactoring.Priority]int{}},
		Warnings: []report.Warning{{FilePath: "a.go", Stage: "parse", Message: "syntax error"}},
	}

	var buf bytes.Buffer

	err := Render(results, &buf, true)

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "a.go")
	assert.Contains(t, buf.String(), "syntax error")
}
