// Package render renders an AnalysisResults as a colorized console report
// (--format pretty). Grounded on the teacher's
// internal/analyzers/common/formatter.go (go-pretty/v6/table usage) and
// pkg/analyzers/common/terminal (width detection, NO_COLOR handling).
package render

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/sibyllinesoft/valknut/internal/detect/refactoring"
	"github.com/sibyllinesoft/valknut/internal/report"
)

// DefaultWidth matches the teacher terminal package's fallback width.
const DefaultWidth = 80

// Width returns the terminal width from COLUMNS, falling back to
// DefaultWidth.
func Width() int {
	if v := os.Getenv("COLUMNS"); v != "" {
		if w, err := strconv.Atoi(v); err == nil {
			return w
		}
	}

	return DefaultWidth
}

// NoColor reports whether NO_COLOR is set in the environment.
func NoColor() bool {
	return os.Getenv("NO_COLOR") != ""
}

var priorityColor = map[refactoring.Priority]*color.Color{
	refactoring.PriorityCritical: color.New(color.FgRed, color.Bold),
	refactoring.PriorityHigh:     color.New(color.FgRed),
	refactoring.PriorityMedium:   color.New(color.FgYellow),
	refactoring.PriorityLow:      color.New(color.FgGreen),
	refactoring.PriorityNone:     color.New(color.FgWhite),
}

// Render writes a pretty-format console report for results to w.
func Render(results report.AnalysisResults, w io.Writer, noColor bool) error {
	if noColor {
		color.NoColor = true
	}

	fmt.Fprintf(w, "Valknut analysis: %d files, %d entities, health %.0f%%\n",
		results.Summary.FilesProcessed, results.Summary.EntitiesAnalyzed, results.Summary.HealthScore*100)

	renderPriorityTable(results, w)
	renderFileGroups(results, w)
	renderWarnings(results, w)

	return nil
}

func renderPriorityTable(results report.AnalysisResults, w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Priority", "Count"})

	for _, p := range []refactoring.Priority{
		refactoring.PriorityCritical, refactoring.PriorityHigh, refactoring.PriorityMedium,
		refactoring.PriorityLow, refactoring.PriorityNone,
	} {
		count := results.Summary.PriorityCounts[p]
		if count == 0 {
			continue
		}

		label := colorize(p, string(p))
		t.AppendRow(table.Row{label, count})
	}

	t.Render()
}

func renderFileGroups(results report.AnalysisResults, w io.Writer) {
	if len(results.FileGroups) == 0 {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"File", "Worst priority", "Candidates"})

	for _, g := range results.FileGroups {
		t.AppendRow(table.Row{g.FilePath, colorize(g.HighestPriority, string(g.HighestPriority)), len(g.Candidates)})
	}

	t.Render()
}

func renderWarnings(results report.AnalysisResults, w io.Writer) {
	if len(results.Warnings) == 0 {
		return
	}

	warn := color.New(color.FgYellow)

	fmt.Fprintln(w, warn.Sprint("warnings:"))

	for _, wrn := range results.Warnings {
		fmt.Fprintf(w, "  %s (%s): %s\n", wrn.FilePath, wrn.Stage, wrn.Message)
	}
}

func colorize(p refactoring.Priority, text string) string {
	c, ok := priorityColor[p]
	if !ok {
		return text
	}

	return c.Sprint(text)
}
