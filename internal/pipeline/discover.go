// Package pipeline is the stage orchestrator (§4.10-4.12): file discovery,
// the per-file state machine, parallel staged execution over a shared
// arena-backed AST cache, and result aggregation via internal/report's
// merge combinators. Grounded on the teacher's pkg/framework/runner.go
// (Initialize/ProcessChunk/Finalize lifecycle, OTel span-per-stage), with
// the hand-rolled leafWorker/workChan fan-out replaced by
// golang.org/x/sync's errgroup+semaphore, since this pipeline's unit of
// parallel work is "one file" rather than "one commit dispatched to N
// pre-forked analyzer replicas" — there is nothing here to Fork/Merge.
package pipeline

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DiscoveryConfig controls which files Discover returns (§4.10).
type DiscoveryConfig struct {
	Root            string
	IncludeGlobs    []string // e.g. "**/*.go"; empty means "all known extensions"
	ExcludeGlobs    []string
	ExcludeDirs     []string // directory base names to skip entirely, e.g. "node_modules", ".git"
	KnownExtensions []string // extensions the language registry can parse, e.g. ".go", ".py"
}

// DefaultExcludeDirs matches the spec's stated default ignore set (build
// artifacts and VCS directories).
func DefaultExcludeDirs() []string {
	return []string{".git", "node_modules", "vendor", "dist", "build", "target", ".venv", "__pycache__"}
}

// Discover walks cfg.Root and returns every file path passing the
// ignore/include rules, sorted for deterministic downstream processing.
// Grounded on the teacher pattern of sorting work before dispatch (Runner
// processes commits in caller-supplied order); here the file list itself
// must be sorted since os.ReadDir / filepath.WalkDir order is
// platform-dependent only for directories, not guaranteed across OSes for
// this spec's purposes.
func Discover(cfg DiscoveryConfig) ([]string, error) {
	excludeDirs := make(map[string]bool, len(cfg.ExcludeDirs))
	for _, d := range cfg.ExcludeDirs {
		excludeDirs[d] = true
	}

	var out []string

	walkErr := filepath.WalkDir(cfg.Root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path != cfg.Root && excludeDirs[d.Name()] {
				return filepath.SkipDir
			}

			return nil
		}

		if !matchesConfig(path, cfg) {
			return nil
		}

		out = append(out, path)

		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	sort.Strings(out)

	return out, nil
}

func matchesConfig(path string, cfg DiscoveryConfig) bool {
	if len(cfg.KnownExtensions) > 0 && !hasKnownExtension(path, cfg.KnownExtensions) {
		return false
	}

	for _, g := range cfg.ExcludeGlobs {
		if globMatch(g, path) {
			return false
		}
	}

	if len(cfg.IncludeGlobs) == 0 {
		return true
	}

	for _, g := range cfg.IncludeGlobs {
		if globMatch(g, path) {
			return true
		}
	}

	return false
}

func hasKnownExtension(path string, exts []string) bool {
	ext := filepath.Ext(path)
	for _, e := range exts {
		if strings.EqualFold(ext, e) {
			return true
		}
	}

	return false
}

// globMatch matches pattern against path using filepath.Match on both the
// full path and the base name, giving simple "*.go" and "internal/*.go"
// style patterns the behavior users expect without a third-party glob
// dependency (no pack repo carries a double-star glob library; "**"
// segments degrade to a single-level "*" match against the base name).
func globMatch(pattern, path string) bool {
	if ok, err := filepath.Match(pattern, path); err == nil && ok {
		return true
	}

	base := filepath.Base(path)
	simplified := strings.ReplaceAll(pattern, "**/", "")

	ok, err := filepath.Match(simplified, base)

	return err == nil && ok
}
