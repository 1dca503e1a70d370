package pipeline

import (
	"path/filepath"
	"strings"
)

// BundledDetectionConfig controls skipping of bundler-generated JS/TS output
// (webpack, esbuild, rollup, parcel) before it reaches a language adapter.
// Bundled files are huge, minified, and machine-generated: every detector
// this pipeline runs (complexity, clones, structure) would score them as
// pathological outliers without ever surfacing a real refactoring
// opportunity, so they're filtered at discovery time instead of downweighted
// downstream.
type BundledDetectionConfig struct {
	Enabled bool
	// ScanLimitBytes caps how much of a file's head is scanned for a
	// bundler signature; bundler runtime/bootstrap code is always emitted
	// first, so a few KB is enough.
	ScanLimitBytes int
}

// DefaultBundledDetectionConfig matches the scan window and file-extension
// set a bundled-JS/TS detector needs in practice.
func DefaultBundledDetectionConfig() BundledDetectionConfig {
	return BundledDetectionConfig{Enabled: true, ScanLimitBytes: 4096}
}

var bundledExtensions = map[string]bool{
	".js": true, ".mjs": true, ".cjs": true,
	".jsx": true, ".ts": true, ".tsx": true, ".mts": true, ".cts": true,
}

// bundlerSignatures are substrings that only appear in bundler-emitted
// runtime/bootstrap code, never in hand-written source.
var bundlerSignatures = []string{
	// webpack
	"__webpack_require__", "__webpack_exports__", "__webpack_modules__", "webpackJsonp",
	// esbuild
	"__toESM(", "__toCommonJS(", "__export(", "__commonJS(",
	// Parcel
	"parcelRequire", "parcelRegister",
	// Rollup's CommonJS interop marker
	`Object.defineProperty(exports, "__esModule"`, "Object.defineProperty(exports, '__esModule'",
}

// IsBundledFile reports whether path's extension is JS/TS and source's head
// (up to cfg.ScanLimitBytes) contains a known bundler runtime signature.
func IsBundledFile(cfg BundledDetectionConfig, path string, source []byte) bool {
	if !cfg.Enabled {
		return false
	}

	if !bundledExtensions[strings.ToLower(filepath.Ext(path))] {
		return false
	}

	limit := cfg.ScanLimitBytes
	if limit <= 0 || limit > len(source) {
		limit = len(source)
	}

	head := string(source[:limit])

	for _, sig := range bundlerSignatures {
		if strings.Contains(head, sig) {
			return true
		}
	}

	return false
}
