// Package structure implements the two independent analyses of §4.5:
// directory imbalance (Gini/entropy/pressure) and file-split cohesion
// communities, grounded on pkg/mathutil, pkg/alg/stats, and
// pkg/analyzers/cohesion/calculations.go's Jaccard-over-symbols approach.
package structure

import (
	"math"
	"sort"
)

// DirectoryLimits bounds the "pressure" terms against configured maxima.
type DirectoryLimits struct {
	MaxFiles       int
	MaxSubdirs     int
	MaxTotalLOC    int
}

// DirectoryStats is the raw per-directory input to Imbalance.
type DirectoryStats struct {
	Path        string
	FileCount   int
	SubdirCount int
	FileLOC     []int // LOC per file directly in this directory
}

// Imbalance is the computed directory-imbalance score for one directory.
type Imbalance struct {
	Path             string
	Gini             float64
	Entropy          float64
	FilePressure     float64
	BranchPressure   float64
	SizePressure     float64
	Dispersion       float64
	RawImbalance     float64
	Normalization    float64
	Score            float64
}

// Gini computes the Gini coefficient of a LOC distribution in O(n log n)
// via the standard sorted-cumulative formula.
func Gini(values []int) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}

	sorted := make([]int, n)
	copy(sorted, values)
	sort.Ints(sorted)

	var sumAbsDiff, sum float64

	for i, v := range sorted {
		sum += float64(v)
		sumAbsDiff += float64(2*(i+1)-n-1) * float64(v)
	}

	if sum == 0 {
		return 0
	}

	return sumAbsDiff / (float64(n) * sum)
}

// Entropy computes Shannon entropy (base 2) of a LOC distribution treated
// as a probability mass function over files. It is a pure, deterministic,
// single-threaded reduction, and the pipeline's structure stage calls it for
// one directory at a time.
func Entropy(values []int) float64 {
	total := 0
	for _, v := range values {
		total += v
	}

	if total == 0 {
		return 0
	}

	var h float64

	for _, v := range values {
		if v == 0 {
			continue
		}

		p := float64(v) / float64(total)
		h -= p * math.Log2(p)
	}

	return h
}

// MaxEntropy returns the maximum possible entropy for n equally-weighted
// files, used to normalize Entropy into a [0,1] dispersion measure.
func MaxEntropy(n int) float64 {
	if n <= 1 {
		return 0
	}

	return math.Log2(float64(n))
}

// sizeNormalization implements the spec's size-normalization factor:
// 1 + 0.5*tanh((ln(1+f/10)/ln(10) + ln(1+L/1000)/ln(1000)) / 2).
func sizeNormalization(fileCount, totalLOC int) float64 {
	fTerm := math.Log(1+float64(fileCount)/10) / math.Log(10)
	lTerm := math.Log(1+float64(totalLOC)/1000) / math.Log(1000)

	return 1 + 0.5*math.Tanh((fTerm+lTerm)/2)
}

// Analyze computes the directory imbalance score for a single directory per
// §4.5: raw = 0.35*file + 0.25*branch + 0.25*size + 0.15*dispersion,
// scaled by the size-normalization factor.
func Analyze(stats DirectoryStats, limits DirectoryLimits) Imbalance {
	totalLOC := 0
	for _, loc := range stats.FileLOC {
		totalLOC += loc
	}

	gini := Gini(stats.FileLOC)
	entropy := Entropy(stats.FileLOC)
	maxH := MaxEntropy(len(stats.FileLOC))

	dispersion := gini
	if maxH > 0 {
		dispersion = math.Max(gini, 1-entropy/maxH)
	}

	filePressure := pressure(stats.FileCount, limits.MaxFiles)
	branchPressure := pressure(stats.SubdirCount, limits.MaxSubdirs)
	sizePressure := pressure(totalLOC, limits.MaxTotalLOC)

	raw := 0.35*filePressure + 0.25*branchPressure + 0.25*sizePressure + 0.15*dispersion
	norm := sizeNormalization(stats.FileCount, totalLOC)

	return Imbalance{
		Path:           stats.Path,
		Gini:           gini,
		Entropy:        entropy,
		FilePressure:   filePressure,
		BranchPressure: branchPressure,
		SizePressure:   sizePressure,
		Dispersion:     dispersion,
		RawImbalance:   raw,
		Normalization:  norm,
		Score:          raw * norm,
	}
}

func pressure(value, max int) float64 {
	if max <= 0 {
		return 0
	}

	return math.Min(1.0, float64(value)/float64(max))
}
