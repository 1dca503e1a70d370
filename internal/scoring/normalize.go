// Package scoring normalizes per-entity feature vectors and derives a
// composite priority from the normalized, weighted sum (§4.10). Grounded
// on pkg/alg/stats's Mean/MeanStdDev/Percentile helpers, reimplemented
// here for the feature-vector shape this spec requires.
package scoring

import (
	"math"
	"sort"
)

// Scheme selects a normalization strategy (§4.10).
type Scheme string

// Canonical normalization schemes.
const (
	SchemeZScore  Scheme = "zscore"
	SchemeMinMax  Scheme = "minmax"
	SchemeRobust  Scheme = "robust"
	SchemeBayesian Scheme = "bayesian"
)

// mean returns the arithmetic mean of values, 0 for an empty slice.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sum float64

	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}

// meanStdDev returns the population mean and standard deviation.
func meanStdDev(values []float64) (m, stddev float64) {
	if len(values) == 0 {
		return 0, 0
	}

	m = mean(values)

	var sumSq float64

	for _, v := range values {
		diff := v - m
		sumSq += diff * diff
	}

	return m, math.Sqrt(sumSq / float64(len(values)))
}

// percentile returns the p-th percentile (p in [0,1]) using linear
// interpolation over a sorted copy of values.
func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	idx := p * float64(len(sorted)-1)
	lower := int(math.Floor(idx))
	upper := int(math.Ceil(idx))

	if lower == upper || upper >= len(sorted) {
		return sorted[lower]
	}

	frac := idx - float64(lower)

	return sorted[lower]*(1-frac) + sorted[upper]*frac
}

func median(values []float64) float64 { return percentile(values, 0.5) }

// zScoreMaxSentinel caps a z-score when the population has zero variance
// but a value still differs from the mean, avoiding a divide-by-zero blowup.
const zScoreMaxSentinel = 100.0

// BayesianPriors supplies population-level priors used when a feature's
// observed sample size is below MinSampleSize (§4.10).
type BayesianPriors struct {
	MinSampleSize int
	PriorMean     float64
	PriorStdDev   float64
	// PriorWeight controls how much the prior is trusted relative to the
	// observed sample as sample size grows toward MinSampleSize.
	PriorWeight float64
}

// Normalize maps values onto a common scale according to scheme. For
// SchemeBayesian, priors must be non-nil.
func Normalize(values []float64, scheme Scheme, priors *BayesianPriors) []float64 {
	switch scheme {
	case SchemeZScore:
		return normalizeZScore(values)
	case SchemeMinMax:
		return normalizeMinMax(values)
	case SchemeRobust:
		return normalizeRobust(values)
	case SchemeBayesian:
		return normalizeBayesian(values, priors)
	default:
		return normalizeZScore(values)
	}
}

func normalizeZScore(values []float64) []float64 {
	m, stddev := meanStdDev(values)

	out := make([]float64, len(values))

	for i, v := range values {
		if stddev == 0 {
			if v == m {
				out[i] = 0
			} else if v > m {
				out[i] = zScoreMaxSentinel
			} else {
				out[i] = -zScoreMaxSentinel
			}

			continue
		}

		out[i] = (v - m) / stddev
	}

	return out
}

func normalizeMinMax(values []float64) []float64 {
	if len(values) == 0 {
		return nil
	}

	lo, hi := values[0], values[0]

	for _, v := range values {
		if v < lo {
			lo = v
		}

		if v > hi {
			hi = v
		}
	}

	out := make([]float64, len(values))

	span := hi - lo
	if span == 0 {
		return out // every value identical: normalized to 0 across the board
	}

	for i, v := range values {
		out[i] = (v - lo) / span
	}

	return out
}

// normalizeRobust scales by the median and interquartile range, resistant
// to outliers skewing the mean/stddev used by z-score.
func normalizeRobust(values []float64) []float64 {
	med := median(values)
	q1 := percentile(values, 0.25)
	q3 := percentile(values, 0.75)
	iqr := q3 - q1

	out := make([]float64, len(values))

	for i, v := range values {
		if iqr == 0 {
			out[i] = 0

			continue
		}

		out[i] = (v - med) / iqr
	}

	return out
}

// normalizeBayesian shrinks small-sample z-scores toward a configured
// prior mean/stddev, per §4.10's "Bayesian variants that use priors when
// sample size falls below min_sample_size".
func normalizeBayesian(values []float64, priors *BayesianPriors) []float64 {
	if priors == nil {
		return normalizeZScore(values)
	}

	n := len(values)
	if n >= priors.MinSampleSize {
		return normalizeZScore(values)
	}

	m, stddev := meanStdDev(values)

	weight := priors.PriorWeight
	if weight < 0 {
		weight = 0
	}

	if weight > 1 {
		weight = 1
	}

	blendedMean := weight*priors.PriorMean + (1-weight)*m
	blendedStdDev := weight*priors.PriorStdDev + (1-weight)*stddev

	out := make([]float64, n)

	for i, v := range values {
		if blendedStdDev == 0 {
			out[i] = 0

			continue
		}

		out[i] = (v - blendedMean) / blendedStdDev
	}

	return out
}
