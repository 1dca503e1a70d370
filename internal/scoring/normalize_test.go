package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_ZScoreCentersOnMean(t *testing.T) {
	t.Parallel()

	out := Normalize([]float64{1, 2, 3, 4, 5}, SchemeZScore, nil)

	assert.InDelta(t, 0, out[2], 1e-9, "median of a symmetric sample has zero z-score")
	assert.Less(t, out[0], 0.0)
	assert.Greater(t, out[4], 0.0)
}

func TestNormalize_ZScoreZeroVarianceIsZero(t *testing.T) {
	t.Parallel()

	out := Normalize([]float64{5, 5, 5}, SchemeZScore, nil)

	assert.Equal(t, 0.0, out[0])
	assert.Equal(t, 0.0, out[2])
}

func TestNormalize_MinMaxBoundsZeroOne(t *testing.T) {
	t.Parallel()

	out := Normalize([]float64{10, 20, 30}, SchemeMinMax, nil)

	assert.Equal(t, 0.0, out[0])
	assert.Equal(t, 1.0, out[2])
	assert.InDelta(t, 0.5, out[1], 1e-9)
}

func TestNormalize_MinMaxIdenticalValues(t *testing.T) {
	t.Parallel()

	out := Normalize([]float64{4, 4, 4}, SchemeMinMax, nil)

	for _, v := range out {
		assert.Equal(t, 0.0, v)
	}
}

func TestNormalize_RobustResistsOutlier(t *testing.T) {
	t.Parallel()

	values := []float64{1, 2, 3, 4, 1000}

	robust := Normalize(values, SchemeRobust, nil)
	zscore := Normalize(values, SchemeZScore, nil)

	// The outlier inflates the z-score stddev and squeezes the non-outlier
	// points toward zero; the median/IQR spread ignores it, so those points
	// keep a larger magnitude under the robust scheme (1.0 vs about 0.5).
	assert.Greater(t, abs(robust[0]), abs(zscore[0]))
}

func TestNormalize_BayesianUsesZScoreAboveMinSampleSize(t *testing.T) {
	t.Parallel()

	priors := &BayesianPriors{MinSampleSize: 3, PriorMean: 0, PriorStdDev: 1, PriorWeight: 0.5}
	values := []float64{1, 2, 3, 4, 5}

	bayesian := Normalize(values, SchemeBayesian, priors)
	zscore := Normalize(values, SchemeZScore, nil)

	assert.Equal(t, zscore, bayesian)
}

func TestNormalize_BayesianBlendsPriorBelowMinSampleSize(t *testing.T) {
	t.Parallel()

	priors := &BayesianPriors{MinSampleSize: 10, PriorMean: 0, PriorStdDev: 1, PriorWeight: 1.0}
	values := []float64{50, 60}

	out := Normalize(values, SchemeBayesian, priors)

	// PriorWeight 1.0 fully trusts the prior (mean 0, stddev 1), so the
	// blended z-score should be large relative to a same-sample observed
	// z-score, which would be near +-1.
	assert.Greater(t, abs(out[0]), 10.0)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}

	return v
}
