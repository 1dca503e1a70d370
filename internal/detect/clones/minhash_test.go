package clones

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignature_Determinism(t *testing.T) {
	t.Parallel()

	build := func() *Signature {
		sig, err := NewSignature(16)
		require.NoError(t, err)

		for _, tok := range []string{"alpha", "beta", "gamma"} {
			sig.Add([]byte(tok), 2.0)
		}

		return sig
	}

	a := build()
	b := build()

	assert.Equal(t, a.MatchingPositions(b), 16, "identical inputs must yield byte-identical signatures")
}

func TestSignature_ZeroHashesRejected(t *testing.T) {
	t.Parallel()

	_, err := NewSignature(0)
	assert.ErrorIs(t, err, ErrZeroNumHashes)
}

func TestSignature_JaccardEstimate_IdenticalSetsIsOne(t *testing.T) {
	t.Parallel()

	a, _ := NewSignature(64)
	b, _ := NewSignature(64)

	for _, tok := range []string{"x", "y", "z"} {
		a.Add([]byte(tok), 1)
		b.Add([]byte(tok), 1)
	}

	assert.InDelta(t, 1.0, a.JaccardEstimate(b), 1e-9)
}

func TestSignature_JaccardEstimate_DisjointSetsLow(t *testing.T) {
	t.Parallel()

	a, _ := NewSignature(128)
	b, _ := NewSignature(128)

	for i := 0; i < 50; i++ {
		a.Add([]byte{byte(i)}, 1)
		b.Add([]byte{byte(i + 200)}, 1)
	}

	assert.Less(t, a.JaccardEstimate(b), 0.3)
}

func TestSignature_WeightPullsMinimumDown(t *testing.T) {
	t.Parallel()

	unweighted, _ := NewSignature(32)
	unweighted.Add([]byte("shared"), 1.0)

	weighted, _ := NewSignature(32)
	weighted.Add([]byte("shared"), 1000.0)

	for i := range unweighted.mins {
		assert.LessOrEqual(t, weighted.mins[i], unweighted.mins[i])
	}
}
