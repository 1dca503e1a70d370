package clones

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLSHParams_RowsPerBand(t *testing.T) {
	t.Parallel()

	rows, err := LSHParams{NumHashes: 128, NumBands: 32}.RowsPerBand()
	require.NoError(t, err)
	assert.Equal(t, 4, rows)
}

func TestLSHParams_RejectsNonDivisible(t *testing.T) {
	t.Parallel()

	_, err := LSHParams{NumHashes: 130, NumBands: 32}.RowsPerBand()
	assert.ErrorIs(t, err, ErrBandsDontDivide)
}

func TestIndex_CandidatesFindsCollision(t *testing.T) {
	t.Parallel()

	params := LSHParams{NumHashes: 32, NumBands: 8}
	idx, err := NewIndex(params)
	require.NoError(t, err)

	sigA, _ := NewSignature(32)
	sigB, _ := NewSignature(32)

	for _, tok := range []string{"shared1", "shared2", "shared3"} {
		sigA.Add([]byte(tok), 1)
		sigB.Add([]byte(tok), 1)
	}

	idx.Insert("a", sigA)
	idx.Insert("b", sigB)

	candidates := idx.Candidates("a", sigA)
	assert.Contains(t, candidates, "b")
}

func TestIndex_CandidatesExcludesSelf(t *testing.T) {
	t.Parallel()

	idx, err := NewIndex(LSHParams{NumHashes: 16, NumBands: 4})
	require.NoError(t, err)

	sig, _ := NewSignature(16)
	sig.Add([]byte("a"), 1)

	idx.Insert("only", sig)

	assert.NotContains(t, idx.Candidates("only", sig), "only")
}
