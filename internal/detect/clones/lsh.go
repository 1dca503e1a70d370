package clones

import (
	"errors"
	"sort"
)

// ErrBandsDontDivide is an internal-invariant-upgraded-to-validation error
// (§7): num_hashes must be evenly divisible by num_bands.
var ErrBandsDontDivide = errors.New("clones: num_hashes must be divisible by num_bands")

// LSHParams configures the banding step (§4.8.1 step 5).
type LSHParams struct {
	NumHashes int
	NumBands  int
}

// RowsPerBand returns H/B, validating the band-consistency invariant (§8).
func (p LSHParams) RowsPerBand() (int, error) {
	if p.NumBands <= 0 || p.NumHashes <= 0 {
		return 0, ErrInvalidParams
	}

	if p.NumHashes%p.NumBands != 0 {
		return 0, ErrBandsDontDivide
	}

	return p.NumHashes / p.NumBands, nil
}

// ErrInvalidParams is returned when LSH parameters are non-positive.
var ErrInvalidParams = errors.New("clones: numBands and numHashes must be positive")

// Index is an LSH index over weighted MinHash signatures, grounded on
// pkg/alg/lsh's band/bucket structure but keyed by entity ID instead of a
// generic string, and carrying the signature alongside each bucket entry
// so candidate generation doesn't need a second signature store.
type Index struct {
	params LSHParams
	rows   int
	bands  []map[uint64][]string
	sigs   map[string]*Signature
}

// NewIndex builds an empty LSH index, validating the band/hash invariant.
func NewIndex(params LSHParams) (*Index, error) {
	rows, err := params.RowsPerBand()
	if err != nil {
		return nil, err
	}

	bands := make([]map[uint64][]string, params.NumBands)
	for i := range bands {
		bands[i] = make(map[uint64][]string)
	}

	return &Index{params: params, rows: rows, bands: bands, sigs: make(map[string]*Signature)}, nil
}

// Insert adds id's signature to every band bucket it hashes into.
func (idx *Index) Insert(id string, sig *Signature) {
	idx.sigs[id] = sig

	for b := 0; b < idx.params.NumBands; b++ {
		h := bandHash(b, sig.Band(b*idx.rows, idx.rows))
		idx.bands[b][h] = append(idx.bands[b][h], id)
	}
}

// Candidates returns every id colliding with sig in at least one band,
// deduplicated, excluding self (§4.8.2: "collect bucket colliders from
// every band; deduplicate").
func (idx *Index) Candidates(selfID string, sig *Signature) []string {
	seen := make(map[string]bool)

	for b := 0; b < idx.params.NumBands; b++ {
		h := bandHash(b, sig.Band(b*idx.rows, idx.rows))

		for _, id := range idx.bands[b][h] {
			if id != selfID {
				seen[id] = true
			}
		}
	}

	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}

	sort.Strings(out)

	return out
}

// Signature returns the indexed signature for id, if present.
func (idx *Index) Signature(id string) (*Signature, bool) {
	sig, ok := idx.sigs[id]

	return sig, ok
}
