package clones

import (
	"encoding/binary"
	"errors"
	"hash/fnv"
	"math"
)

// splitmix64 constants reused verbatim from pkg/alg/minhash's seed
// generator, so signatures derived from the same seed sequence are
// byte-identical to the teacher's unweighted variant when all weights
// are 1 (§8 "signature determinism").
const (
	baseSeed   = 0x517cc1b727220a95
	mixShift1  = 30
	mixMul1    = 0xbf58476d1ce4e5b9
	mixShift2  = 27
	mixMul2    = 0x94d049bb133111eb
	mixShift3  = 31
)

// ErrZeroNumHashes is returned when a signature is requested with a
// non-positive hash count.
var ErrZeroNumHashes = errors.New("clones: numHashes must be positive")

// DefaultNumHashes is H in §4.8.1: the number of independent hash functions
// composing a weighted MinHash signature.
const DefaultNumHashes = 128

// Signature is a weighted MinHash signature (§4.8.1 step 4): for each hash
// function h, signature[h] = min over shingles s of h(s) / w(s). A higher
// weight pulls a shingle's hashed value down, making it more likely to win
// the minimum — rare, highly-weighted shingles dominate the signature.
type Signature struct {
	mins  []uint64
	seeds []uint64
}

// NewSignature returns a signature with every minimum initialized to +Inf's
// integer analogue (MaxUint64), ready for weighted adds.
func NewSignature(numHashes int) (*Signature, error) {
	if numHashes <= 0 {
		return nil, ErrZeroNumHashes
	}

	mins := make([]uint64, numHashes)
	for i := range mins {
		mins[i] = math.MaxUint64
	}

	return &Signature{mins: mins, seeds: generateSeeds(numHashes)}, nil
}

// Add folds one weighted shingle into the signature. A non-positive weight
// is clamped to minWeightEpsilon, so zero-weight shingles never produce a
// division by zero.
func (s *Signature) Add(token []byte, weight float64) {
	if weight <= 0 {
		weight = minWeightEpsilon
	}

	base := fnvHash(token)

	for i, seed := range s.seeds {
		h := mixHash(base, seed)
		weighted := uint64(float64(h) / weight)

		if weighted < s.mins[i] {
			s.mins[i] = weighted
		}
	}
}

// minWeightEpsilon floors shingle weights so Add never divides by zero.
const minWeightEpsilon = 1e-6

// Len returns the number of hash functions (H) in the signature.
func (s *Signature) Len() int {
	return len(s.mins)
}

// MatchingPositions returns the count of positions where two same-length
// signatures agree, the raw input to the banded Jaccard estimate (§4.8.2).
func (s *Signature) MatchingPositions(other *Signature) int {
	if other == nil || len(s.mins) != len(other.mins) {
		return 0
	}

	matches := 0

	for i := range s.mins {
		if s.mins[i] == other.mins[i] {
			matches++
		}
	}

	return matches
}

// JaccardEstimate returns the fraction of matching signature positions, the
// MinHash approximation of set Jaccard similarity.
func (s *Signature) JaccardEstimate(other *Signature) float64 {
	if len(s.mins) == 0 {
		return 0
	}

	return float64(s.MatchingPositions(other)) / float64(len(s.mins))
}

// Band returns the raw uint64 values for rows [start, start+rows) of the
// signature, used by the LSH banding step (§4.8.1 step 5).
func (s *Signature) Band(start, rows int) []uint64 {
	end := start + rows
	if end > len(s.mins) {
		end = len(s.mins)
	}

	return s.mins[start:end]
}

func fnvHash(data []byte) uint64 {
	h := fnv.New64a()
	_, _ = h.Write(data)

	return h.Sum64()
}

func mixHash(base, seed uint64) uint64 {
	x := base ^ seed
	x = (x ^ (x >> mixShift1)) * mixMul1
	x = (x ^ (x >> mixShift2)) * mixMul2
	x ^= x >> mixShift3

	return x
}

func generateSeeds(n int) []uint64 {
	seeds := make([]uint64, n)

	state := uint64(baseSeed)

	for i := range n {
		state = splitmix64(state)
		seeds[i] = state
	}

	return seeds
}

func splitmix64(state uint64) uint64 {
	state += 0x9e3779b97f4a7c15
	z := state
	z = (z ^ (z >> mixShift1)) * mixMul1
	z = (z ^ (z >> mixShift2)) * mixMul2
	z ^= z >> mixShift3

	return z
}

// bandHash hashes one band's raw row values with the band index mixed in
// for domain separation, matching pkg/alg/lsh's FNV bucket-hashing scheme.
func bandHash(bandIdx int, rows []uint64) uint64 {
	h := fnv.New64a()

	var buf [8]byte

	binary.BigEndian.PutUint64(buf[:], uint64(bandIdx))
	_, _ = h.Write(buf[:])

	for _, v := range rows {
		binary.BigEndian.PutUint64(buf[:], v)
		_, _ = h.Write(buf[:])
	}

	return h.Sum64()
}
