// Package vectorstore holds what the vector store backends share: sentinel
// errors, brute-force ranking and the float32 blob codec.
package vectorstore

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"

	"carsales/internal/domain"
	"carsales/internal/embedding"
)

var (
	// ErrInvalidDimension is returned by Init for a non-positive dimension.
	ErrInvalidDimension = errors.New("invalid dimension")

	// ErrLengthMismatch is returned when cars and vectors differ in length.
	ErrLengthMismatch = errors.New("cars and vectors length mismatch")

	// ErrDimensionMismatch is returned when a vector does not match the store dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// DefaultTopK is used when a search asks for a non-positive number of hits.
const DefaultTopK = 5

// Candidate is a stored car with its vector, ready to be ranked.
type Candidate struct {
	Car    domain.Car
	Vector []float32
}

// Rank scores candidates by inner product with query and returns the best
// topK, highest first. Ties resolve to the lower car id.
func Rank(candidates []Candidate, query []float32, topK int) []domain.SearchResult {
	if topK <= 0 {
		topK = DefaultTopK
	}
	results := make([]domain.SearchResult, len(candidates))
	for i, c := range candidates {
		results[i] = domain.SearchResult{Car: c.Car, Score: embedding.Dot(c.Vector, query)}
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Car.ID < results[j].Car.ID
	})
	if topK > len(results) {
		topK = len(results)
	}
	return results[:topK]
}

// EncodeVector packs v as little-endian float32 values.
func EncodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(x))
	}
	return buf
}

// DecodeVector is the inverse of EncodeVector.
func DecodeVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("vector blob length %d is not a multiple of 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v, nil
}
