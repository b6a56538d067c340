// Package index provides an exact in-memory inner-product similarity index.
//
// The corpus in this domain is thousands of postings, not millions, so the
// index is a flat matrix searched exhaustively. Over unit-length vectors the
// inner product is the cosine similarity, bounded to [-1, 1].
package index

import (
	"fmt"
	"sort"
)

// Result is a single search hit.
type Result struct {
	ID    string
	Score float64
}

// Flat is an exact inner-product index over normalized vectors. It is built
// once per ranking run and is not safe for concurrent mutation.
type Flat struct {
	dimension int
	ids       []string
	vectors   [][]float32
}

// NewFlat creates an empty index for vectors of the given dimension.
func NewFlat(dimension int) *Flat {
	return &Flat{dimension: dimension}
}

// Add appends vectors to the index, preserving insertion order. Every vector
// must match the index dimension.
func (f *Flat) Add(ids []string, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("ids/vectors length mismatch: %d != %d", len(ids), len(vectors))
	}
	for i, vec := range vectors {
		if len(vec) != f.dimension {
			return fmt.Errorf("vector dimension mismatch for %s: expected %d, got %d", ids[i], f.dimension, len(vec))
		}
	}
	f.ids = append(f.ids, ids...)
	f.vectors = append(f.vectors, vectors...)
	return nil
}

// Size returns the number of indexed vectors.
func (f *Flat) Size() int {
	return len(f.ids)
}

// Search returns the top-k entries by inner product with the query vector,
// descending. Ties keep insertion order, so identical inputs always produce
// the identical ranking. k <= 0 or k > size returns the full ranking. An
// empty index yields an empty result.
func (f *Flat) Search(query []float32, k int) ([]Result, error) {
	if len(f.ids) == 0 {
		return []Result{}, nil
	}
	if len(query) != f.dimension {
		return nil, fmt.Errorf("query dimension mismatch: expected %d, got %d", f.dimension, len(query))
	}

	results := make([]Result, len(f.ids))
	for i, vec := range f.vectors {
		results[i] = Result{ID: f.ids[i], Score: Dot(query, vec)}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if k > 0 && k < len(results) {
		results = results[:k]
	}
	return results, nil
}

// Dot computes the inner product of two vectors in float64 for precision.
// Callers must pass vectors of equal length.
func Dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
