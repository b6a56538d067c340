package index

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"testing"
)

func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum)
	for i, x := range v {
		v[i] = float32(float64(x) / norm)
	}
	return v
}

func TestFlat_EmptyIndex(t *testing.T) {
	flat := NewFlat(3)

	results, err := flat.Search([]float32{1, 0, 0}, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected empty result for empty index, got %d hits", len(results))
	}
}

func TestFlat_DimensionMismatch(t *testing.T) {
	flat := NewFlat(3)

	if err := flat.Add([]string{"a"}, [][]float32{{1, 0}}); err == nil {
		t.Error("expected error adding 2-dim vector to 3-dim index")
	}

	if err := flat.Add([]string{"a"}, [][]float32{{1, 0, 0}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := flat.Search([]float32{1, 0}, 1); err == nil {
		t.Error("expected error searching with 2-dim query")
	}
}

func TestFlat_SelfSimilarityIsOne(t *testing.T) {
	v := normalize([]float32{0.3, -0.5, 0.8, 0.1})

	if got := Dot(v, v); math.Abs(got-1.0) > 1e-6 {
		t.Errorf("expected self similarity 1.0, got %v", got)
	}
}

func TestFlat_OrderingAndBounds(t *testing.T) {
	query := normalize([]float32{1, 0, 0})
	flat := NewFlat(3)
	err := flat.Add(
		[]string{"orthogonal", "aligned", "opposed"},
		[][]float32{
			normalize([]float32{0, 1, 0}),
			normalize([]float32{0.9, 0.1, 0}),
			normalize([]float32{-1, 0, 0}),
		},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	results, err := flat.Search(query, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	want := []string{"aligned", "orthogonal", "opposed"}
	for i, id := range want {
		if results[i].ID != id {
			t.Errorf("rank %d: expected %s, got %s", i, id, results[i].ID)
		}
	}
	for _, r := range results {
		if r.Score < -1.0-1e-6 || r.Score > 1.0+1e-6 {
			t.Errorf("score %v for %s outside [-1, 1]", r.Score, r.ID)
		}
	}
}

func TestFlat_TieBreakIsInsertionOrder(t *testing.T) {
	query := []float32{1, 0}
	vec := []float32{0, 1} // Every entry scores exactly 0

	flat := NewFlat(2)
	ids := []string{"first", "second", "third"}
	if err := flat.Add(ids, [][]float32{vec, vec, vec}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for run := 0; run < 3; run++ {
		results, err := flat.Search(query, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for i, id := range ids {
			if results[i].ID != id {
				t.Errorf("run %d rank %d: expected %s, got %s", run, i, id, results[i].ID)
			}
		}
	}
}

func TestFlat_TopKTruncation(t *testing.T) {
	flat := NewFlat(2)
	err := flat.Add(
		[]string{"a", "b", "c"},
		[][]float32{{1, 0}, {0, 1}, {0.5, 0.5}},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	results, err := flat.Search([]float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 results with k=2, got %d", len(results))
	}
}

// TestFlat_AgreesWithExhaustiveDotProduct checks that the index ordering
// matches a direct dot-product sort for random corpora.
func TestFlat_AgreesWithExhaustiveDotProduct(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	const (
		dim  = 16
		size = 2000
	)

	ids := make([]string, size)
	vectors := make([][]float32, size)
	for i := range vectors {
		v := make([]float32, dim)
		for j := range v {
			v[j] = float32(rng.NormFloat64())
		}
		ids[i] = fmt.Sprintf("doc-%d", i)
		vectors[i] = normalize(v)
	}
	query := make([]float32, dim)
	for j := range query {
		query[j] = float32(rng.NormFloat64())
	}
	query = normalize(query)

	flat := NewFlat(dim)
	if err := flat.Add(ids, vectors); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := flat.Search(query, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	type scored struct {
		idx   int
		score float64
	}
	want := make([]scored, size)
	for i, vec := range vectors {
		want[i] = scored{idx: i, score: Dot(query, vec)}
	}
	sort.SliceStable(want, func(i, j int) bool { return want[i].score > want[j].score })

	for i := range want {
		if got[i].ID != ids[want[i].idx] {
			t.Fatalf("rank %d: index returned %s, exhaustive sort returned %s", i, got[i].ID, ids[want[i].idx])
		}
		if got[i].Score != want[i].score {
			t.Fatalf("rank %d: index score %v != exhaustive score %v", i, got[i].Score, want[i].score)
		}
	}
}

// TestFlat_Deterministic runs the same search twice and expects identical
// output, including tie resolution.
func TestFlat_Deterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	const dim = 8

	flat := NewFlat(dim)
	for i := 0; i < 100; i++ {
		v := make([]float32, dim)
		for j := range v {
			v[j] = float32(rng.NormFloat64())
		}
		if err := flat.Add([]string{fmt.Sprintf("doc-%d", i)}, [][]float32{normalize(v)}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	query := normalize([]float32{1, 1, 1, 1, 1, 1, 1, 1})
	first, err := flat.Search(query, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := flat.Search(query, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("rank %d differs between runs: %+v vs %+v", i, first[i], second[i])
		}
	}
}
