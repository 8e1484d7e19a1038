package testutil

import (
	"math/rand/v2"
	"slices"
	"strconv"
	"sync"

	"github.com/hupe1980/metricdp/distance"
)

// RNG is a seeded, goroutine-safe source of test embeddings.
type RNG struct {
	mu   sync.Mutex
	rand *rand.Rand
}

// NewRNG returns an RNG whose output depends only on seed.
func NewRNG(seed uint64) *RNG {
	return &RNG{rand: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Intn returns a uniform int in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.IntN(n)
}

// GaussianVectors returns num standard normal vectors sharing one backing
// array.
func (r *RNG) GaussianVectors(num, dim int) [][]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, num*dim)
	for i := range data {
		data[i] = float32(r.rand.NormFloat64())
	}
	vectors := make([][]float32, num)
	for i := range vectors {
		vectors[i] = data[i*dim : (i+1)*dim : (i+1)*dim]
	}
	return vectors
}

// Vocabulary returns num tokens named "tok0", "tok1", ... with token id i at
// matrix row i.
func (r *RNG) Vocabulary(num, dim int) (map[string]int, [][]float32) {
	vocab := make(map[string]int, num)
	for i := range num {
		vocab["tok"+strconv.Itoa(i)] = i
	}
	return vocab, r.GaussianVectors(num, dim)
}

// Neighbor is one row of an exact search result.
type Neighbor struct {
	Row      int
	Distance float64
}

// BruteForceNearest scans all vectors and returns the k closest rows to query
// under m, nearest first. Equal distances are ordered by row.
func BruteForceNearest(vectors [][]float32, query []float32, k int, m distance.Metric) []Neighbor {
	fn, err := distance.Provider(m)
	if err != nil {
		panic(err)
	}

	out := make([]Neighbor, len(vectors))
	for i, v := range vectors {
		out[i] = Neighbor{Row: i, Distance: fn(query, v)}
	}
	slices.SortFunc(out, func(a, b Neighbor) int {
		switch {
		case a.Distance < b.Distance:
			return -1
		case a.Distance > b.Distance:
			return 1
		}
		return a.Row - b.Row
	})

	return out[:min(k, len(out))]
}
