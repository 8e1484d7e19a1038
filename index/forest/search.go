package forest

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/metricdp/distance"
	"github.com/hupe1980/metricdp/internal/queue"
)

// Neighbor is a search result.
type Neighbor struct {
	// Row is the row of the neighbor in the indexed Points.
	Row int
	// Distance is the exact distance to the query in the forest's metric.
	Distance float64
}

// Search returns up to k approximate nearest rows of query, ordered by
// ascending exact distance with ties broken by ascending row.
func (f *Forest) Search(query []float32, k int) ([]Neighbor, error) {
	return f.SearchWithBudget(query, k, f.opts.SearchK)
}

// SearchWithBudget is like Search but collects at least searchK candidates
// (when available) instead of the forest default. searchK < 1 uses the
// default.
func (f *Forest) SearchWithBudget(query []float32, k, searchK int) ([]Neighbor, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidK, k)
	}
	if len(query) != f.dim {
		return nil, fmt.Errorf("%w: query has %d dimensions, forest has %d", ErrDimensionMismatch, len(query), f.dim)
	}
	for i, v := range query {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return nil, fmt.Errorf("%w: coordinate %d is not finite", ErrInvalidQuery, i)
		}
	}
	if searchK < 1 {
		searchK = f.opts.SearchK
	}
	searchK = max(searchK, k)

	candidates := f.candidates(f.routingQuery(query), searchK)

	results := make([]Neighbor, 0, candidates.GetCardinality())
	it := candidates.Iterator()
	for it.HasNext() {
		row := int(it.Next())
		results = append(results, Neighbor{Row: row, Distance: f.dist(query, f.points.At(row))})
	}

	slices.SortFunc(results, func(a, b Neighbor) int {
		if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
			return c
		}
		return cmp.Compare(a.Row, b.Row)
	})

	if len(results) > k {
		results = results[:k]
	}
	if f.opts.Metric == distance.MetricL2 {
		for i := range results {
			results[i].Distance = math.Sqrt(results[i].Distance)
		}
	}

	return results, nil
}

// routingQuery returns the vector used to compute hyperplane margins.
func (f *Forest) routingQuery(query []float32) []float32 {
	if f.opts.Metric != distance.MetricCosine {
		return query
	}
	if q, ok := distance.NormalizeL2Copy(query); ok {
		return q
	}
	return query
}

// candidates descends all trees best-first until every tree contributed at
// least one leaf and at least searchK rows were collected.
func (f *Forest) candidates(q []float32, searchK int) *roaring.Bitmap {
	numTrees := len(f.trees)

	pq := queue.NewFrontier(numTrees * 4)
	for t := range f.trees {
		pq.Push(int32(t), 0, math.Inf(1)) //nolint:gosec // tree count fits int32
	}

	bm := roaring.New()
	contributed := make([]bool, numTrees)
	remaining := numTrees

	for pq.Len() > 0 && (remaining > 0 || bm.GetCardinality() < uint64(searchK)) { //nolint:gosec // searchK >= 1
		item, _ := pq.Pop()
		t := &f.trees[item.Tree]
		n := &t.nodes[item.Node]

		if n.leaf() {
			bm.AddMany(t.items[n.Start:n.End])
			if !contributed[item.Tree] {
				contributed[item.Tree] = true
				remaining--
			}
			continue
		}

		var m float64
		if n.Normal >= 0 {
			off := int(n.Normal) * f.dim
			m = margin(t.normals[off:off+f.dim], n.Offset, q)
		}
		pq.Push(item.Tree, n.Right, min(item.Margin, m))
		pq.Push(item.Tree, n.Left, min(item.Margin, -m))
	}

	return bm
}
