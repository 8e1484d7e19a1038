// Package forest implements an approximate nearest-neighbor index made of
// randomized partition trees.
//
// Every tree recursively splits its rows by a hyperplane derived from two
// randomly seeded centroids (refined by an incremental two-means pass) until
// a subset holds at most LeafSize rows. A query descends all trees best-first,
// ordered by the smallest hyperplane margin seen on the path, unions the leaf
// buckets in a roaring bitmap and re-ranks the union by exact distance.
//
// More trees find more true neighbors at the cost of memory and build time.
// SearchK bounds the number of candidates collected per query.
//
// # Usage
//
//	f, err := forest.Build(ctx, store, func(o *forest.Options) {
//	    o.NumTrees = 50
//	    o.Metric = distance.MetricL2
//	})
//	neighbors, err := f.Search(query, 1)
//
// Trees are stored as arenas of nodes addressed by int32 indices. A built
// Forest is read-only and safe for concurrent searches.
package forest
