// Package distance provides vector distance calculations for token
// embeddings.
//
// # Supported Metrics
//
//   - MetricL2: Euclidean distance (default)
//   - MetricL1: Manhattan distance
//   - MetricCosine: angular distance, 1 - cosine similarity
//
// All kernels accumulate in float64 so that far-away query points produced
// by small privacy budgets compare exactly.
//
// # Usage
//
//	d := distance.SquaredL2(a, b)
//	fn, err := distance.Provider(distance.MetricL1)
package distance
