// Package testutil generates seeded embeddings and exact nearest-neighbor
// ground truth for tests.
//
//	rng := testutil.NewRNG(7)
//	vocab, matrix := rng.Vocabulary(500, 8)
//	truth := testutil.BruteForceNearest(matrix, matrix[3], 1, distance.MetricL2)
package testutil
