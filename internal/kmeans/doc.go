// Package kmeans implements the incremental two-means step used to pick the
// splitting hyperplane of a partition tree node.
package kmeans
