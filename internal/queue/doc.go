// Package queue holds the frontier of a best-first descent over several
// partition trees: a max-heap of (tree, node) pairs keyed by the smallest
// hyperplane margin seen on the way down.
package queue
