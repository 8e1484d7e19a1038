// Package resource bounds the memory, concurrency and throughput used by
// forest builds, batch privatization and snapshot IO.
package resource
