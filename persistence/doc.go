// Package persistence provides the binary encoding of built forests and
// privatizer snapshots.
//
// Every payload starts with a FileHeader and ends with a CRC32C trailer
// written by ChecksumWriter.WriteTrailer. Numbers are little-endian; word
// slices are copied straight from memory on little-endian hosts and encoded
// element by element elsewhere. Bodies may be compressed with lz4 or zstd
// (see Compression).
package persistence
