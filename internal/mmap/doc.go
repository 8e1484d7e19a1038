// Package mmap maps snapshot files read-only into memory.
//
// Open hints the kernel that the region will be read front to back, which is
// how snapshots are decoded. Unix platforms use mmap(2) and madvise(2);
// Windows uses CreateFileMapping/MapViewOfFile without an access hint.
//
// A Region is safe for concurrent reads. Close is idempotent, but callers
// must stop using Bytes before calling it.
package mmap
