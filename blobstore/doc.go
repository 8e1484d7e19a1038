// Package blobstore provides the storage abstraction for index snapshots.
//
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - MemoryStore: in-process map, used by tests and short-lived tools
//   - LocalStore: local filesystem with mmap reads and atomic renames
//   - CachingStore: LRU block cache in front of any other store
//   - minio.Store: MinIO and other S3-compatible servers
//   - s3.Store: Amazon S3 with range reads and multipart uploads
//
// # Custom Implementations
//
//	type BlobStore interface {
//	    Open(ctx, name) (Blob, error)
//	    Create(ctx, name) (WritableBlob, error)
//	    Put(ctx, name, data) error
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
//
// Cloud backends should serve ReadRange with a single ranged request.
package blobstore
