// Package s3 provides an Amazon S3 implementation of blobstore.BlobStore.
//
//	store, err := s3.New(ctx, "my-bucket", "metricdp/", "us-east-1")
//	if err != nil { ... }
//
//	err = mdp.SaveIndex(ctx, store, "bert-l2.mdp")
//
// Reads are ranged GetObject requests. Large snapshots are written with the
// multipart uploader from feature/s3/manager, and small ones in a single
// PutObject carrying a CRC32C checksum. Listing follows pagination.
package s3
