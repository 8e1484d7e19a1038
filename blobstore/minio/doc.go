// Package minio provides a BlobStore backed by the MinIO client.
//
// It works with MinIO and other S3-compatible servers (Ceph, Garage,
// SeaweedFS) without pulling in the AWS SDK.
//
//	store, err := minio.New(minio.Config{
//	    Endpoint:  "localhost:9000",
//	    AccessKey: "minioadmin",
//	    SecretKey: "minioadmin",
//	    Bucket:    "indexes",
//	    Prefix:    "metricdp/",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	err = mdp.SaveIndex(ctx, store, "bert-l2.mdp")
package minio
