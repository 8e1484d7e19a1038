package minio

import (
	"context"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/metricdp/blobstore"
)

func TestKeyMapping(t *testing.T) {
	s := &Store{prefix: "root/"}

	assert.Equal(t, "root/a/b.mdp", s.key("a/b.mdp"))
	assert.Equal(t, "a/b.mdp", s.relName("root/a/b.mdp"))

	bare := &Store{}
	assert.Equal(t, "x", bare.key("x"))
	assert.Equal(t, "x", bare.relName("x"))
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{Bucket: "b"})
	assert.Error(t, err)

	_, err = New(Config{Endpoint: "localhost:9000"})
	assert.Error(t, err)

	s, err := New(Config{Endpoint: "localhost:9000", Bucket: "b", Prefix: "p"})
	require.NoError(t, err)
	assert.Equal(t, "p/x", s.key("x"))
}

// TestStore_Integration requires a running MinIO instance addressed by
// MDP_MINIO_ENDPOINT (credentials default to minioadmin).
func TestStore_Integration(t *testing.T) {
	endpoint := os.Getenv("MDP_MINIO_ENDPOINT")
	if endpoint == "" {
		t.Skip("MDP_MINIO_ENDPOINT not set")
	}

	store, err := New(Config{
		Endpoint:  endpoint,
		AccessKey: envOr("MDP_MINIO_ACCESS_KEY", "minioadmin"),
		SecretKey: envOr("MDP_MINIO_SECRET_KEY", "minioadmin"),
		Bucket:    envOr("MDP_MINIO_BUCKET", "metricdp-test"),
		Prefix:    "test-prefix/",
	})
	require.NoError(t, err)

	ctx := context.Background()
	exists, err := store.client.BucketExists(ctx, store.bucket)
	if err != nil {
		t.Skipf("MinIO not available: %v", err)
	}
	if !exists {
		t.Skipf("bucket %s does not exist", store.bucket)
	}

	data := []byte("hello minio world")
	require.NoError(t, store.Put(ctx, "test.mdp", data))

	blob, err := store.Open(ctx, "test.mdp")
	require.NoError(t, err)
	require.Equal(t, int64(len(data)), blob.Size())

	all, err := blobstore.ReadAll(ctx, blob)
	require.NoError(t, err)
	assert.Equal(t, data, all)

	rc, err := blob.ReadRange(ctx, 6, 5)
	require.NoError(t, err)
	part, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "minio", string(part))

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Contains(t, names, "test.mdp")

	require.NoError(t, store.Delete(ctx, "test.mdp"))
	_, err = store.Open(ctx, "test.mdp")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	wb, err := store.Create(ctx, "stream.mdp")
	require.NoError(t, err)
	_, err = wb.Write([]byte("streamed data"))
	require.NoError(t, err)
	require.NoError(t, wb.Close())

	blob, err = store.Open(ctx, "stream.mdp")
	require.NoError(t, err)
	assert.Equal(t, int64(13), blob.Size())

	_ = store.Delete(ctx, "stream.mdp")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
