package blobstore

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingStore struct {
	*MemoryStore
	mu    sync.Mutex
	reads int
}

func (s *countingStore) Open(ctx context.Context, name string) (Blob, error) {
	b, err := s.MemoryStore.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	return &countingBlob{Blob: b, store: s}, nil
}

func (s *countingStore) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

type countingBlob struct {
	Blob
	store *countingStore
}

func (b *countingBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	b.store.mu.Lock()
	b.store.reads++
	b.store.mu.Unlock()
	return b.Blob.ReadAt(ctx, p, off)
}

func pattern(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i % 251)
	}
	return data
}

func TestCachingStore_ReadAt(t *testing.T) {
	ctx := context.Background()
	inner := &countingStore{MemoryStore: NewMemoryStore()}
	data := pattern(1000)
	require.NoError(t, inner.Put(ctx, "blob", data))

	store, err := NewCachingStore(inner, 64, 100)
	require.NoError(t, err)

	blob, err := store.Open(ctx, "blob")
	require.NoError(t, err)
	defer blob.Close()

	buf := make([]byte, 250)
	n, err := blob.ReadAt(ctx, buf, 150)
	require.NoError(t, err)
	assert.Equal(t, 250, n)
	assert.Equal(t, data[150:400], buf)
	assert.Equal(t, 1, inner.Reads(), "contiguous missing blocks use one read")
	assert.Equal(t, 3, store.CachedBlocks())

	n, err = blob.ReadAt(ctx, buf[:100], 200)
	require.NoError(t, err)
	assert.Equal(t, 100, n)
	assert.Equal(t, data[200:300], buf[:100])
	assert.Equal(t, 1, inner.Reads(), "cached blocks are not re-read")

	tail := make([]byte, 50)
	n, err = blob.ReadAt(ctx, tail, 980)
	assert.Equal(t, 20, n)
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, data[980:], tail[:n])

	_, err = blob.ReadAt(ctx, tail, 1000)
	assert.Equal(t, io.EOF, err)
}

func TestCachingStore_ReadAll(t *testing.T) {
	ctx := context.Background()
	inner := &countingStore{MemoryStore: NewMemoryStore()}
	data := pattern(777)
	require.NoError(t, inner.Put(ctx, "blob", data))

	store, err := NewCachingStore(inner, 4, 64)
	require.NoError(t, err)

	blob, err := store.Open(ctx, "blob")
	require.NoError(t, err)

	rc, err := blob.ReadRange(ctx, 0, blob.Size())
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(data, got))
	assert.LessOrEqual(t, store.CachedBlocks(), 4)
}

func TestCachingStore_Invalidate(t *testing.T) {
	ctx := context.Background()
	inner := &countingStore{MemoryStore: NewMemoryStore()}
	require.NoError(t, inner.Put(ctx, "blob", []byte("old-data")))

	store, err := NewCachingStore(inner, 16, 4)
	require.NoError(t, err)

	blob, err := store.Open(ctx, "blob")
	require.NoError(t, err)
	_, err = ReadAll(ctx, blob)
	require.NoError(t, err)

	buf := make([]byte, 8)
	_, err = blob.ReadAt(ctx, buf, 0)
	require.NoError(t, err)
	assert.Positive(t, store.CachedBlocks())

	require.NoError(t, store.Put(ctx, "blob", []byte("new-data")))
	assert.Equal(t, 0, store.CachedBlocks())

	blob, err = store.Open(ctx, "blob")
	require.NoError(t, err)
	_, err = blob.ReadAt(ctx, buf, 0)
	require.NoError(t, err)
	assert.Equal(t, "new-data", string(buf))

	require.NoError(t, store.Delete(ctx, "blob"))
	assert.Equal(t, 0, store.CachedBlocks())
}
