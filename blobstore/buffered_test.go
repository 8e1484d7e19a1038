package blobstore

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingPutter struct{ err error }

func (p failingPutter) Put(context.Context, string, []byte) error { return p.err }

func TestBufferedBlob(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	w := NewBufferedBlob(ctx, store, "a.mdp")
	_, err := w.Write([]byte("snap"))
	require.NoError(t, err)

	ok, err := Exists(ctx, store, "a.mdp")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, w.Close())
	ok, err = Exists(ctx, store, "a.mdp")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = w.Write([]byte("x"))
	assert.ErrorIs(t, err, io.ErrClosedPipe)
	assert.ErrorIs(t, w.Close(), io.ErrClosedPipe)
}

func TestBufferedBlobPutError(t *testing.T) {
	boom := errors.New("boom")
	w := NewBufferedBlob(context.Background(), failingPutter{err: boom}, "a.mdp")

	_, err := w.Write([]byte("snap"))
	require.NoError(t, err)
	assert.ErrorIs(t, w.Close(), boom)
}
