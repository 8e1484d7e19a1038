package blobstore

import (
	"bytes"
	"context"
	"io"
)

// Putter is the write half of a BlobStore.
type Putter interface {
	Put(ctx context.Context, name string, data []byte) error
}

// NewBufferedBlob returns a WritableBlob that collects writes in memory and
// publishes them with a single Put on Close. Snapshots are encoded in memory
// anyway, so object stores implement Create with it instead of streaming.
func NewBufferedBlob(ctx context.Context, p Putter, name string) WritableBlob {
	return &bufferedBlob{ctx: ctx, p: p, name: name}
}

type bufferedBlob struct {
	ctx    context.Context
	p      Putter
	name   string
	buf    bytes.Buffer
	closed bool
}

func (b *bufferedBlob) Write(p []byte) (int, error) {
	if b.closed {
		return 0, io.ErrClosedPipe
	}
	return b.buf.Write(p)
}

// Close publishes the blob. The blob stays invisible if Put fails.
func (b *bufferedBlob) Close() error {
	if b.closed {
		return io.ErrClosedPipe
	}
	b.closed = true
	return b.p.Put(b.ctx, b.name, b.buf.Bytes())
}

func (b *bufferedBlob) Sync() error { return nil }
