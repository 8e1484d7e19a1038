package resource

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_Memory(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 100})

	err := c.AcquireMemory(context.Background(), 50)
	require.NoError(t, err)
	assert.Equal(t, int64(50), c.MemoryUsage())

	err = c.AcquireMemory(context.Background(), 40)
	require.NoError(t, err)
	assert.Equal(t, int64(90), c.MemoryUsage())

	// TryAcquire 20 (should fail)
	ok := c.TryAcquireMemory(20)
	assert.False(t, ok)
	assert.Equal(t, int64(90), c.MemoryUsage())

	// Acquire 20 (should block/timeout)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err = c.AcquireMemory(ctx, 20)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	c.ReleaseMemory(50)
	assert.Equal(t, int64(40), c.MemoryUsage())

	err = c.AcquireMemory(context.Background(), 20)
	require.NoError(t, err)
	assert.Equal(t, int64(60), c.MemoryUsage())
}

func TestController_MemoryLimitExceeded(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 10})

	err := c.AcquireMemory(context.Background(), 11)
	var lee *LimitExceededError
	require.ErrorAs(t, err, &lee)
	assert.Equal(t, int64(11), lee.Requested)
	assert.Equal(t, int64(0), c.MemoryUsage())
}

func TestController_UnlimitedMemory(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 0})

	err := c.AcquireMemory(context.Background(), 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), c.MemoryUsage())

	c.ReleaseMemory(500)
	assert.Equal(t, int64(500), c.MemoryUsage())
}

func TestController_Workers(t *testing.T) {
	c := NewController(Config{MaxWorkers: 2})
	assert.Equal(t, 2, c.Workers(8))

	require.NoError(t, c.AcquireWorker(context.Background()))
	require.NoError(t, c.AcquireWorker(context.Background()))

	assert.False(t, c.TryAcquireWorker())

	c.ReleaseWorker()

	assert.True(t, c.TryAcquireWorker())
}

func TestController_SequenceRate(t *testing.T) {
	c := NewController(Config{SequencesPerSec: 1})

	require.NoError(t, c.WaitSequence(context.Background()))

	// The burst is spent; the next sequence has to wait about a second.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, c.WaitSequence(ctx))
}

func TestController_Nil(t *testing.T) {
	var c *Controller
	ctx := context.Background()

	assert.NoError(t, c.AcquireMemory(ctx, 10))
	assert.True(t, c.TryAcquireMemory(10))
	c.ReleaseMemory(10)
	assert.Equal(t, int64(0), c.MemoryUsage())
	assert.NoError(t, c.AcquireWorker(ctx))
	assert.True(t, c.TryAcquireWorker())
	c.ReleaseWorker()
	assert.NoError(t, c.WaitSequence(ctx))
	assert.NoError(t, c.AcquireIO(ctx, 1<<20))
	assert.Equal(t, 3, c.Workers(3))
	assert.Equal(t, Config{}, c.Config())
}

func TestThrottledReader(t *testing.T) {
	ctx := context.Background()
	src := bytes.NewBufferString("forest")

	var unlimited *Controller
	assert.Same(t, src, unlimited.Reader(ctx, src))
	assert.Same(t, src, NewController(Config{}).Reader(ctx, src))

	c := NewController(Config{IOLimitBytesPerSec: 1 << 20})
	got, err := io.ReadAll(c.Reader(ctx, src))
	require.NoError(t, err)
	assert.Equal(t, "forest", string(got))

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = io.ReadAll(c.Reader(canceled, bytes.NewBufferString("x")))
	assert.ErrorIs(t, err, context.Canceled)
}
