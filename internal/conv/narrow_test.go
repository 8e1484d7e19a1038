//go:build amd64 || arm64

package conv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNarrow(t *testing.T) {
	u, err := Narrow[uint32](math.MaxUint32)
	require.NoError(t, err)
	assert.Equal(t, uint32(math.MaxUint32), u)

	i, err := Narrow[int32](-1)
	require.NoError(t, err)
	assert.Equal(t, int32(-1), i)

	n, err := Narrow[int](uint64(42))
	require.NoError(t, err)
	assert.Equal(t, 42, n)
}

func TestNarrowOverflow(t *testing.T) {
	_, err := Narrow[uint32](-1)
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = Narrow[uint32](math.MaxUint32 + 1)
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = Narrow[int32](math.MinInt32 - 1)
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = Narrow[int](uint64(math.MaxUint64))
	assert.ErrorIs(t, err, ErrOverflow)
	assert.Contains(t, err.Error(), "does not fit int")
}
