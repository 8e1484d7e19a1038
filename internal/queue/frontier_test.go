package queue

import (
	"math"
	"math/rand/v2"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrontierOrder(t *testing.T) {
	f := NewFrontier(4)
	f.Push(0, 0, math.Inf(1))
	f.Push(1, 3, -0.5)
	f.Push(2, 7, 1.25)
	f.Push(1, 4, 0)

	want := []Entry{
		{Tree: 0, Node: 0, Margin: math.Inf(1)},
		{Tree: 2, Node: 7, Margin: 1.25},
		{Tree: 1, Node: 4, Margin: 0},
		{Tree: 1, Node: 3, Margin: -0.5},
	}
	for _, w := range want {
		got, ok := f.Pop()
		require.True(t, ok)
		assert.Equal(t, w, got)
	}

	_, ok := f.Pop()
	assert.False(t, ok)
}

func TestFrontierRandom(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	var f Frontier
	margins := make([]float64, 500)
	for i := range margins {
		margins[i] = rng.NormFloat64()
		f.Push(0, int32(i), margins[i]) //nolint:gosec
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(margins)))

	for _, m := range margins {
		got, ok := f.Pop()
		require.True(t, ok)
		assert.Equal(t, m, got.Margin)
	}
	assert.Zero(t, f.Len())
}

func TestFrontierReset(t *testing.T) {
	f := NewFrontier(2)
	f.Push(0, 1, 1)
	f.Push(0, 2, 2)
	f.Reset()

	assert.Zero(t, f.Len())
	f.Push(3, 4, 5)
	got, ok := f.Pop()
	require.True(t, ok)
	assert.Equal(t, Entry{Tree: 3, Node: 4, Margin: 5}, got)
}
