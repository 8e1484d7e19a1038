package embedding

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	s, err := New([]int{7, 2, 5}, [][]float32{{7, 7}, {2, 2}, {5, 5}})
	require.NoError(t, err)

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, 2, s.Dimension())
	assert.Equal(t, []int{2, 5, 7}, s.IDs())

	t.Run("RowsSortedByID", func(t *testing.T) {
		for row, id := range []int{2, 5, 7} {
			assert.Equal(t, id, s.TokenID(row))
			got, ok := s.Row(id)
			require.True(t, ok)
			assert.Equal(t, row, got)
		}
	})

	t.Run("Lookup", func(t *testing.T) {
		v, ok := s.Lookup(5)
		require.True(t, ok)
		assert.Equal(t, []float32{5, 5}, v)

		_, ok = s.Lookup(3)
		assert.False(t, ok)
	})

	t.Run("CopiesInput", func(t *testing.T) {
		in := [][]float32{{1, 2}}
		s, err := New([]int{0}, in)
		require.NoError(t, err)
		in[0][0] = 99
		v, _ := s.Lookup(0)
		assert.Equal(t, float32(1), v[0])
	})
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name    string
		ids     []int
		vectors [][]float32
		wantErr error
	}{
		{"LengthMismatch", []int{1, 2}, [][]float32{{1}}, ErrLengthMismatch},
		{"NegativeID", []int{-1}, [][]float32{{1}}, ErrInvalidID},
		{"DuplicateID", []int{3, 3}, [][]float32{{1}, {2}}, ErrDuplicateID},
		{"Ragged", []int{1, 2}, [][]float32{{1, 2}, {1}}, ErrDimensionMismatch},
		{"ZeroDimension", []int{1}, [][]float32{{}}, ErrInvalidDimension},
		{"NaN", []int{1}, [][]float32{{float32(math.NaN())}}, ErrNonFinite},
		{"Inf", []int{1}, [][]float32{{float32(math.Inf(-1))}}, ErrNonFinite},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.ids, tt.vectors)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewEmpty(t *testing.T) {
	s, err := New(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 0, s.Dimension())
}

func TestFromVocabulary(t *testing.T) {
	vocab := map[string]int{"[PAD]": 0, "cat": 1, "dog": 2}
	matrix := [][]float32{{0, 0}, {1, 0.2}, {1, -0.2}}

	s, err := FromVocabulary(vocab, matrix)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, s.IDs())

	v, ok := s.Lookup(2)
	require.True(t, ok)
	assert.Equal(t, []float32{1, -0.2}, v)

	_, err = FromVocabulary(map[string]int{"a": 0}, matrix)
	assert.ErrorIs(t, err, ErrLengthMismatch)

	_, err = FromVocabulary(map[string]int{"a": 0, "b": 5}, [][]float32{{1}, {2}})
	assert.ErrorIs(t, err, ErrInvalidID)

	_, err = FromVocabulary(map[string]int{"a": 0, "b": 0}, [][]float32{{1}, {2}})
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestReverse(t *testing.T) {
	s, err := New([]int{4, 1, 9}, [][]float32{{1, 2}, {3, 4}, {1, 2}})
	require.NoError(t, err)

	id, ok := s.Reverse([]float32{3, 4})
	require.True(t, ok)
	assert.Equal(t, 1, id)

	// Duplicate embeddings resolve to the smallest id.
	id, ok = s.Reverse([]float32{1, 2})
	require.True(t, ok)
	assert.Equal(t, 4, id)

	_, ok = s.Reverse([]float32{1, 2.0001})
	assert.False(t, ok)
	_, ok = s.Reverse([]float32{1})
	assert.False(t, ok)
}

func TestFingerprint(t *testing.T) {
	a, err := New([]int{1, 2}, [][]float32{{1, 2}, {3, 4}})
	require.NoError(t, err)
	b, err := New([]int{2, 1}, [][]float32{{3, 4}, {1, 2}})
	require.NoError(t, err)
	c, err := New([]int{1, 2}, [][]float32{{1, 2}, {3, 5}})
	require.NoError(t, err)
	d, err := New([]int{1, 3}, [][]float32{{1, 2}, {3, 4}})
	require.NoError(t, err)

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), d.Fingerprint())
}
