package embedding

import (
	"cmp"
	"encoding/binary"
	"fmt"
	"math"
	"slices"
	"unsafe"

	"github.com/cespare/xxhash/v2"
)

// Store is an immutable mapping from token ids to embedding vectors.
//
// Rows are kept sorted by ascending token id, so ordering by row is the same
// as ordering by token id. A Store is safe for concurrent use.
type Store struct {
	dim     int
	ids     []int
	data    []float32
	rows    map[int]int32
	reverse map[uint64][]int32
	fp      uint64
}

// New creates a store from explicit id/vector pairs. The vectors are copied.
func New(ids []int, vectors [][]float32) (*Store, error) {
	if len(ids) != len(vectors) {
		return nil, fmt.Errorf("%w: %d ids, %d vectors", ErrLengthMismatch, len(ids), len(vectors))
	}
	if len(ids) > math.MaxInt32 {
		return nil, fmt.Errorf("%w: %d rows exceed the int32 row space", ErrInvalidID, len(ids))
	}

	order := make([]int, len(ids))
	for i := range order {
		order[i] = i
	}
	slices.SortFunc(order, func(a, b int) int { return cmp.Compare(ids[a], ids[b]) })

	s := &Store{
		ids:     make([]int, 0, len(ids)),
		rows:    make(map[int]int32, len(ids)),
		reverse: make(map[uint64][]int32, len(ids)),
	}

	for _, i := range order {
		id, vec := ids[i], vectors[i]
		if id < 0 {
			return nil, fmt.Errorf("%w: %d", ErrInvalidID, id)
		}
		if _, dup := s.rows[id]; dup {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateID, id)
		}
		if err := s.checkVector(id, vec); err != nil {
			return nil, err
		}

		row := int32(len(s.ids)) //nolint:gosec // bounded by the MaxInt32 check above
		s.rows[id] = row
		s.ids = append(s.ids, id)
		s.data = append(s.data, vec...)
	}

	for row := range s.ids {
		key := vectorKey(s.At(row))
		s.reverse[key] = append(s.reverse[key], int32(row)) //nolint:gosec // row < MaxInt32
	}
	s.fp = s.fingerprint()

	return s, nil
}

// FromVocabulary creates a store from a vocabulary (token string to id) and
// a matrix whose row i is the embedding of token id i. The token strings are
// not interpreted.
func FromVocabulary(vocab map[string]int, matrix [][]float32) (*Store, error) {
	if len(vocab) != len(matrix) {
		return nil, fmt.Errorf("%w: vocabulary has %d tokens, matrix has %d rows", ErrLengthMismatch, len(vocab), len(matrix))
	}

	ids := make([]int, 0, len(vocab))
	for tok, id := range vocab {
		if id < 0 || id >= len(matrix) {
			return nil, fmt.Errorf("%w: token %q has id %d outside [0, %d)", ErrInvalidID, tok, id, len(matrix))
		}
		ids = append(ids, id)
	}
	slices.Sort(ids)

	vectors := make([][]float32, len(ids))
	for i, id := range ids {
		vectors[i] = matrix[id]
	}

	return New(ids, vectors)
}

func (s *Store) checkVector(id int, vec []float32) error {
	if len(vec) == 0 {
		return fmt.Errorf("%w: token %d", ErrInvalidDimension, id)
	}
	if s.dim == 0 {
		s.dim = len(vec)
		s.data = make([]float32, 0, cap(s.ids)*s.dim)
	} else if len(vec) != s.dim {
		return fmt.Errorf("%w: token %d has %d dimensions, expected %d", ErrDimensionMismatch, id, len(vec), s.dim)
	}
	for j, v := range vec {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: token %d coordinate %d", ErrNonFinite, id, j)
		}
	}
	return nil
}

// Len returns the number of tokens in the store.
func (s *Store) Len() int { return len(s.ids) }

// Dimension returns the embedding dimension (0 for an empty store).
func (s *Store) Dimension() int { return s.dim }

// Lookup returns the embedding of token id. The returned slice is a view
// into the store and must not be modified.
func (s *Store) Lookup(id int) ([]float32, bool) {
	row, ok := s.rows[id]
	if !ok {
		return nil, false
	}
	return s.At(int(row)), true
}

// Row returns the row of token id.
func (s *Store) Row(id int) (int, bool) {
	row, ok := s.rows[id]
	return int(row), ok
}

// TokenID returns the token id stored at row.
func (s *Store) TokenID(row int) int { return s.ids[row] }

// At returns the embedding stored at row. The returned slice must not be modified.
func (s *Store) At(row int) []float32 {
	off := row * s.dim
	return s.data[off : off+s.dim : off+s.dim]
}

// IDs returns a copy of all token ids in ascending order.
func (s *Store) IDs() []int { return slices.Clone(s.ids) }

// Reverse returns the token whose embedding equals vec bit for bit.
// When several tokens share the embedding the smallest id is returned.
func (s *Store) Reverse(vec []float32) (int, bool) {
	if len(vec) != s.dim {
		return 0, false
	}
	for _, row := range s.reverse[vectorKey(vec)] {
		if bitsEqual(s.At(int(row)), vec) {
			return s.ids[row], true
		}
	}
	return 0, false
}

// Fingerprint identifies the store contents. Two stores with equal ids and
// bit-identical vectors share a fingerprint.
func (s *Store) Fingerprint() uint64 { return s.fp }

func (s *Store) fingerprint() uint64 {
	d := xxhash.New()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(s.dim)) //nolint:gosec // dim is non-negative
	_, _ = d.Write(buf[:])
	for _, id := range s.ids {
		binary.LittleEndian.PutUint64(buf[:], uint64(id)) //nolint:gosec // ids are non-negative
		_, _ = d.Write(buf[:])
	}
	_, _ = d.Write(floatBytes(s.data))
	return d.Sum64()
}

func vectorKey(v []float32) uint64 {
	return xxhash.Sum64(floatBytes(v))
}

func floatBytes(v []float32) []byte {
	if len(v) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&v[0])), len(v)*4)
}

func bitsEqual(a, b []float32) bool {
	for i := range a {
		if math.Float32bits(a[i]) != math.Float32bits(b[i]) {
			return false
		}
	}
	return true
}
