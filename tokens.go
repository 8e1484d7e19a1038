package metricdp

import (
	"github.com/bits-and-blooms/bitset"
)

// SpecialTokens is a set of token ids that Privatize copies unchanged.
//
// Membership is a single bit test. A SpecialTokens value may be shared by
// concurrent Privatize calls as long as nobody calls Add at the same time.
type SpecialTokens struct {
	bits *bitset.BitSet
}

// NewSpecialTokens returns a set containing ids. Negative ids are ignored
// since they can never occur in a valid sequence.
func NewSpecialTokens(ids ...int) *SpecialTokens {
	s := &SpecialTokens{bits: bitset.New(0)}
	return s.Add(ids...)
}

// Add inserts ids into the set and returns it.
func (s *SpecialTokens) Add(ids ...int) *SpecialTokens {
	if s.bits == nil {
		s.bits = bitset.New(0)
	}
	for _, id := range ids {
		if id >= 0 {
			s.bits.Set(uint(id))
		}
	}
	return s
}

// Contains reports whether id is special. A nil set contains nothing.
func (s *SpecialTokens) Contains(id int) bool {
	if s == nil || s.bits == nil || id < 0 {
		return false
	}
	return s.bits.Test(uint(id))
}

// Len returns the number of ids in the set.
func (s *SpecialTokens) Len() int {
	if s == nil || s.bits == nil {
		return 0
	}
	return int(s.bits.Count()) //nolint:gosec // bounded by the largest id
}

// IDs returns the ids in ascending order.
func (s *SpecialTokens) IDs() []int {
	if s == nil || s.bits == nil {
		return nil
	}
	ids := make([]int, 0, s.Len())
	for i, ok := s.bits.NextSet(0); ok; i, ok = s.bits.NextSet(i + 1) {
		ids = append(ids, int(i)) //nolint:gosec // set from non-negative ints
	}
	return ids
}
