package noise

import (
	"math"
	"math/rand/v2"
	"sync"

	dprand "github.com/google/differential-privacy/go/v3/rand"
)

// lockedSource serializes access to a PCG stream.
type lockedSource struct {
	mu  sync.Mutex
	pcg *rand.PCG
}

// NewLockedSource returns a deterministic source seeded with seed that is
// safe for concurrent use.
func NewLockedSource(seed uint64) rand.Source {
	return &lockedSource{pcg: rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)}
}

func (s *lockedSource) Uint64() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pcg.Uint64()
}

type secureSource struct{}

// SecureSource returns a source backed by the cryptographically secure
// generator of the differential-privacy library.
func SecureSource() rand.Source {
	return secureSource{}
}

func (secureSource) Uint64() uint64 {
	v := uint64(dprand.I63n(math.MaxInt64)) //nolint:gosec // I63n is non-negative
	if dprand.Boolean() {
		v |= 1 << 63
	}
	return v
}
