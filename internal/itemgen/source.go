package itemgen

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
)

// Source supplies uniform integer draws. IntRange returns a value in [lo, hi].
type Source interface {
	IntRange(lo, hi int) int
}

type pcgSource struct {
	r *rand.Rand
}

// NewSource returns a deterministic Source seeded with seed.
// Two sources with the same seed produce the same sequence.
func NewSource(seed uint64) Source {
	return &pcgSource{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *pcgSource) IntRange(lo, hi int) int {
	if hi < lo {
		lo, hi = hi, lo
	}
	return lo + s.r.IntN(hi-lo+1)
}

// NewSeed draws a seed from crypto/rand for runs that should not repeat.
func NewSeed() (uint64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}
