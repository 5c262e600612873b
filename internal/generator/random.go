package generator

import (
	"math/rand"
	"sync"
)

// RandomSource supplies the generator's randomness.
type RandomSource interface {
	// IntRange returns an integer in [min, max]. Callers guarantee min <= max.
	IntRange(min, max int) int
}

// Random is a RandomSource backed by a seeded math/rand generator.
type Random struct {
	rng *rand.Rand
}

func NewRandom(seed int64) *Random {
	return &Random{rng: rand.New(rand.NewSource(seed))}
}

func (r *Random) IntRange(min, max int) int {
	if max <= min {
		return min
	}
	return min + r.rng.Intn(max-min+1)
}

// Sequence replays a fixed list of values, wrapping around when exhausted.
// Each value is folded into the requested range, so any sequence is valid.
type Sequence struct {
	mu     sync.Mutex
	values []int
	pos    int
}

func NewSequence(values ...int) *Sequence {
	if len(values) == 0 {
		values = []int{0}
	}
	return &Sequence{values: values}
}

func (s *Sequence) IntRange(min, max int) int {
	s.mu.Lock()
	v := s.values[s.pos%len(s.values)]
	s.pos++
	s.mu.Unlock()
	if max <= min {
		return min
	}
	span := max - min + 1
	v %= span
	if v < 0 {
		v += span
	}
	return min + v
}
