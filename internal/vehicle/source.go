package vehicle

import (
	"math/rand/v2"
	"sync"
)

// Source supplies the randomness used by the model and the fault store.
type Source interface {
	// Float64 returns a number in [0.0, 1.0).
	Float64() float64
	// IntN returns a number in [0, n). n must be positive.
	IntN(n int) int
}

// NewSource returns a goroutine-safe Source. A zero seed draws from the
// runtime's global generator; any other seed gives a reproducible sequence.
func NewSource(seed int64) Source {
	if seed == 0 {
		return globalSource{}
	}
	return &seededSource{rng: rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))}
}

type globalSource struct{}

func (globalSource) Float64() float64 { return rand.Float64() }
func (globalSource) IntN(n int) int   { return rand.IntN(n) }

type seededSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func (s *seededSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

func (s *seededSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}

// uniform draws a float in [lo, hi).
func uniform(src Source, lo, hi float64) float64 {
	return lo + src.Float64()*(hi-lo)
}

// delta draws an integer in [-step, step].
func delta(src Source, step int) int {
	if step <= 0 {
		return 0
	}
	return src.IntN(2*step+1) - step
}
