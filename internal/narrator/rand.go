package narrator

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"sync"
)

// Rand is the randomness the narrator consumes: phrase injection, nature
// vocabulary and fallback template choice. Tests pin it with a fixed source.
type Rand interface {
	// Intn returns a value in [0, n). n must be positive.
	Intn(n int) int
	// Float64 returns a value in [0, 1).
	Float64() float64
}

// lockedRand makes a math/rand source safe for concurrent events.
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRand returns a goroutine-safe Rand seeded with seed.
func NewRand(seed int64) Rand {
	return &lockedRand{r: rand.New(rand.NewSource(seed))}
}

// NewSeed returns a seed from crypto/rand.
func NewSeed() int64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 1
	}
	return int64(binary.LittleEndian.Uint64(b[:]) &^ (1 << 63))
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}
