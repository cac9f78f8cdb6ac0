package testutil

import (
	"fmt"
	"math/rand"
	"sync"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)), // nolint gosec
		seed: seed,
	}
}

// Seed returns the seed the RNG was created with.
func (r *RNG) Seed() int64 { return r.seed }

// Float64 returns a uniform value in [0, 1).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// Intn returns a uniform value in [0, n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Label returns a prefixed pseudo-random label such as "row-42".
func (r *RNG) Label(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, r.Intn(1_000_000))
}

// GenerateGrid produces a rows x cols matrix of float64 values using the
// given RNG. Row and column indices are 0-based here; callers map them onto
// 1-based table coordinates.
func GenerateGrid(r *RNG, rows, cols int) [][]float64 {
	grid := make([][]float64, rows)
	for i := range grid {
		grid[i] = make([]float64, cols)
		for j := range grid[i] {
			grid[i][j] = r.Float64()
		}
	}
	return grid
}
