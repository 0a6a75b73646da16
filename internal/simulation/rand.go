package simulation

import (
	"math/rand"
	"time"
)

// Source is the single random stream a run draws from.
// *rand.Rand satisfies it.
type Source interface {
	Float64() float64
	Intn(n int) int
	Shuffle(n int, swap func(i, j int))
}

// NewSource returns a seeded generator and the seed actually used.
// Seed 0 picks one from the clock.
func NewSource(seed int64) (*rand.Rand, int64) {
	if seed == 0 {
		seed = time.Now().UnixNano()
		if seed == 0 {
			seed = 1
		}
	}
	return rand.New(rand.NewSource(seed)), seed
}
