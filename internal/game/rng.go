package game

import (
	"math/rand"
	"time"
)

// Rand is the random source used for shuffling and starting-player choice.
// It is an explicit dependency so tests can substitute a seeded source.
// *math/rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
	Shuffle(n int, swap func(i, j int))
}

// NewRand returns a time-seeded random source.
func NewRand() Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}
