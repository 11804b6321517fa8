// Package random provides the uniform random source used for queue
// shuffling and task-of-the-day selection.
package random

import (
	"math/rand/v2"
)

// Source yields uniformly distributed integers in [0, n). *rand.Rand from
// math/rand/v2 satisfies it.
type Source interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// Default returns a source backed by the runtime's global generator.
func Default() Source {
	return globalSource{}
}

// NewSeeded returns a reproducible PCG source.
func NewSeeded(seed1, seed2 uint64) Source {
	return rand.New(rand.NewPCG(seed1, seed2))
}

// Shuffle permutes items in place with the Fisher-Yates algorithm.
func Shuffle[T any](src Source, items []T) {
	for i := len(items) - 1; i > 0; i-- {
		j := src.IntN(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}

// Pick returns a uniformly chosen element. ok is false when items is empty.
func Pick[T any](src Source, items []T) (item T, ok bool) {
	if len(items) == 0 {
		return item, false
	}
	return items[src.IntN(len(items))], true
}
