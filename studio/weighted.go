package studio

import "slices"

// Rand is the subset of *math/rand/v2.Rand used for sampling.
type Rand interface {
	IntN(n int) int
}

// WeightedIndex draws a position in [0, n) where position i has weight n-i, so earlier
// positions are favored. It returns -1 when n <= 0.
func WeightedIndex(rng Rand, n int) int {
	if n <= 0 {
		return -1
	}
	total := n * (n + 1) / 2
	v := rng.IntN(total) + 1 // uniform in [1, total]

	cumulative := 0
	for i := 0; i < n; i++ {
		cumulative += n - i
		if v <= cumulative {
			return i
		}
	}
	return n - 1
}

// WeightedChoice returns one element drawn with WeightedIndex. ok is false for an empty slice.
func WeightedChoice[T any](rng Rand, elements []T) (v T, ok bool) {
	i := WeightedIndex(rng, len(elements))
	if i < 0 {
		return v, false
	}
	return elements[i], true
}

// SelectAndRemove draws up to k elements without replacement, each draw weighted towards
// the front of what is left. The result is in draw order; elements is never modified.
func SelectAndRemove[T any](rng Rand, elements []T, k int) []T {
	if k <= 0 || len(elements) == 0 {
		return nil
	}
	pool := slices.Clone(elements)
	out := make([]T, 0, min(k, len(pool)))
	for len(out) < k && len(pool) > 0 {
		i := WeightedIndex(rng, len(pool))
		out = append(out, pool[i])
		pool = slices.Delete(pool, i, i+1)
	}
	return out
}

func pickUniform[T any](rng Rand, xs []T) T {
	return xs[rng.IntN(len(xs))]
}
