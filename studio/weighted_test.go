package studio

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seqRand replays fixed draws, each reduced modulo n.
type seqRand struct {
	vals []int
	i    int
}

func (r *seqRand) IntN(n int) int {
	v := r.vals[r.i%len(r.vals)]
	r.i++
	return v % n
}

func TestWeightedIndexBands(t *testing.T) {
	t.Parallel()

	// n=3: weights 3,2,1 over draws 1..6.
	cases := []struct {
		draw int
		want int
	}{
		{0, 0}, {1, 0}, {2, 0},
		{3, 1}, {4, 1},
		{5, 2},
	}
	for _, tc := range cases {
		got := WeightedIndex(&seqRand{vals: []int{tc.draw}}, 3)
		assert.Equal(t, tc.want, got, "draw %d", tc.draw)
	}
	assert.Equal(t, -1, WeightedIndex(&seqRand{vals: []int{0}}, 0))
}

func TestWeightedIndexDistribution(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(7, 11))
	const draws = 120000
	counts := make([]int, 3)
	for range draws {
		counts[WeightedIndex(rng, 3)]++
	}
	want := []float64{3.0 / 6, 2.0 / 6, 1.0 / 6}
	for i, c := range counts {
		assert.InDelta(t, want[i], float64(c)/draws, 0.01, "position %d", i)
	}
}

func TestSelectAndRemove(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(1, 2))
	pool := []string{"a", "b", "c", "d", "e"}

	t.Run("does not mutate input", func(t *testing.T) {
		got := SelectAndRemove(rng, pool, 3)
		require.Len(t, got, 3)
		assert.Equal(t, []string{"a", "b", "c", "d", "e"}, pool)
		seen := map[string]bool{}
		for _, v := range got {
			assert.False(t, seen[v], "duplicate %q", v)
			seen[v] = true
		}
	})

	t.Run("stops when pool is empty", func(t *testing.T) {
		got := SelectAndRemove(rng, pool[:2], 5)
		assert.ElementsMatch(t, []string{"a", "b"}, got)
	})

	t.Run("zero k", func(t *testing.T) {
		assert.Empty(t, SelectAndRemove(rng, pool, 0))
		assert.Empty(t, SelectAndRemove(rng, []string{}, 3))
	})

	t.Run("draw order", func(t *testing.T) {
		// First draw on 3 elements hits the last band, second on 2 hits the first.
		got := SelectAndRemove(&seqRand{vals: []int{5, 0}}, []int{10, 20, 30}, 2)
		assert.Equal(t, []int{30, 10}, got)
	})
}

func TestWeightedChoice(t *testing.T) {
	t.Parallel()

	_, ok := WeightedChoice(&seqRand{vals: []int{0}}, []int{})
	assert.False(t, ok)

	v, ok := WeightedChoice(&seqRand{vals: []int{2}}, []string{"x", "y"})
	require.True(t, ok)
	assert.Equal(t, "y", v)
}
