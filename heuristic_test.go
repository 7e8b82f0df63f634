package letchain

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestCombinationsCount(t *testing.T) {
	tests := []struct {
		periods []float64
		count   string
	}{
		{[]float64{10, 50, 10, 50}, "5000"},
		{[]float64{20, 50, 20, 50}, "10000"},
		{[]float64{3, 7, 3}, "3"},
		{[]float64{4, 6, 3}, "6"},
		{[]float64{1000, 200, 10, 1000, 50, 1, 100, 1000, 100, 1000, 200}, "200000000000000000000"},
	}
	for _, test := range tests {
		individual, complexity, err := CombinationsCount(msChain(test.periods...), Mseconds(1))
		require.NoError(t, err)
		expected, ok := new(big.Int).SetString(test.count, 10)
		require.True(t, ok)
		require.Zero(t, expected.Cmp(individual), "individual %v", individual)
		require.Zero(t, expected.Cmp(complexity), "complexity %v", complexity)
	}
}

func TestCombinationsCountGranularity(t *testing.T) {
	individual, _, err := CombinationsCount(msChain(20, 50, 20, 50), Mseconds(10))
	require.NoError(t, err)
	require.Equal(t, int64(10), individual.Int64())

	_, _, err = CombinationsCount(msChain(10, 5), Mseconds(3))
	require.ErrorIs(t, err, ErrGranularity)
	_, _, err = CombinationsCount(msChain(10, 5), 0)
	require.ErrorIs(t, err, ErrGranularity)
}

func TestCombinationsCountAgree(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c := drawChain(t, 2, 6, false)
		_, _, err := CombinationsCount(c, Mseconds(1))
		require.NoError(t, err)
	})
}

func TestHeuristicOptimalPhasing(t *testing.T) {
	tests := []struct {
		periods []float64
		latency float64
		offsets []float64
	}{
		{[]float64{20, 50, 20, 50}, 210, []float64{0, 0, 0, 30}},
		{[]float64{10, 5}, 25, []float64{0, 0}},
		{[]float64{3, 7, 3}, 22, []float64{0, 0, 1}},
		{[]float64{4, 6, 3}, 21, []float64{0, 0, 0}},
		{[]float64{5, 1, 2, 1}, 15, []float64{0, 0, 0, 0}},
	}
	for _, test := range tests {
		c := msChain(test.periods...)
		best, err := HeuristicOptimalPhasing(context.Background(), c, Mseconds(1))
		require.NoError(t, err)
		latency, err := best.Get()
		require.NoError(t, err)
		require.Equal(t, int64(Mseconds(test.latency)), latency, "chain %v", c)
		require.Equal(t, msOffsets(test.offsets...), c.Offsets())

		exact, err := ExactLatency(c)
		require.NoError(t, err)
		require.Equal(t, Ttick(latency), exact)
	}
}

func TestHeuristicCoarseGranularity(t *testing.T) {
	c := msChain(20, 50, 20, 50)
	best, err := HeuristicOptimalPhasing(context.Background(), c, Mseconds(10))
	require.NoError(t, err)
	require.Equal(t, int64(Mseconds(210)), best.OrElse(0))
	require.Equal(t, msOffsets(0, 0, 0, 30), c.Offsets())
}

func TestHeuristicCancelled(t *testing.T) {
	c := withOffsets(msChain(20, 50, 20, 50), 3, 5, 3, 7)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	best, err := HeuristicOptimalPhasing(ctx, c, Mseconds(1))
	require.NoError(t, err)
	require.False(t, best.Present())
	require.Equal(t, msOffsets(3, 5, 3, 7), c.Offsets())
}

func TestHeuristicRejectsGranularity(t *testing.T) {
	c := withOffsets(msChain(10, 5), 0, 2)
	_, err := HeuristicOptimalPhasing(context.Background(), c, Mseconds(3))
	require.ErrorIs(t, err, ErrGranularity)
	require.Equal(t, msOffsets(0, 2), c.Offsets())
}

// bruteForceOptimum tries every whole-ms offset below each period, the first task at 0.
func bruteForceOptimum(t require.TestingT, c Chain) Ttick {
	c = c.Clone()
	c[0].Offset = 0
	best := Ttick(-1)
	var walk func(pos int)
	walk = func(pos int) {
		if pos == len(c) {
			latency, err := AnalyticLatency(c)
			require.NoError(t, err)
			if best < 0 || latency < best {
				best = latency
			}
			return
		}
		for o := Ttick(0); o < c[pos].Period; o += Mseconds(1) {
			c[pos].Offset = o
			walk(pos + 1)
		}
	}
	walk(1)
	return best
}

func TestHeuristicMatchesBruteForce(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c := drawChain(t, 2, 3, false)
		optimum := bruteForceOptimum(t, c)

		best, err := HeuristicOptimalPhasing(context.Background(), c, Mseconds(1))
		require.NoError(t, err)
		require.Equal(t, int64(optimum), best.OrElse(-1), "chain %v", c)
		require.Equal(t, Ttick(0), c[0].Offset)

		synchronous, err := ExactLatency(synchronousCopy(c))
		require.NoError(t, err)
		require.LessOrEqual(t, optimum, synchronous)
	})
}

// synchronousCopy returns a copy of c with all offsets reset.
func synchronousCopy(c Chain) Chain {
	cc := c.Clone()
	cc.ResetOffsets()
	return cc
}
