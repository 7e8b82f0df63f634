package letchain

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestExactLatencySynchronous(t *testing.T) {
	tests := []struct {
		periods []float64
		latency float64
	}{
		{[]float64{10, 1, 10}, 40},
		{[]float64{3, 7, 3}, 24},
		{[]float64{10, 50, 10, 50}, 210},
		{[]float64{10, 5}, 25},
		{[]float64{20, 50, 20, 50}, 230},
		{[]float64{5, 1, 2, 1}, 15},
		{[]float64{20, 50, 5, 20}, 160},
		{[]float64{2, 3}, 9},
		{[]float64{4, 6, 3}, 21},
	}
	for _, test := range tests {
		c := msChain(test.periods...)
		latency, err := ExactLatency(c)
		require.NoError(t, err)
		require.Equal(t, Mseconds(test.latency), latency, "chain %v", c)
	}
}

// Three tasks of 10, 1 and 10 ms where the last one is released 1 ms late: the value
// sampled by the first task reaches the end of the chain after 31 ms.
func TestExactLatencyOffsetLastTask(t *testing.T) {
	c := withOffsets(msChain(10, 1, 10), 0, 0, 1)

	d, err := NewDpt(c)
	require.NoError(t, err)
	age, err := d.MaxAge()
	require.NoError(t, err)
	require.Equal(t, Mseconds(31), age)

	require.Len(t, d.Trees(), 1)
	tree := d.Trees()[0]
	require.Equal(t, Mseconds(10), tree.Root().Job().Release())

	leaves := tree.Leaves()
	require.NotEmpty(t, leaves)
	for _, leaf := range leaves {
		branch := tree.Branch(leaf)
		require.Len(t, branch, 3)
		require.Same(t, tree.Root(), branch[0])
		require.Same(t, leaf, branch[2])
		for pos, n := range branch {
			require.Equal(t, c[pos], n.Job().Task())
		}
		leafAge, err := leaf.BranchAge.Get()
		require.NoError(t, err)
		require.LessOrEqual(t, leafAge, int64(age))
	}
	treeAge, err := tree.MaxAge().Get()
	require.NoError(t, err)
	require.Equal(t, int64(age), treeAge)
}

func TestExactLatencyOffsetsOnSlowReader(t *testing.T) {
	latency, err := ExactLatency(withOffsets(msChain(2, 8), 1, 0))
	require.NoError(t, err)
	require.Equal(t, Mseconds(19), latency)
}

func TestDptReadClamp(t *testing.T) {
	d, err := NewDpt(msChain(10, 1, 10))
	require.NoError(t, err)
	require.NoError(t, d.Build())

	for _, tree := range d.Trees() {
		for _, leaf := range tree.Leaves() {
			branch := tree.Branch(leaf)
			for i := 1; i < len(branch); i++ {
				readStart, readEnd := branch[i].ReadInterval()
				dataStart, dataEnd := branch[i-1].DataInterval()
				require.Equal(t, readStart, readEnd)
				require.GreaterOrEqual(t, readStart, dataStart)
				require.Less(t, readStart, dataEnd)
			}
		}
	}
}

func TestDptBuildIsIdempotent(t *testing.T) {
	d, err := NewDpt(msChain(3, 7, 3))
	require.NoError(t, err)
	require.NoError(t, d.Build())
	trees := len(d.Trees())
	first, err := d.MaxAge()
	require.NoError(t, err)

	require.NoError(t, d.Build())
	second, err := d.MaxAge()
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Len(t, d.Trees(), trees)
	require.Equal(t, 7, trees) // one root job per 3 ms in a 21 ms hyperperiod
}

func TestDptPrint(t *testing.T) {
	d, err := NewDpt(withOffsets(msChain(10, 1, 10), 0, 0, 1))
	require.NoError(t, err)
	require.NoError(t, d.Build())

	var buf bytes.Buffer
	d.Print(&buf)
	out := buf.String()
	require.Contains(t, out, "Chain: 10 ms/0 ms -> 1 ms/0 ms -> 10 ms/1 ms")
	require.Contains(t, out, "|--- Job(Task_0, 1)")
	require.Contains(t, out, "Max Data Age = 31 ms")
}

func TestExactLatencyRejectsInvalidChains(t *testing.T) {
	_, err := ExactLatency(msChain(10))
	require.ErrorIs(t, err, ErrChainTooShort)

	_, err = ExactLatency(msChain(10, 0))
	require.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestExactLatencyIgnoresDeadlines(t *testing.T) {
	c := msChain(10, 1, 10)
	c[0].Deadline = Mseconds(2)
	c[2].Deadline = Mseconds(3)
	latency, err := ExactLatency(c)
	require.NoError(t, err)
	require.Equal(t, Mseconds(40), latency)
}

func TestExactLatencyProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c := drawChain(t, 2, 4, true)
		offsets := c.Offsets()

		latency, err := ExactLatency(c)
		require.NoError(t, err)
		require.Equal(t, offsets, c.Offsets())

		// every value lives at least one period in each task
		require.GreaterOrEqual(t, latency, c.PeriodSum()+c[len(c)-1].Period)
		require.LessOrEqual(t, latency, DavareBound(c))
	})
}
