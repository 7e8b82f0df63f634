package letchain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func smallExperiment() ExperimentConfig {
	cfg := DefaultExperimentConfig()
	cfg.Count = 3
	cfg.MinLength = 2
	cfg.MaxLength = 4
	cfg.Periods = []int{1, 2, 4, 5, 10, 20}
	return cfg
}

func TestExperimentRun(t *testing.T) {
	exp, err := NewExperiment(smallExperiment())
	require.NoError(t, err)
	require.NoError(t, exp.Run())

	results := exp.Results()
	require.Len(t, results, 9)
	for _, r := range results {
		require.GreaterOrEqual(t, r.Length, 2)
		require.LessOrEqual(t, r.Length, 4)
		require.LessOrEqual(t, r.Optimal, r.Synchronous)
		require.Equal(t, r.Optimal, r.Phased)
		require.Equal(t, r.Phased, r.Analytic)
		require.GreaterOrEqual(t, r.Reduction(), 0.0)
		require.Less(t, r.Reduction(), 1.0)
	}

	summaries := exp.Summaries()
	require.Len(t, summaries, 3)
	for i, s := range summaries {
		require.Equal(t, i+2, s.Length)
		require.Equal(t, 3, s.Runs)
		require.GreaterOrEqual(t, s.StdReduction, 0.0)
		require.Contains(t, s.String(), "3 chains")
	}
}

func TestExperimentDeterministic(t *testing.T) {
	a, err := NewExperiment(smallExperiment())
	require.NoError(t, err)
	b, err := NewExperiment(smallExperiment())
	require.NoError(t, err)
	require.NoError(t, a.Run())
	require.NoError(t, b.Run())

	require.NotEqual(t, a.RunID, b.RunID)
	require.Equal(t, len(a.Results()), len(b.Results()))
	for i := range a.Results() {
		require.Equal(t, a.Results()[i].Chain, b.Results()[i].Chain)
		require.Equal(t, a.Results()[i].Optimal, b.Results()[i].Optimal)
	}
}

func TestExperimentConfig(t *testing.T) {
	cfg := smallExperiment()
	cfg.Count = 0
	_, err := NewExperiment(cfg)
	require.Error(t, err)

	cfg = smallExperiment()
	cfg.MinLength = 1
	_, err = NewExperiment(cfg)
	require.ErrorIs(t, err, ErrChainTooShort)

	cfg = smallExperiment()
	cfg.Periods = []int{5, 0}
	_, err = NewExperiment(cfg)
	require.ErrorIs(t, err, ErrInvalidPeriod)
}
