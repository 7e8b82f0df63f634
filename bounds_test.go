package letchain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDavareBound(t *testing.T) {
	require.Equal(t, Mseconds(42), DavareBound(msChain(10, 1, 10)))
	require.Equal(t, Mseconds(26), DavareBound(msChain(3, 7, 3)))
	require.Equal(t, Mseconds(240), DavareBound(msChain(10, 50, 10, 50)))
	require.Equal(t, Mseconds(280), DavareBound(msChain(20, 50, 20, 50)))
}

func TestDavareDeadlineBound(t *testing.T) {
	c := msChain(10, 5)
	require.Equal(t, DavareBound(c), DavareDeadlineBound(c))

	c[0].Deadline = Mseconds(5)
	require.Equal(t, Mseconds(25), DavareDeadlineBound(c))
	require.Equal(t, Mseconds(30), dptHorizon(c))
}
