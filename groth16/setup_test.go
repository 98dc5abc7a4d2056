package groth16

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	gnarkgroth16 "github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/stretchr/testify/require"
)

// cubicCircuit is the minimal statement x^3 + x + 5 == y; small enough
// that setup runs in test time, with one public input like the peg-out
// circuit.
type cubicCircuit struct {
	X frontend.Variable
	Y frontend.Variable `gnark:",public"`
}

func (c *cubicCircuit) Define(api frontend.API) error {
	x3 := api.Mul(c.X, c.X, c.X)
	api.AssertIsEqual(c.Y, api.Add(x3, c.X, 5))
	return nil
}

func TestVkFromGnark(t *testing.T) {
	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &cubicCircuit{})
	require.NoError(t, err)
	_, gvk, err := gnarkgroth16.Setup(ccs)
	require.NoError(t, err)

	vk, err := VkFromGnark(gvk)
	require.NoError(t, err)
	// One public input: vky0 plus one basis point.
	require.Len(t, vk.K, 2)
	require.False(t, vk.Alpha.IsInfinity())
	require.False(t, vk.Beta.IsInfinity())
	require.False(t, vk.Gamma.IsInfinity())
	require.False(t, vk.Delta.IsInfinity())

	prep, err := Prepare(vk)
	require.NoError(t, err)
	require.Equal(t, 1, prep.NumPublics())
}

func TestSetupPegOutCircuitCaches(t *testing.T) {
	if testing.Short() {
		t.Skip("compiles the sha256 peg-out circuit twice")
	}
	dir := t.TempDir()

	_, _, vk1, err := SetupPegOutCircuit(dir)
	require.NoError(t, err)

	// Second call loads from the cache and must agree.
	_, _, vk2, err := SetupPegOutCircuit(dir)
	require.NoError(t, err)

	a, err := VkFromGnark(vk1)
	require.NoError(t, err)
	b, err := VkFromGnark(vk2)
	require.NoError(t, err)
	require.Equal(t, a, b)
}
