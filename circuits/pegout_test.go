package circuit

import (
	"crypto/sha256"
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	gnarkgroth16 "github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/consensys/gnark/std/math/uints"
	"github.com/consensys/gnark/test"
	"github.com/stretchr/testify/require"
)

func testAssignment(t *testing.T, tamper bool) *PegOutCircuit {
	t.Helper()
	var pre [PegOutPreimageLen]byte
	for i := range pre {
		pre[i] = byte(3 * i)
	}
	digest := sha256.Sum256(pre[:])
	commitment := new(big.Int).SetBytes(digest[:CommitmentFoldLen])
	if tamper {
		commitment.Add(commitment, big.NewInt(1))
	}

	assignment := &PegOutCircuit{Commitment: commitment}
	for i, b := range pre {
		assignment.Preimage[i] = uints.NewU8(b)
	}
	return assignment
}

func TestPegOutCircuitSolves(t *testing.T) {
	err := test.IsSolved(&PegOutCircuit{}, testAssignment(t, false), ecc.BN254.ScalarField())
	require.NoError(t, err)
}

func TestPegOutCircuitRejectsWrongCommitment(t *testing.T) {
	err := test.IsSolved(&PegOutCircuit{}, testAssignment(t, true), ecc.BN254.ScalarField())
	require.Error(t, err)
}

func TestPegOutCircuitProves(t *testing.T) {
	if testing.Short() {
		t.Skip("full groth16 prove over the sha256 circuit")
	}
	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &PegOutCircuit{})
	require.NoError(t, err)

	pk, vk, err := gnarkgroth16.Setup(ccs)
	require.NoError(t, err)

	w, err := frontend.NewWitness(testAssignment(t, false), ecc.BN254.ScalarField())
	require.NoError(t, err)
	proof, err := gnarkgroth16.Prove(ccs, pk, w)
	require.NoError(t, err)

	pub, err := w.Public()
	require.NoError(t, err)
	require.NoError(t, gnarkgroth16.Verify(proof, vk, pub))
}
