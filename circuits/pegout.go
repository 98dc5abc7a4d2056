// Package circuit defines the peg-out commitment circuit: the statement
// whose Groth16 proofs the chunked Bitcoin-side verifier checks.
package circuit

import (
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash/sha2"
	"github.com/consensys/gnark/std/math/uints"
)

// PegOutPreimageLen is the serialized peg-out event: btc txid (32) +
// vout (4) + amount (8) + recipient script hash (20).
const PegOutPreimageLen = 64

// CommitmentFoldLen is how many digest bytes fold into the single public
// input; 31 bytes stay below the BN254 scalar modulus.
const CommitmentFoldLen = 31

// PegOutCircuit proves knowledge of a peg-out event matching a public
// commitment: Commitment = fold(sha256(Preimage)).
//
// The event preimage stays private; the bridge contract publishes only the
// folded commitment, which becomes the verifier's single public input.
type PegOutCircuit struct {
	Preimage [PegOutPreimageLen]uints.U8

	Commitment frontend.Variable `gnark:",public"`
}

// Define implements the circuit constraints.
func (c *PegOutCircuit) Define(api frontend.API) error {
	hasher, err := sha2.New(api)
	if err != nil {
		return err
	}
	hasher.Write(c.Preimage[:])
	digest := hasher.Sum()

	// Fold the first 31 digest bytes big-endian into one field element.
	folded := frontend.Variable(0)
	for i := 0; i < CommitmentFoldLen; i++ {
		folded = api.Add(api.Mul(folded, 256), digest[i].Val)
	}
	api.AssertIsEqual(folded, c.Commitment)
	return nil
}
