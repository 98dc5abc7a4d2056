// Package groth16 prepares BN254 Groth16 verifying keys for the chunked
// on-chain verifier and computes the residue witness (c, wi) that replaces
// the final exponentiation.
package groth16

import (
	"math/big"

	"github.com/kysee/bitvm-bridge/bn254"
)

// Lambda is the full Miller exponent 6x+2 + p - p^2 + p^3; the residue
// witness satisfies c^lambda = f * wi.
func Lambda() *big.Int {
	p := bn254.QBig()
	sixXTwo := new(big.Int).SetUint64(bn254.SeedX)
	sixXTwo.Mul(sixXTwo, big.NewInt(6))
	sixXTwo.Add(sixXTwo, big.NewInt(2))

	p2 := new(big.Int).Mul(p, p)
	p3 := new(big.Int).Mul(p2, p)

	l := new(big.Int).Set(sixXTwo)
	l.Add(l, p)
	l.Sub(l, p2)
	l.Add(l, p3)
	return l
}

// exp12 returns p^12 - 1.
func exp12() *big.Int {
	p := bn254.QBig()
	e := new(big.Int).Exp(p, big.NewInt(12), nil)
	return e.Sub(e, big.NewInt(1))
}

// MSMWindowBits is the window width of the precomputed MSM tables.
const MSMWindowBits = 4
