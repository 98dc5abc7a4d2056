package groth16

import (
	"math/big"
	"testing"

	bncurve "github.com/consensys/gnark-crypto/ecc/bn254"
	fr "github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/stretchr/testify/require"

	"github.com/kysee/bitvm-bridge/bn254"
)

func TestLambdaStructure(t *testing.T) {
	l := Lambda()
	// lambda is a multiple of r: that is what makes c^lambda absorb the
	// final exponentiation.
	rem := new(big.Int).Mod(l, bn254.RBig())
	require.Zero(t, rem.Sign())
	require.Positive(t, l.Sign())
}

// A pairing-balanced Miller product is an r-th residue; its witness must
// satisfy c^lambda = f*wi with wi in the canonical class set.
func TestComputeCWiOnBalancedPair(t *testing.T) {
	_, _, g1, g2 := bncurve.Generators()
	var p, pNeg bncurve.G1Affine
	p.ScalarMultiplication(&g1, big.NewInt(1234567))
	pNeg.Neg(&p)

	f, err := MillerOutput(
		[]bncurve.G1Affine{p, pNeg},
		[]bncurve.G2Affine{g2, g2},
	)
	require.NoError(t, err)

	c, wi, err := ComputeCWi(f)
	require.NoError(t, err)
	require.False(t, c.IsOne())

	require.True(t, c.Exp(Lambda()).Equal(f.Mul(wi)))

	cands, err := WiCandidates()
	require.NoError(t, err)
	found := false
	for _, cand := range cands {
		if wi.Equal(cand) {
			found = true
		}
	}
	require.True(t, found)
}

// The identity pairing: f = 1 must yield the trivial witness pair.
func TestComputeCWiIdentity(t *testing.T) {
	c, wi, err := ComputeCWi(bn254.Fq12One())
	require.NoError(t, err)
	require.True(t, c.IsOne())
	require.True(t, wi.IsOne())
}

func TestComputeCWiRejectsNonResidue(t *testing.T) {
	_, _, g1, g2 := bncurve.Generators()
	var p bncurve.G1Affine
	p.ScalarMultiplication(&g1, big.NewInt(42))

	f, err := MillerOutput([]bncurve.G1Affine{p}, []bncurve.G2Affine{g2})
	require.NoError(t, err)

	_, _, err = ComputeCWi(f)
	require.ErrorIs(t, err, ErrNotResidue)
}

func TestWiCandidatesStable(t *testing.T) {
	a, err := WiCandidates()
	require.NoError(t, err)
	b, err := WiCandidates()
	require.NoError(t, err)
	require.Equal(t, a, b)
	require.True(t, a[0].IsOne())
	require.True(t, a[1].Mul(a[1]).Equal(a[2]))
}

func TestPrepareDerivesTables(t *testing.T) {
	_, _, g1, g2 := bncurve.Generators()
	mulG1 := func(k int64) bncurve.G1Affine {
		var p bncurve.G1Affine
		p.ScalarMultiplication(&g1, big.NewInt(k))
		return p
	}
	mulG2 := func(k int64) bncurve.G2Affine {
		var p bncurve.G2Affine
		p.ScalarMultiplication(&g2, big.NewInt(k))
		return p
	}
	vk := VerifyingKey{
		Alpha: mulG1(2), Beta: mulG2(3), Gamma: mulG2(5), Delta: mulG2(7),
		K: []bncurve.G1Affine{mulG1(4), mulG1(6)},
	}

	prep, err := Prepare(vk)
	require.NoError(t, err)
	require.Equal(t, 1, prep.NumPublics())
	require.Len(t, prep.Tables, 1)
	require.Len(t, prep.Tables[0], 16)
	require.Equal(t, len(prep.Q2Lines), len(prep.Q3Lines))
	require.NotEmpty(t, prep.Q2Lines)

	// Table entry j is j*base.
	var want bncurve.G1Affine
	want.ScalarMultiplication(&prep.Bases[0], big.NewInt(13))
	require.Equal(t, want, prep.Tables[0][13])

	// MSM against the straight-line computation.
	var k9 fr.Element
	k9.SetUint64(9)
	got, err := prep.MSM([]fr.Element{k9})
	require.NoError(t, err)
	want = mulG1(4 + 9*6)
	require.Equal(t, want, got)
}
