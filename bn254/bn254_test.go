package bn254

import (
	"math/big"
	"testing"

	bncurve "github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/stretchr/testify/require"
)

func randFq12(t *testing.T) Fq12 {
	t.Helper()
	var g bncurve.GT
	_, err := g.SetRandom()
	require.NoError(t, err)
	return Fq12FromGT(g)
}

func TestAteDigitsReconstruct(t *testing.T) {
	digits := AteLoopDigits()
	acc := new(big.Int)
	for i := len(digits) - 1; i >= 0; i-- {
		acc.Lsh(acc, 1)
		acc.Add(acc, big.NewInt(int64(digits[i])))
	}
	want := new(big.Int).SetUint64(SeedX)
	want.Mul(want, big.NewInt(6))
	want.Add(want, big.NewInt(2))
	require.Zero(t, acc.Cmp(want))
	require.Equal(t, int8(1), digits[len(digits)-1])
}

func TestFq12MulMatchesGnark(t *testing.T) {
	a := randFq12(t)
	b := randFq12(t)

	var want bncurve.GT
	ag, bg := a.ToGT(), b.ToGT()
	want.Mul(&ag, &bg)
	require.Equal(t, Fq12FromGT(want), a.Mul(b))

	want.Square(&ag)
	require.Equal(t, Fq12FromGT(want), a.Square())
}

func TestFq12InverseAndExp(t *testing.T) {
	a := randFq12(t)
	inv, err := a.Inverse()
	require.NoError(t, err)
	require.True(t, a.Mul(inv).IsOne())

	e := big.NewInt(65537)
	var want bncurve.GT
	ag := a.ToGT()
	want.Exp(ag, e)
	require.Equal(t, Fq12FromGT(want), a.Exp(e))
}

func TestFq12FrobeniusMatchesGnark(t *testing.T) {
	a := randFq12(t)
	ag := a.ToGT()

	var want bncurve.GT
	want.Frobenius(&ag)
	require.Equal(t, Fq12FromGT(want), a.Frobenius(1))

	want.FrobeniusSquare(&ag)
	require.Equal(t, Fq12FromGT(want), a.Frobenius(2))

	// p^3 power composes the two.
	p := QBig()
	e := new(big.Int).Mul(p, p)
	e.Mul(e, p)
	require.Equal(t, a.Exp(e), a.Frobenius(3))
}

func TestRatioFormHomomorphic(t *testing.T) {
	a := randFq12(t)
	b := randFq12(t)

	ra, err := RatioFromFq12(a)
	require.NoError(t, err)
	rb, err := RatioFromFq12(b)
	require.NoError(t, err)

	prod, err := RatioFromFq12(a.Mul(b))
	require.NoError(t, err)
	got, err := RatioMul(ra, rb)
	require.NoError(t, err)
	require.True(t, prod.Equal(got))

	sq, err := RatioFromFq12(a.Square())
	require.NoError(t, err)
	got, err = RatioSqr(ra)
	require.NoError(t, err)
	require.True(t, sq.Equal(got))
}

// The walk below mirrors the runtime driver: tangent and chord hints on the
// evolving accumulator, every line folded in ratio form. Its result must
// agree with gnark-crypto's Miller loop up to the Fq6 scalars the ratio
// form quotients out.
func millerRatio(t *testing.T, p bncurve.G1Affine, q bncurve.G2Affine) Fq6 {
	t.Helper()
	qq := G2FromAffine(q)
	lines, err := EllCoeffs(qq)
	require.NoError(t, err)

	acc := Fq6Zero() // ratio of 1
	k := 0
	mulLine := func() {
		lr, err := LineRatio(lines[k], p.X, p.Y)
		require.NoError(t, err)
		acc, err = RatioMul(acc, lr)
		require.NoError(t, err)
		k++
	}

	digits := AteLoopDigits()
	for i := len(digits) - 2; i >= 0; i-- {
		acc, err = RatioSqr(acc)
		require.NoError(t, err)
		mulLine()
		if digits[i] != 0 {
			mulLine()
		}
	}
	mulLine()
	mulLine()
	require.Len(t, lines, k)
	return acc
}

func TestMillerRatioMatchesGnark(t *testing.T) {
	_, _, g1, g2 := bncurve.Generators()

	var p bncurve.G1Affine
	var q bncurve.G2Affine
	p.ScalarMultiplication(&g1, big.NewInt(20250731))
	q.ScalarMultiplication(&g2, big.NewInt(97))

	got := millerRatio(t, p, q)

	f, err := bncurve.MillerLoop([]bncurve.G1Affine{p}, []bncurve.G2Affine{q})
	require.NoError(t, err)
	want, err := RatioFromFq12(Fq12FromGT(f))
	require.NoError(t, err)

	require.True(t, got.Equal(want))
}

func TestG2PsiMatchesFrobenius(t *testing.T) {
	_, _, _, g2 := bncurve.Generators()
	q := G2FromAffine(g2)
	require.True(t, q.IsOnTwist())
	require.True(t, q.Psi().IsOnTwist())
	require.True(t, q.Psi().Psi().Equal(q.Psi2()))
}

func TestEllCoeffsLength(t *testing.T) {
	_, _, _, g2 := bncurve.Generators()
	lines, err := EllCoeffs(G2FromAffine(g2))
	require.NoError(t, err)

	digits := AteLoopDigits()
	want := len(digits) - 1 + 2
	for i := 0; i < len(digits)-1; i++ {
		if digits[i] != 0 {
			want++
		}
	}
	require.Len(t, lines, want)
}
