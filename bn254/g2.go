package bn254

import (
	bncurve "github.com/consensys/gnark-crypto/ecc/bn254"
	fp "github.com/consensys/gnark-crypto/ecc/bn254/fp"

	"github.com/kysee/bitvm-bridge/bigint"
	"github.com/kysee/bitvm-bridge/scripts"
)

// G2Point is an affine point on the sextic twist, kept in the package's own
// Fq2 form so the line machinery can reach the coordinates.
type G2Point struct {
	X, Y Fq2
}

// G2FromAffine converts from gnark-crypto coordinates.
func G2FromAffine(p bncurve.G2Affine) G2Point {
	return G2Point{
		X: Fq2{C0: p.X.A0, C1: p.X.A1},
		Y: Fq2{C0: p.Y.A0, C1: p.Y.A1},
	}
}

// ToAffine converts back to gnark-crypto coordinates.
func (p G2Point) ToAffine() bncurve.G2Affine {
	var out bncurve.G2Affine
	out.X.A0, out.X.A1 = p.X.C0, p.X.C1
	out.Y.A0, out.Y.A1 = p.Y.C0, p.Y.C1
	return out
}

// IsInfinity reports the canonical (0, 0) encoding of the identity.
func (p G2Point) IsInfinity() bool { return p.X.IsZero() && p.Y.IsZero() }

func (p G2Point) Equal(o G2Point) bool { return p.X.Equal(o.X) && p.Y.Equal(o.Y) }

func (p G2Point) Neg() G2Point { return G2Point{p.X, p.Y.Neg()} }

// TwistB is the twist coefficient 3/xi.
func TwistB() Fq2 {
	var three fp.Element
	three.SetUint64(3)
	xiInv, err := NonResidueXi().Inverse()
	if err != nil {
		panic("bn254: xi is invertible")
	}
	return xiInv.MulByFq(three)
}

// IsOnTwist reports y^2 == x^3 + 3/xi.
func (p G2Point) IsOnTwist() bool {
	if p.IsInfinity() {
		return true
	}
	lhs := p.Y.Square()
	rhs := p.X.Square().Mul(p.X).Add(TwistB())
	return lhs.Equal(rhs)
}

// Psi applies the twist Frobenius endomorphism.
func (p G2Point) Psi() G2Point {
	gx, gy := PsiScalars()
	return G2Point{
		X: p.X.Conjugate().Mul(gx),
		Y: p.Y.Conjugate().Mul(gy),
	}
}

// Psi2 applies psi twice; both scalings are real.
func (p G2Point) Psi2() G2Point {
	gx, gy := Psi2Scalars()
	return G2Point{
		X: p.X.Mul(gx),
		Y: p.Y.Mul(gy),
	}
}

// G2LineHint carries the tangent or chord data for one affine G2 step.
type G2LineHint struct {
	Alpha   Fq2 // slope
	NegBeta Fq2 // alpha*x - y at the touching point
	Out     G2Point
}

// G2Double computes 2*t and its tangent hint.
func G2Double(t G2Point) (G2LineHint, error) {
	if t.IsInfinity() {
		return G2LineHint{}, ErrPointAtInfinity
	}
	var three fp.Element
	three.SetUint64(3)
	num := t.X.Square().MulByFq(three)
	den := t.Y.Double()
	denInv, err := den.Inverse()
	if err != nil {
		return G2LineHint{}, ErrDegenerateLine
	}
	alpha := num.Mul(denInv)
	negBeta := alpha.Mul(t.X).Sub(t.Y)

	x3 := alpha.Square().Sub(t.X.Double())
	y3 := alpha.Mul(t.X.Sub(x3)).Sub(t.Y)
	return G2LineHint{Alpha: alpha, NegBeta: negBeta, Out: G2Point{x3, y3}}, nil
}

// G2Add computes t + q through the chord and its hint.
func G2Add(t, q G2Point) (G2LineHint, error) {
	if t.IsInfinity() || q.IsInfinity() {
		return G2LineHint{}, ErrPointAtInfinity
	}
	if t.X.Equal(q.X) {
		return G2LineHint{}, ErrDegenerateLine
	}
	den := q.X.Sub(t.X)
	denInv, err := den.Inverse()
	if err != nil {
		return G2LineHint{}, err
	}
	alpha := q.Y.Sub(t.Y).Mul(denInv)
	negBeta := alpha.Mul(t.X).Sub(t.Y)

	x3 := alpha.Square().Sub(t.X).Sub(q.X)
	y3 := alpha.Mul(t.X.Sub(x3)).Sub(t.Y)
	return G2LineHint{Alpha: alpha, NegBeta: negBeta, Out: G2Point{x3, y3}}, nil
}

// Script side. A G2 point is two Fq2 values (four groups), y on top.

// G2Push pushes p.
func G2Push(b *scripts.Builder, p G2Point) {
	Fq2Push(b, p.X)
	Fq2Push(b, p.Y)
}

// G2OnTwistVerify asserts y^2 == x^3 + 3/xi for the top point, consuming
// it.
func G2OnTwistVerify(b *scripts.Builder) {
	// [x y] as Fq2 pairs.
	Fq2Copy(b, 0)
	Fq2MulOnChain(b) // y^2
	Fq2ToAltStack(b)
	Fq2Copy(b, 0)
	Fq2Copy(b, 1)
	Fq2MulOnChain(b)
	Fq2MulOnChain(b) // x^3
	Fq2Push(b, TwistB())
	Fq2Add(b)
	Fq2FromAltStack(b)
	Fq2EqualVerify(b)
}

// G2TangentVerify asserts the hinted tangent touches the point beneath it
// and that the claimed double lies on the mirrored line. Layout as Fq2
// pairs: [x y alpha negBeta x3 y3]; the result point survives on top.
func G2TangentVerify(b *scripts.Builder) {
	var three fp.Element
	three.SetUint64(3)

	// 2*y*alpha == 3*x^2.
	Fq2Copy(b, 4) // y
	Fq2Double(b)
	Fq2Copy(b, 4) // alpha
	Fq2MulOnChain(b)
	Fq2Copy(b, 6) // x
	Fq2Copy(b, 0)
	Fq2MulOnChain(b)
	Fq2MulByConstFq(b, three)
	Fq2EqualVerify(b)
	// alpha*x - negBeta == y.
	Fq2Copy(b, 3) // alpha
	Fq2Copy(b, 6) // x
	Fq2MulOnChain(b)
	Fq2Copy(b, 3) // negBeta
	Fq2Sub(b)
	Fq2Copy(b, 5) // y
	Fq2EqualVerify(b)
	// x3 == alpha^2 - 2x.
	Fq2Copy(b, 3) // alpha
	Fq2Copy(b, 0)
	Fq2MulOnChain(b)
	Fq2Copy(b, 6) // x
	Fq2Double(b)
	Fq2Sub(b)
	Fq2Copy(b, 2) // x3
	Fq2EqualVerify(b)
	// alpha*x3 - negBeta == -y3.
	Fq2Copy(b, 3) // alpha
	Fq2Copy(b, 2) // x3
	Fq2MulOnChain(b)
	Fq2Copy(b, 3) // negBeta
	Fq2Sub(b)
	Fq2Copy(b, 1) // y3
	Fq2Neg(b)
	Fq2EqualVerify(b)
	// [x y alpha negBeta x3 y3] -> [x3 y3]
	b.ToAlt(4 * bigint.NLimbs)
	for i := 0; i < 8; i++ {
		bigint.Drop(b)
	}
	b.FromAlt(4 * bigint.NLimbs)
}

// G2ChordVerify asserts the hinted chord passes through the two points
// beneath it and that the claimed sum lies on the mirrored line. Layout:
// [xt yt xq yq alpha negBeta x3 y3]; the result point survives.
func G2ChordVerify(b *scripts.Builder) {
	// alpha*xt - negBeta == yt.
	Fq2Copy(b, 3) // alpha
	Fq2Copy(b, 8) // xt
	Fq2MulOnChain(b)
	Fq2Copy(b, 3) // negBeta
	Fq2Sub(b)
	Fq2Copy(b, 7) // yt
	Fq2EqualVerify(b)
	// alpha*xq - negBeta == yq.
	Fq2Copy(b, 3) // alpha
	Fq2Copy(b, 6) // xq
	Fq2MulOnChain(b)
	Fq2Copy(b, 3) // negBeta
	Fq2Sub(b)
	Fq2Copy(b, 5) // yq
	Fq2EqualVerify(b)
	// x3 == alpha^2 - xt - xq.
	Fq2Copy(b, 3) // alpha
	Fq2Copy(b, 0)
	Fq2MulOnChain(b)
	Fq2Copy(b, 8) // xt
	Fq2Sub(b)
	Fq2Copy(b, 6) // xq
	Fq2Sub(b)
	Fq2Copy(b, 2) // x3
	Fq2EqualVerify(b)
	// alpha*x3 - negBeta == -y3.
	Fq2Copy(b, 3) // alpha
	Fq2Copy(b, 2) // x3
	Fq2MulOnChain(b)
	Fq2Copy(b, 3) // negBeta
	Fq2Sub(b)
	Fq2Copy(b, 1) // y3
	Fq2Neg(b)
	Fq2EqualVerify(b)
	// Keep only the result point.
	b.ToAlt(4 * bigint.NLimbs)
	for i := 0; i < 12; i++ {
		bigint.Drop(b)
	}
	b.FromAlt(4 * bigint.NLimbs)
}
