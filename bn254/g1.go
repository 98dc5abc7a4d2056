package bn254

import (
	bncurve "github.com/consensys/gnark-crypto/ecc/bn254"
	fp "github.com/consensys/gnark-crypto/ecc/bn254/fp"

	"github.com/kysee/bitvm-bridge/bigint"
	"github.com/kysee/bitvm-bridge/scripts"
)

// G1 arithmetic in affine coordinates with hinted slopes. The off-chain
// side computes alpha and -beta for each step; the script verifies the line
// passes through the inputs instead of dividing.

// G1DoubleHint carries the tangent data for one affine doubling.
type G1DoubleHint struct {
	Alpha   fp.Element // 3x^2 / 2y
	NegBeta fp.Element // alpha*x - y, negated intercept
	Out     bncurve.G1Affine
}

// G1AddHint carries the chord data for one affine addition.
type G1AddHint struct {
	Alpha   fp.Element
	NegBeta fp.Element
	Out     bncurve.G1Affine
}

// G1Double computes 2*p and its tangent hint.
func G1Double(p bncurve.G1Affine) (G1DoubleHint, error) {
	if p.IsInfinity() {
		return G1DoubleHint{}, ErrPointAtInfinity
	}
	var num, den, alpha fp.Element
	num.Square(&p.X)
	var three fp.Element
	three.SetUint64(3)
	num.Mul(&num, &three)
	den.Double(&p.Y)
	if den.IsZero() {
		return G1DoubleHint{}, ErrDegenerateLine
	}
	den.Inverse(&den)
	alpha.Mul(&num, &den)

	var negBeta, x3, y3, t fp.Element
	negBeta.Mul(&alpha, &p.X)
	negBeta.Sub(&negBeta, &p.Y)

	x3.Square(&alpha)
	t.Double(&p.X)
	x3.Sub(&x3, &t)
	t.Sub(&p.X, &x3)
	y3.Mul(&alpha, &t)
	y3.Sub(&y3, &p.Y)

	return G1DoubleHint{
		Alpha:   alpha,
		NegBeta: negBeta,
		Out:     bncurve.G1Affine{X: x3, Y: y3},
	}, nil
}

// G1Add computes p + q for distinct non-inverse points and the chord hint.
func G1Add(p, q bncurve.G1Affine) (G1AddHint, error) {
	if p.IsInfinity() || q.IsInfinity() {
		return G1AddHint{}, ErrPointAtInfinity
	}
	if p.X.Equal(&q.X) {
		return G1AddHint{}, ErrDegenerateLine
	}
	var num, den, alpha fp.Element
	num.Sub(&q.Y, &p.Y)
	den.Sub(&q.X, &p.X)
	den.Inverse(&den)
	alpha.Mul(&num, &den)

	var negBeta, x3, y3, t fp.Element
	negBeta.Mul(&alpha, &p.X)
	negBeta.Sub(&negBeta, &p.Y)

	x3.Square(&alpha)
	x3.Sub(&x3, &p.X)
	x3.Sub(&x3, &q.X)
	t.Sub(&p.X, &x3)
	y3.Mul(&alpha, &t)
	y3.Sub(&y3, &p.Y)

	return G1AddHint{
		Alpha:   alpha,
		NegBeta: negBeta,
		Out:     bncurve.G1Affine{X: x3, Y: y3},
	}, nil
}

// Script side. A G1 point is two 9-limb groups, y on top.

// G1Push pushes p.
func G1Push(b *scripts.Builder, p bncurve.G1Affine) {
	FqPush(b, p.X)
	FqPush(b, p.Y)
}

// G1Roll moves the point at point depth a to the top.
func G1Roll(b *scripts.Builder, a int) {
	bigint.Roll(b, 2*a+1)
	bigint.Roll(b, 2*a+1)
}

// G1OnCurveVerify asserts y^2 = x^3 + 3 for the top point, consuming it.
func G1OnCurveVerify(b *scripts.Builder) {
	// [x y]
	bigint.Copy(b, 0)
	FqMul(b) // y^2
	FqToAltStack(b)
	bigint.Copy(b, 0)
	bigint.Copy(b, 1)
	FqMul(b)
	FqMul(b) // x^3
	var three fp.Element
	three.SetUint64(3)
	FqPush(b, three)
	FqAdd(b)
	FqFromAltStack(b)
	bigint.EqualVerify(b, 1, 0)
}

// G1LineVerify asserts that the hinted line (alpha, negBeta) passes through
// both points beneath it: alpha*x - negBeta == y at each.
// Layout: [x1 y1 x2 y2 alpha negBeta]; everything is consumed.
func G1LineVerify(b *scripts.Builder) {
	// Point 2 first, on copies: alpha*x2 - negBeta == y2.
	bigint.Copy(b, 1) // alpha
	bigint.Copy(b, 4) // x2
	FqTapMul(b)
	bigint.Copy(b, 1) // negBeta
	FqSub(b)
	bigint.Roll(b, 3) // y2
	bigint.EqualVerify(b, 1, 0)
	// [x1 y1 x2 alpha negBeta]; x2 is spent.
	bigint.Roll(b, 2)
	bigint.Drop(b)
	// Point 1, consuming: alpha*x1 - negBeta == y1.
	bigint.Roll(b, 1) // alpha
	bigint.Roll(b, 3) // x1
	FqTapMul(b)
	bigint.Roll(b, 1) // negBeta
	FqSub(b)
	bigint.EqualVerify(b, 1, 0)
}

// G1TangentVerify asserts the hinted tangent touches the point and that the
// claimed double lies on it. Layout: [x y alpha negBeta x3 y3]; the result
// point survives on top.
func G1TangentVerify(b *scripts.Builder) {
	// 2*y*alpha == 3*x^2, the tangent condition.
	bigint.Copy(b, 4) // y
	FqDouble(b)
	bigint.Copy(b, 4) // alpha
	FqTapMul(b)
	bigint.Copy(b, 6) // x
	bigint.Copy(b, 0)
	FqTapMul(b)
	var three fp.Element
	three.SetUint64(3)
	FqMulByConst(b, three)
	bigint.EqualVerify(b, 1, 0)
	// alpha*x - negBeta == y, the intercept condition.
	bigint.Copy(b, 3) // alpha
	bigint.Copy(b, 6) // x
	FqTapMul(b)
	bigint.Copy(b, 3) // negBeta
	FqSub(b)
	bigint.Copy(b, 5) // y
	bigint.EqualVerify(b, 1, 0)
	// x3 == alpha^2 - 2x and the mirrored line hits y3:
	// alpha*x3 - negBeta == -y3.
	bigint.Copy(b, 3) // alpha
	bigint.Copy(b, 0)
	FqTapMul(b)
	bigint.Copy(b, 6) // x
	FqDouble(b)
	FqSub(b)
	bigint.Copy(b, 2) // x3
	bigint.EqualVerify(b, 1, 0)
	bigint.Copy(b, 3) // alpha
	bigint.Copy(b, 2) // x3
	FqTapMul(b)
	bigint.Copy(b, 3) // negBeta
	FqSub(b)
	bigint.Copy(b, 1) // y3
	FqNeg(b)
	bigint.EqualVerify(b, 1, 0)
	// [x y alpha negBeta x3 y3] -> [x3 y3]
	b.ToAlt(2 * bigint.NLimbs)
	for i := 0; i < 4; i++ {
		bigint.Drop(b)
	}
	b.FromAlt(2 * bigint.NLimbs)
}
