package bn254

import (
	"math/big"

	"github.com/btcsuite/btcd/txscript"
	fp "github.com/consensys/gnark-crypto/ecc/bn254/fp"

	"github.com/kysee/bitvm-bridge/bigint"
	"github.com/kysee/bitvm-bridge/scripts"
)

// Fq2 is a + b*i with i^2 = -1.
type Fq2 struct {
	C0, C1 fp.Element
}

// Fq2Zero returns the additive identity.
func Fq2Zero() Fq2 { return Fq2{} }

// Fq2One returns the multiplicative identity.
func Fq2One() Fq2 {
	var one Fq2
	one.C0.SetOne()
	return one
}

// NonResidueXi is xi = 9 + i, the Fp6 cubic non-residue.
func NonResidueXi() Fq2 {
	var xi Fq2
	xi.C0.SetUint64(9)
	xi.C1.SetOne()
	return xi
}

func (z Fq2) IsZero() bool { return z.C0.IsZero() && z.C1.IsZero() }

func (z Fq2) IsOne() bool { return z.C0.IsOne() && z.C1.IsZero() }

func (z Fq2) Equal(o Fq2) bool { return z.C0.Equal(&o.C0) && z.C1.Equal(&o.C1) }

func (z Fq2) Add(o Fq2) Fq2 {
	var r Fq2
	r.C0.Add(&z.C0, &o.C0)
	r.C1.Add(&z.C1, &o.C1)
	return r
}

func (z Fq2) Sub(o Fq2) Fq2 {
	var r Fq2
	r.C0.Sub(&z.C0, &o.C0)
	r.C1.Sub(&z.C1, &o.C1)
	return r
}

func (z Fq2) Neg() Fq2 {
	var r Fq2
	r.C0.Neg(&z.C0)
	r.C1.Neg(&z.C1)
	return r
}

func (z Fq2) Double() Fq2 { return z.Add(z) }

// Conjugate negates the imaginary part; it is the Fq2 Frobenius.
func (z Fq2) Conjugate() Fq2 {
	var r Fq2
	r.C0.Set(&z.C0)
	r.C1.Neg(&z.C1)
	return r
}

func (z Fq2) Mul(o Fq2) Fq2 {
	// (a0 + a1 i)(b0 + b1 i) = a0b0 - a1b1 + (a0b1 + a1b0) i
	var t0, t1, t2, t3 fp.Element
	t0.Mul(&z.C0, &o.C0)
	t1.Mul(&z.C1, &o.C1)
	t2.Mul(&z.C0, &o.C1)
	t3.Mul(&z.C1, &o.C0)
	var r Fq2
	r.C0.Sub(&t0, &t1)
	r.C1.Add(&t2, &t3)
	return r
}

func (z Fq2) Square() Fq2 {
	// (a+bi)^2 = (a+b)(a-b) + 2ab i
	var sum, diff, ab fp.Element
	sum.Add(&z.C0, &z.C1)
	diff.Sub(&z.C0, &z.C1)
	ab.Mul(&z.C0, &z.C1)
	var r Fq2
	r.C0.Mul(&sum, &diff)
	r.C1.Double(&ab)
	return r
}

// MulByFq scales both coordinates by s.
func (z Fq2) MulByFq(s fp.Element) Fq2 {
	var r Fq2
	r.C0.Mul(&z.C0, &s)
	r.C1.Mul(&z.C1, &s)
	return r
}

// MulByNonResidue multiplies by xi = 9 + i.
func (z Fq2) MulByNonResidue() Fq2 {
	return z.Mul(NonResidueXi())
}

// Inverse returns 1/z via the norm a^2 + b^2.
func (z Fq2) Inverse() (Fq2, error) {
	var norm, t fp.Element
	norm.Square(&z.C0)
	t.Square(&z.C1)
	norm.Add(&norm, &t)
	if norm.IsZero() {
		return Fq2{}, ErrNotInvertible
	}
	norm.Inverse(&norm)
	var r Fq2
	r.C0.Mul(&z.C0, &norm)
	r.C1.Mul(&z.C1, &norm)
	r.C1.Neg(&r.C1)
	return r, nil
}

// Exp raises z to a non-negative exponent by square-and-multiply.
func (z Fq2) Exp(e *big.Int) Fq2 {
	r := Fq2One()
	for i := e.BitLen() - 1; i >= 0; i-- {
		r = r.Square()
		if e.Bit(i) == 1 {
			r = r.Mul(z)
		}
	}
	return r
}

// Script side. An Fq2 on the stack is two 9-limb groups, imaginary part on
// top. Group depths below are in 9-limb units.

// Fq2Push pushes v.
func Fq2Push(b *scripts.Builder, v Fq2) {
	FqPush(b, v.C0)
	FqPush(b, v.C1)
}

// Fq2Copy copies the Fq2 at pair depth a (in Fq2 units) to the top.
func Fq2Copy(b *scripts.Builder, a int) {
	bigint.Copy(b, 2*a+1)
	bigint.Copy(b, 2*a+1)
}

// Fq2Roll moves the Fq2 at pair depth a to the top.
func Fq2Roll(b *scripts.Builder, a int) {
	bigint.Roll(b, 2*a+1)
	bigint.Roll(b, 2*a+1)
}

// Fq2Drop removes the top Fq2.
func Fq2Drop(b *scripts.Builder) {
	bigint.Drop(b)
	bigint.Drop(b)
}

// Fq2ToAltStack parks the top Fq2.
func Fq2ToAltStack(b *scripts.Builder) { b.ToAlt(2 * bigint.NLimbs) }

// Fq2FromAltStack restores an Fq2; the limb-wise transfers land both
// coordinates back in canonical order.
func Fq2FromAltStack(b *scripts.Builder) {
	b.FromAlt(2 * bigint.NLimbs)
}

// Fq2Add pops [a b] and pushes a + b componentwise.
func Fq2Add(b *scripts.Builder) {
	bigint.Roll(b, 2) // a1 to the top beside b1
	FqAdd(b)
	FqToAltStack(b)
	FqAdd(b)
	FqFromAltStack(b)
}

// Fq2Sub pops [a b] and pushes a - b componentwise.
func Fq2Sub(b *scripts.Builder) {
	bigint.Roll(b, 2)
	bigint.Roll(b, 1)
	FqSub(b)
	FqToAltStack(b)
	FqSub(b)
	FqFromAltStack(b)
}

// Fq2Neg negates the top Fq2.
func Fq2Neg(b *scripts.Builder) {
	FqNeg(b)
	FqToAltStack(b)
	FqNeg(b)
	FqFromAltStack(b)
}

// Fq2Conjugate negates the imaginary part.
func Fq2Conjugate(b *scripts.Builder) { FqNeg(b) }

// Fq2Double doubles the top Fq2.
func Fq2Double(b *scripts.Builder) {
	FqDouble(b)
	FqToAltStack(b)
	FqDouble(b)
	FqFromAltStack(b)
}

// Fq2EqualVerify pops two Fq2 values, failing unless equal.
func Fq2EqualVerify(b *scripts.Builder) {
	bigint.EqualVerify(b, 2, 0)
	bigint.EqualVerify(b, 1, 0)
}

// Fq2MulOnChain pops [a b] and pushes a*b with three windowed
// multiplications (Karatsuba).
func Fq2MulOnChain(b *scripts.Builder) {
	// t0 = a0*b0
	bigint.Copy(b, 3)
	bigint.Copy(b, 2)
	FqTapMul(b)
	FqToAltStack(b)
	// t1 = a1*b1
	bigint.Copy(b, 2)
	bigint.Copy(b, 1)
	FqTapMul(b)
	FqToAltStack(b)
	// u = (a0+a1)(b0+b1)
	bigint.Roll(b, 3)
	bigint.Roll(b, 3)
	FqAdd(b)
	FqToAltStack(b)
	FqAdd(b)
	FqFromAltStack(b)
	FqTapMul(b)
	// r0 = t0 - t1, r1 = u - t0 - t1
	FqFromAltStack(b) // t1
	FqFromAltStack(b) // t0
	bigint.Copy(b, 0)
	bigint.Copy(b, 2)
	FqSub(b) // t0 - t1
	FqToAltStack(b)
	FqAdd(b) // t0 + t1
	FqSub(b) // u - (t0 + t1)
	FqFromAltStack(b)
	bigint.Roll(b, 1)
}

// Fq2SquareOnChain squares the top Fq2 with two windowed multiplications.
func Fq2SquareOnChain(b *scripts.Builder) {
	// s = a0 + a1, d = a0 - a1, r0 = s*d, r1 = 2*a0*a1
	bigint.Copy(b, 1)
	bigint.Copy(b, 1)
	FqAdd(b)
	FqToAltStack(b)
	bigint.Copy(b, 1)
	bigint.Copy(b, 1)
	FqSub(b)
	FqFromAltStack(b)
	FqTapMul(b)
	FqToAltStack(b)
	FqTapMul(b)
	FqDouble(b)
	FqFromAltStack(b)
	bigint.Roll(b, 1)
}

// Fq2MulByConst multiplies the top Fq2 by the constant c using NAF ladders.
func Fq2MulByConst(b *scripts.Builder, c Fq2) {
	// r1 = a0*c1 + a1*c0
	bigint.Copy(b, 1)
	FqMulByConst(b, c.C1)
	FqToAltStack(b)
	bigint.Copy(b, 0)
	FqMulByConst(b, c.C0)
	FqFromAltStack(b)
	FqAdd(b)
	FqToAltStack(b)
	// r0 = a0*c0 - a1*c1
	FqMulByConst(b, c.C1)
	bigint.Roll(b, 1)
	FqMulByConst(b, c.C0)
	bigint.Roll(b, 1)
	FqSub(b)
	FqFromAltStack(b)
}

// Fq2MulByConstFq scales the top Fq2 by a base-field constant.
func Fq2MulByConstFq(b *scripts.Builder, s fp.Element) {
	FqMulByConst(b, s)
	FqToAltStack(b)
	FqMulByConst(b, s)
	FqFromAltStack(b)
}

// Fq2IsZero pops the top Fq2 leaving a boolean.
func Fq2IsZero(b *scripts.Builder) {
	bigint.IsZero(b)
	b.ToAlt(1)
	bigint.IsZero(b)
	b.FromAlt(1)
	b.Op(txscript.OP_BOOLAND)
}
