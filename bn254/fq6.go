package bn254

import (
	fp "github.com/consensys/gnark-crypto/ecc/bn254/fp"

	"github.com/kysee/bitvm-bridge/bigint"
	"github.com/kysee/bitvm-bridge/scripts"
)

// Fq6 is the cubic extension over Fq2 with v^3 = xi = 9 + i.
type Fq6 struct {
	B0, B1, B2 Fq2
}

func Fq6Zero() Fq6 { return Fq6{} }

func Fq6One() Fq6 {
	var one Fq6
	one.B0 = Fq2One()
	return one
}

func (z Fq6) IsZero() bool { return z.B0.IsZero() && z.B1.IsZero() && z.B2.IsZero() }

func (z Fq6) IsOne() bool { return z.B0.IsOne() && z.B1.IsZero() && z.B2.IsZero() }

func (z Fq6) Equal(o Fq6) bool {
	return z.B0.Equal(o.B0) && z.B1.Equal(o.B1) && z.B2.Equal(o.B2)
}

func (z Fq6) Add(o Fq6) Fq6 {
	return Fq6{z.B0.Add(o.B0), z.B1.Add(o.B1), z.B2.Add(o.B2)}
}

func (z Fq6) Sub(o Fq6) Fq6 {
	return Fq6{z.B0.Sub(o.B0), z.B1.Sub(o.B1), z.B2.Sub(o.B2)}
}

func (z Fq6) Neg() Fq6 {
	return Fq6{z.B0.Neg(), z.B1.Neg(), z.B2.Neg()}
}

func (z Fq6) Double() Fq6 { return z.Add(z) }

func (z Fq6) Mul(o Fq6) Fq6 {
	// Toom-style schoolbook over Fq2 with xi reductions.
	t0 := z.B0.Mul(o.B0)
	t1 := z.B1.Mul(o.B1)
	t2 := z.B2.Mul(o.B2)

	var r Fq6
	// r0 = t0 + xi*((a1+a2)(b1+b2) - t1 - t2)
	u := z.B1.Add(z.B2).Mul(o.B1.Add(o.B2)).Sub(t1).Sub(t2)
	r.B0 = t0.Add(u.MulByNonResidue())
	// r1 = (a0+a1)(b0+b1) - t0 - t1 + xi*t2
	u = z.B0.Add(z.B1).Mul(o.B0.Add(o.B1)).Sub(t0).Sub(t1)
	r.B1 = u.Add(t2.MulByNonResidue())
	// r2 = (a0+a2)(b0+b2) - t0 - t2 + t1
	u = z.B0.Add(z.B2).Mul(o.B0.Add(o.B2)).Sub(t0).Sub(t2)
	r.B2 = u.Add(t1)
	return r
}

func (z Fq6) Square() Fq6 { return z.Mul(z) }

// MulByFq2 scales every coordinate by s.
func (z Fq6) MulByFq2(s Fq2) Fq6 {
	return Fq6{z.B0.Mul(s), z.B1.Mul(s), z.B2.Mul(s)}
}

// MulByNonResidue multiplies by v: (b0, b1, b2) -> (xi*b2, b0, b1).
func (z Fq6) MulByNonResidue() Fq6 {
	return Fq6{z.B2.MulByNonResidue(), z.B0, z.B1}
}

// Inverse uses the norm-cube formula.
func (z Fq6) Inverse() (Fq6, error) {
	c0 := z.B0.Square().Sub(z.B1.Mul(z.B2).MulByNonResidue())
	c1 := z.B2.Square().MulByNonResidue().Sub(z.B0.Mul(z.B1))
	c2 := z.B1.Square().Sub(z.B0.Mul(z.B2))
	norm := z.B0.Mul(c0).Add(z.B2.Mul(c1).MulByNonResidue()).Add(z.B1.Mul(c2).MulByNonResidue())
	if norm.IsZero() {
		return Fq6{}, ErrNotInvertible
	}
	inv, err := norm.Inverse()
	if err != nil {
		return Fq6{}, err
	}
	return Fq6{c0.Mul(inv), c1.Mul(inv), c2.Mul(inv)}, nil
}

// Coeffs returns the six base-field coefficients in hashing order.
func (z Fq6) Coeffs() []fp.Element {
	return []fp.Element{z.B0.C0, z.B0.C1, z.B1.C0, z.B1.C1, z.B2.C0, z.B2.C1}
}

// Fq6FromCoeffs is the inverse of Coeffs.
func Fq6FromCoeffs(c []fp.Element) Fq6 {
	var z Fq6
	z.B0.C0, z.B0.C1 = c[0], c[1]
	z.B1.C0, z.B1.C1 = c[2], c[3]
	z.B2.C0, z.B2.C1 = c[4], c[5]
	return z
}

// Script side: an Fq6 is three Fq2 values, B2 on top.

// Fq6Push pushes v.
func Fq6Push(b *scripts.Builder, v Fq6) {
	Fq2Push(b, v.B0)
	Fq2Push(b, v.B1)
	Fq2Push(b, v.B2)
}

// Fq6Copy copies the Fq6 at depth a (in Fq6 units).
func Fq6Copy(b *scripts.Builder, a int) {
	for i := 0; i < 6; i++ {
		bigint.Copy(b, 6*a+5)
	}
}

// Fq6Roll moves the Fq6 at depth a to the top.
func Fq6Roll(b *scripts.Builder, a int) {
	for i := 0; i < 6; i++ {
		bigint.Roll(b, 6*a+5)
	}
}

// Fq6Drop removes the top Fq6.
func Fq6Drop(b *scripts.Builder) {
	for i := 0; i < 3; i++ {
		Fq2Drop(b)
	}
}

// Fq6ToAltStack parks the top Fq6.
func Fq6ToAltStack(b *scripts.Builder) { b.ToAlt(6 * bigint.NLimbs) }

// Fq6FromAltStack restores an Fq6.
func Fq6FromAltStack(b *scripts.Builder) { b.FromAlt(6 * bigint.NLimbs) }

// Fq6Add pops [a b] and pushes a + b componentwise.
func Fq6Add(b *scripts.Builder) {
	for i := 0; i < 3; i++ {
		// The matching coordinate of a sits below the remaining b pairs.
		Fq2Roll(b, 3-i)
		Fq2Add(b)
		Fq2ToAltStack(b)
	}
	for i := 0; i < 3; i++ {
		Fq2FromAltStack(b)
	}
}

// Fq6Sub pops [a b] and pushes a - b componentwise.
func Fq6Sub(b *scripts.Builder) {
	for i := 0; i < 3; i++ {
		Fq2Roll(b, 3-i)
		Fq2Roll(b, 1)
		Fq2Sub(b)
		Fq2ToAltStack(b)
	}
	for i := 0; i < 3; i++ {
		Fq2FromAltStack(b)
	}
}

// Fq6EqualVerify pops two Fq6 values, failing unless equal.
func Fq6EqualVerify(b *scripts.Builder) {
	for i := 0; i < 6; i++ {
		bigint.EqualVerify(b, 6-i, 0)
	}
}