package bn254

import (
	"math/big"

	bncurve "github.com/consensys/gnark-crypto/ecc/bn254"
)

// Fq12 is the quadratic extension over Fq6 with w^2 = v.
type Fq12 struct {
	C0, C1 Fq6
}

func Fq12One() Fq12 {
	var one Fq12
	one.C0 = Fq6One()
	return one
}

func (z Fq12) IsOne() bool { return z.C0.IsOne() && z.C1.IsZero() }

func (z Fq12) IsZero() bool { return z.C0.IsZero() && z.C1.IsZero() }

func (z Fq12) Equal(o Fq12) bool { return z.C0.Equal(o.C0) && z.C1.Equal(o.C1) }

func (z Fq12) Mul(o Fq12) Fq12 {
	// Karatsuba: three Fq6 multiplications.
	t0 := z.C0.Mul(o.C0)
	t1 := z.C1.Mul(o.C1)
	var r Fq12
	r.C0 = t0.Add(t1.MulByNonResidue())
	r.C1 = z.C0.Add(z.C1).Mul(o.C0.Add(o.C1)).Sub(t0).Sub(t1)
	return r
}

func (z Fq12) Square() Fq12 {
	// Complex squaring: two Fq6 multiplications.
	ab := z.C0.Mul(z.C1)
	t := z.C0.Add(z.C1).Mul(z.C0.Add(z.C1.MulByNonResidue()))
	var r Fq12
	r.C0 = t.Sub(ab).Sub(ab.MulByNonResidue())
	r.C1 = ab.Double()
	return r
}

func (z Fq12) Conjugate() Fq12 {
	return Fq12{z.C0, z.C1.Neg()}
}

func (z Fq12) Inverse() (Fq12, error) {
	// 1/(c0 + c1 w) = (c0 - c1 w)/(c0^2 - v*c1^2)
	norm := z.C0.Square().Sub(z.C1.Square().MulByNonResidue())
	inv, err := norm.Inverse()
	if err != nil {
		return Fq12{}, err
	}
	return Fq12{z.C0.Mul(inv), z.C1.Neg().Mul(inv)}, nil
}

// Exp raises z to a non-negative exponent.
func (z Fq12) Exp(e *big.Int) Fq12 {
	r := Fq12One()
	for i := e.BitLen() - 1; i >= 0; i-- {
		r = r.Square()
		if e.Bit(i) == 1 {
			r = r.Mul(z)
		}
	}
	return r
}

// Frobenius applies the p-power map; power selects p, p^2 or p^3.
func (z Fq12) Frobenius(power int) Fq12 {
	switch power {
	case 1:
		var r Fq12
		r.C0.B0 = z.C0.B0.Conjugate()
		r.C0.B1 = z.C0.B1.Conjugate().Mul(frobGamma1[1])
		r.C0.B2 = z.C0.B2.Conjugate().Mul(frobGamma1[3])
		r.C1.B0 = z.C1.B0.Conjugate().Mul(frobGamma1[0])
		r.C1.B1 = z.C1.B1.Conjugate().Mul(frobGamma1[2])
		r.C1.B2 = z.C1.B2.Conjugate().Mul(frobGamma1[4])
		return r
	case 2:
		var r Fq12
		r.C0.B0 = z.C0.B0
		r.C0.B1 = z.C0.B1.Mul(frobGamma2[1])
		r.C0.B2 = z.C0.B2.Mul(frobGamma2[3])
		r.C1.B0 = z.C1.B0.Mul(frobGamma2[0])
		r.C1.B1 = z.C1.B1.Mul(frobGamma2[2])
		r.C1.B2 = z.C1.B2.Mul(frobGamma2[4])
		return r
	case 3:
		return z.Frobenius(2).Frobenius(1)
	}
	panic("bn254: unsupported frobenius power")
}

// ToGT converts to the gnark-crypto representation.
func (z Fq12) ToGT() bncurve.GT {
	var g bncurve.GT
	g.C0.B0.A0, g.C0.B0.A1 = z.C0.B0.C0, z.C0.B0.C1
	g.C0.B1.A0, g.C0.B1.A1 = z.C0.B1.C0, z.C0.B1.C1
	g.C0.B2.A0, g.C0.B2.A1 = z.C0.B2.C0, z.C0.B2.C1
	g.C1.B0.A0, g.C1.B0.A1 = z.C1.B0.C0, z.C1.B0.C1
	g.C1.B1.A0, g.C1.B1.A1 = z.C1.B1.C0, z.C1.B1.C1
	g.C1.B2.A0, g.C1.B2.A1 = z.C1.B2.C0, z.C1.B2.C1
	return g
}

// Fq12FromGT converts from the gnark-crypto representation.
func Fq12FromGT(g bncurve.GT) Fq12 {
	var z Fq12
	z.C0.B0.C0, z.C0.B0.C1 = g.C0.B0.A0, g.C0.B0.A1
	z.C0.B1.C0, z.C0.B1.C1 = g.C0.B1.A0, g.C0.B1.A1
	z.C0.B2.C0, z.C0.B2.C1 = g.C0.B2.A0, g.C0.B2.A1
	z.C1.B0.C0, z.C1.B0.C1 = g.C1.B0.A0, g.C1.B0.A1
	z.C1.B1.C0, z.C1.B1.C1 = g.C1.B1.A0, g.C1.B1.A1
	z.C1.B2.C0, z.C1.B2.C1 = g.C1.B2.A0, g.C1.B2.A1
	return z
}
