package groth16

import (
	"errors"
	"fmt"
	"math/big"

	bncurve "github.com/consensys/gnark-crypto/ecc/bn254"
	fp "github.com/consensys/gnark-crypto/ecc/bn254/fp"

	"github.com/kysee/bitvm-bridge/bn254"
)

var (
	// ErrNotResidue means f is outside the r-th power subgroup: the proof
	// behind it cannot be valid.
	ErrNotResidue = errors.New("groth16: miller output is not an r-th residue")

	errNonResidueSearch = errors.New("groth16: cubic non-residue search exhausted")
)

// tonelliShanksCubic extracts a cube root of a, given a cubic non-residue
// c and the factorization p^12 - 1 = 3^s * t (table 3 of eprint 2009/457).
func tonelliShanksCubic(a, c bn254.Fq12, s uint32, t, k *big.Int) (bn254.Fq12, error) {
	r := a.Exp(t)
	e := new(big.Int).Exp(big.NewInt(3), big.NewInt(int64(s-1)), nil)
	exp := new(big.Int).Exp(big.NewInt(3), big.NewInt(int64(s)), nil)
	exp.Mul(exp, t)

	// Cube root of (a^t)^-1, accumulated in h.
	h := bn254.Fq12One()
	cc := c.Exp(e)
	cInv, err := c.Inverse()
	if err != nil {
		return bn254.Fq12{}, err
	}
	c = cInv
	for i := int32(1); i < int32(s); i++ {
		delta := int32(s) - i - 1
		var d bn254.Fq12
		if delta < 0 {
			div := new(big.Int).Exp(big.NewInt(3), big.NewInt(int64(-delta)), nil)
			d = r.Exp(new(big.Int).Div(exp, div))
		} else {
			d = r.Exp(new(big.Int).Exp(big.NewInt(3), big.NewInt(int64(delta)), nil))
		}
		if d.Equal(cc) {
			h = h.Mul(c)
			r = r.Mul(c.Exp(big.NewInt(3)))
		} else if d.Equal(cc.Exp(big.NewInt(2))) {
			h = h.Mul(c.Exp(big.NewInt(2)))
			r = r.Mul(c.Exp(big.NewInt(3)).Exp(big.NewInt(2)))
		}
		c = c.Exp(big.NewInt(3))
	}

	r = a.Exp(k).Mul(h)
	check := new(big.Int).Mul(big.NewInt(3), k)
	check.Add(check, big.NewInt(1))
	if t.Cmp(check) == 0 {
		var err error
		r, err = r.Inverse()
		if err != nil {
			return bn254.Fq12{}, err
		}
	}
	if !r.Exp(big.NewInt(3)).Equal(a) {
		return bn254.Fq12{}, fmt.Errorf("groth16: cube root extraction failed")
	}
	return r, nil
}

// sampleNonResidueW deterministically finds the 27-th root scale w = z^t
// from a cubic non-residue z; the counter walk replaces randomness so
// compile time and runtime derive the same wi set.
func sampleNonResidueW(t, cofactorCubic *big.Int) (bn254.Fq12, error) {
	one := bn254.Fq12One()
	for ctr := uint64(1); ctr < 512; ctr++ {
		var z bn254.Fq12
		var seed fp.Element
		seed.SetUint64(ctr)
		z.C0.B0.C0 = seed
		z.C0.B1.C0.SetUint64(ctr + 1)
		z.C1.B0.C0.SetOne()
		if z.Exp(cofactorCubic).Equal(one) {
			continue // cubic residue, keep walking
		}
		w := z.Exp(t)
		if !w.Equal(one) {
			return w, nil
		}
	}
	return bn254.Fq12{}, errNonResidueSearch
}

// ComputeCWi derives the residue witness for a Miller-loop output f:
// c and wi with c^lambda = f * wi, wi one of {1, w, w^2} for the fixed
// cubic non-residue scale w (Algorithm 5 of eprint 2024/640).
func ComputeCWi(f bn254.Fq12) (c, wi bn254.Fq12, err error) {
	one := bn254.Fq12One()
	p12 := exp12()
	r := bn254.RBig()

	h := new(big.Int).Div(p12, r)
	const s = 3
	t := new(big.Int).Div(p12, big.NewInt(27))
	k := new(big.Int).Add(t, big.NewInt(1))
	k.Div(k, big.NewInt(3))
	m := new(big.Int).Div(Lambda(), r)
	mm := new(big.Int).Div(m, big.NewInt(3))
	cofactorCubic := new(big.Int).Mul(big.NewInt(9), t)

	if !f.Exp(h).Equal(one) {
		return bn254.Fq12{}, bn254.Fq12{}, ErrNotResidue
	}

	w, err := sampleNonResidueW(t, cofactorCubic)
	if err != nil {
		return bn254.Fq12{}, bn254.Fq12{}, err
	}

	// f*wi must land in the cubic-residue subgroup; wi absorbs the cubic
	// sign, staying 1 when f already is a residue (the identity pairing
	// included).
	wi = one
	if !f.Exp(cofactorCubic).Equal(one) {
		wi = w
		if !f.Mul(wi).Exp(cofactorCubic).Equal(one) {
			wi = w.Mul(w)
			if !f.Mul(wi).Exp(cofactorCubic).Equal(one) {
				return bn254.Fq12{}, bn254.Fq12{}, fmt.Errorf("groth16: no cubic shift balances f")
			}
		}
	}

	f1 := f.Mul(wi)

	rInv := new(big.Int).ModInverse(r, h)
	if rInv == nil {
		return bn254.Fq12{}, bn254.Fq12{}, fmt.Errorf("groth16: r has no inverse mod h")
	}
	f2 := f1.Exp(rInv)

	rh := new(big.Int).Mul(r, h)
	mmInv := new(big.Int).ModInverse(mm, rh)
	if mmInv == nil {
		return bn254.Fq12{}, bn254.Fq12{}, fmt.Errorf("groth16: m' has no inverse mod r*h")
	}
	f3 := f2.Exp(mmInv)

	c, err = tonelliShanksCubic(f3, w, s, t, k)
	if err != nil {
		return bn254.Fq12{}, bn254.Fq12{}, err
	}

	if !c.Exp(Lambda()).Equal(f.Mul(wi)) {
		return bn254.Fq12{}, bn254.Fq12{}, fmt.Errorf("groth16: witness check c^lambda != f*wi")
	}
	return c, wi, nil
}

// WiCandidates returns the three admissible values of wi in canonical
// order; the on-chain class check tests membership.
func WiCandidates() ([3]bn254.Fq12, error) {
	p12 := exp12()
	t := new(big.Int).Div(p12, big.NewInt(27))
	cofactorCubic := new(big.Int).Mul(big.NewInt(9), t)
	w, err := sampleNonResidueW(t, cofactorCubic)
	if err != nil {
		return [3]bn254.Fq12{}, err
	}
	return [3]bn254.Fq12{bn254.Fq12One(), w, w.Mul(w)}, nil
}

// MillerOutput runs the reference affine Miller loop over the four pairing
// pairs of the Groth16 equation.
func MillerOutput(p []bncurve.G1Affine, q []bncurve.G2Affine) (bn254.Fq12, error) {
	f, err := bncurve.MillerLoop(p, q)
	if err != nil {
		return bn254.Fq12{}, err
	}
	return bn254.Fq12FromGT(f), nil
}
