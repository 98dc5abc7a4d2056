package bn254

import "math/big"

// Frobenius twist constants, derived once from xi = 9 + i rather than
// transcribed: frobGamma1[i] = xi^{(i+1)(p-1)/6}, frobGamma2[i] the p^2
// counterpart. frobGamma1[1] and frobGamma1[2] double as the psi-endomorphism
// scalars on the G2 twist.
var (
	frobGamma1 [5]Fq2
	frobGamma2 [5]Fq2
)

func init() {
	p := QBig()
	six := big.NewInt(6)

	e1 := new(big.Int).Sub(p, big.NewInt(1))
	e1.Div(e1, six) // (p-1)/6

	p2 := new(big.Int).Mul(p, p)
	e2 := new(big.Int).Sub(p2, big.NewInt(1))
	e2.Div(e2, six) // (p^2-1)/6

	xi := NonResidueXi()
	for i := 0; i < 5; i++ {
		k := big.NewInt(int64(i + 1))
		frobGamma1[i] = xi.Exp(new(big.Int).Mul(e1, k))
		frobGamma2[i] = xi.Exp(new(big.Int).Mul(e2, k))
	}
}

// PsiScalars returns the two twist constants of the psi endomorphism:
// psi(x, y) = (conj(x)*gx, conj(y)*gy).
func PsiScalars() (gx, gy Fq2) {
	return frobGamma1[1], frobGamma1[2]
}

// Psi2Scalars returns the psi-squared constants; both are real, so the
// conjugations of two psi applications cancel into plain scalings.
func Psi2Scalars() (gx, gy Fq2) {
	return frobGamma2[1], frobGamma2[2]
}
