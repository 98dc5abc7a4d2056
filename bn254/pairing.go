package bn254

import (
	"math/big"

	fp "github.com/consensys/gnark-crypto/ecc/bn254/fp"
)

// SeedX is the BN254 curve seed; the ATE loop runs over the NAF digits of
// 6x + 2.
const SeedX = 4965661367192848881

// ateDigits is NAF(6x+2), least significant digit first, derived at init
// rather than transcribed.
var ateDigits []int8

func init() {
	t := new(big.Int).SetUint64(SeedX)
	t.Mul(t, big.NewInt(6))
	t.Add(t, big.NewInt(2))
	one := big.NewInt(1)
	for t.Sign() > 0 {
		if t.Bit(0) == 1 {
			switch new(big.Int).And(t, big.NewInt(3)).Int64() {
			case 1:
				ateDigits = append(ateDigits, 1)
				t.Sub(t, one)
			default:
				ateDigits = append(ateDigits, -1)
				t.Add(t, one)
			}
		} else {
			ateDigits = append(ateDigits, 0)
		}
		t.Rsh(t, 1)
	}
}

// AteLoopDigits returns NAF(6x+2), least significant first. The Miller
// loop iterates from the second most significant digit down.
func AteLoopDigits() []int8 {
	out := make([]int8, len(ateDigits))
	copy(out, ateDigits)
	return out
}

// LineFunc is a tangent or chord on the twist: slope alpha and negated
// intercept negBeta. For the verifying key's fixed bases these are
// compile-time constants; for the proof's B they are runtime hints.
type LineFunc struct {
	Alpha   Fq2
	NegBeta Fq2
}

// The Miller accumulator f = c0 + c1*w is tracked projectively by the
// quotient c1/c0 in Fq6; Fq6-scalar factors drop out, which is what lets
// per-step line normalizations and the baked p1q1 product enter as plain
// ratios. f == 1 collapses to ratio == 0 together with the residue-witness
// structure.

// RatioFromFq12 returns c1/c0.
func RatioFromFq12(z Fq12) (Fq6, error) {
	inv, err := z.C0.Inverse()
	if err != nil {
		return Fq6{}, err
	}
	return z.C1.Mul(inv), nil
}

// RatioSqr squares in ratio form: (1+t*w)^2 ~ 1 + (2t/(1+t^2*v))*w.
func RatioSqr(t Fq6) (Fq6, error) {
	den := Fq6One().Add(t.Square().MulByNonResidue())
	inv, err := den.Inverse()
	if err != nil {
		return Fq6{}, err
	}
	return t.Double().Mul(inv), nil
}

// RatioMul multiplies two ratio-form values:
// (1+t*w)(1+s*w) ~ 1 + ((t+s)/(1+t*s*v))*w.
func RatioMul(t, s Fq6) (Fq6, error) {
	den := Fq6One().Add(t.Mul(s).MulByNonResidue())
	inv, err := den.Inverse()
	if err != nil {
		return Fq6{}, err
	}
	return t.Add(s).Mul(inv), nil
}

// LineRatio evaluates the line at the G1 point (px, py) and returns the
// ratio form of y_P - alpha*x_P*w - beta*w^3:
// (-alpha*x_P + negBeta*v) / y_P.
func LineRatio(l LineFunc, px, py fp.Element) (Fq6, error) {
	if py.IsZero() {
		return Fq6{}, ErrPointAtInfinity
	}
	var yInv fp.Element
	yInv.Inverse(&py)
	var r Fq6
	r.B0 = l.Alpha.MulByFq(px).Neg().MulByFq(yInv)
	r.B1 = l.NegBeta.MulByFq(yInv)
	return r, nil
}

// EllCoeffs walks the ATE loop for a fixed base Q and returns every
// tangent/chord the loop consumes, in consumption order: per digit one
// tangent, plus one chord on a +-1 digit, and the two Frobenius chords at
// the end. The accumulator evolution matches the runtime walk bit for bit.
func EllCoeffs(q G2Point) ([]LineFunc, error) {
	if q.IsInfinity() {
		return nil, ErrPointAtInfinity
	}
	var out []LineFunc
	t := q
	qNeg := q.Neg()

	digits := AteLoopDigits()
	for i := len(digits) - 2; i >= 0; i-- {
		hint, err := G2Double(t)
		if err != nil {
			return nil, err
		}
		out = append(out, LineFunc{hint.Alpha, hint.NegBeta})
		t = hint.Out

		switch digits[i] {
		case 1:
			hint, err = G2Add(t, q)
		case -1:
			hint, err = G2Add(t, qNeg)
		default:
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, LineFunc{hint.Alpha, hint.NegBeta})
		t = hint.Out
	}

	// Frobenius additions: T + psi(Q), then T - psi^2(Q).
	q1 := q.Psi()
	q2 := q.Psi2().Neg()
	hint, err := G2Add(t, q1)
	if err != nil {
		return nil, err
	}
	out = append(out, LineFunc{hint.Alpha, hint.NegBeta})
	t = hint.Out

	hint, err = G2Add(t, q2)
	if err != nil {
		return nil, err
	}
	out = append(out, LineFunc{hint.Alpha, hint.NegBeta})
	return out, nil
}
