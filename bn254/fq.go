// Package bn254 provides the BN254 opcode generators used by the chunked
// verifier: base/scalar field arithmetic over 9x30-bit limbs, the Fp2/Fp6/
// Fp12 tower with hinted identities, affine G1/G2 with hinted slopes, and
// the affine Miller loop machinery.
//
// Off-chain arithmetic rides gnark-crypto's fp/fr elements; the script side
// only ever verifies identities the prover hints.
package bn254

import (
	"math/big"

	"github.com/btcsuite/btcd/txscript"
	fp "github.com/consensys/gnark-crypto/ecc/bn254/fp"
	fr "github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/holiman/uint256"

	"github.com/kysee/bitvm-bridge/bigint"
	"github.com/kysee/bitvm-bridge/scripts"
)

// Base and scalar field moduli, big-endian hex.
const (
	FqModulusHex = "30644e72e131a029b85045b68181585d97816a916871ca8d3c208c16d87cfd47"
	FrModulusHex = "30644e72e131a029b85045b68181585d2833e84879b9709143e1f593f0000001"
)

var (
	qU256 = mustU256(FqModulusHex)
	rU256 = mustU256(FrModulusHex)

	// Derived halving/thirding constants: (q+1)/2, (2q+1)/3, (q+2)/3 and
	// the r-side counterparts.
	qPlus1Div2  = derivedConst(qU256, 1, 2)
	twoQ1Div3   = derivedConst2(qU256, 1, 3)
	qPlus2Div3  = derivedConst(qU256, 2, 3)
	rPlus1Div2  = derivedConst(rU256, 1, 2)
	twoR1Div3   = derivedConst2(rU256, 1, 3)
	rPlus2Div3  = derivedConst(rU256, 2, 3)
)

func mustU256(hexStr string) *uint256.Int {
	v, err := uint256.FromHex("0x" + hexStr)
	if err != nil {
		panic("bn254: bad modulus constant")
	}
	return v
}

// derivedConst returns (m + add) / div.
func derivedConst(m *uint256.Int, add, div uint64) *uint256.Int {
	t := new(big.Int).Add(m.ToBig(), new(big.Int).SetUint64(add))
	t.Div(t, new(big.Int).SetUint64(div))
	out, _ := uint256.FromBig(t)
	return out
}

// derivedConst2 returns (2m + add) / div.
func derivedConst2(m *uint256.Int, add, div uint64) *uint256.Int {
	t := new(big.Int).Lsh(m.ToBig(), 1)
	t.Add(t, new(big.Int).SetUint64(add))
	t.Div(t, new(big.Int).SetUint64(div))
	out, _ := uint256.FromBig(t)
	return out
}

// FqToU256 converts a field element to its canonical integer.
func FqToU256(v fp.Element) *uint256.Int {
	var bi big.Int
	v.BigInt(&bi)
	out, _ := uint256.FromBig(&bi)
	return out
}

// FrToU256 converts a scalar element to its canonical integer.
func FrToU256(v fr.Element) *uint256.Int {
	var bi big.Int
	v.BigInt(&bi)
	out, _ := uint256.FromBig(&bi)
	return out
}

// FqFromU256 reduces an integer into the base field.
func FqFromU256(v *uint256.Int) fp.Element {
	var e fp.Element
	e.SetBigInt(v.ToBig())
	return e
}

// FqPush pushes the nine limbs of v.
func FqPush(b *scripts.Builder, v fp.Element) {
	bigint.Push(b, FqToU256(v))
}

// FrPush pushes the nine limbs of the scalar v.
func FrPush(b *scripts.Builder, v fr.Element) {
	bigint.Push(b, FrToU256(v))
}

// FqPushModulus pushes q.
func FqPushModulus(b *scripts.Builder) {
	bigint.Push(b, qU256)
}

// FqAdd pops two elements and pushes their field sum.
func FqAdd(b *scripts.Builder) { bigint.AddMod(b, qU256) }

// FqSub pops b then a and pushes a - b.
func FqSub(b *scripts.Builder) { bigint.SubMod(b, qU256) }

// FqNeg negates the top element.
func FqNeg(b *scripts.Builder) { bigint.NegMod(b, qU256) }

// FqDouble doubles the top element.
func FqDouble(b *scripts.Builder) { bigint.DoubleMod(b, qU256) }

// FqMul pops two elements and pushes their product via the bit ladder.
func FqMul(b *scripts.Builder) { bigint.MulMod(b, qU256) }

// FqMulByConst multiplies the top element by c over the NAF of c.
func FqMulByConst(b *scripts.Builder, c fp.Element) {
	bigint.MulByConst(b, FqToU256(c), qU256)
}

// FqIsFieldVerify asserts the top element is canonical, leaving it.
func FqIsFieldVerify(b *scripts.Builder) { bigint.IsFieldVerify(b, qU256) }

// FrIsFieldVerify asserts the top scalar is canonical, leaving it.
func FrIsFieldVerify(b *scripts.Builder) { bigint.IsFieldVerify(b, rU256) }

// FqEqualVerify pops the groups at depths a and b, failing unless equal.
func FqEqualVerify(b *scripts.Builder, ga, gb int) { bigint.EqualVerify(b, ga, gb) }

// FqDiv2 halves the top element: shift right, then add (q+1)/2 when the
// dropped bit was set.
func FqDiv2(b *scripts.Builder) {
	bigint.Div2Rem(b)
	b.Op(txscript.OP_IF)
	bigint.Push(b, qPlus1Div2)
	bigint.AddMod(b, qU256)
	b.Op(txscript.OP_ENDIF)
}

// FqDiv3 computes a/3 through the hinted quotient: the witness supplies q3
// with 3*q3 = a (mod q); the script recomputes 3*q3 and compares. Division
// by three has no carry-free limb walk inside the 4-byte number bound, so
// the quotient is hinted like every other expensive step.
func FqDiv3(b *scripts.Builder) {
	// [a q3] with the hint on top; q3 itself survives as the result.
	bigint.Copy(b, 0)
	bigint.Copy(b, 0)
	bigint.Copy(b, 0)
	bigint.AddMod(b, qU256)
	bigint.AddMod(b, qU256) // 3*q3
	bigint.Roll(b, 2)       // a
	bigint.EqualVerify(b, 1, 0)
}

// FqInvVerify pops [a aInv] and fails unless a*aInv == 1. Inversion rides
// the hint discipline: the reference's two-stage Euclidean walk costs far
// more opcodes than the product check that replaces it.
func FqInvVerify(b *scripts.Builder) {
	FqTapMul(b)
	bigint.IsOne(b)
	b.Op(txscript.OP_VERIFY)
}

// FqToAltStack parks the top element on the altstack.
func FqToAltStack(b *scripts.Builder) { b.ToAlt(bigint.NLimbs) }

// FqFromAltStack restores an element from the altstack.
func FqFromAltStack(b *scripts.Builder) { b.FromAlt(bigint.NLimbs) }

// QBig returns q as a big.Int.
func QBig() *big.Int { return qU256.ToBig() }

// FqU256 returns q as a uint256 copy.
func FqU256() *uint256.Int { return new(uint256.Int).Set(qU256) }

// RBig returns r as a big.Int.
func RBig() *big.Int { return rU256.ToBig() }
