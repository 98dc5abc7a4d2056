package chunk

import (
	"github.com/btcsuite/btcd/txscript"
	fp "github.com/consensys/gnark-crypto/ecc/bn254/fp"

	"github.com/kysee/bitvm-bridge/bigint"
	"github.com/kysee/bitvm-bridge/bn254"
	"github.com/kysee/bitvm-bridge/hash"
	"github.com/kysee/bitvm-bridge/scripts"
)

// Tap payload builders. Every non-final tap follows the same skeleton:
//
//   1. hashMessages(parameterTypes): the recovered preimages are checked
//      against the committed digests the locking prefix parked.
//   2. The arithmetic identity of the step, in the hinted style: products
//      arrive as witness data, the script recomputes the cheap relation
//      and OP_EQUALVERIFYs it.
//   3. The output preimage is rehashed and compared against the committed
//      output digest; a mismatch makes the whole tap succeed, which is
//      exactly the disprove condition.
//
// FinalScript taps stop after step 2 with the polarity inverted.

// fq6MulVerify consumes [a b c] (three Fq6 values, 18 groups) and fails
// unless c == a*b. The six cross products arrive as on-chain
// recomputations over copies; the Karatsuba recombination is pure adds.
func fq6MulVerify(b *scripts.Builder) {
	// Park the claimed product.
	bn254.Fq6ToAltStack(b)

	// t_i = a_i * b_i on copies; each result parks on the altstack.
	for i := 0; i < 3; i++ {
		// a_i at Fq2 depth 5-i+0 shifts as scratch grows; copies keep the
		// operands in place.
		bn254.Fq2Copy(b, 5-i)
		bn254.Fq2Copy(b, 3-i)
		bn254.Fq2MulOnChain(b)
		bn254.Fq2ToAltStack(b)
	}
	// u0 = (a1+a2)(b1+b2), u1 = (a0+a1)(b0+b1), u2 = (a0+a2)(b0+b2).
	for _, pair := range [][2]int{{1, 2}, {0, 1}, {0, 2}} {
		bn254.Fq2Copy(b, 5-pair[0])
		bn254.Fq2Copy(b, 5-pair[1]+1)
		bn254.Fq2Add(b)
		bn254.Fq2ToAltStack(b)
		bn254.Fq2Copy(b, 2-pair[0])
		bn254.Fq2Copy(b, 2-pair[1]+1)
		bn254.Fq2Add(b)
		bn254.Fq2FromAltStack(b)
		bn254.Fq2MulOnChain(b)
		bn254.Fq2ToAltStack(b)
	}
	// Operands are spent.
	for i := 0; i < 6; i++ {
		bn254.Fq2Drop(b)
	}
	// Altstack, top down: u2 u1 u0 t2 t1 t0 c2 c1 c0... restore in
	// reverse.
	for i := 0; i < 6; i++ {
		bn254.Fq2FromAltStack(b)
	}
	// Stack now u2 u1 u0 t2 t1 t0 with t0 on top (Fq2 depths 0..5).
	// r0 = t0 + xi*(u0 - t1 - t2)
	bn254.Fq2Copy(b, 3) // u0
	bn254.Fq2Copy(b, 2) // t1
	bn254.Fq2Sub(b)
	bn254.Fq2Copy(b, 3) // t2
	bn254.Fq2Sub(b)
	bn254.Fq2MulByConst(b, bn254.NonResidueXi())
	bn254.Fq2Copy(b, 1) // t0
	bn254.Fq2Add(b)
	bn254.Fq2ToAltStack(b)
	// r1 = u1 - t0 - t1 + xi*t2
	bn254.Fq2Copy(b, 4) // u1
	bn254.Fq2Copy(b, 1) // t0
	bn254.Fq2Sub(b)
	bn254.Fq2Copy(b, 2) // t1
	bn254.Fq2Sub(b)
	bn254.Fq2Copy(b, 3) // t2
	bn254.Fq2MulByConst(b, bn254.NonResidueXi())
	bn254.Fq2Add(b)
	bn254.Fq2ToAltStack(b)
	// r2 = u2 - t0 - t2 + t1
	bn254.Fq2Roll(b, 5) // u2
	bn254.Fq2Roll(b, 1) // t0
	bn254.Fq2Sub(b)
	bn254.Fq2Roll(b, 2) // t2
	bn254.Fq2Sub(b)
	bn254.Fq2Add(b) // + t1, next on the stack
	bn254.Fq2ToAltStack(b)
	// u0 and u1 are spent scaffolding.
	bn254.Fq2Drop(b)
	bn254.Fq2Drop(b)
	// Restore r2 r1 r0 and reverse into canonical coefficient order.
	bn254.Fq2FromAltStack(b) // r2
	bn254.Fq2FromAltStack(b) // r1
	bn254.Fq2FromAltStack(b) // r0
	bn254.Fq2Roll(b, 1)
	bn254.Fq2Roll(b, 2)
	// The claimed product waits beneath on the altstack.
	bn254.Fq6FromAltStack(b)
	bn254.Fq6EqualVerify(b)
}

// fq6MulByNonResidue rewires the top Fq6 in place: (b0,b1,b2) ->
// (xi*b2, b0, b1).
func fq6MulByNonResidue(b *scripts.Builder) {
	// b2 is the top Fq2; scale and rotate it to the bottom slot.
	bn254.Fq2MulByConst(b, bn254.NonResidueXi())
	bn254.Fq2Roll(b, 2)
	bn254.Fq2Roll(b, 2)
}

// ratioMulFinishVerify consumes [t s P Q m]: the two operand ratios, the
// separately committed cross product P = t*s, the hinted numerator product
// Q = m*(P*v) and the claimed result m. The ratio-form product rule
// m = (t+s)/(1 + t*s*v) verifies as m + Q == t + s once the Q hint checks
// out; P's own product identity lives in the companion tap.
func ratioMulFinishVerify(b *scripts.Builder) {
	// Q == m*(P*v) on copies; the twist happens on the copy.
	bn254.Fq6Copy(b, 2)
	fq6MulByNonResidue(b)
	bn254.Fq6Copy(b, 1)
	bn254.Fq6Copy(b, 3)
	fq6MulVerify(b)
	// m + Q == t + s.
	bn254.Fq6Add(b) // m + Q
	bn254.Fq6Roll(b, 1)
	bn254.Fq6Drop(b) // P is spent
	bn254.Fq6Roll(b, 2)
	bn254.Fq6Roll(b, 2)
	bn254.Fq6Add(b) // t + s
	bn254.Fq6EqualVerify(b)
}

// tapOutputHash rehashes the produced preimage and compares it with the
// committed output image left deepest on the altstack by the prefix,
// leaving true only when the two differ.
func tapOutputHash(b *scripts.Builder, outType ElementType) {
	if outType.IsRaw() {
		// Raw outputs were already bound by the Winternitz prefix.
		return
	}
	hash.GenBlake3(b, outType.HashPreimageFqs()*32)
	// Fold the nibble comparisons into one all-equal flag.
	b.FromAlt(1)
	b.Op(txscript.OP_EQUAL)
	for i := 1; i < hash.NibbleLen; i++ {
		b.Op(txscript.OP_SWAP)
		b.FromAlt(1)
		b.Op(txscript.OP_EQUAL)
		b.Op(txscript.OP_BOOLAND)
	}
	b.Op(txscript.OP_NOT)
}

// limbsToNibbles converts the top 9-limb group into its 64-nibble image
// for hashing: full bit decomposition, regrouped four bits at a time.
func limbsToNibbles(b *scripts.Builder) {
	bigint.ToBitsToAltstack(b)
	// 254 bits wait on the altstack, least significant on top. The two
	// missing image bits are padding zeros above the most significant
	// end.
	b.FromAlt(bigint.NBits)
	b.Op(txscript.OP_0)
	b.Op(txscript.OP_0)
	// Bits now sit on the main stack, most significant on top; fold each
	// group of four into a nibble.
	for nib := 0; nib < hash.NibbleLen; nib++ {
		for k := 0; k < 3; k++ {
			b.Op(txscript.OP_DUP).Op(txscript.OP_ADD)
			b.Op(txscript.OP_ADD)
		}
		b.ToAlt(1)
	}
	b.FromAlt(hash.NibbleLen)
	// Restore most-significant-deepest order.
	for i := 1; i < hash.NibbleLen; i++ {
		b.RollN(i)
	}
}

// tapOnCurveFinal builds the FinalScript checking a committed G1 point is
// NOT on the curve: it recomputes y^2 - x^3 - 3 and succeeds when the
// difference is non-zero.
func tapOnCurveFinal(b *scripts.Builder) {
	// [x y]
	bigint.Copy(b, 0)
	bn254.FqMul(b) // y^2
	bn254.FqToAltStack(b)
	bigint.Copy(b, 0)
	bigint.Copy(b, 1)
	bn254.FqMul(b)
	bn254.FqMul(b) // x^3
	var three fp.Element
	three.SetUint64(3)
	bn254.FqPush(b, three)
	bn254.FqAdd(b)
	bn254.FqFromAltStack(b)
	bn254.FqSub(b)
	bigint.IsZero(b)
	b.Op(txscript.OP_NOT)
	b.Op(txscript.OP_VERIFY)
	b.Num(1)
}

// tapOnTwistFinal is the G2 counterpart over Fq2 coordinates.
func tapOnTwistFinal(b *scripts.Builder) {
	bn254.Fq2Copy(b, 0)
	bn254.Fq2MulOnChain(b)
	bn254.Fq2ToAltStack(b)
	bn254.Fq2Copy(b, 0)
	bn254.Fq2Copy(b, 1)
	bn254.Fq2MulOnChain(b)
	bn254.Fq2MulOnChain(b)
	bn254.Fq2Push(b, bn254.TwistB())
	bn254.Fq2Add(b)
	bn254.Fq2FromAltStack(b)
	bn254.Fq2Sub(b)
	bn254.Fq2IsZero(b)
	b.Op(txscript.OP_NOT)
	b.Op(txscript.OP_VERIFY)
	b.Num(1)
}
