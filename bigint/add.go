package bigint

import (
	"github.com/btcsuite/btcd/txscript"
	"github.com/holiman/uint256"

	"github.com/kysee/bitvm-bridge/scripts"
)

// U30AddCarry expects [2^30 a b] and leaves [2^30 carry sum] with
// sum = (a+b) mod 2^30 and carry the overflow bit.
func U30AddCarry(b *scripts.Builder) {
	b.Op(txscript.OP_ADD)
	b.Op(txscript.OP_2DUP)
	b.Op(txscript.OP_LESSTHANOREQUAL) // carry = 2^30 <= a+b
	b.Op(txscript.OP_DUP).ToAlt(1)
	b.Op(txscript.OP_IF)
	b.Op(txscript.OP_OVER).Op(txscript.OP_SUB)
	b.Op(txscript.OP_ENDIF)
	b.FromAlt(1).Op(txscript.OP_SWAP)
}

// U30SubBorrow expects [2^30 a b] and leaves [2^30 borrow diff] with
// diff = (a-b) mod 2^30 and borrow set when a < b.
func U30SubBorrow(b *scripts.Builder) {
	b.Op(txscript.OP_SUB)
	b.Op(txscript.OP_DUP)
	b.Op(txscript.OP_0).Op(txscript.OP_LESSTHAN) // borrow = a-b < 0
	b.Op(txscript.OP_DUP).ToAlt(1)
	b.Op(txscript.OP_IF)
	b.Op(txscript.OP_OVER).Op(txscript.OP_ADD)
	b.Op(txscript.OP_ENDIF)
	b.FromAlt(1).Op(txscript.OP_SWAP)
}

// AddMod pops the top two groups and pushes (a + b) mod m.
//
// One limb walk computes the raw sum with a 30-bit carry chain, a second
// subtracts the modulus with a borrow chain, and the final borrow bit
// selects between the two results. Sums and differences are parked on the
// altstack between phases.
func AddMod(b *scripts.Builder, m *uint256.Int) {
	mLimbs := ToLimbs(m)
	Zip(b, 1, 0)

	// Phase 1: limb-wise a+b. Invariant at the top of each turn:
	// [pairs... carry], sums accumulating on the altstack.
	b.Op(txscript.OP_0)
	for i := 0; i < NLimbs; i++ {
		b.RollN(2).RollN(2) // a_i b_i above the running carry
		b.Op(txscript.OP_ADD)
		b.Op(txscript.OP_SWAP).Op(txscript.OP_ADD) // t = a_i + b_i + carry
		b.Op(txscript.OP_DUP).Num(LimbCap)
		b.Op(txscript.OP_GREATERTHANOREQUAL) // carry' = t >= 2^30
		b.Op(txscript.OP_TUCK)
		b.Op(txscript.OP_IF).Num(LimbCap).Op(txscript.OP_SUB).Op(txscript.OP_ENDIF)
		b.ToAlt(1) // park t mod 2^30
	}

	// [carry8]; altstack s0..s8 (s8 on top).
	b.FromAlt(NLimbs) // [carry8 s8 .. s0]

	// Phase 2: limb-wise s - m, sums copied in place so the raw sum
	// survives for the select.
	b.Op(txscript.OP_0)
	for i := 0; i < NLimbs; i++ {
		b.Pick(i + 1) // s_i
		b.Num(int64(mLimbs[i])).Op(txscript.OP_SUB)
		b.Op(txscript.OP_SWAP).Op(txscript.OP_SUB) // d = s_i - m_i - borrow
		b.Op(txscript.OP_DUP)
		b.Op(txscript.OP_0).Op(txscript.OP_LESSTHAN) // borrow' = d < 0
		b.Op(txscript.OP_TUCK)
		b.Op(txscript.OP_IF).Num(LimbCap).Op(txscript.OP_ADD).Op(txscript.OP_ENDIF)
		b.ToAlt(1) // park d mod 2^30
	}

	// [carry8 s8..s0 borrowF]; altstack d0..d8. Reduction applies when the
	// raw sum reached the modulus: carry8 set or no final borrow.
	b.Op(txscript.OP_NOT)
	b.RollN(NLimbs + 1)
	b.Op(txscript.OP_BOOLOR)
	b.Op(txscript.OP_IF)
	b.DropN(NLimbs)
	b.FromAlt(NLimbs)
	b.Op(txscript.OP_ELSE)
	b.FromAlt(NLimbs)
	b.DropN(NLimbs)
	b.Op(txscript.OP_ENDIF)
}

// NegMod pops the top group a and pushes m - a, with m - 0 = 0.
func NegMod(b *scripts.Builder, m *uint256.Int) {
	mLimbs := ToLimbs(m)

	// Zero maps to zero, not to m; remember the flag on the altstack.
	Copy(b, 0)
	IsZero(b)
	b.ToAlt(1)

	// Limb-wise m - a with borrow chain.
	b.Op(txscript.OP_0)
	for i := 0; i < NLimbs; i++ {
		b.RollN(1) // a_i sits directly under the borrow
		b.Num(int64(mLimbs[i])).Op(txscript.OP_SWAP).Op(txscript.OP_SUB)
		b.Op(txscript.OP_SWAP).Op(txscript.OP_SUB) // d = m_i - a_i - borrow
		b.Op(txscript.OP_DUP)
		b.Op(txscript.OP_0).Op(txscript.OP_LESSTHAN)
		b.Op(txscript.OP_TUCK)
		b.Op(txscript.OP_IF).Num(LimbCap).Op(txscript.OP_ADD).Op(txscript.OP_ENDIF)
		b.ToAlt(1)
	}
	b.Op(txscript.OP_DROP) // final borrow is zero for a < m
	b.FromAlt(NLimbs)

	// Collapse m - 0 back to 0.
	b.FromAlt(1)
	b.Op(txscript.OP_IF)
	Drop(b)
	PushZero(b)
	b.Op(txscript.OP_ENDIF)
}

// SubMod pops b then a and pushes (a - b) mod m, composed as a + (m - b).
func SubMod(b *scripts.Builder, m *uint256.Int) {
	NegMod(b, m)
	AddMod(b, m)
}

// DoubleMod doubles the top group in place. Doubling needs no zip, so the
// walk is roughly half an AddMod; the tap-level multiplication leans on
// that.
func DoubleMod(b *scripts.Builder, m *uint256.Int) {
	mLimbs := ToLimbs(m)

	// Phase 1: limb-wise 2*l + carry.
	b.Op(txscript.OP_0)
	for i := 0; i < NLimbs; i++ {
		b.RollN(1) // limb i rides directly under the carry
		b.Op(txscript.OP_DUP).Op(txscript.OP_ADD)
		b.Op(txscript.OP_ADD)
		b.Op(txscript.OP_DUP).Num(LimbCap)
		b.Op(txscript.OP_GREATERTHANOREQUAL)
		b.Op(txscript.OP_TUCK)
		b.Op(txscript.OP_IF).Num(LimbCap).Op(txscript.OP_SUB).Op(txscript.OP_ENDIF)
		b.ToAlt(1)
	}
	b.FromAlt(NLimbs) // [carry8 s8..s0]

	// Phase 2: subtract the modulus with a borrow chain, keeping the raw
	// doubling for the select.
	b.Op(txscript.OP_0)
	for i := 0; i < NLimbs; i++ {
		b.Pick(i + 1)
		b.Num(int64(mLimbs[i])).Op(txscript.OP_SUB)
		b.Op(txscript.OP_SWAP).Op(txscript.OP_SUB)
		b.Op(txscript.OP_DUP)
		b.Op(txscript.OP_0).Op(txscript.OP_LESSTHAN)
		b.Op(txscript.OP_TUCK)
		b.Op(txscript.OP_IF).Num(LimbCap).Op(txscript.OP_ADD).Op(txscript.OP_ENDIF)
		b.ToAlt(1)
	}
	b.Op(txscript.OP_NOT)
	b.RollN(NLimbs + 1)
	b.Op(txscript.OP_BOOLOR)
	b.Op(txscript.OP_IF)
	b.DropN(NLimbs)
	b.FromAlt(NLimbs)
	b.Op(txscript.OP_ELSE)
	b.FromAlt(NLimbs)
	b.DropN(NLimbs)
	b.Op(txscript.OP_ENDIF)
}
