package bigint

import (
	"github.com/btcsuite/btcd/txscript"
	"github.com/holiman/uint256"

	"github.com/kysee/bitvm-bridge/scripts"
)

// LessThanConst pops the top group and leaves a boolean for value < c.
//
// The walk runs from the most significant limb down with two latches kept
// on the stack: lt, the verdict, and decided, set once a limb differs.
func LessThanConst(b *scripts.Builder, c *uint256.Int) {
	cLimbs := ToLimbs(c)

	b.Op(txscript.OP_0) // lt
	b.Op(txscript.OP_0) // decided
	for i := NLimbs - 1; i >= 0; i-- {
		b.RollN(2 + i) // limb i, most significant of the remainder
		b.Op(txscript.OP_DUP)
		b.Num(int64(cLimbs[i])).Op(txscript.OP_LESSTHAN)
		b.Op(txscript.OP_SWAP)
		b.Num(int64(cLimbs[i])).Op(txscript.OP_GREATERTHAN)
		// [lt decided isLess isGreater]
		b.Pick(2).Op(txscript.OP_NOT)
		b.RollN(2).Op(txscript.OP_BOOLAND)
		// t = isLess && !decided; lt' = lt || t, decided' = decided || t || isGreater.
		// [lt decided isGreater t]
		b.RollN(3).Op(txscript.OP_SWAP)
		b.Op(txscript.OP_TUCK).Op(txscript.OP_BOOLOR)
		b.ToAlt(1) // lt'
		// [decided isGreater t]
		b.Op(txscript.OP_BOOLOR).Op(txscript.OP_BOOLOR)
		b.FromAlt(1)
		b.Op(txscript.OP_SWAP)
		// [lt' decided']
	}
	b.Op(txscript.OP_DROP)
}

// IsFieldVerify asserts that the top group is a canonical field element:
// every limb within [0, 2^30) and the value below m. The group survives.
func IsFieldVerify(b *scripts.Builder, m *uint256.Int) {
	for i := 0; i < NLimbs; i++ {
		b.Pick(i)
		b.Op(txscript.OP_DUP)
		b.Op(txscript.OP_0).Op(txscript.OP_GREATERTHANOREQUAL)
		b.Op(txscript.OP_VERIFY)
		b.Num(LimbCap).Op(txscript.OP_LESSTHAN)
		b.Op(txscript.OP_VERIFY)
	}
	Copy(b, 0)
	LessThanConst(b, m)
	b.Op(txscript.OP_VERIFY)
}

// IsOne leaves a boolean for whether the top group is one, consuming it.
func IsOne(b *scripts.Builder) {
	b.Num(1).Op(txscript.OP_EQUAL)
	for i := 1; i < NLimbs; i++ {
		b.Op(txscript.OP_SWAP)
		b.Op(txscript.OP_0).Op(txscript.OP_EQUAL)
		b.Op(txscript.OP_BOOLAND)
	}
}
