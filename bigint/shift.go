package bigint

import (
	"github.com/btcsuite/btcd/txscript"

	"github.com/kysee/bitvm-bridge/scripts"
)

// Div2Rem halves the top group in place, leaving the remainder bit on top
// of the halved result. The walk runs from the most significant limb down,
// each dropped parity bit re-entering the next limb at weight 2^30.
func Div2Rem(b *scripts.Builder) {
	b.Op(txscript.OP_0) // carry in
	for i := NLimbs - 1; i >= 0; i-- {
		b.RollN(1 + i)
		b.Op(txscript.OP_SWAP)
		b.Op(txscript.OP_IF).Num(LimbCap).Op(txscript.OP_ADD).Op(txscript.OP_ENDIF)
		b.Op(txscript.OP_DUP)
		parity(b)
		b.Op(txscript.OP_TUCK).Op(txscript.OP_SUB)
		halveEven(b)
		b.ToAlt(1)
		// The parity left on the stack is the carry into the next limb.
	}
	// [rem]; altstack holds limb8'..limb0'. Restore canonical order.
	b.FromAlt(NLimbs)
	for i := 1; i < NLimbs; i++ {
		b.RollN(i)
	}
	b.RollN(NLimbs) // remainder to the top
}

// parity replaces the top item t with t mod 2 by peeling descending powers
// of two.
func parity(b *scripts.Builder) {
	for bit := LimbBits; bit >= 1; bit-- {
		b.Op(txscript.OP_DUP)
		b.Num(int64(uint32(1) << bit))
		b.Op(txscript.OP_GREATERTHANOREQUAL)
		b.Op(txscript.OP_IF)
		b.Num(int64(uint32(1) << bit))
		b.Op(txscript.OP_SUB)
		b.Op(txscript.OP_ENDIF)
	}
}

// halveEven halves an even top item, re-adding each peeled bit at half
// weight into an accumulator kept beneath it.
func halveEven(b *scripts.Builder) {
	b.Op(txscript.OP_0).Op(txscript.OP_SWAP)
	for bit := LimbBits; bit >= 1; bit-- {
		b.Op(txscript.OP_DUP)
		b.Num(int64(uint32(1) << bit))
		b.Op(txscript.OP_GREATERTHANOREQUAL)
		b.Op(txscript.OP_IF)
		b.Num(int64(uint32(1) << bit))
		b.Op(txscript.OP_SUB)
		b.Op(txscript.OP_SWAP)
		b.Num(int64(uint32(1) << (bit - 1)))
		b.Op(txscript.OP_ADD)
		b.Op(txscript.OP_SWAP)
		b.Op(txscript.OP_ENDIF)
	}
	b.Op(txscript.OP_DROP)
}
