package bn254

import (
	"github.com/btcsuite/btcd/txscript"

	"github.com/kysee/bitvm-bridge/bigint"
	"github.com/kysee/bitvm-bridge/scripts"
)

// FqTapMul pops [a b] and pushes a*b mod q using 4-bit windows over b: a
// sixteen-entry multiple table of a builds on-stack from fifteen modular
// additions, then 64 window steps of four doublings and one table pick.
// This is the multiplication the tap cores ride; the plain bit ladder in
// bigint stays for the rare recompute-everything FinalScripts.
func FqTapMul(b *scripts.Builder) {
	// Decompose b into bits; regroup below into window digits.
	bigint.ToBitsToAltstack(b)

	// Table build: entries 0..15 of a, entry j = entry j-1 + a. The
	// table grows downward so entry j's group depth equals 15 - j once
	// complete.
	bigint.PushZero(b) // entry 0
	for j := 1; j < 16; j++ {
		// Copy the previous entry and the base a beneath the table.
		bigint.Copy(b, 0)
		bigint.Copy(b, j+1) // a sits under the j existing entries
		bigint.AddMod(b, qU256)
	}

	// Window digits, most significant first: bits arrive LSB on top, so
	// fold four at a time into the accumulator walk after reversing
	// through the altstack once.
	b.FromAlt(bigint.NBits)
	// Bits now sit MSB on top. Fold each quartet into a digit and park.
	for w := 0; w < 64; w++ {
		if w == 0 {
			// The two pad bits above bit 253 do not exist; the first
			// digit folds only two real bits.
			b.Op(txscript.OP_DUP).Op(txscript.OP_ADD)
			b.Op(txscript.OP_ADD)
		} else {
			for k := 0; k < 3; k++ {
				b.Op(txscript.OP_DUP).Op(txscript.OP_ADD)
				b.Op(txscript.OP_ADD)
			}
		}
		b.ToAlt(1)
	}
	// Digits wait on the altstack, least significant digit on top after
	// the walk; pull them back so the most significant digit leads.
	b.FromAlt(64)
	for i := 1; i < 64; i++ {
		b.RollN(i)
	}
	b.ToAlt(64)

	// Accumulator walk.
	bigint.PushZero(b)
	for w := 0; w < 64; w++ {
		for s := 0; s < 4; s++ {
			bigint.DoubleMod(b, qU256)
		}
		// Pick table entry digit: entry j sits at group depth 16 - j below
		// the accumulator top. Each picked limb lands under the digit, so
		// limb 8-k of the entry stays at depth 9*(17-digit) from the digit.
		b.FromAlt(1)
		for k := 0; k < bigint.NLimbs; k++ {
			b.Op(txscript.OP_DUP)
			for d := 0; d < 3; d++ {
				b.Op(txscript.OP_DUP).Op(txscript.OP_ADD)
			}
			b.Op(txscript.OP_OVER).Op(txscript.OP_ADD) // 9*digit
			b.Op(txscript.OP_NEGATE)
			b.Num(int64(bigint.NLimbs * 17))
			b.Op(txscript.OP_ADD)
			b.Op(txscript.OP_PICK)
			b.Op(txscript.OP_SWAP)
		}
		b.Op(txscript.OP_DROP) // spent digit
		bigint.AddMod(b, qU256)
	}

	// Tear down: the table (16 entries) and the base a sit under the
	// product.
	b.ToAlt(bigint.NLimbs)
	for j := 0; j < 17; j++ {
		bigint.Drop(b)
	}
	b.FromAlt(bigint.NLimbs)
}
