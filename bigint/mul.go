package bigint

import (
	"github.com/btcsuite/btcd/txscript"
	"github.com/holiman/uint256"

	"github.com/kysee/bitvm-bridge/scripts"
)

// MulMod pops b then a and pushes (a * b) mod m via a double-and-add ladder
// over the bit stream of b. The 254 doublings dominate tap size; callers in
// the field layer prefer the hinted identity checks and reach for this only
// where a full product must be recomputed on-chain.
func MulMod(b *scripts.Builder, m *uint256.Int) {
	// Decompose the multiplier; bits land on the altstack LSB on top.
	ToBitsToAltstack(b)

	// [a acc]: acc starts at zero on top of a.
	PushZero(b)
	for i := 0; i < NBits; i++ {
		// acc on top, a below. Bits arrive LSB first: acc' = acc + bit*a,
		// then a' = 2a feeds the next round.
		b.FromAlt(1)
		b.Op(txscript.OP_IF)
		Copy(b, 1)
		AddMod(b, m)
		b.Op(txscript.OP_ENDIF)
		if i != NBits-1 {
			Roll(b, 1)
			DoubleMod(b, m)
			Roll(b, 1)
		}
	}
	// Drop the ladder copy of a, leaving the product.
	Roll(b, 1)
	Drop(b)
}

// MulByConst multiplies the top group by the constant c, using the NAF of c
// to trade additions for the occasional subtraction.
func MulByConst(b *scripts.Builder, c, m *uint256.Int) {
	if c.IsZero() {
		Drop(b)
		PushZero(b)
		return
	}

	naf := nafDigits(c)
	// Running value starts at a; accumulate into acc.
	PushZero(b) // [a acc]
	for i := len(naf) - 1; i >= 0; i-- {
		DoubleMod(b, m)
		switch naf[i] {
		case 1:
			Copy(b, 1)
			AddMod(b, m)
		case -1:
			Copy(b, 1)
			NegMod(b, m)
			AddMod(b, m)
		}
	}
	Roll(b, 1)
	Drop(b)
}

// nafDigits returns the non-adjacent form of v, least significant first.
func nafDigits(v *uint256.Int) []int8 {
	var naf []int8
	t := new(uint256.Int).Set(v)
	for !t.IsZero() {
		if t.Uint64()&1 == 1 {
			mod4 := t.Uint64() & 3
			if mod4 == 1 {
				naf = append(naf, 1)
				t.Sub(t, uint256.NewInt(1))
			} else {
				naf = append(naf, -1)
				t.Add(t, uint256.NewInt(1))
			}
		} else {
			naf = append(naf, 0)
		}
		t.Rsh(t, 1)
	}
	return naf
}
