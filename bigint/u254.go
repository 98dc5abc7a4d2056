// Package bigint generates Bitcoin Script for 254-bit modular arithmetic.
//
// A 254-bit number lives on the stack as nine 30-bit limbs, little-endian,
// limb 0 on top. Every routine documents the group layout it expects in
// terms of group depths: depth 0 is the 9-limb group nearest the top.
package bigint

import (
	"github.com/btcsuite/btcd/txscript"
	"github.com/holiman/uint256"

	"github.com/kysee/bitvm-bridge/scripts"
)

const (
	// NLimbs is the number of limbs per 254-bit number.
	NLimbs = 9
	// LimbBits is the width of every limb but the last.
	LimbBits = 30
	// NBits is the total bit width.
	NBits = 254
	// LimbCap is 2^30, kept on stack during carry walks.
	LimbCap = 1 << LimbBits
	// NNibbles is the nibble count of the 256-bit stack representation.
	NNibbles = 64
)

// ToLimbs splits v into nine 30-bit little-endian limbs.
func ToLimbs(v *uint256.Int) [NLimbs]uint32 {
	var limbs [NLimbs]uint32
	t := new(uint256.Int).Set(v)
	mask := uint256.NewInt(LimbCap - 1)
	for i := 0; i < NLimbs; i++ {
		limbs[i] = uint32(new(uint256.Int).And(t, mask).Uint64())
		t.Rsh(t, LimbBits)
	}
	return limbs
}

// FromLimbs reassembles a value from its 30-bit limbs.
func FromLimbs(limbs [NLimbs]uint32) *uint256.Int {
	v := uint256.NewInt(0)
	for i := NLimbs - 1; i >= 0; i-- {
		v.Lsh(v, LimbBits)
		v.Or(v, uint256.NewInt(uint64(limbs[i])))
	}
	return v
}

// ToNibbles returns the 64-nibble big-endian representation used by the
// hashing layer: nibble 0 is the most significant.
func ToNibbles(v *uint256.Int) [NNibbles]byte {
	var nibs [NNibbles]byte
	bytes := v.Bytes32()
	for i, b := range bytes {
		nibs[2*i] = b >> 4
		nibs[2*i+1] = b & 0x0f
	}
	return nibs
}

// FromNibbles reassembles a value from 64 big-endian nibbles.
func FromNibbles(nibs [NNibbles]byte) *uint256.Int {
	var bytes [32]byte
	for i := 0; i < 32; i++ {
		bytes[i] = nibs[2*i]<<4 | nibs[2*i+1]&0x0f
	}
	return new(uint256.Int).SetBytes32(bytes[:])
}

// Push pushes v as nine limbs, limb 0 ending on top.
func Push(b *scripts.Builder, v *uint256.Int) {
	limbs := ToLimbs(v)
	for i := NLimbs - 1; i >= 0; i-- {
		b.Num(int64(limbs[i]))
	}
}

// PushU32LE pushes the value assembled from little-endian u32 words.
func PushU32LE(b *scripts.Builder, words []uint32) {
	v := uint256.NewInt(0)
	for i := len(words) - 1; i >= 0; i-- {
		v.Lsh(v, 32)
		v.Or(v, uint256.NewInt(uint64(words[i])))
	}
	Push(b, v)
}

// PushHex pushes the value encoded by the big-endian hex string.
func PushHex(b *scripts.Builder, hexStr string) {
	v, err := uint256.FromHex("0x" + hexStr)
	if err != nil {
		panic("bigint: bad constant " + hexStr)
	}
	Push(b, v)
}

// PushZero pushes the nine limbs of zero.
func PushZero(b *scripts.Builder) {
	b.OpN(NLimbs, txscript.OP_0)
}

// PushOne pushes the nine limbs of one.
func PushOne(b *scripts.Builder) {
	b.OpN(NLimbs-1, txscript.OP_0)
	b.Num(1)
}

// Copy copies the 9-limb group at group depth a to the top.
func Copy(b *scripts.Builder, a int) {
	depth := a*NLimbs + NLimbs - 1
	for i := 0; i < NLimbs; i++ {
		b.Pick(depth)
	}
}

// Roll moves the 9-limb group at group depth a to the top.
func Roll(b *scripts.Builder, a int) {
	if a == 0 {
		return
	}
	depth := a*NLimbs + NLimbs - 1
	for i := 0; i < NLimbs; i++ {
		b.RollN(depth)
	}
}

// Drop removes the top 9-limb group.
func Drop(b *scripts.Builder) {
	b.DropN(NLimbs)
}

// Zip interleaves the top group with the group at depth ga so matching
// limbs end adjacent, the limb-0 pair on top. The walk extracts from limb 8
// down; the deeper group's limb sits at a constant depth throughout.
func Zip(b *scripts.Builder, ga, gb int) {
	if gb != 0 || ga == 0 {
		panic("bigint: zip expects the shallow group on top")
	}
	for i := NLimbs - 1; i >= 0; i-- {
		b.RollN(ga*NLimbs + NLimbs - 1)
		b.RollN(2*NLimbs - 1 - i)
	}
}

// Equal pops the groups at depths a and b and leaves a single boolean.
func Equal(b *scripts.Builder, ga, gb int) {
	Zip(b, ga, gb)
	b.Op(txscript.OP_EQUAL).ToAlt(1)
	for i := 1; i < NLimbs; i++ {
		b.Op(txscript.OP_EQUAL).FromAlt(1).Op(txscript.OP_BOOLAND).ToAlt(1)
	}
	b.FromAlt(1)
}

// EqualVerify pops the groups at depths a and b, failing unless equal.
func EqualVerify(b *scripts.Builder, ga, gb int) {
	Zip(b, ga, gb)
	for i := 0; i < NLimbs; i++ {
		b.Op(txscript.OP_EQUALVERIFY)
	}
}

// IsZero leaves a boolean for whether the top group is zero, consuming it.
func IsZero(b *scripts.Builder) {
	b.Op(txscript.OP_0).Op(txscript.OP_EQUAL)
	for i := 1; i < NLimbs; i++ {
		b.Op(txscript.OP_SWAP)
		b.Op(txscript.OP_0).Op(txscript.OP_EQUAL)
		b.Op(txscript.OP_BOOLAND)
	}
}

// ToBitsToAltstack decomposes the top group into NBits bits on the
// altstack, most significant bit deepest, consuming the group.
//
// Bits come off per limb: for each limb the walk peels bit 29 down to bit 0,
// starting at the most significant limb, so the least significant bit of the
// whole number ends nearest the altstack top.
func ToBitsToAltstack(b *scripts.Builder) {
	// Work from limb 8 (most significant, deepest in the group) down; the
	// remaining group shrinks as limbs are consumed.
	for limb := NLimbs - 1; limb >= 0; limb-- {
		b.RollN(limb)
		bits := LimbBits
		if limb == NLimbs-1 {
			bits = NBits - LimbBits*(NLimbs-1) // 14 bits in the top limb
		}
		for bit := bits - 1; bit >= 0; bit-- {
			if bit == 0 {
				b.ToAlt(1)
				continue
			}
			b.Op(txscript.OP_DUP)
			b.Num(int64(uint32(1) << bit))
			b.Op(txscript.OP_GREATERTHANOREQUAL)
			b.Op(txscript.OP_DUP).ToAlt(1)
			b.Op(txscript.OP_IF)
			b.Num(int64(uint32(1) << bit))
			b.Op(txscript.OP_SUB)
			b.Op(txscript.OP_ENDIF)
		}
	}
}
