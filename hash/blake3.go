// Package hash implements the commitment digest of the chunked verifier:
// Blake3 over packed nibbles, truncated to 20 bytes, both natively and as
// Bitcoin Script.
package hash

import (
	fp "github.com/consensys/gnark-crypto/ecc/bn254/fp"
	"github.com/holiman/uint256"
	"github.com/zeebo/blake3"

	"github.com/kysee/bitvm-bridge/bigint"
)

const (
	// TruncLen is the committed digest width in bytes. 20 bytes keeps the
	// per-digit Winternitz cost at 40 hex digits; widening to 32 is an
	// integrator decision.
	TruncLen = 20
	// NibbleLen is the full on-stack digest width: 40 active nibbles
	// behind 24 leading zeros, all 64 positions always present.
	NibbleLen = 64
	// ActiveNibbles is the number of meaningful digest nibbles.
	ActiveNibbles = TruncLen * 2
)

// Nibbles is the uniform 64-nibble stack image of a digest.
type Nibbles [NibbleLen]byte

// IsPadded reports whether the leading zero region is intact.
func (n Nibbles) IsPadded() bool {
	for _, v := range n[:NibbleLen-ActiveNibbles] {
		if v != 0 {
			return false
		}
	}
	return true
}

// TruncBytes packs the active nibbles into the 20 committed bytes.
func (n Nibbles) TruncBytes() [TruncLen]byte {
	var out [TruncLen]byte
	off := NibbleLen - ActiveNibbles
	for i := 0; i < TruncLen; i++ {
		out[i] = n[off+2*i]<<4 | n[off+2*i+1]
	}
	return out
}

// NibblesFromTrunc is the inverse of TruncBytes.
func NibblesFromTrunc(b [TruncLen]byte) Nibbles {
	var n Nibbles
	off := NibbleLen - ActiveNibbles
	for i, v := range b {
		n[off+2*i] = v >> 4
		n[off+2*i+1] = v & 0x0f
	}
	return n
}

// HashFqs hashes an ordered sequence of base-field elements: each element
// serialized as 32 big-endian bytes, concatenated, Blake3, truncated.
func HashFqs(elems []fp.Element) Nibbles {
	buf := make([]byte, 0, len(elems)*32)
	for _, e := range elems {
		b := e.Bytes()
		buf = append(buf, b[:]...)
	}
	return truncDigest(buf)
}

// HashU256 hashes the raw 32-byte image of v.
func HashU256(v *uint256.Int) Nibbles {
	b := v.Bytes32()
	return truncDigest(b[:])
}

// HashNibbleBlocks hashes the concatenation of full 64-nibble blocks, the
// layout used when a chunk hash commits other hashes.
func HashNibbleBlocks(blocks []Nibbles) Nibbles {
	buf := make([]byte, 0, len(blocks)*32)
	for _, blk := range blocks {
		v := bigint.FromNibbles([64]byte(blk))
		b := v.Bytes32()
		buf = append(buf, b[:]...)
	}
	return truncDigest(buf)
}

func truncDigest(data []byte) Nibbles {
	sum := blake3.Sum256(data)
	var trunc [TruncLen]byte
	copy(trunc[:], sum[:TruncLen])
	return NibblesFromTrunc(trunc)
}
