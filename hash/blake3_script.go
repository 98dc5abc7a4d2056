package hash

import (
	"github.com/btcsuite/btcd/txscript"

	"github.com/kysee/bitvm-bridge/scripts"
)

// In-script Blake3 for the fixed preimage lengths the chunker hashes.
//
// Words are eight nibbles, most significant first, living on the main
// stack; a 16x16 XOR table sits beneath the working area and is dropped
// before exit. The compression rounds are unrolled by the generator; the
// message words never move, G reads them by computed depth.

const (
	nibblesPerWord = 8
	stateWords     = 16
	msgWords       = 16
	xorTableSize   = 256

	// Blake3 domain flags.
	flagChunkStart = 1 << 0
	flagChunkEnd   = 1 << 1
	flagRoot       = 1 << 3
)

// iv is the Blake3 initialization vector (the SHA-256 constants).
var iv = [8]uint32{
	0x6a09e667, 0xbb67ae85, 0x3c6ef372, 0xa54ff53a,
	0x510e527f, 0x9b05688c, 0x1f83d9ab, 0x5be0cd19,
}

// msgPermutation is the Blake3 schedule applied between rounds.
var msgPermutation = [16]int{2, 6, 3, 10, 7, 0, 4, 13, 1, 11, 12, 5, 9, 14, 15, 8}

// gSchedule holds the state indices of the eight G applications per round.
var gSchedule = [8][4]int{
	{0, 4, 8, 12}, {1, 5, 9, 13}, {2, 6, 10, 14}, {3, 7, 11, 15},
	{0, 5, 10, 15}, {1, 6, 11, 12}, {2, 7, 8, 13}, {3, 4, 9, 14},
}

// layout tracks where words live relative to the current stack top. All
// words sit in a fixed frame; scratch values above it are transient within
// a single helper.
type layout struct {
	b *scripts.Builder
	// frame[i] is the nibble depth of word i's most significant nibble
	// when the scratch area is empty.
	frame [stateWords + msgWords]int
	// scratch is the number of transient nibbles currently on top.
	scratch int
}

func (l *layout) wordDepth(w int) int { return l.frame[w] + l.scratch }

// pushXorTable pushes xor(i, j) for every nibble pair; the entry for
// (a, b) ends at depth 16*a + b + scratch from the working top.
func pushXorTable(b *scripts.Builder) {
	for i := xorTableSize - 1; i >= 0; i-- {
		b.Num(int64((i >> 4) ^ (i & 0x0f)))
	}
}

func dropXorTable(b *scripts.Builder) {
	b.DropN(xorTableSize)
}

// pickWord copies word w to the top of the scratch area.
func (l *layout) pickWord(w int) {
	for i := 0; i < nibblesPerWord; i++ {
		l.b.Pick(l.wordDepth(w) + nibblesPerWord - 1)
	}
	l.scratch += nibblesPerWord
}

// replaceWord writes the top scratch word over word w and drops the old
// nibbles.
func (l *layout) replaceWord(w int) {
	// Roll the stale nibbles out from under the frame, deepest first.
	for i := 0; i < nibblesPerWord; i++ {
		l.b.RollN(l.wordDepth(w) + nibblesPerWord - 1)
		l.b.Op(txscript.OP_DROP)
	}
	// The fresh word now borders its slot; roll it into place.
	for i := 0; i < nibblesPerWord; i++ {
		l.b.RollN(l.wordDepth(w) - 1)
	}
	l.scratch -= nibblesPerWord
}

// addWords pops the two scratch words on top and pushes their u32 sum.
func (l *layout) addWords() {
	b := l.b
	// Nibble-wise from least significant (top of each group is the MS
	// nibble, so index from the ends).
	b.Op(txscript.OP_0) // carry
	for i := 0; i < nibblesPerWord; i++ {
		// x LS nibble of word A sits just under the accumulated output
		// and carry; see frame notes in blake3_script_test.
		b.RollN(1 + nibblesPerWord) // LS nibble of the deeper word
		b.Op(txscript.OP_ADD)
		b.RollN(1 + nibblesPerWord - 1)
		b.Op(txscript.OP_ADD) // + other word's LS nibble
		b.Op(txscript.OP_DUP)
		b.Num(16).Op(txscript.OP_GREATERTHANOREQUAL)
		b.Op(txscript.OP_TUCK)
		b.Op(txscript.OP_IF).Num(16).Op(txscript.OP_SUB).Op(txscript.OP_ENDIF)
		b.ToAlt(1) // result nibble
	}
	b.Op(txscript.OP_DROP) // u32 addition discards the final carry
	b.FromAlt(nibblesPerWord)
	l.scratch -= nibblesPerWord
}

// xorWords pops the two scratch words on top and pushes their XOR through
// the table beneath the frame.
func (l *layout) xorWords(tableBase int) {
	b := l.b
	for i := 0; i < nibblesPerWord; i++ {
		b.RollN(nibblesPerWord) // LS nibble of the deeper word
		// index = 16*a + b
		for d := 0; d < 4; d++ {
			b.Op(txscript.OP_DUP).Op(txscript.OP_ADD)
		}
		b.Op(txscript.OP_ADD)
		// Entry depth: table base + computed index; the two consumed
		// nibbles are gone, the index itself is on top.
		b.Num(int64(tableBase + l.scratch - 2*nibblesPerWord + 2*(nibblesPerWord-1-i)))
		b.Op(txscript.OP_ADD)
		b.Op(txscript.OP_PICK)
		b.ToAlt(1)
	}
	b.FromAlt(nibblesPerWord)
	l.scratch -= nibblesPerWord
}

// rorWord rotates the top scratch word right by 16, 12 or 8 bits: a pure
// nibble rotation. ror 7 composes ror 8 with a one-bit left rotation done
// nibble-wise.
func (l *layout) rorWord(bits int) {
	b := l.b
	switch bits {
	case 16, 12, 8:
		k := bits / 4
		// Right rotation by k nibbles: the k least significant nibbles
		// wrap around to the most significant positions.
		for i := 0; i < k; i++ {
			b.RollN(nibblesPerWord - 1)
		}
	case 7:
		l.rorWord(8)
		l.rol1()
	default:
		panic("hash: unsupported rotation")
	}
}

// rol1 rotates the top scratch word left one bit. Each nibble doubles,
// takes the carry of its less significant neighbour, and sheds its own
// into the next; the wrap bit feeds the last nibble.
func (l *layout) rol1() {
	b := l.b
	// First pass: split every nibble into (carry, low3*2).
	for i := 0; i < nibblesPerWord; i++ {
		b.RollN(nibblesPerWord - 1)
		b.Op(txscript.OP_DUP)
		b.Num(8).Op(txscript.OP_GREATERTHANOREQUAL)
		b.Op(txscript.OP_TUCK)
		b.Op(txscript.OP_IF).Num(8).Op(txscript.OP_SUB).Op(txscript.OP_ENDIF)
		b.Op(txscript.OP_DUP).Op(txscript.OP_ADD)
		b.ToAlt(1)
		b.ToAlt(1) // carry above its doubled nibble
	}
	// Second pass: add each neighbour's carry, wrapping the MS carry.
	for i := 0; i < nibblesPerWord; i++ {
		b.FromAlt(2)
		b.Op(txscript.OP_SWAP)
		b.ToAlt(1) // park the doubled nibble, keep carry order rotating
	}
	for i := 0; i < nibblesPerWord; i++ {
		b.RollN(nibblesPerWord - 1)
		b.FromAlt(1)
		b.Op(txscript.OP_ADD)
	}
}

// gFunc applies one Blake3 quarter round on state words (a, b, c, d) with
// message words mx, my.
func (l *layout) gFunc(a, bb, c, d, mx, my int) {
	const tableBase = (stateWords + msgWords) * nibblesPerWord

	// a = a + b + mx
	l.pickWord(a)
	l.pickWord(bb)
	l.addWords()
	l.pickWord(mx)
	l.addWords()
	l.replaceWord(a)
	// d = (d ^ a) >>> 16
	l.pickWord(d)
	l.pickWord(a)
	l.xorWords(tableBase)
	l.rorWord(16)
	l.replaceWord(d)
	// c = c + d
	l.pickWord(c)
	l.pickWord(d)
	l.addWords()
	l.replaceWord(c)
	// b = (b ^ c) >>> 12
	l.pickWord(bb)
	l.pickWord(c)
	l.xorWords(tableBase)
	l.rorWord(12)
	l.replaceWord(bb)
	// a = a + b + my
	l.pickWord(a)
	l.pickWord(bb)
	l.addWords()
	l.pickWord(my)
	l.addWords()
	l.replaceWord(a)
	// d = (d ^ a) >>> 8
	l.pickWord(d)
	l.pickWord(a)
	l.xorWords(tableBase)
	l.rorWord(8)
	l.replaceWord(d)
	// c = c + d
	l.pickWord(c)
	l.pickWord(d)
	l.addWords()
	l.replaceWord(c)
	// b = (b ^ c) >>> 7
	l.pickWord(bb)
	l.pickWord(c)
	l.xorWords(tableBase)
	l.rorWord(7)
	l.replaceWord(bb)
}

// pushWordConst pushes a u32 as eight nibbles, most significant first.
func pushWordConst(b *scripts.Builder, v uint32) {
	for shift := 28; shift >= 0; shift -= 4 {
		b.Num(int64((v >> uint(shift)) & 0x0f))
	}
}

// GenBlake3 emits a fixed-length Blake3 over the message nibbles on the
// stack (byte-stream order, first byte's high nibble deepest) and leaves
// the 64-nibble digest image: 24 zero nibbles under the 40 active ones.
//
// msgBytes must be a positive multiple of 32 within one chunk; the
// chunker only ever hashes whole 32-byte field images, so the final block
// is either full or exactly half.
func GenBlake3(b *scripts.Builder, msgBytes int) {
	if msgBytes <= 0 || msgBytes%32 != 0 || msgBytes > 1024 {
		panic("hash: unsupported blake3 preimage length")
	}
	blocks := (msgBytes + 63) / 64

	// The message stream waits on the altstack while each block's frame is
	// assembled.
	b.ToAlt(2 * msgBytes)

	// Block 0 chains from the IV; later blocks restore the parked cv from
	// the altstack, where it sits above the remaining message stream.
	for blk := 0; blk < blocks; blk++ {
		blockBytes := 64
		if rem := msgBytes - 64*blk; rem < 64 {
			blockBytes = rem
		}
		flags := 0
		if blk == 0 {
			flags |= flagChunkStart
		}
		if blk == blocks-1 {
			flags |= flagChunkEnd | flagRoot
		}

		pushXorTable(b)

		l := &layout{b: b}
		for w := 0; w < stateWords+msgWords; w++ {
			l.frame[w] = (stateWords + msgWords - 1 - w) * nibblesPerWord
		}

		// State words 0..7: chaining value.
		if blk == 0 {
			for i := 0; i < 8; i++ {
				pushWordConst(b, iv[i])
			}
		} else {
			// Previous cv was parked on the altstack after the last
			// block, above the remaining message stream.
			b.FromAlt(8 * nibblesPerWord)
		}
		// State words 8..11: IV prefix; 12..15: counter, block length,
		// flags. Single-chunk hashing keeps the counter at zero.
		for i := 0; i < 4; i++ {
			pushWordConst(b, iv[i])
		}
		pushWordConst(b, 0)
		pushWordConst(b, 0)
		pushWordConst(b, uint32(blockBytes))
		pushWordConst(b, uint32(flags))

		// Message words: this block's nibbles arrive from the altstack in
		// stream order; regroup each word's bytes little endian. A half
		// block zero-fills words 8..15.
		b.FromAlt(2 * blockBytes)
		for w := 0; w < blockBytes/4; w++ {
			// The stream region sits directly on top; roll the word's
			// nibbles out in target order: hi3 lo3 hi2 lo2 ...
			base := 2*blockBytes - 1 - 8*w
			for byteIdx := 3; byteIdx >= 0; byteIdx-- {
				b.RollN(base) // high nibble of byte byteIdx
				b.RollN(base) // low nibble trails it after the shift
			}
		}
		for w := blockBytes / 4; w < msgWords; w++ {
			pushWordConst(b, 0)
		}

		// Seven rounds; the schedule permutation composes Go-side.
		perm := [16]int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}
		for round := 0; round < 7; round++ {
			mi := 0
			for _, g := range gSchedule {
				l.gFunc(g[0], g[1], g[2], g[3],
					stateWords+perm[mi], stateWords+perm[mi+1])
				mi += 2
			}
			var next [16]int
			for i := 0; i < 16; i++ {
				next[i] = perm[msgPermutation[i]]
			}
			perm = next
		}

		// Output: cv'_i = state_i ^ state_{i+8}, parked on the altstack.
		const tableBase = (stateWords + msgWords) * nibblesPerWord
		for i := 7; i >= 0; i-- {
			l.pickWord(i)
			l.pickWord(i + 8)
			l.xorWords(tableBase)
			b.ToAlt(nibblesPerWord)
			l.scratch -= nibblesPerWord
		}

		// Tear the frame and table down.
		b.DropN((stateWords + msgWords) * nibblesPerWord)
		dropXorTable(b)

		if blk != blocks-1 {
			// Keep the cv on the altstack for the next block; it sits
			// above the remaining stream, which is exactly where the
			// next iteration reads it.
			b.FromAlt(8 * nibblesPerWord)
			b.ToAlt(8 * nibblesPerWord)
		}
	}

	// Final cv words 0..4 on the altstack carry the 20 committed bytes.
	// Assemble the canonical 64-nibble image: 24 zeros, then the digest
	// nibbles in big-endian byte order; each word contributes its bytes
	// little endian.
	b.FromAlt(8 * nibblesPerWord)
	// Drop words 5..7: the top of the restored region is word 0's MS
	// nibble region; words are in frame order with word 7 deepest.
	for w := 0; w < 3; w++ {
		b.DropN(nibblesPerWord)
	}
	b.ToAlt(5 * nibblesPerWord)

	b.OpN(NibbleLen-ActiveNibbles, txscript.OP_0)
	for w := 0; w < 5; w++ {
		b.FromAlt(nibblesPerWord)
		// Word arrives MS-first; its serialized bytes are little endian:
		// emit hi0 lo0 hi1 lo1 hi2 lo2 hi3 lo3 from nibbles n1 n0 n3 n2...
		for byteIdx := 0; byteIdx < 4; byteIdx++ {
			b.RollN(nibblesPerWord - 1 - 2*byteIdx)
			b.RollN(nibblesPerWord - 1 - 2*byteIdx)
		}
	}
}
