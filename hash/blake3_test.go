package hash

import (
	"testing"

	fp "github.com/consensys/gnark-crypto/ecc/bn254/fp"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
	"github.com/zeebo/blake3"

	"github.com/kysee/bitvm-bridge/scripts"
)

func TestNibblePackingRoundTrip(t *testing.T) {
	var trunc [TruncLen]byte
	for i := range trunc {
		trunc[i] = byte(0x11 * (i % 15))
	}
	n := NibblesFromTrunc(trunc)
	require.True(t, n.IsPadded())
	require.Equal(t, trunc, n.TruncBytes())
}

func TestHashFqsMatchesRawBlake3(t *testing.T) {
	var a, b fp.Element
	a.SetUint64(1)
	b.SetUint64(2)

	ab := a.Bytes()
	bb := b.Bytes()
	want := blake3.Sum256(append(ab[:], bb[:]...))

	got := HashFqs([]fp.Element{a, b}).TruncBytes()
	require.Equal(t, want[:TruncLen], got[:])
}

// A sequence of 14 field elements set to one spans several compression
// blocks; pin its digest plumbing.
func TestHashFqsFourteenOnes(t *testing.T) {
	elems := make([]fp.Element, 14)
	buf := make([]byte, 0, 14*32)
	for i := range elems {
		elems[i].SetOne()
		eb := elems[i].Bytes()
		buf = append(buf, eb[:]...)
	}
	want := blake3.Sum256(buf)

	n := HashFqs(elems)
	require.True(t, n.IsPadded())
	got := n.TruncBytes()
	require.Equal(t, want[:TruncLen], got[:])
}

func TestHashU256AndBlocksDiffer(t *testing.T) {
	v := uint256.NewInt(42)
	h1 := HashU256(v)
	h2 := HashU256(uint256.NewInt(43))
	require.NotEqual(t, h1, h2)

	hb := HashNibbleBlocks([]Nibbles{h1, h2})
	require.True(t, hb.IsPadded())
	require.NotEqual(t, h1, hb)
}

func TestGenBlake3Shape(t *testing.T) {
	for _, n := range []int{64, 128, 160, 192, 448, 576, 896} {
		b := scripts.NewBuilder()
		GenBlake3(b, n)
		scr := b.Done()
		require.NotEmpty(t, scr)
		// Each additional block adds a full compression; even the largest
		// preimage must stay well inside a tap.
		require.Less(t, scr.Size(), 3<<20, "len %d", n)
	}
	require.Panics(t, func() {
		GenBlake3(scripts.NewBuilder(), 80)
	})
}
