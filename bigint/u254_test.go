package bigint

import (
	"testing"

	"github.com/btcsuite/btcd/txscript"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/kysee/bitvm-bridge/scripts"
)

func TestLimbRoundTrip(t *testing.T) {
	vals := []string{
		"0x0",
		"0x1",
		"0x30644e72e131a029b85045b68181585d97816a916871ca8d3c208c16d87cfd47",
		"0x2a3c5f7e9b1d4a6c8e0f2b4d6a8c0e1f3b5d7a9c1e3f5b7d9a1c3e5f7b9d1a3c",
	}
	for _, s := range vals {
		v, err := uint256.FromHex(s)
		require.NoError(t, err)
		limbs := ToLimbs(v)
		for _, l := range limbs {
			require.Less(t, l, uint32(LimbCap))
		}
		require.Equal(t, v, FromLimbs(limbs))
	}
}

func TestNibbleRoundTrip(t *testing.T) {
	v, err := uint256.FromHex("0x123456789abcdef0fedcba9876543210aabbccddeeff00112233445566778899")
	require.NoError(t, err)
	nibs := ToNibbles(v)
	require.Equal(t, byte(0x1), nibs[0])
	require.Equal(t, byte(0x2), nibs[1])
	require.Equal(t, byte(0x9), nibs[63])
	require.Equal(t, v, FromNibbles(nibs))
}

func TestNAFReconstructs(t *testing.T) {
	for _, s := range []string{"0x1", "0xff", "0xdeadbeef", "0x30644e72e131a029"} {
		v, err := uint256.FromHex(s)
		require.NoError(t, err)
		naf := nafDigits(v)
		acc := uint256.NewInt(0)
		for i := len(naf) - 1; i >= 0; i-- {
			acc.Add(acc, acc)
			switch naf[i] {
			case 1:
				acc.Add(acc, uint256.NewInt(1))
			case -1:
				acc.Sub(acc, uint256.NewInt(1))
			}
		}
		require.Equal(t, v, acc)
		// Non-adjacency: no two consecutive non-zero digits.
		for i := 1; i < len(naf); i++ {
			if naf[i] != 0 {
				require.Zero(t, naf[i-1])
			}
		}
	}
}

func TestU30AddCarryExecutes(t *testing.T) {
	cases := []struct {
		a, b       int64
		carry, sum int64
	}{
		{0, 0, 0, 0},
		{1, 2, 0, 3},
		{LimbCap - 1, 1, 1, 0},
		{LimbCap - 1, LimbCap - 1, 1, LimbCap - 2},
	}
	for _, tc := range cases {
		b := scripts.NewBuilder()
		U30AddCarry(b)
		// Expect [2^30 carry sum]; verify and clean up to a single true.
		b.Num(tc.sum).Op(txscript.OP_EQUALVERIFY)
		b.Num(tc.carry).Op(txscript.OP_EQUALVERIFY)
		b.Num(LimbCap).Op(txscript.OP_EQUAL)
		err := scripts.Execute(b.Done(), [][]byte{
			scripts.WitnessNum(LimbCap),
			scripts.WitnessNum(tc.a),
			scripts.WitnessNum(tc.b),
		})
		require.NoError(t, err, "a=%d b=%d", tc.a, tc.b)
	}
}

func TestAddModScriptShape(t *testing.T) {
	m, err := uint256.FromHex("0x30644e72e131a029b85045b68181585d97816a916871ca8d3c208c16d87cfd47")
	require.NoError(t, err)
	b := scripts.NewBuilder()
	AddMod(b, m)
	scr := b.Done()
	require.NotEmpty(t, scr)
	// A single modular addition must stay far inside the tap budget.
	require.Less(t, scr.Size(), 1<<16)
}
