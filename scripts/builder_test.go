package scripts

import (
	"testing"

	"github.com/btcsuite/btcd/txscript"
	"github.com/stretchr/testify/require"
)

func TestNumEncoding(t *testing.T) {
	b := NewBuilder()
	b.Num(0).Num(1).Num(16).Num(-1).Num(17).Num(1 << 30)
	scr := b.Done()

	disasm, err := scr.Disasm()
	require.NoError(t, err)
	require.Contains(t, disasm, "0")
	// The one-line disassembler renders OP_1NEGATE as -1.
	require.Contains(t, disasm, "-1")
}

func TestLargePushesSkipTheLegacyCap(t *testing.T) {
	// The whole point of the local builder: scripts beyond 10k bytes.
	b := NewBuilder()
	payload := make([]byte, 1<<16)
	b.Data(payload)
	b.Data(payload[:300])
	scr := b.Done()
	require.Greater(t, scr.Size(), 1<<16)
	require.Equal(t, byte(txscript.OP_PUSHDATA4), scr[0])
}

func TestExecuteSimpleScript(t *testing.T) {
	b := NewBuilder()
	b.Op(txscript.OP_ADD)
	b.Num(123).Op(txscript.OP_NUMEQUAL)
	err := Execute(b.Done(), [][]byte{WitnessNum(100), WitnessNum(23)})
	require.NoError(t, err)

	err = Execute(b.Done(), [][]byte{WitnessNum(100), WitnessNum(24)})
	require.Error(t, err)
}

func TestStackHelpers(t *testing.T) {
	b := NewBuilder()
	// [1 2 3] -> roll the deepest to the top -> [2 3 1]; pick depth 2
	// copies the now-deepest 2.
	b.Num(1).Num(2).Num(3)
	b.RollN(2)
	b.Pick(2)
	b.Num(2).Op(txscript.OP_NUMEQUALVERIFY)
	b.Num(1).Op(txscript.OP_NUMEQUALVERIFY)
	b.Op(txscript.OP_2DROP)
	b.Num(1)
	require.NoError(t, Execute(b.Done(), nil))
}
