package scripts

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// Execute runs a script fragment under the btcd engine with the given
// witness items pushed first, and reports whether execution ends with a
// clean true on the stack.
//
// The harness spends a synthetic prevout whose pkScript is the fragment;
// witness items become scriptSig pushes. It covers fragments within the
// legacy interpreter limits, which is what the unit tests exercise; full
// taps run under tapscript rules in the transaction layer, which is outside
// this module.
func Execute(script Script, witness [][]byte) error {
	sigScript := NewBuilder()
	for _, item := range witness {
		sigScript.Data(item)
	}

	prev := wire.NewMsgTx(wire.TxVersion)
	prev.AddTxIn(&wire.TxIn{
		PreviousOutPoint: wire.OutPoint{Hash: chainhash.Hash{}, Index: ^uint32(0)},
	})
	prev.AddTxOut(wire.NewTxOut(0, script))

	spend := wire.NewMsgTx(wire.TxVersion)
	spend.AddTxIn(&wire.TxIn{
		PreviousOutPoint: wire.OutPoint{Hash: prev.TxHash(), Index: 0},
		SignatureScript:  sigScript.Done(),
	})
	spend.AddTxOut(wire.NewTxOut(0, nil))

	fetcher := txscript.NewCannedPrevOutputFetcher(script, 0)
	vm, err := txscript.NewEngine(script, spend, 0, 0, nil, nil, 0, fetcher)
	if err != nil {
		return fmt.Errorf("new script engine: %w", err)
	}
	if err := vm.Execute(); err != nil {
		return fmt.Errorf("script execution: %w", err)
	}
	return nil
}

// WitnessNum encodes n the way the interpreter expects numeric stack
// inputs; zero is the canonical empty item.
func WitnessNum(n int64) []byte {
	b := scriptNumBytes(n)
	if b == nil {
		b = []byte{}
	}
	return b
}
