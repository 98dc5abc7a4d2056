// Package bridge derives the Groth16 public input from an Ethereum-side
// peg-out event: the event is located in a transaction receipt, checked
// against the block's receipts root, and folded into the single field
// element the peg-out circuit exposes.
package bridge

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"

	fr "github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/trie"
)

// PegOutEventSig is the solidity event the bridge contract emits when an
// operator claims a withdrawal.
const PegOutEventSig = "PegOutInitiated(bytes32,uint32,uint64,bytes20)"

var (
	// PegOutTopic is the keccak topic of PegOutEventSig.
	PegOutTopic = crypto.Keccak256Hash([]byte(PegOutEventSig))

	ErrNoPegOutEvent   = errors.New("bridge: receipt carries no peg-out event")
	ErrReceiptsRoot    = errors.New("bridge: receipts do not hash to the header root")
	ErrMalformedPegOut = errors.New("bridge: malformed peg-out event data")
)

// PegOutEvent is the withdrawal the operator claims to have paid on the
// Bitcoin side.
type PegOutEvent struct {
	BtcTxID    [32]byte
	Vout       uint32
	AmountSats uint64
	// Recipient is the hash160 of the payout script.
	Recipient [20]byte
}

// Preimage serializes the event for the peg-out circuit.
func (e PegOutEvent) Preimage() [64]byte {
	var out [64]byte
	copy(out[:32], e.BtcTxID[:])
	binary.BigEndian.PutUint32(out[32:36], e.Vout)
	binary.BigEndian.PutUint64(out[36:44], e.AmountSats)
	copy(out[44:64], e.Recipient[:])
	return out
}

// Commitment folds sha256 of the preimage into the circuit's public
// input: the first 31 digest bytes, big endian.
func (e PegOutEvent) Commitment() fr.Element {
	pre := e.Preimage()
	digest := sha256.Sum256(pre[:])
	var out fr.Element
	out.SetBytes(digest[:31])
	return out
}

// VerifyReceiptsRoot recomputes the receipts trie root and compares it to
// the header's.
func VerifyReceiptsRoot(receipts types.Receipts, root common.Hash) error {
	derived := types.DeriveSha(receipts, trie.NewStackTrie(nil))
	if derived != root {
		return fmt.Errorf("%w: derived %s want %s", ErrReceiptsRoot, derived, root)
	}
	return nil
}

// ExtractPegOut finds the peg-out event of the bridge contract in a
// receipt.
func ExtractPegOut(receipt *types.Receipt, contract common.Address) (PegOutEvent, error) {
	for _, lg := range receipt.Logs {
		if lg.Address != contract || len(lg.Topics) == 0 || lg.Topics[0] != PegOutTopic {
			continue
		}
		return decodePegOutData(lg.Data)
	}
	return PegOutEvent{}, ErrNoPegOutEvent
}

// decodePegOutData parses the ABI-encoded event payload: four static
// words.
func decodePegOutData(data []byte) (PegOutEvent, error) {
	if len(data) != 4*32 {
		return PegOutEvent{}, fmt.Errorf("%w: %d data bytes", ErrMalformedPegOut, len(data))
	}
	var e PegOutEvent
	copy(e.BtcTxID[:], data[0:32])

	if !bytes.Equal(data[32:60], make([]byte, 28)) {
		return PegOutEvent{}, fmt.Errorf("%w: vout overflows", ErrMalformedPegOut)
	}
	e.Vout = binary.BigEndian.Uint32(data[60:64])

	if !bytes.Equal(data[64:88], make([]byte, 24)) {
		return PegOutEvent{}, fmt.Errorf("%w: amount overflows", ErrMalformedPegOut)
	}
	e.AmountSats = binary.BigEndian.Uint64(data[88:96])

	copy(e.Recipient[:], data[96:116])
	if !bytes.Equal(data[116:128], make([]byte, 12)) {
		return PegOutEvent{}, fmt.Errorf("%w: recipient padding", ErrMalformedPegOut)
	}
	return e, nil
}

// PublicInputs bundles the verified peg-out into the scalar vector the
// chunked verifier consumes.
func PublicInputs(receipts types.Receipts, receiptsRoot common.Hash, txIndex int, contract common.Address) ([]fr.Element, error) {
	if err := VerifyReceiptsRoot(receipts, receiptsRoot); err != nil {
		return nil, err
	}
	if txIndex < 0 || txIndex >= len(receipts) {
		return nil, fmt.Errorf("bridge: receipt index %d out of range", txIndex)
	}
	ev, err := ExtractPegOut(receipts[txIndex], contract)
	if err != nil {
		return nil, err
	}
	return []fr.Element{ev.Commitment()}, nil
}
