package bridge

import (
	"crypto/sha256"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/trie"
	"github.com/stretchr/testify/require"
)

var testContract = common.HexToAddress("0x4A679253410272dd5232B3Ff7cF5dbB88f295319")

func testEvent() PegOutEvent {
	var e PegOutEvent
	for i := range e.BtcTxID {
		e.BtcTxID[i] = byte(i + 1)
	}
	e.Vout = 1
	e.AmountSats = 150_000_000
	for i := range e.Recipient {
		e.Recipient[i] = byte(0xa0 + i)
	}
	return e
}

func encodeEventData(e PegOutEvent) []byte {
	data := make([]byte, 4*32)
	copy(data[0:32], e.BtcTxID[:])
	data[63] = byte(e.Vout)
	big.NewInt(int64(e.AmountSats)).FillBytes(data[64:96])
	copy(data[96:116], e.Recipient[:])
	return data
}

func testReceipts(e PegOutEvent) types.Receipts {
	ok := types.NewReceipt(nil, false, 21000)
	ok.Logs = []*types.Log{{
		Address: testContract,
		Topics:  []common.Hash{PegOutTopic},
		Data:    encodeEventData(e),
	}}
	other := types.NewReceipt(nil, false, 42000)
	return types.Receipts{other, ok}
}

func TestCommitmentMatchesCircuitFold(t *testing.T) {
	e := testEvent()
	pre := e.Preimage()
	digest := sha256.Sum256(pre[:])

	want := new(big.Int).SetBytes(digest[:31])
	got := e.Commitment()
	require.Zero(t, want.Cmp(got.BigInt(new(big.Int))))
}

func TestExtractPegOutRoundTrip(t *testing.T) {
	e := testEvent()
	receipts := testReceipts(e)

	got, err := ExtractPegOut(receipts[1], testContract)
	require.NoError(t, err)
	require.Equal(t, e, got)

	_, err = ExtractPegOut(receipts[0], testContract)
	require.ErrorIs(t, err, ErrNoPegOutEvent)

	// Wrong contract address must not match.
	_, err = ExtractPegOut(receipts[1], common.HexToAddress("0x01"))
	require.ErrorIs(t, err, ErrNoPegOutEvent)
}

func TestPublicInputsVerifiesRoot(t *testing.T) {
	e := testEvent()
	receipts := testReceipts(e)
	root := types.DeriveSha(receipts, trie.NewStackTrie(nil))

	pubs, err := PublicInputs(receipts, root, 1, testContract)
	require.NoError(t, err)
	require.Len(t, pubs, 1)
	want := e.Commitment()
	require.True(t, pubs[0].Equal(&want))

	// A corrupted receipt set fails the root check.
	receipts[0].CumulativeGasUsed++
	_, err = PublicInputs(receipts, root, 1, testContract)
	require.ErrorIs(t, err, ErrReceiptsRoot)
}

func TestDecodeRejectsMalformedData(t *testing.T) {
	e := testEvent()
	data := encodeEventData(e)

	_, err := decodePegOutData(data[:100])
	require.ErrorIs(t, err, ErrMalformedPegOut)

	data[40] = 0xff // vout padding
	_, err = decodePegOutData(data)
	require.ErrorIs(t, err, ErrMalformedPegOut)
}
