package sigs

import (
	"testing"

	"github.com/btcsuite/btcd/txscript"
	"github.com/stretchr/testify/require"

	"github.com/kysee/bitvm-bridge/scripts"
)

func TestParamsForMessage(t *testing.T) {
	p20 := ParamsForMessage(20)
	require.Equal(t, 40, p20.MsgDigits)
	require.Equal(t, 3, p20.ChecksumDigits)

	p32 := ParamsForMessage(32)
	require.Equal(t, 64, p32.MsgDigits)
	require.Equal(t, 3, p32.ChecksumDigits)
}

func TestSignRecoverRoundTrip(t *testing.T) {
	p := ParamsForMessage(20)
	sk := SecretKey("wots-test-secret-0001")
	pk := GeneratePublicKey(p, sk)

	msg := make([]byte, 20)
	for i := range msg {
		msg[i] = byte(i*13 + 7)
	}
	witness, err := Sign(p, sk, msg)
	require.NoError(t, err)
	require.Len(t, witness, 2*p.TotalDigits())

	got, err := RecoverMessage(p, pk, witness)
	require.NoError(t, err)
	require.Equal(t, msg, got)
}

func TestRecoverRejectsTamperedDigit(t *testing.T) {
	p := ParamsForMessage(20)
	sk := SecretKey("wots-test-secret-0002")
	pk := GeneratePublicKey(p, sk)

	msg := make([]byte, 20)
	msg[3] = 0xab
	witness, err := Sign(p, sk, msg)
	require.NoError(t, err)

	// Lowering a digit without re-signing breaks the chain equation; the
	// checksum blocks raising one elsewhere to compensate.
	witness[2*6+1] = scripts.WitnessNum(3)
	_, err = RecoverMessage(p, pk, witness)
	require.Error(t, err)
}

// A 0xf nibble immediately before the checksum boundary must reconstruct
// as 15, not wrap.
func TestDigitBoundaryWrap(t *testing.T) {
	p := ParamsForMessage(20)
	sk := SecretKey("wots-test-secret-0003")
	pk := GeneratePublicKey(p, sk)

	msg := make([]byte, 20)
	msg[19] = 0x0f
	witness, err := Sign(p, sk, msg)
	require.NoError(t, err)

	got, err := RecoverMessage(p, pk, witness)
	require.NoError(t, err)
	require.Equal(t, byte(0x0f), got[19])
	// The last message digit item itself must carry value 15.
	require.Equal(t, scripts.WitnessNum(15), witness[2*(p.MsgDigits-1)+1])
}

func TestCheckSigVerifyExecutesSingleByte(t *testing.T) {
	// One message byte with a single checksum digit keeps the fragment
	// inside the legacy interpreter's op budget; the message is chosen so
	// its checksum fits one digit.
	p := Parameters{MsgDigits: 2, ChecksumDigits: 1}
	sk := SecretKey("wots-test-secret-0004")
	pk := GeneratePublicKey(p, sk)

	b := scripts.NewBuilder()
	CheckSigVerify(b, p, pk)
	// Consume the two surviving nibbles so the script ends clean.
	b.Num(0x7).Op(txscript.OP_NUMEQUALVERIFY)
	b.Num(0xf).Op(txscript.OP_NUMEQUALVERIFY)
	b.Num(1)

	msg := []byte{0xf7}
	witness, err := Sign(p, sk, msg)
	require.NoError(t, err)
	require.NoError(t, scripts.Execute(b.Done(), witness))
}

func TestCheckSigVerifyScriptShape(t *testing.T) {
	p := ParamsForMessage(20)
	sk := SecretKey("wots-test-secret-0005")
	pk := GeneratePublicKey(p, sk)

	b := scripts.NewBuilder()
	CheckSigVerify(b, p, pk)
	scr := b.Done()
	require.NotEmpty(t, scr)
	require.Less(t, scr.Size(), 1<<15)
}
