// Package sigs implements the Winternitz one-time signatures that bind
// chunk inputs and outputs to the operator's assertion transcript.
//
// Digits are hex (LOG_D = 4); a message of n bytes signs as 2n digits plus
// a checksum group. The on-chain verifier rebuilds each digit's hash chain
// and leaves the verified message nibbles on the stack, most significant
// nibble deepest.
package sigs

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"

	"github.com/kysee/bitvm-bridge/scripts"
)

const (
	// LogD is the bit width of one signature digit.
	LogD = 4
	// D is the maximum digit value; every hash chain is D links long.
	D = 1<<LogD - 1
)

var (
	ErrDigitRange  = errors.New("sigs: signature digit out of range")
	ErrMessageSize = errors.New("sigs: message length does not match parameters")
)

// Parameters fixes the digit layout for one message length.
type Parameters struct {
	MsgDigits      int
	ChecksumDigits int
}

// ParamsForMessage returns the layout for an n-byte message.
func ParamsForMessage(msgBytes int) Parameters {
	msgDigits := 2 * msgBytes
	maxChecksum := msgDigits * D
	csDigits := 0
	for v := maxChecksum; v > 0; v >>= LogD {
		csDigits++
	}
	return Parameters{MsgDigits: msgDigits, ChecksumDigits: csDigits}
}

// TotalDigits is the number of signed digits including the checksum group.
func (p Parameters) TotalDigits() int { return p.MsgDigits + p.ChecksumDigits }

// SecretKey seeds the per-digit hash chains.
type SecretKey []byte

// PublicKey holds one 20-byte chain head per digit.
type PublicKey [][]byte

// digitSecret derives the chain bottom for one digit.
func digitSecret(sk SecretKey, digit int) []byte {
	buf := make([]byte, len(sk)+2)
	copy(buf, sk)
	binary.BigEndian.PutUint16(buf[len(sk):], uint16(digit))
	return btcutil.Hash160(buf)
}

func chain(start []byte, steps int) []byte {
	h := start
	for i := 0; i < steps; i++ {
		h = btcutil.Hash160(h)
	}
	return h
}

// GeneratePublicKey walks every chain to its head.
func GeneratePublicKey(p Parameters, sk SecretKey) PublicKey {
	pk := make(PublicKey, p.TotalDigits())
	for i := range pk {
		pk[i] = chain(digitSecret(sk, i), D)
	}
	return pk
}

// digits expands msg into signed digit order: message nibbles most
// significant first, then the checksum digits least significant first.
func digits(p Parameters, msg []byte) ([]int, error) {
	if 2*len(msg) != p.MsgDigits {
		return nil, fmt.Errorf("%w: have %d bytes, want %d", ErrMessageSize, len(msg), p.MsgDigits/2)
	}
	out := make([]int, 0, p.TotalDigits())
	for _, b := range msg {
		out = append(out, int(b>>4), int(b&0x0f))
	}
	checksum := 0
	for _, d := range out {
		checksum += D - d
	}
	for i := 0; i < p.ChecksumDigits; i++ {
		out = append(out, checksum&D)
		checksum >>= LogD
	}
	return out, nil
}

// Sign produces the witness items for msg: per digit, the chain preimage
// followed by the digit value, in push order.
func Sign(p Parameters, sk SecretKey, msg []byte) ([][]byte, error) {
	ds, err := digits(p, msg)
	if err != nil {
		return nil, err
	}
	witness := make([][]byte, 0, 2*len(ds))
	for i, d := range ds {
		witness = append(witness, chain(digitSecret(sk, i), D-d))
		witness = append(witness, scripts.WitnessNum(int64(d)))
	}
	return witness, nil
}

// RecoverMessage re-derives the signed message bytes from a witness,
// verifying every chain against pk. This is the off-chain mirror of the
// locking prefix, used when parsing an assertion transcript.
func RecoverMessage(p Parameters, pk PublicKey, witness [][]byte) ([]byte, error) {
	if len(witness) != 2*p.TotalDigits() {
		return nil, fmt.Errorf("%w: %d witness items", ErrMessageSize, len(witness))
	}
	ds := make([]int, p.TotalDigits())
	for i := 0; i < p.TotalDigits(); i++ {
		preimage := witness[2*i]
		dItem := witness[2*i+1]
		d := int64(0)
		if len(dItem) > 0 {
			if len(dItem) > 1 {
				return nil, ErrDigitRange
			}
			d = int64(dItem[0])
		}
		if d < 0 || d > D {
			return nil, ErrDigitRange
		}
		head := chain(preimage, int(d))
		if string(head) != string(pk[i]) {
			return nil, fmt.Errorf("sigs: digit %d chain does not reach the public key", i)
		}
		ds[i] = int(d)
	}
	// Checksum.
	sum := 0
	for _, d := range ds[:p.MsgDigits] {
		sum += D - d
	}
	claimed := 0
	for i := p.TotalDigits() - 1; i >= p.MsgDigits; i-- {
		claimed = claimed<<LogD | ds[i]
	}
	if sum != claimed {
		return nil, fmt.Errorf("sigs: checksum mismatch: %d != %d", sum, claimed)
	}
	msg := make([]byte, p.MsgDigits/2)
	for i := range msg {
		msg[i] = byte(ds[2*i]<<4 | ds[2*i+1])
	}
	return msg, nil
}

// CheckSigVerify emits the locking prefix for one committed message: every
// digit's chain is rebuilt and compared against pk, the checksum is
// re-derived, and the message nibbles remain on the stack, most
// significant deepest.
func CheckSigVerify(b *scripts.Builder, p Parameters, pk PublicKey) {
	// The witness pushes digit 0 deepest, so the top pair is the last
	// digit; each verified digit parks on the altstack.
	for i := p.TotalDigits() - 1; i >= 0; i-- {
		// [preimage digit]
		b.Op(txscript.OP_DUP)
		b.Op(txscript.OP_0).Num(int64(D + 1)).Op(txscript.OP_WITHIN)
		b.Op(txscript.OP_VERIFY)
		// Park the chain index D - digit; keep the digit.
		b.Op(txscript.OP_DUP)
		b.Num(D).Op(txscript.OP_SWAP).Op(txscript.OP_SUB)
		b.ToAlt(1)
		b.Op(txscript.OP_SWAP)
		// Unroll the chain: preimage, H(p), ..., H^D(p).
		for j := 0; j < D; j++ {
			b.Op(txscript.OP_DUP).Op(txscript.OP_HASH160)
		}
		b.FromAlt(1)
		b.Op(txscript.OP_PICK)
		b.Data(pk[i])
		b.Op(txscript.OP_EQUALVERIFY)
		b.DropN(D + 1)
		b.ToAlt(1)
	}
	// Restore the verified digits, digit 0 deepest.
	b.FromAlt(p.TotalDigits())

	// Fold the checksum digits, most significant first, into a claimed
	// value.
	b.Op(txscript.OP_0)
	for i := 0; i < p.ChecksumDigits; i++ {
		for k := 0; k < LogD; k++ {
			b.Op(txscript.OP_DUP).Op(txscript.OP_ADD)
		}
		b.Op(txscript.OP_ADD)
	}
	b.ToAlt(1)

	// Re-derive the checksum from the surviving message digits.
	b.Op(txscript.OP_0)
	for i := 0; i < p.MsgDigits; i++ {
		b.Pick(1 + i)
		b.Num(D).Op(txscript.OP_SWAP).Op(txscript.OP_SUB)
		b.Op(txscript.OP_ADD)
	}
	b.FromAlt(1)
	b.Op(txscript.OP_NUMEQUALVERIFY)
}
