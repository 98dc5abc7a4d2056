package operator

import (
	"encoding/binary"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/zeebo/blake3"

	"github.com/kysee/bitvm-bridge/chunk"
	"github.com/kysee/bitvm-bridge/groth16"
	"github.com/kysee/bitvm-bridge/hash"
	"github.com/kysee/bitvm-bridge/sigs"
	"github.com/kysee/bitvm-bridge/types"
)

// Operator signs assertion transcripts with one-time keys derived from a
// single seed.
type Operator struct {
	seed [32]byte
	log  zerolog.Logger
}

// New parses the configured seed.
func New(cfg *Config, log zerolog.Logger) (*Operator, error) {
	raw, err := types.HexToBytes(cfg.SeedHex)
	if err != nil {
		return nil, fmt.Errorf("operator: decoding seed: %w", err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("operator: seed must be 32 bytes, got %d", len(raw))
	}
	op := &Operator{log: log}
	copy(op.seed[:], raw)
	return op, nil
}

// secretFor derives the Winternitz secret of one commitment slot. The
// derivation is keyed Blake3 over the slot coordinates, so knowledge of
// one revealed chain never walks to a sibling.
func (o *Operator) secretFor(class byte, ordinal int) sigs.SecretKey {
	var msg [8]byte
	msg[0] = class
	binary.BigEndian.PutUint32(msg[1:5], uint32(ordinal))
	h := blake3.New()
	_, _ = h.Write(o.seed[:])
	_, _ = h.Write(msg[:])
	sum := h.Sum(nil)
	return sigs.SecretKey(sum[:20])
}

const (
	classFieldElem byte = 1
	classScalar    byte = 2
	classHash      byte = 3
)

// PublicKeys derives the full commitment key tuple for a key's counts.
func (o *Operator) PublicKeys(counts chunk.Counts) chunk.PublicKeys {
	fieldParams := sigs.ParamsForMessage(32)
	hashParams := sigs.ParamsForMessage(hash.TruncLen)

	pks := chunk.PublicKeys{}
	for i := 0; i < counts.NumU256; i++ {
		pks.FieldElemKeys = append(pks.FieldElemKeys,
			sigs.GeneratePublicKey(fieldParams, o.secretFor(classFieldElem, i)))
	}
	for i := 0; i < counts.NumPubs; i++ {
		pks.ScalarElemKeys = append(pks.ScalarElemKeys,
			sigs.GeneratePublicKey(fieldParams, o.secretFor(classScalar, i)))
	}
	for i := 0; i < counts.NumHash; i++ {
		pks.HashKeys = append(pks.HashKeys,
			sigs.GeneratePublicKey(hashParams, o.secretFor(classHash, i)))
	}
	return pks
}

// SignAssertions runs the verifier driver over the proof and signs every
// committed state in commitment order. This is the payload of the
// assert-commit transactions.
func (o *Operator) SignAssertions(vk groth16.VerifyingKey, raw groth16.RawProof) (chunk.Assertions, error) {
	in, err := chunk.InputFromRawProof(vk, raw)
	if err != nil {
		return nil, err
	}
	states, counts, err := chunk.SerializedStates(vk, in, o.log)
	if err != nil {
		return nil, err
	}

	fieldParams := sigs.ParamsForMessage(32)
	hashParams := sigs.ParamsForMessage(hash.TruncLen)

	out := make(chunk.Assertions, len(states))
	for idx, msg := range states {
		var sk sigs.SecretKey
		var p sigs.Parameters
		switch {
		case idx < counts.NumU256:
			sk = o.secretFor(classFieldElem, idx)
			p = fieldParams
		case idx < counts.NumU256+counts.NumPubs:
			sk = o.secretFor(classScalar, idx-counts.NumU256)
			p = fieldParams
		default:
			sk = o.secretFor(classHash, idx-counts.NumU256-counts.NumPubs)
			p = hashParams
		}
		w, err := sigs.Sign(p, sk, msg)
		if err != nil {
			return nil, fmt.Errorf("operator: signing commitment %d: %w", idx, err)
		}
		out[idx] = w
	}
	o.log.Info().Int("commitments", len(out)).Msg("assertion transcript signed")
	return out, nil
}
