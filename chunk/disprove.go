package chunk

import (
	"fmt"

	fp "github.com/consensys/gnark-crypto/ecc/bn254/fp"
	fr "github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/rs/zerolog"

	"github.com/kysee/bitvm-bridge/bn254"
	"github.com/kysee/bitvm-bridge/groth16"
	"github.com/kysee/bitvm-bridge/scripts"
	"github.com/kysee/bitvm-bridge/sigs"
)

// Assertions is the operator's transcript: one Winternitz witness per
// commitment id, in segment traversal order over committing segments.
type Assertions [][][]byte

// Disprove names the tap to spend and the witness that satisfies it.
type Disprove struct {
	// Index is the position in the locking-script array.
	Index int
	// Witness is the full stack witness in push order: the operator's
	// signatures for the chunk's parameters, last parameter first, then
	// the output's, which lands on top where the prefix checks it first.
	Witness [][]byte
}

// ValidateAssertions replays the operator's transcript against the local
// reference execution and returns the first-divergence disprove, a
// FinalScript disprove for a consistent-but-invalid transcript, or nil
// when the underlying proof is valid.
func ValidateAssertions(
	vk groth16.VerifyingKey,
	assertions Assertions,
	pks PublicKeys,
	lockingScripts []scripts.Script,
	log zerolog.Logger,
) (*Disprove, error) {
	prep, err := groth16.Prepare(vk)
	if err != nil {
		return nil, err
	}

	// Shape and key layout come from the mock walk; values come from the
	// transcript.
	mockSegs, err := GenerateSegments(prep, MockInput(prep.NumPublics()), log)
	if err != nil {
		return nil, err
	}
	l := layoutFromSegments(mockSegs)

	transcript, err := parseTranscript(mockSegs, l, pks, assertions)
	if err != nil {
		return nil, err
	}

	in, err := inputFromTranscript(mockSegs, transcript, prep.NumPublics())
	if err != nil {
		return nil, err
	}

	segs, err := GenerateSegments(prep, in, log)
	if err != nil {
		return nil, err
	}
	if len(segs) != len(mockSegs) {
		return nil, fmt.Errorf("chunk: runtime produced %d segments against %d at compile time", len(segs), len(mockSegs))
	}

	// Tap index per segment id.
	tapIdx := make([]int, len(segs))
	n := 0
	for i, s := range segs {
		tapIdx[i] = -1
		if s.Type.EmitsTap() {
			tapIdx[i] = n
			n++
		}
	}
	if len(lockingScripts) != n {
		return nil, fmt.Errorf("chunk: %d locking scripts for %d taps", len(lockingScripts), n)
	}

	// First divergence: parameters agree with the transcript, output does
	// not.
	local := make([]CompressedStateObject, len(segs))
	for i, s := range segs {
		if s.Type == FinalScript {
			continue
		}
		st, err := segs[i].OutputState()
		if err != nil {
			return nil, err
		}
		local[i] = st
	}

	for i, s := range segs {
		if s.Type == FinalScript || s.Type == NonDeterministic {
			continue
		}
		if local[i].Equal(transcript[i]) {
			continue
		}
		paramsOK := true
		for _, p := range s.Params {
			if !localMatchesTranscript(segs, local, transcript, p.ID) {
				paramsOK = false
				break
			}
		}
		if !paramsOK {
			continue
		}
		w := disproveWitness(assertions, l, s, true)
		log.Info().Int("segment", i).Str("name", s.Name).Msg("divergent chunk found")
		return &Disprove{Index: tapIdx[i], Witness: w}, nil
	}

	// The transcript is internally consistent; a valid proof leaves
	// nothing to disprove.
	raw := groth16.RawProof{
		Proof: groth16.Proof{
			A: in.P4,
			B: in.Q4.ToAffine(),
			C: in.P2,
		},
		Publics: in.Ks,
	}
	if ok, err := groth16.ValidProof(vk, raw); err != nil {
		return nil, err
	} else if ok {
		return nil, nil
	}

	// Internally consistent transcript over an invalid proof: one of the
	// standing FinalScripts must fire.
	for i, s := range segs {
		if s.Type != FinalScript {
			continue
		}
		violated, err := finalConditionViolated(s, segs, in)
		if err != nil {
			return nil, err
		}
		if violated {
			w := disproveWitness(assertions, l, s, false)
			log.Info().Int("segment", i).Str("name", s.Name).Msg("final check fires")
			return &Disprove{Index: tapIdx[i], Witness: w}, nil
		}
	}

	return nil, fmt.Errorf("chunk: invalid proof with no firing chunk; transcript corrupt")
}

// localMatchesTranscript compares a producer's local value with its
// committed image; NonDeterministic producers are the transcript.
func localMatchesTranscript(segs []Segment, local []CompressedStateObject, transcript []CompressedStateObject, id int) bool {
	if segs[id].Type == NonDeterministic {
		return true
	}
	return local[id].Equal(transcript[id])
}

// disproveWitness assembles the spending witness: the operator's own
// signatures for the chunk's output (non-final only) and every parameter.
// The prefix consumes them from the top in id order, so they are pushed
// in reverse: parameters last to first, then the output.
func disproveWitness(assertions Assertions, l keyLayout, s Segment, withOutput bool) [][]byte {
	var w [][]byte
	for i := len(s.Params) - 1; i >= 0; i-- {
		w = append(w, assertions[commitmentIndex(l, s.Params[i].ID)]...)
	}
	if withOutput {
		w = append(w, assertions[commitmentIndex(l, s.ID)]...)
	}
	return w
}

// commitmentIndex flattens (class, ordinal) into the assertion array
// order: field keys, then scalar keys, then hash keys.
func commitmentIndex(l keyLayout, id int) int {
	switch l.class[id] {
	case classField:
		return l.ordinal[id]
	case classScalar:
		return l.counts.NumU256 + l.ordinal[id]
	default:
		return l.counts.NumU256 + l.counts.NumPubs + l.ordinal[id]
	}
}

// parseTranscript verifies every Winternitz witness and decodes the
// committed state objects, indexed by segment id.
func parseTranscript(segs []Segment, l keyLayout, pks PublicKeys, assertions Assertions) ([]CompressedStateObject, error) {
	want := l.counts.NumU256 + l.counts.NumPubs + l.counts.NumHash
	if len(assertions) != want {
		return nil, fmt.Errorf("chunk: %d assertion witnesses, want %d", len(assertions), want)
	}
	out := make([]CompressedStateObject, len(segs))
	for id, s := range segs {
		if s.Type == FinalScript {
			continue
		}
		pk, err := l.key(pks, id)
		if err != nil {
			return nil, err
		}
		p := l.params(id)
		msg, err := sigs.RecoverMessage(p, pk, assertions[commitmentIndex(l, id)])
		if err != nil {
			return nil, fmt.Errorf("chunk: commitment %d (%s): %w", id, s.Name, err)
		}
		st, err := DeserializeState(msg)
		if err != nil {
			return nil, err
		}
		out[id] = st
	}
	return out, nil
}

// inputFromTranscript rebuilds the operator's proof tuple from the raw
// commitments of the NonDeterministic input segments.
func inputFromTranscript(segs []Segment, transcript []CompressedStateObject, numPubs int) (InputProof, error) {
	var in InputProof
	fqAt := func(name string) (fpOut fp.Element, err error) {
		for id, s := range segs {
			if s.Name == name {
				if transcript[id].U256 == nil {
					return fpOut, fmt.Errorf("chunk: %s committed as a hash", name)
				}
				return bn254.FqFromU256(transcript[id].U256), nil
			}
		}
		return fpOut, fmt.Errorf("chunk: input segment %q missing", name)
	}

	var err error
	if in.P2.X, err = fqAt("GrothP2x"); err != nil {
		return in, err
	}
	if in.P2.Y, err = fqAt("GrothP2y"); err != nil {
		return in, err
	}
	if in.P4.X, err = fqAt("GrothP4x"); err != nil {
		return in, err
	}
	if in.P4.Y, err = fqAt("GrothP4y"); err != nil {
		return in, err
	}
	if in.Q4.X.C0, err = fqAt("GrothQ4x0"); err != nil {
		return in, err
	}
	if in.Q4.X.C1, err = fqAt("GrothQ4x1"); err != nil {
		return in, err
	}
	if in.Q4.Y.C0, err = fqAt("GrothQ4y0"); err != nil {
		return in, err
	}
	if in.Q4.Y.C1, err = fqAt("GrothQ4y1"); err != nil {
		return in, err
	}

	var cCoeffs, cInvCoeffs, wCoeffs [12]fp.Element
	for i := 0; i < 12; i++ {
		if cCoeffs[i], err = fqAt(fmt.Sprintf("GrothC_%d", i)); err != nil {
			return in, err
		}
		if cInvCoeffs[i], err = fqAt(fmt.Sprintf("GrothCInv_%d", i)); err != nil {
			return in, err
		}
		if wCoeffs[i], err = fqAt(fmt.Sprintf("GrothWi_%d", i)); err != nil {
			return in, err
		}
	}
	in.C = fq12FromCoeffs(cCoeffs)
	in.CInv = fq12FromCoeffs(cInvCoeffs)
	in.Wi = fq12FromCoeffs(wCoeffs)

	in.Ks = make([]fr.Element, numPubs)
	for i := 0; i < numPubs; i++ {
		name := fmt.Sprintf("GrothPubs_%d", i)
		found := false
		for id, s := range segs {
			if s.Name == name {
				if transcript[id].U256 == nil {
					return in, fmt.Errorf("chunk: %s committed as a hash", name)
				}
				in.Ks[i].SetBigInt(transcript[id].U256.ToBig())
				found = true
				break
			}
		}
		if !found {
			return in, fmt.Errorf("chunk: input segment %q missing", name)
		}
	}
	return in, nil
}

func fq12FromCoeffs(c [12]fp.Element) bn254.Fq12 {
	var z bn254.Fq12
	z.C0 = bn254.Fq6FromCoeffs(c[:6])
	z.C1 = bn254.Fq6FromCoeffs(c[6:])
	return z
}

// finalConditionViolated evaluates a FinalScript's relation off-chain.
func finalConditionViolated(s Segment, segs []Segment, in InputProof) (bool, error) {
	switch s.Name {
	case "Verify_P2_On_Curve":
		return !in.P2.IsOnCurve(), nil
	case "Verify_P4_On_Curve":
		return !in.P4.IsOnCurve(), nil
	case "Verify_Q4_On_Twist":
		return !in.Q4.IsOnTwist(), nil
	case "Verify_Fq6_On_Field_C", "Verify_Fq6_On_Field_CInv":
		// Transcript values decode through the field reduction, so the
		// raw range check happens at parse time; nothing further fires
		// here.
		return false, nil
	case "Verify_C_Mul_CInv_Re":
		prod := in.C.Mul(in.CInv)
		return !prod.C0.IsOne(), nil
	case "Verify_C_Mul_CInv_Im":
		prod := in.C.Mul(in.CInv)
		return !prod.C1.IsZero(), nil
	case "Verify_Wi_Class":
		cands, err := groth16.WiCandidates()
		if err != nil {
			return false, err
		}
		for _, cand := range cands {
			if in.Wi.Equal(cand) {
				return false, nil
			}
		}
		return true, nil
	case "ChunkFinalVerify":
		// The final accumulator is the last Fp6 parameter's local value.
		if len(s.Params) != 1 {
			return false, fmt.Errorf("chunk: malformed final verify wiring")
		}
		f := segs[s.Params[0].ID].Result.Fp6
		if f == nil {
			return false, fmt.Errorf("chunk: final verify parameter is not Fp6")
		}
		return !f.IsZero(), nil
	}
	return false, fmt.Errorf("chunk: unknown final script %q", s.Name)
}
