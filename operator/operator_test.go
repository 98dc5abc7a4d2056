package operator

import (
	"math/big"
	"os"
	"testing"

	bncurve "github.com/consensys/gnark-crypto/ecc/bn254"
	fr "github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/kysee/bitvm-bridge/chunk"
	"github.com/kysee/bitvm-bridge/groth16"
	"github.com/kysee/bitvm-bridge/scripts"
	"github.com/kysee/bitvm-bridge/sigs"
)

const testSeed = "5b1d9702fe0e9a2a6b5a2f3c4d5e6f708192a3b4c5d6e7f8091a2b3c4d5e6f70"

func testLogger() zerolog.Logger {
	return zerolog.New(os.Stderr).Level(zerolog.WarnLevel)
}

func testOperator(t *testing.T) *Operator {
	t.Helper()
	op, err := New(&Config{SeedHex: testSeed, NumPubs: 1}, testLogger())
	require.NoError(t, err)
	return op
}

// Same synthetic valid instance the chunk tests use: the pairing equation
// balances in the exponent.
func testInstance(t *testing.T) (groth16.VerifyingKey, groth16.RawProof) {
	t.Helper()
	_, _, g1, g2 := bncurve.Generators()
	mulG1 := func(k int64) bncurve.G1Affine {
		var p bncurve.G1Affine
		p.ScalarMultiplication(&g1, big.NewInt(k))
		return p
	}
	mulG2 := func(k int64) bncurve.G2Affine {
		var p bncurve.G2Affine
		p.ScalarMultiplication(&g2, big.NewInt(k))
		return p
	}
	vk := groth16.VerifyingKey{
		Alpha: mulG1(2), Beta: mulG2(3), Gamma: mulG2(5), Delta: mulG2(7),
		K: []bncurve.G1Affine{mulG1(4), mulG1(6)},
	}
	var pub fr.Element
	pub.SetUint64(9)
	raw := groth16.RawProof{
		Proof: groth16.Proof{
			A: mulG1(2*3 + (4+9*6)*5 + 11*7),
			B: mulG2(1),
			C: mulG1(11),
		},
		Publics: []fr.Element{pub},
	}
	return vk, raw
}

func dummyLocks(counts chunk.Counts) []scripts.Script {
	return make([]scripts.Script, counts.NumTaps)
}

func TestKeyDerivationDeterministic(t *testing.T) {
	op := testOperator(t)
	a := op.secretFor(classHash, 17)
	b := op.secretFor(classHash, 17)
	require.Equal(t, a, b)
	require.NotEqual(t, a, op.secretFor(classHash, 18))
	require.NotEqual(t, a, op.secretFor(classFieldElem, 17))
	require.Len(t, []byte(a), 20)
}

// Property 2: a valid proof yields a transcript nothing can disprove.
func TestValidProofProducesUndisprovableTranscript(t *testing.T) {
	vk, raw := testInstance(t)
	op := testOperator(t)

	counts, err := chunk.NumTaps(vk, testLogger())
	require.NoError(t, err)
	pks := op.PublicKeys(counts)

	assertions, err := op.SignAssertions(vk, raw)
	require.NoError(t, err)
	require.Len(t, assertions, counts.NumU256+counts.NumPubs+counts.NumHash)

	disprove, err := chunk.ValidateAssertions(vk, assertions, pks, dummyLocks(counts), testLogger())
	require.NoError(t, err)
	require.Nil(t, disprove)
}

func TestTranscriptFileRoundTrip(t *testing.T) {
	vk, raw := testInstance(t)
	op := testOperator(t)

	assertions, err := op.SignAssertions(vk, raw)
	require.NoError(t, err)

	path := t.TempDir() + "/assertions.json"
	require.NoError(t, SaveAssertions(path, assertions))

	back, err := LoadAssertions(path)
	require.NoError(t, err)
	require.Equal(t, len(assertions), len(back))
	for i := range assertions {
		require.Equal(t, assertions[i], back[i], "commitment %d", i)
	}

	_, err = LoadAssertions(path + ".missing")
	require.Error(t, err)
}

// Scenario B: a tampered proof element A produces a transcript the
// challenger can disprove.
func TestTamperedProofIsDisproved(t *testing.T) {
	vk, raw := testInstance(t)
	_, _, g1, _ := bncurve.Generators()
	raw.Proof.A.ScalarMultiplication(&g1, big.NewInt(987654321))

	op := testOperator(t)
	counts, err := chunk.NumTaps(vk, testLogger())
	require.NoError(t, err)
	pks := op.PublicKeys(counts)

	assertions, err := op.SignAssertions(vk, raw)
	require.NoError(t, err)

	disprove, err := chunk.ValidateAssertions(vk, assertions, pks, dummyLocks(counts), testLogger())
	require.NoError(t, err)
	require.NotNil(t, disprove)
	require.GreaterOrEqual(t, disprove.Index, 0)
	require.Less(t, disprove.Index, counts.NumTaps)
	require.NotEmpty(t, disprove.Witness)
}

// Scenario D: the underlying proof is fine, but the operator lies about
// one intermediate hash. The first-divergence rule must target a chunk
// whose inputs are consistent and whose output is not.
func TestCorruptIntermediateIsDisproved(t *testing.T) {
	vk, raw := testInstance(t)
	op := testOperator(t)

	counts, err := chunk.NumTaps(vk, testLogger())
	require.NoError(t, err)
	pks := op.PublicKeys(counts)

	assertions, err := op.SignAssertions(vk, raw)
	require.NoError(t, err)

	// Re-sign one hash commitment over a flipped digest; the one-time key
	// lets the operator sign anything, which is exactly the attack.
	hashBase := counts.NumU256 + counts.NumPubs
	target := hashBase + counts.NumHash/2
	ordinal := target - hashBase

	p := sigs.ParamsForMessage(20)
	sk := op.secretFor(classHash, ordinal)
	msg, err := sigs.RecoverMessage(p, sigs.GeneratePublicKey(p, sk), assertions[target])
	require.NoError(t, err)
	msg[0] ^= 0xff
	forged, err := sigs.Sign(p, sk, msg)
	require.NoError(t, err)
	assertions[target] = forged

	disprove, err := chunk.ValidateAssertions(vk, assertions, pks, dummyLocks(counts), testLogger())
	require.NoError(t, err)
	require.NotNil(t, disprove)
}
