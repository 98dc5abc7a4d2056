package chunk

import (
	"math/big"
	"os"
	"testing"

	bncurve "github.com/consensys/gnark-crypto/ecc/bn254"
	fr "github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/kysee/bitvm-bridge/groth16"
)

func testLogger() zerolog.Logger {
	return zerolog.New(os.Stderr).Level(zerolog.WarnLevel)
}

// testInstance synthesizes a valid Groth16 instance directly in the
// exponent: with alpha = a*G1, beta = b*G2, gamma = g*G2, delta = dl*G2,
// K = (k0, k1)*G1 and one public input ks, the pairing equation holds iff
// x*y = a*b + (k0 + ks*k1)*g + cs*dl for A = x*G1, B = y*G2, C = cs*G1.
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

	const (
		a, b   = 2, 3
		g, dl  = 5, 7
		k0, k1 = 4, 6
		ks     = 9
		cs     = 11
	)
	// x*y with y = 1.
	x := int64(a*b + (k0+ks*k1)*g + cs*dl)

	vk := groth16.VerifyingKey{
		Alpha: mulG1(a),
		Beta:  mulG2(b),
		Gamma: mulG2(g),
		Delta: mulG2(dl),
		K:     []bncurve.G1Affine{mulG1(k0), mulG1(k1)},
	}
	var pub fr.Element
	pub.SetUint64(ks)
	raw := groth16.RawProof{
		Proof: groth16.Proof{
			A: mulG1(x),
			B: mulG2(1),
			C: mulG1(cs),
		},
		Publics: []fr.Element{pub},
	}
	return vk, raw
}

func TestTestInstanceIsValid(t *testing.T) {
	vk, raw := testInstance(t)
	ok, err := groth16.ValidProof(vk, raw)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestSegmentEnumerationDeterministic(t *testing.T) {
	vk, _ := testInstance(t)
	prep, err := groth16.Prepare(vk)
	require.NoError(t, err)

	s1, err := GenerateSegments(prep, MockInput(1), testLogger())
	require.NoError(t, err)
	s2, err := GenerateSegments(prep, MockInput(1), testLogger())
	require.NoError(t, err)

	require.Equal(t, len(s1), len(s2))
	for i := range s1 {
		require.Equal(t, s1[i].Name, s2[i].Name)
		require.Equal(t, s1[i].Params, s2[i].Params)
		require.Equal(t, s1[i].ResultType, s2[i].ResultType)
	}
	// The chunking splits the verifier well past the coarse module count.
	require.Greater(t, len(s1), 500)
}

func TestSegmentWiringIsDAG(t *testing.T) {
	vk, _ := testInstance(t)
	prep, err := groth16.Prepare(vk)
	require.NoError(t, err)
	segs, err := GenerateSegments(prep, MockInput(1), testLogger())
	require.NoError(t, err)

	for _, s := range segs {
		for _, p := range s.Params {
			require.Less(t, p.ID, s.ID, "segment %s", s.Name)
		}
	}
	// The final verify and the standing input checks are all present.
	names := map[string]bool{}
	for _, s := range segs {
		if s.Type == FinalScript {
			names[s.Name] = true
		}
	}
	for _, want := range []string{
		"ChunkFinalVerify", "Verify_P2_On_Curve", "Verify_P4_On_Curve",
		"Verify_Q4_On_Twist", "Verify_C_Mul_CInv_Re", "Verify_C_Mul_CInv_Im",
		"Verify_Wi_Class",
	} {
		require.True(t, names[want], "missing final script %s", want)
	}
}

func TestRuntimeShapeMatchesMock(t *testing.T) {
	vk, raw := testInstance(t)
	prep, err := groth16.Prepare(vk)
	require.NoError(t, err)

	in, err := InputFromRawProof(vk, raw)
	require.NoError(t, err)

	mock, err := GenerateSegments(prep, MockInput(1), testLogger())
	require.NoError(t, err)
	run, err := GenerateSegments(prep, in, testLogger())
	require.NoError(t, err)

	require.Equal(t, len(mock), len(run))
	for i := range mock {
		require.Equal(t, mock[i].Name, run[i].Name)
	}
}

// The final accumulator of an honestly-witnessed valid proof must be one,
// i.e. zero in ratio form. This is the completeness heart of the scheme.
func TestDriverFinalAccumulatorIsOne(t *testing.T) {
	vk, raw := testInstance(t)
	prep, err := groth16.Prepare(vk)
	require.NoError(t, err)

	in, err := InputFromRawProof(vk, raw)
	require.NoError(t, err)
	require.False(t, in.C.IsOne(), "valid proof must get a real residue witness")

	segs, err := GenerateSegments(prep, in, testLogger())
	require.NoError(t, err)

	var final *Segment
	for i := range segs {
		if segs[i].Name == "ChunkFinalVerify" {
			final = &segs[i]
		}
	}
	require.NotNil(t, final)
	f := segs[final.Params[0].ID].Result.Fp6
	require.NotNil(t, f)
	require.True(t, f.IsZero(), "ratio image of F must vanish for a valid proof")
}

func TestNumTapsCounts(t *testing.T) {
	vk, _ := testInstance(t)
	counts, err := NumTaps(vk, testLogger())
	require.NoError(t, err)

	// 8 proof coordinates + 36 witness coefficients.
	require.Equal(t, 44, counts.NumU256)
	require.Equal(t, 1, counts.NumPubs)
	require.Greater(t, counts.NumHash, 400)
	require.Greater(t, counts.NumTaps, 400)
}

func TestHashShapeCacheShared(t *testing.T) {
	s1 := hashMessages([]ElementType{Fp6Type, Fp6Type})
	s2 := hashMessages([]ElementType{Fp6Type, Fp6Type})
	require.Equal(t, s1, s2)

	before := HashShapeCacheSize()
	_ = hashMessages([]ElementType{G1Type, FieldElemType})
	require.Equal(t, before+1, HashShapeCacheSize())
	// Raw types contribute nothing to the routine.
	require.Empty(t, hashMessages([]ElementType{FieldElemType, ScalarElemType}))
}

// Full tap-set materialization allocates on the order of the real disprove
// script set (hundreds of megabytes); opt in explicitly.
func TestGeneratePartialScript(t *testing.T) {
	if os.Getenv("BITVM_FULL_TAPSET") == "" {
		t.Skip("set BITVM_FULL_TAPSET=1 to materialize the full tap set")
	}
	vk, _ := testInstance(t)
	taps, err := GeneratePartialScript(vk, testLogger())
	require.NoError(t, err)

	counts, err := NumTaps(vk, testLogger())
	require.NoError(t, err)
	require.Len(t, taps, counts.NumTaps)
	for i, tap := range taps {
		require.NotEmpty(t, tap, "tap %d", i)
		require.LessOrEqual(t, tap.Size(), TapBudget, "tap %d", i)
	}
}

func TestValidateAssertionsRejectsBadShape(t *testing.T) {
	vk, _ := testInstance(t)
	_, err := ValidateAssertions(vk, Assertions{}, PublicKeys{}, nil, testLogger())
	require.Error(t, err)
}
